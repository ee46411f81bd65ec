package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Scrobble server base URL
	ScrobbleAPI string

	// Spotify API base URL
	SpotifyAPI string

	// User ids whose listening history is followed
	Users []string

	// Poll interval for the watch command (in seconds)
	PollInterval int

	// Path to the metadata mirror database
	DBPath string

	// Output format template for watch/history lines
	// Default: "{{.Username}}: {{.Artist}} - {{.Track}}"
	OutputFormat string

	// Fixed output width in display columns (0 disables padding)
	OutputWidth int
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Set defaults
	v.SetDefault("spotify_api", "https://api.spotify.com/v1")
	v.SetDefault("poll_interval", 30)
	v.SetDefault("db_path", filepath.Join(configDir, "mirror.db"))
	v.SetDefault("output_format", "{{.Username}}: {{.Artist}} - {{.Track}}")
	v.SetDefault("output_width", 0)

	// Read config file (optional - don't fail if missing)
	_ = v.ReadInConfig()

	// Read from environment variables
	v.SetEnvPrefix("EARSHOT")
	v.AutomaticEnv()

	// Map config to struct
	cfg := &Config{
		ScrobbleAPI:  v.GetString("scrobble_api"),
		SpotifyAPI:   v.GetString("spotify_api"),
		Users:        v.GetStringSlice("users"),
		PollInterval: v.GetInt("poll_interval"),
		DBPath:       v.GetString("db_path"),
		OutputFormat: v.GetString("output_format"),
		OutputWidth:  v.GetInt("output_width"),
	}

	return cfg, nil
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "earshot")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}
