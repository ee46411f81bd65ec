package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/earshot-fm/earshot/internal/config"
	"github.com/earshot-fm/earshot/internal/feed"
	"github.com/earshot-fm/earshot/internal/mirror"
	"github.com/earshot-fm/earshot/internal/store"
	"github.com/earshot-fm/earshot/pkg/scrobbled"
	"github.com/earshot-fm/earshot/pkg/spotify"
)

var (
	watchLogFile  string
	watchLogLevel string
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow what the configured users are listening to",
	Long: `Poll the scrobble server for the configured users and print what each
of them is (or was last) listening to, refreshing on an interval.

Track, album and artist names come from the Spotify catalog, authenticated
with a credential delegated by the scrobble server. Metadata is cached in a
local database between runs; if the cache cannot be written the session
continues memory-only.

Runs in the foreground until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "Log file path (default: stderr)")
	watchCmd.Flags().StringVar(&watchLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	watchCmd.Flags().StringP("format", "f", "", "Output format template (overrides config)")
	watchCmd.Flags().IntP("width", "w", 0, "Fixed output width (0=disabled, overrides config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if len(cfg.Users) == 0 {
		return fmt.Errorf("no users configured. Set 'users' in %s/config.yaml", config.GetConfigDir())
	}

	if formatFlag, _ := cmd.Flags().GetString("format"); formatFlag != "" {
		cfg.OutputFormat = formatFlag
	}
	if width, _ := cmd.Flags().GetInt("width"); width > 0 {
		cfg.OutputWidth = width
	}

	logger := setupLogger(watchLogFile, watchLogLevel)
	logger.Info().
		Str("version", version).
		Strs("users", cfg.Users).
		Msg("Starting earshot watch")

	st, cleanup := openStore(cfg, logger)
	defer cleanup()

	scrobbles, catalog := newClients(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle first signal gracefully, second signal forces exit
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info().Msg("Shutdown signal received, stopping")
		cancel()

		<-sigChan
		logger.Warn().Msg("Second shutdown signal received, forcing exit")
		os.Exit(1)
	}()

	waitForCatalog(ctx, catalog, logger)

	refresher := feed.NewRefresher(scrobbles, catalog, st, cfg.Users, logger)
	refreshed := make(chan struct{}, 1)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-refreshed:
				printStatus(st, cfg)
			}
		}
	}()

	if err := refresher.Run(ctx, time.Duration(cfg.PollInterval)*time.Second, refreshed); err != nil && err != context.Canceled {
		return fmt.Errorf("feed error: %w", err)
	}

	logger.Info().Msg("Watch stopped")
	return nil
}

// openStore opens the mirror database and rehydrates the store from it.
// Both steps are best-effort: on failure the session runs memory-only.
func openStore(cfg *config.Config, logger zerolog.Logger) (*store.Store, func()) {
	var m mirror.Mirror
	sqlMirror, err := mirror.NewSQLite(cfg.DBPath)
	if err != nil {
		logger.Warn().Err(err).Str("db_path", cfg.DBPath).Msg("Could not open mirror database, caching in memory only")
	} else {
		m = sqlMirror
	}

	st := store.New(m, logger)
	if err := st.Load(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("Could not rehydrate entity cache, starting empty")
	}

	cleanup := func() {
		if sqlMirror != nil {
			_ = sqlMirror.Close()
		}
	}
	return st, cleanup
}

// newClients constructs the scrobble-server client and the catalog client
// that relays its delegated credential.
func newClients(cfg *config.Config, logger zerolog.Logger) (*scrobbled.Client, *spotify.Client) {
	scrobbles := scrobbled.NewClient(scrobbled.Config{BaseURL: cfg.ScrobbleAPI})
	catalog := spotify.NewClient(spotify.Config{
		BaseURL: cfg.SpotifyAPI,
		Logger:  &logger,
	}, scrobbles)
	return scrobbles, catalog
}

// waitForCatalog gives the credential bootstrap a bounded head start so the
// first refresh goes out authenticated. The bootstrap itself never blocks;
// an unauthenticated first refresh just resolves no metadata.
func waitForCatalog(ctx context.Context, catalog *spotify.Client, logger zerolog.Logger) {
	select {
	case <-catalog.Ready():
		if !catalog.IsAuthenticated() {
			logger.Warn().Msg("Catalog credential unavailable, metadata lookups will fail until restart")
		}
	case <-time.After(10 * time.Second):
		logger.Warn().Msg("Catalog credential still pending, continuing unauthenticated")
	case <-ctx.Done():
	}
}

// printStatus prints one line per configured user: the active scrobble when
// there is one, otherwise the most recent.
func printStatus(st *store.Store, cfg *config.Config) {
	fmt.Printf("-- %s\n", st.Now().Format(time.Kitchen))
	for _, userID := range cfg.Users {
		record, ok := st.UserByID(userID)
		if !ok || len(record.Scrobbles) == 0 {
			continue
		}

		scrobble := record.Scrobbles[0]
		for _, s := range record.Scrobbles {
			if s.Active() {
				scrobble = s
				break
			}
		}

		line := buildLine(st, record.User.Username, scrobble)
		output, err := formatLine(line, cfg.OutputFormat)
		if err != nil {
			output = fmt.Sprintf("%s: %s", line.Username, line.Track)
		}
		if !line.Active {
			output += " (last played)"
		}
		fmt.Println(padToWidth(output, cfg.OutputWidth))
	}
}

// setupLogger creates a logger with the specified configuration
func setupLogger(logFile, logLevel string) zerolog.Logger {
	level := zerolog.InfoLevel
	switch logLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	var output *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			output = os.Stderr
		} else {
			output = f
		}
	} else {
		output = os.Stderr
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Use pretty console output if logging to stderr
	if output == os.Stderr {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger
}
