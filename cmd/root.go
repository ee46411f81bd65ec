/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "earshot",
	Short: "See what your friends are listening to",
	Long: `earshot shows the recent listening history of a set of users.

It combines two services: a scrobble server that records what each user
played and when, and the Spotify catalog API that describes the tracks,
albums and artists involved. Metadata is cached locally so repeated runs
only fetch what they have not seen before.

Configure the scrobble server URL and the followed user ids in
~/.config/earshot/config.yaml or via EARSHOT_* environment variables.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags can be added here if needed
}
