package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/earshot-fm/earshot/internal/config"
	"github.com/earshot-fm/earshot/internal/feed"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "Print a user's recent listening history",
	Long: `Fetch and print the recent scrobbles of a single user.

The user must be one of the ids the scrobble server tracks. A user the
server does not know simply produces no output.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of scrobbles to print")
	historyCmd.Flags().StringP("format", "f", "", "Output format template (overrides config)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	userID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if formatFlag, _ := cmd.Flags().GetString("format"); formatFlag != "" {
		cfg.OutputFormat = formatFlag
	}
	limit, _ := cmd.Flags().GetInt("limit")

	logger := setupLogger("", "warn")

	st, cleanup := openStore(cfg, logger)
	defer cleanup()

	scrobbles, catalog := newClients(cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	waitForCatalog(ctx, catalog, logger)

	refresher := feed.NewRefresher(scrobbles, catalog, st, []string{userID}, logger)
	if err := refresher.Refresh(ctx); err != nil {
		return err
	}

	record, ok := st.UserByID(userID)
	if !ok {
		return nil
	}

	for i, scrobble := range record.Scrobbles {
		if limit > 0 && i >= limit {
			break
		}

		line := buildLine(st, record.User.Username, scrobble)
		output, err := formatLine(line, cfg.OutputFormat)
		if err != nil {
			return fmt.Errorf("invalid output format: %w", err)
		}
		if line.Active {
			output += " (now playing)"
		}
		fmt.Println(output)
	}

	return nil
}
