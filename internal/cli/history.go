package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/billmal071/booksearch/internal/config"
	"github.com/billmal071/booksearch/internal/db"
	"github.com/billmal071/booksearch/internal/tui"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View and manage search history",
	Long: `View and manage your search history.

Only queries are remembered, never the books they returned.

Examples:
  booksearch history                    List recent searches
  booksearch history pick               Choose a past search and run it again
  booksearch history prune --older-than 720h
  booksearch history clear              Clear all search history`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showSearchHistory(cmd.OutOrStdout(), config.Get().History.Limit)
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all search history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.ClearSearchHistory(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		Successf(cmd.OutOrStdout(), "Search history cleared.")
		return nil
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return showSearchHistory(cmd.OutOrStdout(), limit)
	},
}

var historyPickCmd = &cobra.Command{
	Use:         "pick",
	Short:       "Choose a past search and run it again",
	Annotations: map[string]string{annotationInteractive: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := db.GetUniqueSearchHistory(config.Get().History.Limit)
		if err != nil {
			return fmt.Errorf("failed to get search history: %w", err)
		}

		selected, err := tui.RunHistorySelector(history)
		if errors.Is(err, tui.ErrNoHistory) {
			fmt.Fprintln(cmd.OutOrStdout(), "No search history.")
			return nil
		}
		if err != nil {
			return err
		}
		if selected == nil {
			return nil // User cancelled
		}

		return runInteractive(cmd, selected.Query)
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove searches older than a given age",
	RunE: func(cmd *cobra.Command, args []string) error {
		age, _ := cmd.Flags().GetDuration("older-than")
		if age <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}

		n, err := db.DeleteSearchHistoryOlderThan(age)
		if err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
		Successf(cmd.OutOrStdout(), "Removed %d search(es).", n)
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntP("limit", "n", 20, "number of entries to show")
	historyPruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "age of the entries to remove")

	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyPickCmd)
	historyCmd.AddCommand(historyPruneCmd)
}

// showSearchHistory prints up to limit unique recent searches
func showSearchHistory(w io.Writer, limit int) error {
	history, err := db.GetUniqueSearchHistory(limit)
	if err != nil {
		return fmt.Errorf("failed to get search history: %w", err)
	}

	if len(history) == 0 {
		fmt.Fprintln(w, "No search history.")
		fmt.Fprintln(w, "\nSearches are saved automatically when you search for books.")
		return nil
	}

	fmt.Fprintf(w, "Recent Searches (%d):\n\n", len(history))

	for i, h := range history {
		fmt.Fprintf(w, "  %d. \"%s\" (%d results, %s)\n", i+1, h.Query, h.ResultCount, statusText(h.StatusCode))
		fmt.Fprintf(w, "     %s\n\n", h.CreatedAt.Local().Format("2006-01-02 15:04"))
	}

	return nil
}

func statusText(code int) string {
	if code == 0 {
		return "no connection"
	}
	return fmt.Sprintf("HTTP %d", code)
}
