package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/billmal071/booksearch/internal/books"
	"github.com/billmal071/booksearch/internal/config"
	"github.com/billmal071/booksearch/internal/db"
	"github.com/billmal071/booksearch/internal/loader"
	"github.com/billmal071/booksearch/internal/logger"
	"github.com/billmal071/booksearch/internal/tui"
)

// annotationInteractive marks commands that hand the terminal to the UI
const annotationInteractive = "interactive"

var (
	cfgFile string
	verbose bool

	logFile io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "booksearch",
	Short: "Search Google Books from the terminal",
	Long: `booksearch looks up books on Google Books.

Run without arguments to open the interactive search screen.

Examples:
  booksearch                              Open the search screen
  booksearch search the hobbit            Search and browse the results
  booksearch search --no-interactive dune Print results and exit
  booksearch search --json dune           Print results as JSON
  booksearch history                      List recent searches`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationInteractive: "true"},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize config
		if err := config.Init(cfgFile); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		if err := setupLogging(cmd); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		// Initialize database
		if err := db.Init(); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		db.Close()
		if logFile != nil {
			logFile.Close()
			logFile = nil
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd, "")
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.config/booksearch/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

// isInteractive reports whether cmd will run the full screen UI
func isInteractive(cmd *cobra.Command) bool {
	if cmd.Annotations[annotationInteractive] != "true" {
		return false
	}
	for _, name := range []string{"no-interactive", "json"} {
		if f := cmd.Flags().Lookup(name); f != nil && f.Value.String() == "true" {
			return false
		}
	}
	return true
}

// setupLogging routes logs to the log file while the UI owns the terminal
func setupLogging(cmd *cobra.Command) error {
	cfg := config.Get()

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}

	var out io.Writer = cmd.ErrOrStderr()
	if isInteractive(cmd) && cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0755); err != nil {
			return err
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		logFile = f
		out = f
	}

	logger.Setup(logger.Config{
		Level:  level,
		Format: logger.ParseLogFormat(cfg.Log.Format),
		Output: out,
	})
	return nil
}

// newLoader creates a loader searching the configured endpoint
func newLoader(cmd *cobra.Command) *loader.Loader {
	return loader.New(cmd.Context(), books.NewClientFromConfig())
}

// runInteractive opens the search screen, optionally starting with query
func runInteractive(cmd *cobra.Command, query string) error {
	l := newLoader(cmd)
	defer l.Close()

	return tui.RunSearch(l, tui.SearchOptions{
		InitialQuery: query,
		OnResult:     recordSearch,
	})
}

// recordSearch saves a finished search to history when enabled
func recordSearch(res loader.Result) {
	if strings.TrimSpace(res.Query) == "" || !config.Get().History.Enabled {
		return
	}
	if err := db.AddSearchHistory(res.Query, len(res.Books), res.StatusCode); err != nil {
		log := logger.WithComponent("cli")
		log.Warn().Err(err).Str("query", res.Query).Msg("Failed to save search history")
	}
}

// Printf prints to w if verbose mode is enabled
func Printf(w io.Writer, format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(w, format, args...)
	}
}

// Successf prints a success message to w
func Successf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "✓ "+format+"\n", args...)
}
