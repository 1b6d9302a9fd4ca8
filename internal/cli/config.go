package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/billmal071/booksearch/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and modify booksearch configuration.

Settings live in ~/.config/booksearch/config.yaml and can be overridden from
the environment with the BOOKSEARCH_ prefix, e.g. BOOKSEARCH_LOG_LEVEL=debug.

Keys:
  google_books.base_url    search endpoint
  network.connect_timeout  e.g. 15s
  network.read_timeout     e.g. 10s
  network.user_agent
  log.level                debug, info, warn, error
  log.format               console, json
  log.file                 log destination while the search screen is open
  history.enabled          true, false
  history.limit            entries shown by history and history pick`,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value := config.GetValue(args[0])
		if value == nil {
			return fmt.Errorf("unknown key: %s", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", args[0], value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if config.GetValue(key) == nil {
			return fmt.Errorf("unknown key: %s", key)
		}

		if err := config.Set(key, value); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		out := cmd.OutOrStdout()
		Successf(out, "%s = %s", key, value)
		fmt.Fprintf(out, "Saved to %s\n", config.GetConfigPath())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show where booksearch keeps its files",
	Run: func(cmd *cobra.Command, args []string) {
		printPaths(cmd.OutOrStdout())
	},
}

func printPaths(w io.Writer) {
	for _, p := range []struct{ label, path string }{
		{"Config file", config.GetConfigPath()},
		{"History", config.GetDBPath()},
		{"Log file", config.Get().Log.File},
	} {
		fmt.Fprintf(w, "%-12s %s\n", p.label+":", p.path)
	}
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
}
