package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/billmal071/booksearch/internal/books"
	"github.com/billmal071/booksearch/internal/loader"
	"github.com/billmal071/booksearch/internal/tui"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search for books",
	Long: `Search Google Books for volumes matching the query.

By default, opens the interactive search screen with the results.
Spaces are removed from the query before it is sent.

Examples:
  booksearch search "the hobbit"
  booksearch search inauthor:tolkien
  booksearch search --no-interactive dune
  booksearch search --json "clean code"`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{annotationInteractive: "true"},
	RunE:        runSearch,
}

func init() {
	searchCmd.Flags().Bool("no-interactive", false, "disable interactive mode, just print results")
	searchCmd.Flags().Bool("json", false, "print results as JSON (implies --no-interactive)")
	searchCmd.Flags().Duration("timeout", 60*time.Second, "overall time limit for the search")
}

// searchOutput is the --json document
type searchOutput struct {
	Query      string       `json:"query"`
	StatusCode int          `json:"status_code"`
	Books      []books.Book `json:"books"`
	Message    string       `json:"message,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	noInteractive, _ := cmd.Flags().GetBool("no-interactive")
	asJSON, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if !noInteractive && !asJSON {
		return runInteractive(cmd, query)
	}

	Printf(cmd.ErrOrStderr(), "Searching for: %s\n", query)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	l := loader.New(ctx, books.NewClientFromConfig())
	defer l.Close()

	res, err := waitWithSpinner(ctx, l.Restart(query), cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	recordSearch(res)

	if asJSON {
		return printJSON(cmd.OutOrStdout(), res)
	}
	printBooks(cmd.OutOrStdout(), res)
	return nil
}

// waitWithSpinner spins on w until the task is delivered
func waitWithSpinner(ctx context.Context, task *loader.Task, w io.Writer) (loader.Result, error) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Searching Google Books"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Finish()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-task.Done():
			return task.Wait(ctx)
		case <-ctx.Done():
			return loader.Result{}, ctx.Err()
		case <-ticker.C:
			_ = bar.Add(1)
		}
	}
}

// printBooks writes a plain listing, or the empty state message
func printBooks(w io.Writer, res loader.Result) {
	if msg := tui.EmptyStateText(res, false); msg != "" {
		fmt.Fprintln(w, msg)
		return
	}

	fmt.Fprintf(w, "Found %d book(s) for %q:\n\n", len(res.Books), res.Query)
	for i, b := range res.Books {
		item := tui.BookItem{Book: b}
		fmt.Fprintf(w, "  %d. %s\n", i+1, item.Title())
		fmt.Fprintf(w, "     %s\n", item.Description())
		if b.Snippet != "" {
			fmt.Fprintf(w, "     %s\n", b.Snippet)
		}
		fmt.Fprintf(w, "     %s\n\n", b.InfoURL)
	}
}

func printJSON(w io.Writer, res loader.Result) error {
	out := searchOutput{
		Query:      res.Query,
		StatusCode: res.StatusCode,
		Books:      res.Books,
		Message:    tui.EmptyStateText(res, false),
	}
	if out.Books == nil {
		out.Books = []books.Book{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
