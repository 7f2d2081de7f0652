package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/llmcan/internal/search"
	"github.com/spf13/cobra"
)

var searchJSON bool

var (
	hitTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	hitURLStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	hitCountStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Run web searches without the model",
	Long: `Run each argument as a separate ddgr query with the configured retry policy
and print the hits. Use --tor to route the searches through TOR and --json to
print the raw results.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signalContext(context.Background())
		defer stop()

		results := a.executor.Search(ctx, args, a.session.UseProxy())
		if err := ctx.Err(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if searchJSON {
			enc := json.NewEncoder(out)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(toJSONResults(results))
		}

		for _, r := range results {
			if !r.OK() {
				fmt.Fprintf(out, "%s %s (%d attempts): %v\n\n", errorStyle.Render("✗"), r.Query, r.Attempts, r.Err)
				continue
			}
			fmt.Fprintf(out, "%s %s\n", hitCountStyle.Render(fmt.Sprintf("%d results", len(r.Items))), r.Query)
			for i, it := range r.Items {
				fmt.Fprintf(out, "  %2d. %s\n      %s\n", i+1, hitTitleStyle.Render(it.Title()), hitURLStyle.Render(it.URL()))
				if abs := strings.TrimSpace(it.Abstract()); abs != "" && verbose {
					fmt.Fprintf(out, "      %s\n", abs)
				}
			}
			fmt.Fprintln(out)
		}
		if search.AllFailed(results) {
			return fmt.Errorf("all %d searches failed", len(results))
		}
		return nil
	},
}

type jsonResult struct {
	Query    string        `json:"query"`
	Attempts int           `json:"attempts"`
	Items    []search.Item `json:"items"`
	Error    string        `json:"error,omitempty"`
}

func toJSONResults(results []search.Result) []jsonResult {
	out := make([]jsonResult, 0, len(results))
	for _, r := range results {
		jr := jsonResult{Query: r.Query, Attempts: r.Attempts, Items: r.Items}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		out = append(out, jr)
	}
	return out
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print results as JSON")
}
