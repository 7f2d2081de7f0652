package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/iksnae/llmcan/internal"
	"github.com/iksnae/llmcan/internal/agent"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	askNoHistory bool
	askRaw       bool
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question and exit",
	Long: `Run one question through the full pipeline and print the answer.

The question and answer are added to the dialog history unless --no-history
is given. Answers are rendered as markdown on a terminal.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if askNoHistory {
			a.pipeline.History = nil
		} else {
			defer a.history.Finalize()
		}
		if !a.session.SearchAvailable() {
			st := internal.DetectTool(a.cfg.Search.Command)
			fmt.Fprintf(cmd.ErrOrStderr(), "Search is disabled: %s is not installed. %s\n", st.Name, st.Hint)
		}

		ctx, stop := signalContext(context.Background())
		defer stop()

		question := strings.Join(args, " ")
		var out string
		err = internal.ShowProgress(ctx, "Answering...", func() error {
			res, err := a.pipeline.Run(ctx, question)
			if err != nil {
				return err
			}
			out = res.Answer
			return nil
		})
		if errors.Is(err, agent.ErrEmptyInput) {
			return fmt.Errorf("question is empty")
		}
		if err != nil {
			return fmt.Errorf("failed to answer: %w", err)
		}

		if !askRaw && isatty.IsTerminal(os.Stdout.Fd()) {
			rendered, err := glamour.Render(out, "auto")
			if err != nil {
				internal.LogDebug("markdown render failed: %v", err)
			} else {
				out = rendered
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(out, "\n"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askNoHistory, "no-history", false, "Do not read or write the dialog history")
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "Print the answer without markdown rendering")
}
