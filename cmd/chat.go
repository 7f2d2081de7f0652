package cmd

import (
	"context"
	"os"

	"github.com/iksnae/llmcan/internal/config"
	"github.com/iksnae/llmcan/internal/shell"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var chatPlain bool

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive shell",
	Long: `Start the interactive shell.

Type a question over one or more lines and finish it with an empty line.
Lines starting with / are commands, /help lists them. The dialog history is
saved on /exit, on end of input and on Ctrl+C.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signalContext(context.Background())
	defer stop()

	sh := shell.New(shell.Options{
		In:           cmd.InOrStdin(),
		Out:          cmd.OutOrStdout(),
		Pipeline:     a.pipeline,
		Session:      a.session,
		History:      a.history,
		LLM:          a.llm,
		Diagnostics:  a.diagnostics(),
		SearchTool:   a.cfg.Search.Command,
		EnvFile:      a.paths.EnvFile,
		SaveLogLevel: config.SaveLogLevel,
		Markdown:     !chatPlain && isatty.IsTerminal(os.Stdout.Fd()),
	})
	return sh.Run(ctx)
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "Print answers as plain text instead of rendered markdown")
}
