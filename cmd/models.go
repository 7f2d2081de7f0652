package cmd

import (
	"context"
	"fmt"

	"github.com/iksnae/llmcan/internal/diag"
	"github.com/spf13/cobra"
)

// modelsCmd represents the models command
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models available on the LLM endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signalContext(context.Background())
		defer stop()

		models, err := a.llm.ListModels(ctx)
		if err != nil {
			return fmt.Errorf("failed to list models at %s: %w", a.llm.Host(), err)
		}
		if len(models) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No models found at %s\n", a.llm.Host())
			return nil
		}
		diag.RenderModels(cmd.OutOrStdout(), models, a.llm.Model())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
