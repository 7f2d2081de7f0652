package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/llmcan/internal"
	"github.com/iksnae/llmcan/internal/export"
	"github.com/iksnae/llmcan/internal/history"
	"github.com/spf13/cobra"
)

var (
	historyLast   int
	historyFormat string
	historyOutput string
	historyYes    bool
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show, export or clear the dialog history",
}

// openHistory loads the store without wiring the model or search tools
func openHistory() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	paths, err := cfg.Paths()
	if err != nil {
		return nil, err
	}
	return history.NewStore(paths.HistoryFile, cfg.History.MaxLength), nil
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the dialog history",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		turns := store.Load()
		if historyLast > 0 {
			turns = store.Recent(historyLast)
		}
		out := cmd.OutOrStdout()
		if len(turns) == 0 {
			fmt.Fprintf(out, "No history in %s\n", store.Path())
			return nil
		}
		for _, t := range turns {
			label := infoStyle.Render("user:")
			if t.Role == internal.RoleAssistant {
				label = successStyle.Render("assistant:")
			}
			fmt.Fprintf(out, "%s\n%s\n\n", label, strings.TrimSpace(t.Content))
		}
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the dialog history (jsonl, md, yaml, json)",
	Long: `Export the dialog history to a file or stdout.

Without --out the transcript is written to stdout. An output path without an
extension gets the format's extension.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		exporter, err := export.NewExporter(historyFormat)
		if err != nil {
			return err
		}
		transcript := export.NewTranscript(store.Path(), store.Load())

		if historyOutput == "" {
			return exporter.Export(transcript, cmd.OutOrStdout())
		}

		path := historyOutput
		if filepath.Ext(path) == "" {
			path += "." + exporter.Extension()
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		file, err := os.Create(path)
		if err != nil {
			return &internal.ExportError{Format: historyFormat, Path: path, Err: err}
		}
		if err := exporter.Export(transcript, file); err != nil {
			_ = file.Close()
			return &internal.ExportError{Format: historyFormat, Path: path, Err: err}
		}
		if err := file.Close(); err != nil {
			return &internal.ExportError{Format: historyFormat, Path: path, Err: err}
		}
		internal.PrintSuccess(fmt.Sprintf("Export complete: %d turn(s) exported to %s", len(transcript.Turns), path))
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved dialog turn",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !historyYes {
			return fmt.Errorf("refusing to clear history without --yes")
		}
		store, err := openHistory()
		if err != nil {
			return err
		}
		n := store.Len()
		store.Clear()
		if !store.Persist() {
			return fmt.Errorf("failed to write %s", store.Path())
		}
		internal.PrintSuccess(fmt.Sprintf("Removed %d turn(s) from %s", n, store.Path()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd, historyExportCmd, historyClearCmd)

	historyShowCmd.Flags().IntVarP(&historyLast, "last", "n", 0, "Show only the last n turns")
	historyExportCmd.Flags().StringVarP(&historyFormat, "format", "f", "md", "Export format (jsonl, md, yaml, json)")
	historyExportCmd.Flags().StringVarP(&historyOutput, "out", "o", "", "Output file (default stdout)")
	historyClearCmd.Flags().BoolVarP(&historyYes, "yes", "y", false, "Confirm clearing the history")
}
