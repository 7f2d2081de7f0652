package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/llmcan/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	torFlag    bool
	modelFlag  string
	hostFlag   string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "llmcan",
	Short: "Answer questions with a local LLM and live web search",
	Long: `An interactive agent that answers questions using a local LLM and web search.

Every question is rewritten into a few search queries, the queries are run
through ddgr (optionally over TOR) and the results are summarized by the model
with numbered references to the sources.

Features:
  • Multi-line interactive shell with slash commands
  • Ollama or any OpenAI-compatible endpoint
  • TOR routing with identity rotation between failed searches
  • Dialog history saved as JSON and exportable to md, yaml, json, jsonl

Quick Start:
  llmcan                                 # Start the interactive shell
  llmcan ask "latest Go release"         # Answer a single question
  llmcan search "ddgr json output"       # Run a search without the model
  llmcan healthcheck                     # Check the model, TOR and tools`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./llmcan.yaml or ~/.config/llmcan/llmcan.yaml)")
	rootCmd.PersistentFlags().BoolVar(&torFlag, "tor", false, "Route searches through TOR from the start")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "Model name (overrides llm.model)")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "LLM endpoint (overrides llm.host)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
