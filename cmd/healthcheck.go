package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/llmcan/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
	healthcheckNoGen   bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the model, search tools and TOR are usable",
	Long: `Check the health of llmcan by verifying:
  • External tools (ddgr, torsocks, systemctl)
  • TOR service state and egress IP
  • LLM endpoint reachability and installed models
  • A live test generation with the configured model

Exits with a non-zero status when the LLM endpoint cannot be reached.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 llmcan Health Check"))
		fmt.Fprintln(out)

		a, err := newApp()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to load configuration:"), err)
			return err
		}
		defer a.Close()

		ctx, stop := signalContext(context.Background())
		defer stop()

		fmt.Fprintln(out, infoStyle.Render("Collecting diagnostics..."))
		collector := a.diagnostics()
		collector.SkipGeneration = healthcheckNoGen
		report := collector.Collect(ctx)
		fmt.Fprintln(out)
		report.Render(out)
		fmt.Fprintln(out)

		if healthcheckVerbose {
			fmt.Fprintf(out, "   Config file: %s\n", orDefault(configPath, "(search path)"))
			fmt.Fprintf(out, "   History: %s\n", a.paths.HistoryFile)
			fmt.Fprintf(out, "   Reports: %s\n", a.paths.ReportFile)
			fmt.Fprintf(out, "   Env file: %s\n", a.paths.EnvFile)
			fmt.Fprintln(out)
		}

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)

		ddgrMissing := false
		for _, t := range report.Tools {
			if t.Name == "ddgr" && !t.Found {
				ddgrMissing = true
			}
		}
		switch {
		case !report.Healthy():
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			fmt.Fprintf(out, "   • LLM endpoint %s is not reachable\n", report.LLMHost)
			return fmt.Errorf("health check failed: llm unreachable")
		case ddgrMissing || report.TestErr != nil:
			fmt.Fprintln(out, warningStyle.Render("⚠️  Model reachable with problems"))
			if ddgrMissing {
				fmt.Fprintln(out, "   • ddgr is not installed, searches will fail")
			}
			if report.TestErr != nil {
				fmt.Fprintf(out, "   • Test generation failed: %v\n", report.TestErr)
			}
			return nil
		default:
			fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("   • Model: %s", report.Model)))
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("   • Models installed: %d", len(report.Models))))
			internal.LogDebug("healthcheck passed in %s", report.TestLatency)
			return nil
		}
	},
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "verbose", "v", false, "Show detailed diagnostic information")
	healthcheckCmd.Flags().BoolVar(&healthcheckNoGen, "no-generate", false, "Skip the live test generation")
}
