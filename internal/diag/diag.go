// Package diag gathers and prints the runtime state shown by /show and the
// healthcheck command.
package diag

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/iksnae/llmcan/internal"
	"github.com/iksnae/llmcan/internal/llm"
	"github.com/iksnae/llmcan/internal/proxy"
	"github.com/olekukonko/tablewriter"
)

// DefaultTestPrompt is sent to the model to measure a live generation
const DefaultTestPrompt = "Ответь одним словом: работаешь?"

var (
	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	badStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))
)

// Collector gathers a Report. Nil fields skip their section.
type Collector struct {
	LLM     llm.Client
	Session *internal.SessionState
	Tor     proxy.Rotator
	IP      *proxy.IPChecker

	// LocalIP defaults to proxy.LocalIP.
	LocalIP    func() (string, error)
	TestPrompt string
	// SkipGeneration disables the live test generation.
	SkipGeneration bool
}

// Report is a snapshot of the agent's environment
type Report struct {
	LogLevel     internal.LogLevel
	TorEnabled   bool
	TorInstalled bool
	TorActive    bool

	LocalIP   string
	EgressIP  string
	EgressErr error

	LLMHost      string
	Model        string
	LLMReachable bool
	LLMErr       error
	Models       []llm.ModelInfo

	TestAnswer  string
	TestLatency time.Duration
	TestErr     error

	Tools []internal.ToolStatus
}

// Collect runs every check. Failures are recorded in the report.
func (c *Collector) Collect(ctx context.Context) *Report {
	r := &Report{LogLevel: internal.GetLogLevel()}
	if c.Session != nil {
		r.LogLevel = c.Session.LogLevel()
		r.TorEnabled = c.Session.UseProxy()
		r.TorInstalled = c.Session.ProxyAvailable()
	}
	if c.Tor != nil {
		r.TorActive = c.Tor.IsActive(ctx)
	}

	localIP := c.LocalIP
	if localIP == nil {
		localIP = proxy.LocalIP
	}
	if ip, err := localIP(); err == nil {
		r.LocalIP = ip
	} else {
		internal.LogDebug("local ip: %v", err)
	}

	if c.IP != nil {
		r.EgressIP, r.EgressErr = c.IP.EgressIP(ctx, r.TorEnabled)
	}

	r.Tools = internal.DetectTools()

	if c.LLM == nil {
		return r
	}
	r.LLMHost = c.LLM.Host()
	r.Model = c.LLM.Model()
	if err := c.LLM.Heartbeat(ctx); err != nil {
		r.LLMErr = err
		return r
	}
	r.LLMReachable = true
	if models, err := c.LLM.ListModels(ctx); err == nil {
		r.Models = models
	} else {
		r.LLMErr = err
	}

	if !c.SkipGeneration {
		prompt := c.TestPrompt
		if prompt == "" {
			prompt = DefaultTestPrompt
		}
		start := time.Now()
		r.TestAnswer, r.TestErr = c.LLM.Generate(ctx, prompt)
		r.TestLatency = time.Since(start)
	}
	return r
}

// Healthy reports whether the model endpoint answered
func (r *Report) Healthy() bool {
	return r.LLMReachable
}

// Render prints the report
func (r *Report) Render(w io.Writer) {
	fmt.Fprintln(w, sectionStyle.Render("Agent"))
	line(w, "Log level", r.LogLevel.String())
	line(w, "TOR routing", onOff(r.TorEnabled))
	if !r.TorInstalled {
		line(w, "TOR tooling", badStyle.Render("torsocks not installed"))
	} else {
		line(w, "TOR service", status(r.TorActive, "active", "inactive"))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, sectionStyle.Render("Network"))
	line(w, "Local IP", orDash(r.LocalIP))
	egressLabel := "Public IP"
	if r.TorEnabled {
		egressLabel = "TOR IP"
	}
	if r.EgressErr != nil {
		line(w, egressLabel, badStyle.Render("unavailable"))
		internal.LogDebug("egress ip: %v", r.EgressErr)
	} else {
		line(w, egressLabel, orDash(r.EgressIP))
	}
	for _, t := range r.Tools {
		if t.Found {
			line(w, t.Name, okStyle.Render("✓")+" "+t.Path)
		} else {
			line(w, t.Name, badStyle.Render("✗")+" "+t.Hint)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, sectionStyle.Render("Model"))
	line(w, "Endpoint", orDash(r.LLMHost))
	line(w, "Model", orDash(r.Model))
	if r.LLMErr != nil && !r.LLMReachable {
		line(w, "Reachable", badStyle.Render("no")+" "+r.LLMErr.Error())
		return
	}
	line(w, "Reachable", status(r.LLMReachable, "yes", "no"))
	switch {
	case r.TestErr != nil:
		line(w, "Test generation", badStyle.Render("failed")+" "+r.TestErr.Error())
	case r.TestLatency > 0:
		line(w, "Test generation", fmt.Sprintf("%s (%q)", r.TestLatency.Round(time.Millisecond), internal.Truncate(strings.TrimSpace(r.TestAnswer), 40)))
	}
	if len(r.Models) > 0 {
		fmt.Fprintln(w)
		RenderModels(w, r.Models, r.Model)
	}
}

// RenderModels prints models as a table; current is marked with *
func RenderModels(w io.Writer, models []llm.ModelInfo, current string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"", "NAME", "SIZE", "FAMILY", "PARAMS", "QUANT", "MODIFIED"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetColumnSeparator("")
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("  ")
	for _, m := range models {
		mark := ""
		if m.Name == current {
			mark = "*"
		}
		modified := ""
		if !m.ModifiedAt.IsZero() {
			modified = humanize.Time(m.ModifiedAt)
		}
		size := ""
		if m.Size > 0 {
			size = humanize.Bytes(uint64(m.Size))
		}
		table.Append([]string{mark, m.Name, size, m.Details.Family, m.Details.ParameterSize, m.Details.QuantizationLevel, modified})
	}
	table.Render()
}

func line(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%-16s", label+":")), value)
}

func onOff(on bool) string {
	if on {
		return okStyle.Render("on")
	}
	return "off"
}

func status(ok bool, yes, no string) string {
	if ok {
		return okStyle.Render(yes)
	}
	return badStyle.Render(no)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
