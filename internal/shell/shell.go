// Package shell is the interactive front end: it reads multi-line input,
// dispatches slash commands and runs the answer pipeline for everything else.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/llmcan/internal"
	"github.com/iksnae/llmcan/internal/agent"
	"github.com/iksnae/llmcan/internal/diag"
	"github.com/iksnae/llmcan/internal/history"
	"github.com/iksnae/llmcan/internal/llm"
	"github.com/iksnae/llmcan/internal/search"
)

// State is where the shell is in its read-answer cycle
type State int

const (
	StateIdle State = iota
	StateAwaitingInput
	StatePreprocessing
	StateSearching
	StateSynthesizing
	StateDisplaying
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingInput:
		return "awaiting-input"
	case StatePreprocessing:
		return "preprocessing"
	case StateSearching:
		return "searching"
	case StateSynthesizing:
		return "synthesizing"
	case StateDisplaying:
		return "displaying"
	case StateFinalizing:
		return "finalizing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// Options wires a Shell
type Options struct {
	In  io.Reader
	Out io.Writer

	Pipeline *agent.Pipeline
	Session  *internal.SessionState
	History  *history.Store
	LLM      llm.Client
	// Diagnostics backs /show; nil disables the command's checks.
	Diagnostics *diag.Collector

	// SearchTool names the search command for the install hint.
	SearchTool string

	// EnvFile receives the log level chosen with /debug, /info and /error.
	EnvFile      string
	SaveLogLevel func(path string, level internal.LogLevel) error

	// Markdown renders answers with glamour.
	Markdown bool
	WordWrap int
}

// Shell is one interactive session
type Shell struct {
	opts     Options
	out      io.Writer
	renderer *glamour.TermRenderer

	mu    sync.Mutex
	state State
}

// New creates a shell and hooks its progress output into the pipeline
func New(opts Options) *Shell {
	s := &Shell{opts: opts, out: opts.Out}
	if s.out == nil {
		s.out = io.Discard
	}
	if opts.Markdown {
		wrap := opts.WordWrap
		if wrap <= 0 {
			wrap = 100
		}
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(wrap))
		if err != nil {
			internal.LogDebug("markdown renderer unavailable: %v", err)
		} else {
			s.renderer = r
		}
	}
	if opts.Pipeline != nil {
		opts.Pipeline.Observer = agent.Observer{
			OnStage:   s.onStage,
			OnQueries: s.onQueries,
			OnResults: s.onResults,
		}
	}
	return s
}

// State returns the current state
func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Shell) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	internal.LogDebug("shell state: %s", st)
}

// Run reads input until /exit, end of input or ctx is cancelled. History is
// finalized exactly once on the way out.
func (s *Shell) Run(ctx context.Context) error {
	defer s.finalize()

	lines := readLines(s.opts.In)
	s.greet()
	for {
		s.setState(StateAwaitingInput)
		input, err := s.readInput(ctx, lines)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			fmt.Fprintln(s.out, "\n"+noticeStyle.Render("Interrupted."))
			return nil
		}

		if strings.HasPrefix(input, "/") {
			if quit := s.dispatch(ctx, input); quit {
				return nil
			}
			s.setState(StateIdle)
			continue
		}

		if err := s.answer(ctx, input); err != nil {
			fmt.Fprintln(s.out, "\n"+noticeStyle.Render("Interrupted."))
			return nil
		}
		s.setState(StateIdle)
	}
}

func (s *Shell) finalize() {
	s.setState(StateFinalizing)
	if s.opts.History != nil {
		s.opts.History.Finalize()
		fmt.Fprintln(s.out, dimStyle.Render("History saved. Bye."))
	}
}

func (s *Shell) greet() {
	fmt.Fprintln(s.out, agentStyle.Render("llmcan")+dimStyle.Render(": type a question and finish it with an empty line, /help lists commands"))
	if s.opts.Session != nil && !s.opts.Session.SearchAvailable() {
		s.searchToolMissing()
	}
}

// searchToolMissing tells the user how to install the search command
func (s *Shell) searchToolMissing() {
	tool := s.opts.SearchTool
	if tool == "" {
		tool = "ddgr"
	}
	fmt.Fprintln(s.out, errorStyle.Render(fmt.Sprintf("Search is disabled: %s is not installed.", tool)))
	if hint := internal.DetectTool(tool).Hint; hint != "" {
		fmt.Fprintln(s.out, noticeStyle.Render("Hint: "+hint))
	}
}

// readLines feeds lines from r into a channel closed at end of input
func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	if r == nil {
		close(ch)
		return ch
	}
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}

// readInput collects lines until an empty line follows some content.
// Leading blank lines are skipped; a first line starting with / is a
// command and returns immediately.
func (s *Shell) readInput(ctx context.Context, lines <-chan string) (string, error) {
	var buf []string
	fmt.Fprint(s.out, s.promptLabel())
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if len(buf) > 0 {
					return strings.Join(buf, "\n"), nil
				}
				return "", io.EOF
			}
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				if len(buf) == 0 {
					continue
				}
				return strings.Join(buf, "\n"), nil
			}
			if len(buf) == 0 && strings.HasPrefix(trimmed, "/") {
				return trimmed, nil
			}
			buf = append(buf, line)
		}
	}
}

func (s *Shell) promptLabel() string {
	if s.opts.Session != nil && s.opts.Session.UseProxy() {
		return userStyle.Render("You(tor): ")
	}
	return userStyle.Render("You: ")
}

func (s *Shell) answer(ctx context.Context, input string) error {
	if s.opts.Pipeline == nil {
		return nil
	}
	res, err := s.opts.Pipeline.Run(ctx, input)
	if errors.Is(err, agent.ErrEmptyInput) {
		return nil
	}
	if err != nil {
		return err
	}
	s.setState(StateDisplaying)
	fmt.Fprintln(s.out, "\n"+agentStyle.Render("┌─ Agent:"))
	fmt.Fprintln(s.out, s.render(res.Answer))
	fmt.Fprintln(s.out, dimStyle.Render("└"+strings.Repeat("─", 50)))
	return nil
}

func (s *Shell) render(md string) string {
	if s.renderer == nil {
		return md
	}
	out, err := s.renderer.Render(md)
	if err != nil {
		internal.LogDebug("markdown render failed: %v", err)
		return md
	}
	return strings.TrimRight(out, "\n")
}

func (s *Shell) onStage(st agent.Stage) {
	switch st {
	case agent.StagePreprocessing:
		s.setState(StatePreprocessing)
		fmt.Fprintln(s.out, noticeStyle.Render("Analyzing the request and building search queries..."))
	case agent.StageSearching:
		s.setState(StateSearching)
		fmt.Fprintln(s.out, noticeStyle.Render("Searching..."))
	case agent.StageSynthesizing:
		s.setState(StateSynthesizing)
		fmt.Fprintln(s.out, noticeStyle.Render("Summarizing the results..."))
	}
}

func (s *Shell) onQueries(q internal.PreprocessedQuery) {
	for i, query := range q.Queries {
		fmt.Fprintf(s.out, "%s %s\n", dimStyle.Render(fmt.Sprintf("%d.", i+1)), query)
	}
}

// onResults prints the first few hits of every query
func (s *Shell) onResults(results []search.Result) {
	for _, r := range results {
		if errors.Is(r.Err, internal.ErrToolMissing) {
			s.searchToolMissing()
			break
		}
	}
	for i, r := range results {
		if !r.OK() {
			fmt.Fprintf(s.out, "%s %s\n", errorStyle.Render(fmt.Sprintf("[%d] no results:", i+1)), r.Query)
			continue
		}
		fmt.Fprintf(s.out, "%s %s (%d)\n", agentStyle.Render(fmt.Sprintf("[%d]", i+1)), r.Query, len(r.Items))
		for j, it := range r.Items {
			if j == 3 {
				break
			}
			fmt.Fprintf(s.out, "    %s\n    %s\n", it.Title(), dimStyle.Render(it.URL()))
		}
	}
}
