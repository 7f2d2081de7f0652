package shell

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/iksnae/llmcan/internal"
	"github.com/kballard/go-shellquote"
	"github.com/sahilm/fuzzy"
)

type command struct {
	names []string
	args  string
	help  string
	run   func(s *Shell, ctx context.Context, args []string) (quit bool)
}

var commands []command

func init() {
	commands = []command{
		{names: []string{"/help", "/h"}, help: "Show this help", run: (*Shell).cmdHelp},
		{names: []string{"/tor", "/t"}, help: "Show TOR routing status", run: (*Shell).cmdTorStatus},
		{names: []string{"/toron", "/tn"}, help: "Route searches through TOR", run: (*Shell).cmdTorOn},
		{names: []string{"/toroff", "/tf"}, help: "Search directly", run: (*Shell).cmdTorOff},
		{names: []string{"/debug"}, help: "Set log level to DEBUG", run: logLevelCmd(internal.LogLevelDebug)},
		{names: []string{"/info"}, help: "Set log level to INFO", run: logLevelCmd(internal.LogLevelInfo)},
		{names: []string{"/error"}, help: "Set log level to ERROR", run: logLevelCmd(internal.LogLevelError)},
		{names: []string{"/show"}, help: "Show diagnostics", run: (*Shell).cmdShow},
		{names: []string{"/history"}, args: "[n]", help: "Show the last n dialog turns", run: (*Shell).cmdHistory},
		{names: []string{"/clear"}, help: "Forget the dialog history", run: (*Shell).cmdClear},
		{names: []string{"/save"}, help: "Save the dialog history now", run: (*Shell).cmdSave},
		{names: []string{"/model"}, args: "[name]", help: "Show or switch the model", run: (*Shell).cmdModel},
		{names: []string{"/exit", "/q", "/quit"}, help: "Save history and quit", run: (*Shell).cmdExit},
	}
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		for _, n := range c.names {
			if n == name {
				return c, true
			}
		}
	}
	return command{}, false
}

// suggest returns the closest known command name, or ""
func suggest(name string) string {
	var all []string
	for _, c := range commands {
		all = append(all, c.names...)
	}
	matches := fuzzy.Find(strings.TrimPrefix(name, "/"), trimSlash(all))
	if len(matches) == 0 {
		return ""
	}
	sort.Stable(matches)
	return all[matches[0].Index]
}

func trimSlash(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.TrimPrefix(n, "/")
	}
	return out
}

// dispatch runs a slash command line and reports whether to quit
func (s *Shell) dispatch(ctx context.Context, line string) bool {
	args, err := shellquote.Split(line)
	if err != nil || len(args) == 0 {
		fmt.Fprintln(s.out, errorStyle.Render("Could not parse command: ")+line)
		return false
	}
	name := strings.ToLower(args[0])
	c, ok := lookup(name)
	if !ok {
		msg := fmt.Sprintf("Unknown command %s.", name)
		if sug := suggest(name); sug != "" {
			msg += fmt.Sprintf(" Did you mean %s?", sug)
		}
		fmt.Fprintln(s.out, errorStyle.Render(msg)+dimStyle.Render(" Type /help for a list."))
		return false
	}
	internal.LogDebug("command %s %v", name, args[1:])
	return c.run(s, ctx, args[1:])
}

func (s *Shell) cmdHelp(ctx context.Context, args []string) bool {
	fmt.Fprintln(s.out, "Available commands:")
	for _, c := range commands {
		usage := strings.Join(c.names, ", ")
		if c.args != "" {
			usage += " " + c.args
		}
		fmt.Fprintf(s.out, "  %-28s %s\n", usage, dimStyle.Render(c.help))
	}
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Finish a question with an empty line.")
	return false
}

func (s *Shell) cmdTorStatus(ctx context.Context, args []string) bool {
	if s.opts.Session == nil {
		return false
	}
	state := "off"
	if s.opts.Session.UseProxy() {
		state = agentStyle.Render("on")
	}
	fmt.Fprintf(s.out, "TOR routing: %s\n", state)
	if !s.opts.Session.ProxyAvailable() {
		fmt.Fprintln(s.out, noticeStyle.Render("torsocks is not installed: ")+internal.DetectTool("torsocks").Hint)
	}
	return false
}

func (s *Shell) cmdTorOn(ctx context.Context, args []string) bool {
	if s.opts.Session == nil {
		return false
	}
	if !s.opts.Session.SetUseProxy(true) {
		fmt.Fprintln(s.out, errorStyle.Render("Cannot enable TOR: torsocks is not installed."))
		fmt.Fprintln(s.out, internal.DetectTool("torsocks").Hint)
		return false
	}
	internal.LogInfo("TOR routing enabled")
	fmt.Fprintln(s.out, agentStyle.Render("TOR routing enabled."))
	return false
}

func (s *Shell) cmdTorOff(ctx context.Context, args []string) bool {
	if s.opts.Session == nil {
		return false
	}
	s.opts.Session.SetUseProxy(false)
	internal.LogInfo("TOR routing disabled")
	fmt.Fprintln(s.out, "TOR routing disabled.")
	return false
}

func logLevelCmd(level internal.LogLevel) func(*Shell, context.Context, []string) bool {
	return func(s *Shell, ctx context.Context, args []string) bool {
		if s.opts.Session != nil {
			s.opts.Session.SetLogLevel(level)
		} else {
			internal.SetLogLevel(level)
		}
		fmt.Fprintf(s.out, "Log level set to %s.\n", level)
		if s.opts.SaveLogLevel != nil && s.opts.EnvFile != "" {
			if err := s.opts.SaveLogLevel(s.opts.EnvFile, level); err != nil {
				internal.LogWarn("could not remember log level: %v", err)
			}
		}
		return false
	}
}

func (s *Shell) cmdShow(ctx context.Context, args []string) bool {
	if s.opts.Diagnostics == nil {
		fmt.Fprintln(s.out, "Diagnostics are not available.")
		return false
	}
	s.opts.Diagnostics.Collect(ctx).Render(s.out)
	return false
}

func (s *Shell) cmdHistory(ctx context.Context, args []string) bool {
	if s.opts.History == nil {
		return false
	}
	n := 10
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			fmt.Fprintln(s.out, errorStyle.Render("Usage: /history [n]"))
			return false
		}
		n = v
	}
	turns := s.opts.History.Recent(n)
	if len(turns) == 0 {
		fmt.Fprintln(s.out, "History is empty.")
		return false
	}
	for _, t := range turns {
		style := agentStyle
		if t.Role == internal.RoleUser {
			style = userStyle
		}
		fmt.Fprintf(s.out, "%s %s\n", style.Render(string(t.Role)+":"), internal.Truncate(strings.ReplaceAll(t.Content, "\n", " "), 200))
	}
	return false
}

func (s *Shell) cmdClear(ctx context.Context, args []string) bool {
	if s.opts.History == nil {
		return false
	}
	s.opts.History.Clear()
	fmt.Fprintln(s.out, "History cleared.")
	return false
}

func (s *Shell) cmdSave(ctx context.Context, args []string) bool {
	if s.opts.History == nil {
		return false
	}
	if s.opts.History.Persist() {
		fmt.Fprintf(s.out, "History saved to %s.\n", s.opts.History.Path())
	} else {
		fmt.Fprintln(s.out, errorStyle.Render("Could not save history, see the log for details."))
	}
	return false
}

func (s *Shell) cmdModel(ctx context.Context, args []string) bool {
	if s.opts.LLM == nil {
		return false
	}
	if len(args) == 0 {
		fmt.Fprintf(s.out, "Model: %s (%s)\n", s.opts.LLM.Model(), s.opts.LLM.Host())
		return false
	}
	s.opts.LLM.SetModel(args[0])
	internal.LogInfo("model switched to %s", args[0])
	fmt.Fprintf(s.out, "Model set to %s.\n", args[0])
	return false
}

func (s *Shell) cmdExit(ctx context.Context, args []string) bool {
	return true
}
