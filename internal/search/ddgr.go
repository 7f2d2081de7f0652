package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iksnae/llmcan/internal"
)

// Provider runs a single search
type Provider interface {
	Search(ctx context.Context, query string, useProxy bool) ([]Item, error)
}

// DDGROptions configures DDGRProvider
type DDGROptions struct {
	Command      string // "ddgr"
	ProxyCommand string // "torsocks"
	Results      int    // -n, 0 keeps the tool's default
}

// DDGRProvider shells out to ddgr, optionally wrapped in torsocks
type DDGRProvider struct {
	runner internal.CommandRunner
	opts   DDGROptions
}

// NewDDGRProvider creates a provider using runner
func NewDDGRProvider(runner internal.CommandRunner, opts DDGROptions) *DDGRProvider {
	if opts.Command == "" {
		opts.Command = "ddgr"
	}
	if opts.ProxyCommand == "" {
		opts.ProxyCommand = "torsocks"
	}
	return &DDGRProvider{runner: runner, opts: opts}
}

// Command returns the argv used for query
func (p *DDGRProvider) Command(query string, useProxy bool) []string {
	query = strings.TrimSpace(strings.ReplaceAll(query, `"`, ""))
	argv := []string{p.opts.Command, "--json"}
	if p.opts.Results > 0 {
		argv = append(argv, "-n", strconv.Itoa(p.opts.Results))
	}
	if strings.HasPrefix(query, "-") {
		argv = append(argv, "--")
	}
	argv = append(argv, query)
	if useProxy {
		argv = append([]string{p.opts.ProxyCommand}, argv...)
	}
	return argv
}

// Search runs the command once and parses its output
func (p *DDGRProvider) Search(ctx context.Context, query string, useProxy bool) ([]Item, error) {
	argv := p.Command(query, useProxy)
	out, err := p.runner.Run(ctx, argv[0], argv[1:]...)
	if err != nil {
		if errors.Is(err, internal.ErrToolMissing) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s failed: %w: %s", argv[0], err, internal.Truncate(strings.TrimSpace(string(out)), 200))
	}
	return ParseItems(out)
}
