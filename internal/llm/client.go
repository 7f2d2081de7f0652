// Package llm talks to the text generation endpoint. Each call is a single
// independent request; callers own retry and prompt assembly.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Generator produces a completion for a fully assembled prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client is a Generator that can also describe its endpoint
type Client interface {
	Generator
	// GenerateJSON asks the backend to constrain the answer to a JSON object.
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	ListModels(ctx context.Context) ([]ModelInfo, error)
	Heartbeat(ctx context.Context) error
	Host() string
	Model() string
	SetModel(name string)
}

// Options configures New
type Options struct {
	Backend string // "ollama" (default) or "openai"
	Host    string
	Model   string
	Timeout time.Duration
	APIKey  string
}

// New returns the client for opts.Backend
func New(opts Options) (Client, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "ollama":
		return NewOllamaClient(opts.Host, opts.Model, opts.Timeout), nil
	case "openai":
		return NewOpenAIClient(opts.Host, opts.Model, opts.APIKey, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported llm backend: %s (supported: ollama, openai)", opts.Backend)
	}
}

// normalizeHost accepts "host:port" as well as full URLs
func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		host = "127.0.0.1:11434"
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return strings.TrimRight(host, "/")
}
