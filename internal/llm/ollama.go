package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/iksnae/llmcan/internal"
)

// maxErrorBody bounds how much of a failed response is kept for the log.
const maxErrorBody = 512

// OllamaClient calls the Ollama HTTP API
type OllamaClient struct {
	base *url.URL
	http *http.Client

	mu    sync.RWMutex
	model string
}

// NewOllamaClient creates a client for host (e.g. "http://127.0.0.1:11434").
// A zero timeout means no client-side deadline beyond the context.
func NewOllamaClient(host, model string, timeout time.Duration) *OllamaClient {
	base, err := url.Parse(normalizeHost(host))
	if err != nil {
		base = &url.URL{Scheme: "http", Host: "127.0.0.1:11434"}
	}
	return &OllamaClient{
		base:  base,
		http:  &http.Client{Timeout: timeout},
		model: model,
	}
}

func (c *OllamaClient) Host() string {
	return c.base.String()
}

func (c *OllamaClient) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

func (c *OllamaClient) SetModel(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = name
}

// Generate sends prompt to /api/generate with streaming disabled
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, "")
}

// GenerateJSON is Generate with format "json"
func (c *OllamaClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, "json")
}

func (c *OllamaClient) generate(ctx context.Context, prompt, format string) (string, error) {
	req := GenerateRequest{
		Model:  c.Model(),
		Prompt: prompt,
		Stream: false,
		Format: format,
	}
	bts, err := json.Marshal(req)
	if err != nil {
		return "", &internal.LLMError{Kind: internal.LLMUnavailable, Op: "generate", Err: err}
	}

	start := time.Now()
	body, err := c.do(ctx, http.MethodPost, "/api/generate", bytes.NewReader(bts), "generate")
	if err != nil {
		return "", err
	}

	var resp GenerateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &internal.LLMError{Kind: internal.LLMResponseMalformed, Op: "generate", Err: err}
	}
	if resp.Response == nil {
		return "", &internal.LLMError{Kind: internal.LLMResponseMalformed, Op: "generate", Err: fmt.Errorf("response field missing")}
	}
	internal.LogDebug("llm generate: model=%s prompt=%d chars answer=%d chars in %s",
		req.Model, len(prompt), len(*resp.Response), time.Since(start).Round(time.Millisecond))
	return *resp.Response, nil
}

// ListModels returns the models reported by /api/tags
func (c *OllamaClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/tags", nil, "tags")
	if err != nil {
		return nil, err
	}
	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &internal.LLMError{Kind: internal.LLMResponseMalformed, Op: "tags", Err: err}
	}
	return resp.Models, nil
}

// Heartbeat checks that the server answers on its root path
func (c *OllamaClient) Heartbeat(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodHead, "/", nil, "ping")
	return err
}

func (c *OllamaClient) do(ctx context.Context, method, path string, reqBody io.Reader, op string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), reqBody)
	if err != nil {
		return nil, &internal.LLMError{Kind: internal.LLMUnavailable, Op: op, Err: err}
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := c.http.Do(request)
	if err != nil {
		return nil, &internal.LLMError{Kind: internal.LLMUnavailable, Op: op, Err: err}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, &internal.LLMError{Kind: internal.LLMUnavailable, Op: op, Err: err}
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, &internal.LLMError{
			Kind: internal.LLMUnavailable,
			Op:   op,
			Err:  fmt.Errorf("status %d: %s", response.StatusCode, internal.Truncate(string(bytes.TrimSpace(body)), maxErrorBody)),
		}
	}
	return body, nil
}
