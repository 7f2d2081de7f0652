package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/iksnae/llmcan/internal"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to an OpenAI-compatible endpoint, such as Ollama's /v1
type OpenAIClient struct {
	host   string
	client *openai.Client

	mu    sync.RWMutex
	model string
}

// NewOpenAIClient creates a client whose base URL is host + "/v1"
func NewOpenAIClient(host, model, apiKey string, timeout time.Duration) *OpenAIClient {
	host = normalizeHost(host)
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = host + "/v1"
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAIClient{
		host:   host,
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *OpenAIClient) Host() string {
	return c.host
}

func (c *OpenAIClient) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

func (c *OpenAIClient) SetModel(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = name
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt, nil)
}

func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string, format *openai.ChatCompletionResponseFormat) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.Model(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: format,
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", c.wrap("generate", err)
	}
	if len(resp.Choices) == 0 {
		return "", &internal.LLMError{Kind: internal.LLMResponseMalformed, Op: "generate", Err: fmt.Errorf("no choices in response")}
	}
	return resp.Choices[0].Message.Content, nil
}

// ListModels maps /v1/models onto ModelInfo; only the name is known.
func (c *OpenAIClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, c.wrap("tags", err)
	}
	out := make([]ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		out = append(out, ModelInfo{
			Name:       m.ID,
			Model:      m.ID,
			ModifiedAt: time.Unix(m.CreatedAt, 0),
			Details:    ModelDetails{Family: m.OwnedBy},
		})
	}
	return out, nil
}

func (c *OpenAIClient) Heartbeat(ctx context.Context) error {
	_, err := c.ListModels(ctx)
	return err
}

// wrap classifies go-openai errors. Anything that is not an undecodable
// body counts as the endpoint being unavailable.
func (c *OpenAIClient) wrap(op string, err error) error {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr), errors.As(err, &reqErr):
		return &internal.LLMError{Kind: internal.LLMUnavailable, Op: op, Err: err}
	case isDecodeError(err):
		return &internal.LLMError{Kind: internal.LLMResponseMalformed, Op: op, Err: err}
	default:
		return &internal.LLMError{Kind: internal.LLMUnavailable, Op: op, Err: err}
	}
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
