package diag

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iksnae/llmcan/internal"
	"github.com/iksnae/llmcan/internal/llm"
	"github.com/iksnae/llmcan/internal/proxy"
	"github.com/iksnae/llmcan/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRotator struct{ active bool }

func (s stubRotator) Rotate(ctx context.Context) bool   { return s.active }
func (s stubRotator) IsActive(ctx context.Context) bool { return s.active }

func TestCollector_Collect(t *testing.T) {
	srv := testutil.NewFakeOllama(t, "да")
	srv.Models = []map[string]interface{}{
		{"name": "qwen2:7b", "size": 4431400262, "modified_at": time.Now().Add(-48 * time.Hour).Format(time.RFC3339), "details": map[string]interface{}{"family": "qwen2", "parameter_size": "7.6B", "quantization_level": "Q4_0"}},
		{"name": "llama3:8b", "size": 4661224676, "details": map[string]interface{}{"family": "llama"}},
	}
	echo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"203.0.113.7"}`))
	}))
	defer echo.Close()

	c := &Collector{
		LLM:     llm.NewOllamaClient(srv.URL, "qwen2:7b", time.Second),
		Session: internal.NewSessionState(true, true, internal.LogLevelDebug),
		Tor:     stubRotator{active: true},
		IP:      &proxy.IPChecker{URL: echo.URL, Direct: echo.Client(), Proxied: echo.Client()},
		LocalIP: func() (string, error) { return "192.168.1.20", nil },
	}
	r := c.Collect(context.Background())

	assert.Equal(t, internal.LogLevelDebug, r.LogLevel)
	assert.True(t, r.TorEnabled)
	assert.True(t, r.TorActive)
	assert.Equal(t, "192.168.1.20", r.LocalIP)
	assert.Equal(t, "203.0.113.7", r.EgressIP)
	assert.True(t, r.Healthy())
	require.Len(t, r.Models, 2)
	assert.Equal(t, "да", r.TestAnswer)
	assert.NoError(t, r.TestErr)
	assert.Equal(t, []string{DefaultTestPrompt}, srv.Prompts())

	var buf bytes.Buffer
	r.Render(&buf)
	out := buf.String()
	for _, want := range []string{"DEBUG", "TOR IP", "203.0.113.7", "192.168.1.20", "qwen2:7b", "llama3:8b", "4.4 GB", "2 days ago", "Test generation"} {
		assert.Contains(t, out, want)
	}
}

func TestCollector_LLMDown(t *testing.T) {
	srv := testutil.NewFakeOllama(t)
	url := srv.URL
	srv.Close()

	c := &Collector{
		LLM:     llm.NewOllamaClient(url, "m", time.Second),
		LocalIP: func() (string, error) { return "", errors.New("no network") },
	}
	r := c.Collect(context.Background())
	assert.False(t, r.Healthy())
	assert.ErrorIs(t, r.LLMErr, internal.ErrLLMUnavailable)
	assert.Empty(t, r.LocalIP)

	var buf bytes.Buffer
	r.Render(&buf)
	assert.Contains(t, buf.String(), "Reachable")
	assert.Contains(t, buf.String(), "torsocks not installed")
}

func TestCollector_SkipGeneration(t *testing.T) {
	srv := testutil.NewFakeOllama(t, "x")
	c := &Collector{
		LLM:            llm.NewOllamaClient(srv.URL, "m", time.Second),
		LocalIP:        func() (string, error) { return "10.0.0.1", nil },
		SkipGeneration: true,
	}
	r := c.Collect(context.Background())
	assert.True(t, r.Healthy())
	assert.Equal(t, 0, srv.Calls())
}

func TestRenderModels(t *testing.T) {
	var buf bytes.Buffer
	RenderModels(&buf, []llm.ModelInfo{
		{Name: "a:1b", Size: 1_300_000_000},
		{Name: "b:7b"},
	}, "b:7b")
	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "1.3 GB")
	assert.Contains(t, out, "*")
}
