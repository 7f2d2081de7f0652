package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// FakeOllama is an httptest server speaking the subset of the Ollama API the
// agent uses: POST /api/generate, GET /api/tags and the root heartbeat.
type FakeOllama struct {
	*httptest.Server

	mu      sync.Mutex
	prompts []string
	formats []string
	replies []string
	status  int
	raw     string

	// Reply, when set, picks the answer for each prompt and wins over the
	// queued replies.
	Reply func(prompt string) string
	// Models is returned by /api/tags.
	Models []map[string]interface{}
}

// NewFakeOllama starts a server answering with replies in order; the last
// reply repeats. The server is closed when the test ends.
func NewFakeOllama(t *testing.T, replies ...string) *FakeOllama {
	t.Helper()
	f := &FakeOllama{replies: replies}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

// FailWith makes every request answer with status code
func (f *FakeOllama) FailWith(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = code
}

// RawBody makes /api/generate return body verbatim
func (f *FakeOllama) RawBody(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw = body
}

// Calls returns the number of generate requests served
func (f *FakeOllama) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// Prompts returns the prompts received so far
func (f *FakeOllama) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Formats returns the format field of each generate request
func (f *FakeOllama) Formats() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.formats...)
}

func (f *FakeOllama) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	status := f.status
	f.mu.Unlock()
	if status != 0 && status != http.StatusOK {
		http.Error(w, `{"error":"fake failure"}`, status)
		return
	}

	switch {
	case r.URL.Path == "/api/generate" && r.Method == http.MethodPost:
		f.generate(w, r)
	case r.URL.Path == "/api/tags":
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"models": f.Models})
	case r.URL.Path == "/":
		_, _ = w.Write([]byte("Ollama is running"))
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeOllama) generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
		Stream bool   `json:"stream"`
		Format string `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.prompts = append(f.prompts, req.Prompt)
	f.formats = append(f.formats, req.Format)
	raw := f.raw
	answer := ""
	switch {
	case f.Reply != nil:
		answer = f.Reply(req.Prompt)
	case len(f.replies) > 0:
		answer = f.replies[0]
		if len(f.replies) > 1 {
			f.replies = f.replies[1:]
		}
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if raw != "" {
		_, _ = w.Write([]byte(raw))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"model":      req.Model,
		"created_at": "2024-06-01T12:00:00Z",
		"response":   answer,
		"done":       true,
	})
}
