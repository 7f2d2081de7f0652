package agent

import (
	"context"
	"sync"
)

// fakeGenerator answers from a function and counts calls
type fakeGenerator struct {
	mu      sync.Mutex
	answer  func(prompt string) (string, error)
	prompts []string
}

func answering(s string, err error) *fakeGenerator {
	return &fakeGenerator{answer: func(string) (string, error) { return s, err }}
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.answer(prompt)
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeGenerator) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}
