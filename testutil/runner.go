package testutil

import (
	"context"
	"strings"
	"sync"
)

// RunResult is the scripted outcome of one command
type RunResult struct {
	Output string
	Err    error
}

// FakeRunner records commands and answers from a script. Results are looked
// up by the full command line ("systemctl is-active tor"), then by the
// program name, then Default. A sequence under one key is consumed in order
// and its last entry repeats.
type FakeRunner struct {
	mu      sync.Mutex
	calls   []string
	Script  map[string][]RunResult
	Default RunResult
}

// NewFakeRunner creates an empty runner
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Script: map[string][]RunResult{}}
}

// On scripts the results for key
func (r *FakeRunner) On(key string, results ...RunResult) *FakeRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Script[key] = results
	return r
}

// Run implements the command runner used by the search and proxy packages
func (r *FakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, line)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, key := range []string{line, name} {
		seq, ok := r.Script[key]
		if !ok || len(seq) == 0 {
			continue
		}
		res := seq[0]
		if len(seq) > 1 {
			r.Script[key] = seq[1:]
		}
		return []byte(res.Output), res.Err
	}
	return []byte(r.Default.Output), r.Default.Err
}

// Calls returns every command line run so far
func (r *FakeRunner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Count returns how many command lines start with prefix
func (r *FakeRunner) Count(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
