package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/iksnae/llmcan/internal"
	"github.com/iksnae/llmcan/internal/proxy"
	"github.com/iksnae/llmcan/internal/retry"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one query. Items is nil when every attempt failed.
type Result struct {
	Query    string `json:"query"`
	Items    []Item `json:"items"`
	Attempts int    `json:"attempts"`
	Err      error  `json:"-"`
}

// OK reports whether the query produced items
func (r Result) OK() bool {
	return r.Items != nil
}

// Options configures an Executor
type Options struct {
	MaxRetries  int           // attempts per query
	Backoff     time.Duration // pause between attempts
	Parallelism int           // queries in flight, 1 keeps them sequential
	DumpDir     string        // when set, successful results are written here
}

// Executor runs a batch of queries with per-query retry
type Executor struct {
	provider Provider
	rotator  proxy.Rotator
	opts     Options
}

// NewExecutor creates an executor. rotator may be nil.
func NewExecutor(provider Provider, rotator proxy.Rotator, opts Options) *Executor {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 3
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	return &Executor{provider: provider, rotator: rotator, opts: opts}
}

// Search runs every query and returns one Result per query in input order.
// A query that fails all its attempts yields a nil Items slot and never
// aborts the others.
func (e *Executor) Search(ctx context.Context, queries []string, useProxy bool) []Result {
	results := make([]Result, len(queries))

	if e.opts.Parallelism == 1 || len(queries) < 2 {
		for i, q := range queries {
			results[i] = e.searchOne(ctx, q, useProxy)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.opts.Parallelism)
		for i, q := range queries {
			i, q := i, q
			g.Go(func() error {
				results[i] = e.searchOne(gctx, q, useProxy)
				return nil
			})
		}
		_ = g.Wait()
	}

	for i, r := range results {
		if r.OK() {
			internal.LogDebug("query %d %q: %d result(s) after %d attempt(s)", i+1, r.Query, len(r.Items), r.Attempts)
			if e.opts.DumpDir != "" {
				if err := e.dump(i+1, r); err != nil {
					internal.LogWarn("failed to dump search results: %v", err)
				}
			}
		} else {
			internal.LogWarn("query %d %q: no results: %v", i+1, r.Query, r.Err)
		}
	}
	return results
}

func (e *Executor) searchOne(ctx context.Context, query string, useProxy bool) Result {
	var items []Item
	policy := retry.Policy{
		Attempts: e.opts.MaxRetries,
		Backoff:  e.opts.Backoff,
		BeforeRetry: func(ctx context.Context, attempt int, err error) {
			internal.LogWarn("search attempt %d/%d for %q failed: %v", attempt, e.opts.MaxRetries, query, err)
			if useProxy && e.rotator != nil {
				if !e.rotator.Rotate(ctx) {
					internal.LogWarn("identity rotation failed, retrying anyway")
				}
			}
		},
	}

	attempts, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) error {
		got, err := e.provider.Search(ctx, query, useProxy)
		if err != nil {
			if errors.Is(err, internal.ErrToolMissing) {
				return retry.Permanent(err)
			}
			return err
		}
		items = got
		return nil
	})
	if err != nil {
		return Result{Query: query, Attempts: attempts, Err: &internal.SearchError{Query: query, Attempts: attempts, Err: err}}
	}
	return Result{Query: query, Items: items, Attempts: attempts}
}

func (e *Executor) dump(n int, r Result) error {
	if err := os.MkdirAll(e.opts.DumpDir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(e.opts.DumpDir, fmt.Sprintf("result_%d_%s.json", n, uuid.NewString()))
	return os.WriteFile(path, data, 0644)
}

// Items concatenates the items of all successful results
func Items(results []Result) []Item {
	var all []Item
	for _, r := range results {
		all = append(all, r.Items...)
	}
	return all
}

// AllFailed reports whether no result carries items
func AllFailed(results []Result) bool {
	for _, r := range results {
		if len(r.Items) > 0 {
			return false
		}
	}
	return true
}

// References returns the item URLs in order, without duplicates or blanks
func References(results []Result) []string {
	seen := make(map[string]bool)
	var refs []string
	for _, it := range Items(results) {
		u := it.URL()
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		refs = append(refs, u)
	}
	return refs
}
