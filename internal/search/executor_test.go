package search

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/iksnae/llmcan/internal"
	"github.com/iksnae/llmcan/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider fails for queries listed in fail and counts calls per query
type fakeProvider struct {
	mu    sync.Mutex
	fail  map[string]error
	calls map[string]int
	proxy []bool
}

func newFakeProvider(fail ...string) *fakeProvider {
	p := &fakeProvider{fail: map[string]error{}, calls: map[string]int{}}
	for _, q := range fail {
		p.fail[q] = errors.New("search tool failed")
	}
	return p
}

func (p *fakeProvider) Search(ctx context.Context, query string, useProxy bool) ([]Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[query]++
	p.proxy = append(p.proxy, useProxy)
	if err, ok := p.fail[query]; ok {
		return nil, err
	}
	return []Item{Item(fmt.Sprintf(`{"title":%q,"url":"https://example.com/%s"}`, query, query))}, nil
}

func (p *fakeProvider) count(query string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[query]
}

type fakeRotator struct {
	mu      sync.Mutex
	rotated int
	ok      bool
}

func (r *fakeRotator) Rotate(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rotated++
	return r.ok
}

func (r *fakeRotator) IsActive(ctx context.Context) bool { return r.ok }

func (r *fakeRotator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rotated
}

func fastOptions() Options {
	return Options{MaxRetries: 3, Backoff: time.Millisecond, Parallelism: 1}
}

func TestExecutor_PartialFailureIsolation(t *testing.T) {
	for _, parallelism := range []int{1, 3} {
		t.Run(fmt.Sprintf("parallelism=%d", parallelism), func(t *testing.T) {
			p := newFakeProvider("q2")
			opts := fastOptions()
			opts.Parallelism = parallelism
			e := NewExecutor(p, nil, opts)

			results := e.Search(context.Background(), []string{"q1", "q2", "q3"}, false)
			require.Len(t, results, 3)
			assert.NotNil(t, results[0].Items)
			assert.Nil(t, results[1].Items)
			assert.NotNil(t, results[2].Items)

			assert.Equal(t, "q1", results[0].Query)
			assert.Equal(t, "q2", results[1].Query)
			assert.Equal(t, "q3", results[2].Query)

			var se *internal.SearchError
			require.ErrorAs(t, results[1].Err, &se)
			assert.Equal(t, 3, se.Attempts)
		})
	}
}

func TestExecutor_RetryBound(t *testing.T) {
	for _, max := range []int{1, 3, 5} {
		t.Run(fmt.Sprintf("max=%d", max), func(t *testing.T) {
			p := newFakeProvider("always")
			opts := fastOptions()
			opts.MaxRetries = max
			e := NewExecutor(p, nil, opts)

			results := e.Search(context.Background(), []string{"always"}, false)
			assert.Equal(t, max, p.count("always"))
			assert.Equal(t, max, results[0].Attempts)
			assert.False(t, results[0].OK())
		})
	}
}

func TestExecutor_RotatesOnlyWithProxy(t *testing.T) {
	tests := []struct {
		name     string
		useProxy bool
		want     int
	}{
		{"proxy on", true, 2},
		{"proxy off", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakeProvider("bad")
			r := &fakeRotator{ok: true}
			e := NewExecutor(p, r, fastOptions())

			e.Search(context.Background(), []string{"bad"}, tt.useProxy)
			assert.Equal(t, tt.want, r.count())
			for _, used := range p.proxy {
				assert.Equal(t, tt.useProxy, used)
			}
		})
	}
}

func TestExecutor_FailedRotationStillRetries(t *testing.T) {
	p := newFakeProvider("bad")
	r := &fakeRotator{ok: false}
	e := NewExecutor(p, r, fastOptions())

	e.Search(context.Background(), []string{"bad"}, true)
	assert.Equal(t, 3, p.count("bad"))
	assert.Equal(t, 2, r.count())
}

func TestExecutor_MissingToolIsPermanent(t *testing.T) {
	p := newFakeProvider()
	p.fail["q"] = fmt.Errorf("%w: ddgr", internal.ErrToolMissing)
	e := NewExecutor(p, nil, fastOptions())

	results := e.Search(context.Background(), []string{"q"}, false)
	assert.Equal(t, 1, p.count("q"))
	assert.ErrorIs(t, results[0].Err, internal.ErrToolMissing)
}

func TestExecutor_WithDDGRProvider(t *testing.T) {
	runner := testutil.NewFakeRunner().
		On("ddgr",
			testutil.RunResult{Output: testutil.DDGRJSON(t)},
			testutil.RunResult{Output: testutil.DDGRJSON(t, testutil.DDGRItem{Title: "BTC/USD", URL: "https://example.com/btc"})},
		)
	e := NewExecutor(NewDDGRProvider(runner, DDGROptions{}), nil, fastOptions())

	results := e.Search(context.Background(), []string{"btc"}, false)
	require.True(t, results[0].OK())
	assert.Equal(t, "https://example.com/btc", results[0].Items[0].URL())
	assert.Equal(t, 2, results[0].Attempts)
	assert.Equal(t, 2, runner.Count("ddgr"))
}

func TestExecutor_Dump(t *testing.T) {
	dir := t.TempDir()
	opts := fastOptions()
	opts.DumpDir = filepath.Join(dir, "dumps")
	e := NewExecutor(newFakeProvider("q2"), nil, opts)

	e.Search(context.Background(), []string{"q1", "q2"}, false)

	files, err := filepath.Glob(filepath.Join(opts.DumpDir, "result_*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, filepath.Base(files[0]), "result_1_")

	var dumped struct {
		Query string                   `json:"query"`
		Items []map[string]interface{} `json:"items"`
	}
	testutil.ReadJSONFile(t, files[0], &dumped)
	assert.Equal(t, "q1", dumped.Query)
	assert.Len(t, dumped.Items, 1)
}

func TestReferences(t *testing.T) {
	results := []Result{
		{Query: "a", Items: []Item{Item(`{"url":"https://a"}`), Item(`{"url":"https://b"}`)}},
		{Query: "b"},
		{Query: "c", Items: []Item{Item(`{"url":"https://a"}`), Item(`{"title":"no url"}`), Item(`{"url":"https://c"}`)}},
	}
	assert.Equal(t, []string{"https://a", "https://b", "https://c"}, References(results))
	assert.Len(t, Items(results), 5)
	assert.False(t, AllFailed(results))
	assert.True(t, AllFailed([]Result{{Query: "x"}, {Query: "y", Items: []Item{}}}))
}
