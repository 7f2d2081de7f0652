package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/llmcan/internal"
	"github.com/iksnae/llmcan/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTurns(n int) []internal.DialogTurn {
	turns := make([]internal.DialogTurn, 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			turns = append(turns, internal.UserTurn(fmt.Sprintf("question %d", i)))
		} else {
			turns = append(turns, internal.AssistantTurn(fmt.Sprintf("answer %d <b>&</b>", i)))
		}
	}
	return turns
}

func TestStore_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		turns     int
		maxLength int
		want      int
	}{
		{"empty", 0, 10, 0},
		{"under limit", 4, 10, 4},
		{"at limit", 10, 10, 10},
		{"over limit", 25, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data", "history.json")
			turns := sampleTurns(tt.turns)

			s := NewStore(path, tt.maxLength)
			for _, turn := range turns {
				s.Append(turn)
			}
			require.True(t, s.Persist())

			fresh := NewStore(path, tt.maxLength)
			got := fresh.Load()
			assert.Len(t, got, tt.want)
			if tt.want > 0 {
				assert.Equal(t, turns[len(turns)-tt.want:], got)
			}
		})
	}
}

func TestStore_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	s := NewStore(path, 10)
	s.Append(internal.UserTurn("курс биткоина"))
	s.Append(internal.AssistantTurn("a <b> & c"))
	require.True(t, s.Persist())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "[\n  {"), "expected pretty-printed array, got %q", text)
	assert.Contains(t, text, "курс биткоина")
	assert.Contains(t, text, "a <b> & c")

	var decoded []map[string]string
	testutil.JSONUnmarshal(t, data, &decoded)
	assert.Equal(t, []map[string]string{
		{"role": "user", "content": "курс биткоина"},
		{"role": "assistant", "content": "a <b> & c"},
	}, decoded)
}

func TestStore_CorruptFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"not json", "not json", 0},
		{"wrong shape", "[1,2,3]", 0},
		{"object", `{"role":"user","content":"x"}`, 0},
		{"empty file", "", 0},
		{"whitespace", "\n\n", 0},
		{"unknown role dropped", `[{"role":"user","content":"a"},{"role":"system","content":"b"}]`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteHistoryFixture(t, t.TempDir(), "history.json", tt.content)
			s := NewStore(path, 10)
			got := s.Load()
			assert.NotNil(t, got)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestStore_MissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nope.json"), 10)
	assert.Empty(t, s.Load())
	assert.Equal(t, 0, s.Len())
}

func TestStore_LoadIsCached(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteHistoryFixture(t, dir, "history.json", `[{"role":"user","content":"a"}]`)
	s := NewStore(path, 10)
	require.Len(t, s.Load(), 1)

	testutil.WriteHistoryFixture(t, dir, "history.json", `[]`)
	assert.Len(t, s.Load(), 1)

	got := s.Load()
	got[0].Content = "mutated"
	assert.Equal(t, "a", s.Load()[0].Content)
}

func TestStore_AppendKeepsLoadedTurns(t *testing.T) {
	path := testutil.WriteHistoryFixture(t, t.TempDir(), "history.json", `[{"role":"user","content":"old"}]`)
	s := NewStore(path, 10)
	s.Append(internal.AssistantTurn("new"))
	s.Append(internal.DialogTurn{Role: "system", Content: "ignored"})

	got := s.Turns()
	require.Len(t, got, 2)
	assert.Equal(t, "old", got[0].Content)
	assert.Equal(t, "new", got[1].Content)
}

func TestStore_PersistFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	s := NewStore(filepath.Join(blocker, "history.json"), 10)
	s.Append(internal.UserTurn("hi"))
	assert.False(t, s.Persist())
}

func TestStore_FinalizeOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	s := NewStore(path, 10)
	s.Append(internal.UserTurn("hi"))
	s.Finalize()

	_, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	s.Finalize()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "second Finalize() wrote the file again")
}

func TestStore_RecentAndClear(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "h.json"), 10)
	for _, turn := range sampleTurns(6) {
		s.Append(turn)
	}
	recent := s.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "question 4", recent[0].Content)
	assert.Len(t, s.Recent(100), 6)
	assert.Nil(t, s.Recent(0))

	s.Clear()
	assert.Equal(t, 0, s.Len())
	require.True(t, s.Persist())
	assert.Empty(t, NewStore(s.Path(), 10).Load())
}
