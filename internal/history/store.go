// Package history keeps the dialog turns of the conversation and persists
// them as a JSON array.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/iksnae/llmcan/internal"
)

// DefaultMaxLength is the number of most recent turns kept on persist
const DefaultMaxLength = 100

// Store holds dialog turns in memory and mirrors them to a JSON file
type Store struct {
	path      string
	maxLength int

	mu       sync.Mutex
	turns    []internal.DialogTurn
	loaded   bool
	finalize sync.Once
}

// NewStore creates a store backed by path. Nothing is read until first use.
func NewStore(path string, maxLength int) *Store {
	if maxLength < 1 {
		maxLength = DefaultMaxLength
	}
	return &Store{path: path, maxLength: maxLength}
}

// Path returns the history file location
func (s *Store) Path() string {
	return s.path
}

// Load returns the turns read from disk on first call; later calls return
// the cached turns. A missing, empty or malformed file loads as no turns.
func (s *Store) Load() []internal.DialogTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	return copyTurns(s.turns)
}

func (s *Store) ensureLoaded() {
	if s.loaded {
		return
	}
	s.loaded = true
	turns, err := readFile(s.path)
	if err != nil {
		internal.LogWarn("discarding unreadable history: %v", err)
		turns = nil
	}
	s.turns = turns
	internal.LogDebug("loaded %d history turn(s) from %s", len(s.turns), s.path)
}

func readFile(path string) ([]internal.DialogTurn, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &internal.HistoryError{Path: path, Op: "read", Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &internal.HistoryError{Path: path, Op: "decode", Err: err}
	}
	turns := make([]internal.DialogTurn, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		var t internal.DialogTurn
		if err := json.Unmarshal(r, &t); err != nil || !t.Valid() {
			dropped++
			continue
		}
		turns = append(turns, t)
	}
	if dropped > 0 {
		internal.LogWarn("dropped %d malformed history entr(ies) from %s", dropped, path)
	}
	return turns, nil
}

// Append adds a turn in memory. Turns with an unknown role are ignored.
func (s *Store) Append(turn internal.DialogTurn) {
	if !turn.Valid() {
		internal.LogWarn("ignoring history turn with role %q", turn.Role)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	s.turns = append(s.turns, turn)
}

// Persist truncates to the most recent turns and writes the file. It
// returns false and logs on failure.
func (s *Store) Persist() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	if len(s.turns) > s.maxLength {
		s.turns = copyTurns(s.turns[len(s.turns)-s.maxLength:])
	}
	if err := writeFile(s.path, s.turns); err != nil {
		internal.LogError("failed to save history: %v", err)
		return false
	}
	internal.LogDebug("saved %d history turn(s) to %s", len(s.turns), s.path)
	return true
}

func writeFile(path string, turns []internal.DialogTurn) error {
	if turns == nil {
		turns = []internal.DialogTurn{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(turns); err != nil {
		return &internal.HistoryError{Path: path, Op: "encode", Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &internal.HistoryError{Path: path, Op: "write", Err: fmt.Errorf("failed to create directory: %w", err)}
	}
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return &internal.HistoryError{Path: path, Op: "write", Err: err}
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return &internal.HistoryError{Path: path, Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &internal.HistoryError{Path: path, Op: "write", Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &internal.HistoryError{Path: path, Op: "write", Err: err}
	}
	return nil
}

// Finalize persists once; later calls do nothing
func (s *Store) Finalize() {
	s.finalize.Do(func() {
		if s.Persist() {
			internal.LogInfo("history saved to %s", s.path)
		}
	})
}

// Turns returns a copy of all turns in memory
func (s *Store) Turns() []internal.DialogTurn {
	return s.Load()
}

// Recent returns up to n most recent turns
func (s *Store) Recent(n int) []internal.DialogTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	if n <= 0 {
		return nil
	}
	if n > len(s.turns) {
		n = len(s.turns)
	}
	return copyTurns(s.turns[len(s.turns)-n:])
}

// Len returns the number of turns in memory
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	return len(s.turns)
}

// Clear drops every turn in memory; the file changes on the next Persist
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.turns = nil
}

func copyTurns(turns []internal.DialogTurn) []internal.DialogTurn {
	out := make([]internal.DialogTurn, len(turns))
	copy(out, turns)
	return out
}
