// Package search runs web searches through an external CLI with bounded
// retry and optional identity rotation between attempts.
package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iksnae/llmcan/internal"
	"github.com/tidwall/gjson"
)

// Item is one untyped result object as printed by the search tool. Fields
// are read on demand; absent fields read as "".
type Item json.RawMessage

func (it Item) get(field string) string {
	return gjson.GetBytes(it, field).String()
}

func (it Item) Title() string    { return it.get("title") }
func (it Item) URL() string      { return it.get("url") }
func (it Item) Abstract() string { return it.get("abstract") }

// MarshalJSON emits the raw object unchanged
func (it Item) MarshalJSON() ([]byte, error) {
	if len(it) == 0 {
		return []byte("null"), nil
	}
	return it, nil
}

// UnmarshalJSON keeps a copy of the raw object
func (it *Item) UnmarshalJSON(data []byte) error {
	*it = append((*it)[:0], data...)
	return nil
}

// failureMarkers appear in ddgr output when the request was blocked
var failureMarkers = []string{"[ERROR]", "HTTP Error"}

// ParseItems decodes tool output into items. Output that is empty, carries
// an error marker, is not a JSON array of objects, or holds no items is a
// failure.
func ParseItems(out []byte) ([]Item, error) {
	text := bytes.TrimSpace(out)
	if len(text) == 0 {
		return nil, &internal.ParseError{Source: "ddgr", Err: fmt.Errorf("empty output")}
	}
	for _, m := range failureMarkers {
		if bytes.Contains(text, []byte(m)) {
			return nil, &internal.ParseError{Source: "ddgr", Key: internal.Truncate(firstLine(text), 120), Err: fmt.Errorf("search tool reported %s", m)}
		}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(text, &raw); err != nil {
		return nil, &internal.ParseError{Source: "ddgr", Key: internal.Truncate(firstLine(text), 120), Err: err}
	}
	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		if !gjson.ParseBytes(r).IsObject() {
			return nil, &internal.ParseError{Source: "ddgr", Key: internal.Truncate(string(r), 60), Err: fmt.Errorf("result is not an object")}
		}
		items = append(items, Item(r))
	}
	if len(items) == 0 {
		return nil, &internal.ParseError{Source: "ddgr", Err: fmt.Errorf("no results")}
	}
	return items, nil
}

func firstLine(b []byte) string {
	s := string(b)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
