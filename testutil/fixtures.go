package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// DDGRItem is one entry of `ddgr --json` output
type DDGRItem struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Abstract string `json:"abstract"`
}

// DDGRBitcoin is a single-result ddgr answer
const DDGRBitcoin = `[
  {
    "abstract": "Live BTC to USD price chart.",
    "title": "BTC/USD",
    "url": "https://example.com"
  }
]`

// DDGRJSON renders items the way ddgr --json prints them
func DDGRJSON(t *testing.T, items ...DDGRItem) string {
	t.Helper()
	if items == nil {
		items = []DDGRItem{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal ddgr items: %v", err)
	}
	return string(data)
}

// WriteHistoryFixture writes content to name under dir and returns the path
func WriteHistoryFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", path, err)
	}
	return path
}

// ReadJSONFile decodes the JSON file at path into v
func ReadJSONFile(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	JSONUnmarshal(t, data, v)
}

// JSONUnmarshal decodes data into v or fails the test
func JSONUnmarshal(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
}
