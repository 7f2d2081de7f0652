package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/llmcan/internal"
)

func TestJSONExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	exporter := &JSONExporter{}
	tr := sampleTranscript()

	if err := exporter.Export(tr, &buf); err != nil {
		t.Fatalf("JSONExporter.Export() error = %v", err)
	}

	var decoded struct {
		Source string                `json:"source"`
		Turns  []internal.DialogTurn `json:"turns"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Source != tr.Source {
		t.Errorf("Source = %v, want %v", decoded.Source, tr.Source)
	}
	if len(decoded.Turns) != 2 || decoded.Turns[1] != tr.Turns[1] {
		t.Errorf("Turns = %v, want %v", decoded.Turns, tr.Turns)
	}
	if !strings.Contains(buf.String(), "\n  \"turns\"") {
		t.Errorf("output should be indented, got:\n%s", buf.String())
	}
}

func TestJSONExporter_EmptyTurns(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(NewTranscript("", nil), &buf); err != nil {
		t.Fatalf("JSONExporter.Export() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"turns": []`) {
		t.Errorf("empty history should export as [], got:\n%s", buf.String())
	}
}

func TestJSONExporter_Extension(t *testing.T) {
	exporter := &JSONExporter{}
	if got := exporter.Extension(); got != "json" {
		t.Errorf("JSONExporter.Extension() = %v, want json", got)
	}
}
