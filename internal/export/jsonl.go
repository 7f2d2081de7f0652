package export

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONLExporter exports one turn per line
type JSONLExporter struct{}

// Export exports a transcript to JSONL format
func (e *JSONLExporter) Export(t *Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for i, turn := range t.Turns {
		obj := map[string]interface{}{
			"index":   i,
			"role":    turn.Role,
			"content": turn.Content,
		}
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode turn %d: %w", i, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
