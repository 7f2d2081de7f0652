package export

import (
	"fmt"
	"io"
	"time"

	"github.com/iksnae/llmcan/internal"
)

// Transcript is the exported form of the dialog history
type Transcript struct {
	Source     string                `json:"source" yaml:"source"`
	ExportedAt time.Time             `json:"exported_at" yaml:"exported_at"`
	Turns      []internal.DialogTurn `json:"turns" yaml:"turns"`
}

// NewTranscript wraps turns read from source
func NewTranscript(source string, turns []internal.DialogTurn) *Transcript {
	if turns == nil {
		turns = []internal.DialogTurn{}
	}
	return &Transcript{Source: source, ExportedAt: time.Now().UTC(), Turns: turns}
}

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(t *Transcript, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}
