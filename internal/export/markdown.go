package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/llmcan/internal"
)

// MarkdownExporter exports the transcript in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format. Assistant turns are
// already Markdown and are written unchanged; user input is escaped.
func (e *MarkdownExporter) Export(t *Transcript, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Dialog history\n\n")
	if t.Source != "" {
		_, _ = fmt.Fprintf(w, "**Source:** %s  \n", t.Source)
	}
	_, _ = fmt.Fprintf(w, "**Exported:** %s  \n", t.ExportedAt.Format("2006-01-02 15:04:05 MST"))
	_, _ = fmt.Fprintf(w, "**Turns:** %d\n\n", len(t.Turns))
	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, turn := range t.Turns {
		content := turn.Content
		if turn.Role == internal.RoleUser {
			content = escapeMarkdown(content)
		}

		_, _ = fmt.Fprintf(w, "**%s:**\n\n%s\n\n", turn.Role, content)

		if i < len(t.Turns)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
