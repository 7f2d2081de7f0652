package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ReportEntry is one answered turn in the plain-text report log
type ReportEntry struct {
	Time        time.Time
	Queries     []string
	Instruction string
	Answer      string
}

// ReportWriter appends turn reports to a text file
type ReportWriter struct {
	path string
	mu   sync.Mutex
}

// NewReportWriter creates a writer for path
func NewReportWriter(path string) *ReportWriter {
	return &ReportWriter{path: path}
}

// Path returns the report file location
func (w *ReportWriter) Path() string {
	return w.path
}

// Write appends entry followed by a dashed separator
func (w *ReportWriter) Write(entry ReportEntry) error {
	queries, err := marshalIndent(entry.Queries)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Дата и время: %s\n", entry.Time.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Запросы:\n%s\n", queries)
	fmt.Fprintf(&b, "Инструкция:\n%s\n", entry.Instruction)
	fmt.Fprintf(&b, "Ответ модели:\n%s\n", entry.Answer)
	b.WriteString(strings.Repeat("-", 50) + "\n")

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open report file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
