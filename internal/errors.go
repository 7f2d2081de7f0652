package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrLLMUnavailable is matched by LLM errors caused by transport failures,
	// timeouts or non-2xx responses.
	ErrLLMUnavailable = errors.New("llm unavailable")
	// ErrLLMResponseMalformed is matched by LLM errors whose body could not be decoded.
	ErrLLMResponseMalformed = errors.New("llm response malformed")
	// ErrToolMissing reports that a required external command is not installed.
	ErrToolMissing = errors.New("required tool not installed")
)

// LLMErrorKind classifies LLM client failures
type LLMErrorKind int

const (
	LLMUnavailable LLMErrorKind = iota
	LLMResponseMalformed
)

func (k LLMErrorKind) String() string {
	if k == LLMResponseMalformed {
		return "malformed response"
	}
	return "unavailable"
}

// LLMError represents a failed call to the generation endpoint
type LLMError struct {
	Kind LLMErrorKind
	Op   string // "generate", "tags", "ping"
	Err  error
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("llm %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the ErrLLMUnavailable and ErrLLMResponseMalformed sentinels.
func (e *LLMError) Is(target error) bool {
	switch target {
	case ErrLLMUnavailable:
		return e.Kind == LLMUnavailable
	case ErrLLMResponseMalformed:
		return e.Kind == LLMResponseMalformed
	}
	return false
}

// SearchError represents a query that could not be answered by the search tool
type SearchError struct {
	Query    string
	Attempts int
	Err      error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search error [%s] after %d attempt(s): %v", e.Query, e.Attempts, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// HistoryError represents errors reading or writing the dialog history file
type HistoryError struct {
	Path string
	Op   string // "read", "decode", "write"
	Err  error
}

func (e *HistoryError) Error() string {
	return fmt.Sprintf("history error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *HistoryError) Unwrap() error {
	return e.Err
}

// ParseError represents errors parsing data
type ParseError struct {
	Source string // "preprocess", "ddgr", "ip-echo"
	Key    string // offending input, possibly truncated
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConfigError represents an invalid configuration value
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error [%s]: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Truncate shortens s to at most n runes for log and error keys.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
