package internal

import (
	"errors"
	"strings"
	"testing"
)

func TestLLMError(t *testing.T) {
	cause := errors.New("connection refused")
	tests := []struct {
		name          string
		err           *LLMError
		wantSubstr    string
		isUnavailable bool
		isMalformed   bool
	}{
		{
			name:          "unavailable",
			err:           &LLMError{Kind: LLMUnavailable, Op: "generate", Err: cause},
			wantSubstr:    "llm generate: unavailable",
			isUnavailable: true,
		},
		{
			name:        "malformed",
			err:         &LLMError{Kind: LLMResponseMalformed, Op: "tags", Err: cause},
			wantSubstr:  "malformed response",
			isMalformed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.err.Error(), tt.wantSubstr) {
				t.Errorf("Error() = %q, want substring %q", tt.err.Error(), tt.wantSubstr)
			}
			if !errors.Is(tt.err, cause) {
				t.Error("LLMError should unwrap to its cause")
			}
			if got := errors.Is(tt.err, ErrLLMUnavailable); got != tt.isUnavailable {
				t.Errorf("errors.Is(ErrLLMUnavailable) = %v, want %v", got, tt.isUnavailable)
			}
			if got := errors.Is(tt.err, ErrLLMResponseMalformed); got != tt.isMalformed {
				t.Errorf("errors.Is(ErrLLMResponseMalformed) = %v, want %v", got, tt.isMalformed)
			}
		})
	}
}

func TestSearchError(t *testing.T) {
	err := &SearchError{Query: "btc usd", Attempts: 3, Err: ErrToolMissing}
	msg := err.Error()
	if !strings.Contains(msg, "btc usd") || !strings.Contains(msg, "3 attempt(s)") {
		t.Errorf("SearchError.Error() = %q", msg)
	}
	if !errors.Is(err, ErrToolMissing) {
		t.Error("SearchError should unwrap to ErrToolMissing")
	}
}

func TestWrappedErrors(t *testing.T) {
	cause := errors.New("permission denied")
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"history", &HistoryError{Path: "/data/h.json", Op: "write", Err: cause}, []string{"history error", "write", "/data/h.json"}},
		{"parse", &ParseError{Source: "ddgr", Key: "[ERROR]", Err: cause}, []string{"parse error", "ddgr", "[ERROR]"}},
		{"config", &ConfigError{Key: "llm.host", Err: cause}, []string{"config error", "llm.host"}},
		{"export", &ExportError{Format: "md", Path: "out.md", Err: cause}, []string{"export error", "md", "out.md"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, w := range tt.want {
				if !strings.Contains(msg, w) {
					t.Errorf("Error() = %q, want substring %q", msg, w)
				}
			}
			if !errors.Is(tt.err, cause) {
				t.Errorf("%T should unwrap to its cause", tt.err)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated text", 9, "truncated…"},
		{"курс биткоина", 4, "курс…"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %v, want %v", tt.in, tt.n, got, tt.want)
		}
	}
}
