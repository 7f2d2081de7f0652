package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/iksnae/llmcan/internal"
	"github.com/iksnae/llmcan/internal/llm"
	"github.com/iksnae/llmcan/internal/search"
)

// Synthesizer composes the final answer from search results
type Synthesizer struct {
	llm llm.Generator
	now func() time.Time
}

// NewSynthesizer creates a synthesizer
func NewSynthesizer(gen llm.Generator) *Synthesizer {
	return &Synthesizer{llm: gen, now: time.Now}
}

// Synthesize never fails. With no results it answers with a canned message
// without calling the model; when the model fails it apologizes. history is
// embedded into the prompt as conversation context.
func (s *Synthesizer) Synthesize(ctx context.Context, instruction string, results []search.Result, lang internal.Language, history []internal.DialogTurn) string {
	if search.AllFailed(results) {
		internal.LogInfo("no search results, skipping synthesis")
		return NoResultsMessage(lang)
	}

	resultsJSON, err := marshalIndent(search.Items(results))
	if err != nil {
		internal.LogError("failed to encode search results: %v", err)
		return ApologyMessage(lang)
	}
	prompt := synthesisPrompt(instruction, resultsJSON, lang, internal.FormatTranscript(history), s.now())

	answer, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		internal.LogError("answer synthesis failed: %v", err)
		return ApologyMessage(lang)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		internal.LogWarn("model returned an empty answer")
		return ApologyMessage(lang)
	}
	return FormatWithReferences(answer, search.References(results), lang)
}

// marshalIndent pretty-prints v without escaping <, > and &
func marshalIndent(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

var refMarker = regexp.MustCompile(`\[(\d+)\](\([^)]*\))?`)

// FormatWithReferences links [n] markers to the n-th reference and appends
// a numbered source list.
func FormatWithReferences(answer string, refs []string, lang internal.Language) string {
	if len(refs) == 0 {
		return answer
	}
	linked := refMarker.ReplaceAllStringFunc(answer, func(m string) string {
		sub := refMarker.FindStringSubmatch(m)
		if sub[2] != "" {
			return m
		}
		n, err := strconv.Atoi(sub[1])
		if err != nil || n < 1 || n > len(refs) {
			return m
		}
		return fmt.Sprintf("[%d](%s)", n, refs[n-1])
	})

	var b strings.Builder
	b.WriteString(linked)
	b.WriteString("\n\n")
	b.WriteString(localized(sourcesHeading, lang))
	b.WriteString("\n")
	for i, ref := range refs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, ref)
	}
	return b.String()
}
