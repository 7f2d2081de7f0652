// Package agent turns a user utterance into an answer: it rewrites the
// question into search queries, runs them, and asks the model to compose
// a sourced reply.
package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/iksnae/llmcan/internal"
	"github.com/iksnae/llmcan/internal/llm"
)

// DefaultMaxQueries is the primary query plus three related ones
const DefaultMaxQueries = 4

// jsonGenerator is implemented by clients that can constrain output to JSON
type jsonGenerator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Preprocessor rewrites user input into search queries and an instruction
type Preprocessor struct {
	llm        llm.Generator
	maxQueries int
}

// NewPreprocessor creates a preprocessor producing at most maxQueries queries
func NewPreprocessor(gen llm.Generator, maxQueries int) *Preprocessor {
	if maxQueries < 1 {
		maxQueries = DefaultMaxQueries
	}
	return &Preprocessor{llm: gen, maxQueries: maxQueries}
}

// Preprocess never fails: when the model is unavailable or its answer
// cannot be used, the input with surrounding whitespace removed becomes the
// only query.
func (p *Preprocessor) Preprocess(ctx context.Context, userInput string) internal.PreprocessedQuery {
	lang := internal.DetectLanguage(userInput)
	fallback := internal.PreprocessedQuery{
		Queries:     []string{strings.TrimSpace(userInput)},
		Instruction: DefaultInstruction(lang),
	}

	answer, err := p.generate(ctx, preprocessPrompt(userInput, p.maxQueries))
	if err != nil {
		internal.LogWarn("query preprocessing unavailable, using the original input: %v", err)
		return fallback
	}

	q, err := parsePreprocess(answer)
	if err != nil {
		internal.LogWarn("could not parse preprocessing answer, using the original input: %v", err)
		return fallback
	}

	q.Queries = normalizeQueries(q.Queries, p.maxQueries)
	if len(q.Queries) == 0 {
		internal.LogWarn("preprocessing produced no usable queries, using the original input")
		return fallback
	}
	if q.Instruction == "" {
		q.Instruction = DefaultInstruction(lang)
	}
	internal.LogDebug("preprocessed %q into %d queries", internal.Truncate(userInput, 60), len(q.Queries))
	return q
}

func (p *Preprocessor) generate(ctx context.Context, prompt string) (string, error) {
	var answer string
	var err error
	if jg, ok := p.llm.(jsonGenerator); ok {
		answer, err = jg.GenerateJSON(ctx, prompt)
	} else {
		answer, err = p.llm.Generate(ctx, prompt)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return "", errors.New("empty answer")
	}
	return answer, nil
}

// parsePreprocess tries the JSON contract first, then the line format
func parsePreprocess(answer string) (internal.PreprocessedQuery, error) {
	q, jsonErr := parsePreprocessJSON(answer)
	if jsonErr == nil {
		return q, nil
	}
	q, err := parsePreprocessLines(answer)
	if err != nil {
		internal.LogDebug("json parse: %v", jsonErr)
		return q, err
	}
	return q, nil
}
