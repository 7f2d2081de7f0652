package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iksnae/llmcan/internal"
	"github.com/iksnae/llmcan/internal/history"
	"github.com/iksnae/llmcan/internal/search"
)

// ErrEmptyInput is returned by Run for input that is blank after trimming
var ErrEmptyInput = errors.New("empty input")

// Searcher runs a batch of queries, one result slot per query
type Searcher interface {
	Search(ctx context.Context, queries []string, useProxy bool) []search.Result
}

// Stage is a step of a turn, reported to the Observer
type Stage int

const (
	StagePreprocessing Stage = iota
	StageSearching
	StageSynthesizing
)

func (s Stage) String() string {
	switch s {
	case StagePreprocessing:
		return "preprocessing"
	case StageSearching:
		return "searching"
	case StageSynthesizing:
		return "synthesizing"
	}
	return "unknown"
}

// Observer receives progress callbacks; nil fields are skipped
type Observer struct {
	OnStage   func(Stage)
	OnQueries func(internal.PreprocessedQuery)
	OnResults func([]search.Result)
}

// TurnResult is everything produced while answering one input
type TurnResult struct {
	ID         string
	Input      string
	Language   internal.Language
	Query      internal.PreprocessedQuery
	Results    []search.Result
	References []string
	Answer     string
	Duration   time.Duration
}

// Pipeline answers user input: preprocess, search, synthesize, record
type Pipeline struct {
	Preprocessor *Preprocessor
	Searcher     Searcher
	Synthesizer  *Synthesizer
	History      *history.Store
	Session      *internal.SessionState
	Reports      *ReportWriter // optional

	// PersistEachTurn writes history after every answered turn.
	PersistEachTurn bool
	// ContextTurns is how many previous turns are shown to the model.
	ContextTurns int
	Observer     Observer
}

// Run answers input. Both dialog turns are recorded only once the answer
// exists, so a cancelled turn leaves history untouched and Run returns the
// context error. Blank input returns ErrEmptyInput without searching.
func (p *Pipeline) Run(ctx context.Context, input string) (*TurnResult, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}
	res := &TurnResult{
		ID:       uuid.NewString(),
		Input:    input,
		Language: internal.DetectLanguage(input),
	}
	start := time.Now()
	log := internal.Logger().With().Str("turn", res.ID[:8]).Logger()
	log.Debug().Str("lang", string(res.Language)).Msg("turn started")

	p.stage(StagePreprocessing)
	res.Query = p.Preprocessor.Preprocess(ctx, input)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Observer.OnQueries != nil {
		p.Observer.OnQueries(res.Query)
	}

	useProxy := p.Session != nil && p.Session.UseProxy()
	if p.Session == nil || p.Session.SearchAvailable() {
		p.stage(StageSearching)
		res.Results = p.Searcher.Search(ctx, res.Query.Queries, useProxy)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.Session != nil && toolMissing(res.Results) && p.Session.DisableSearch() {
			log.Warn().Msg("search tool is not installed, search disabled for this session")
		}
	} else {
		log.Debug().Msg("search disabled, answering without results")
	}
	res.References = search.References(res.Results)
	if p.Observer.OnResults != nil {
		p.Observer.OnResults(res.Results)
	}

	p.stage(StageSynthesizing)
	var transcript []internal.DialogTurn
	if p.History != nil {
		transcript = p.History.Recent(p.ContextTurns)
	}
	transcript = append(transcript, internal.UserTurn(input))
	res.Answer = p.Synthesizer.Synthesize(ctx, res.Query.Instruction, res.Results, res.Language, transcript)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.History != nil {
		p.History.Append(internal.UserTurn(input))
		p.History.Append(internal.AssistantTurn(res.Answer))
		if p.PersistEachTurn {
			p.History.Persist()
		}
	}
	if p.Reports != nil {
		entry := ReportEntry{Time: time.Now(), Queries: res.Query.Queries, Instruction: res.Query.Instruction, Answer: res.Answer}
		if err := p.Reports.Write(entry); err != nil {
			log.Warn().Err(err).Msg("failed to write report")
		}
	}

	res.Duration = time.Since(start)
	log.Info().
		Int("queries", len(res.Query.Queries)).
		Int("references", len(res.References)).
		Bool("tor", useProxy).
		Dur("took", res.Duration).
		Msg("turn answered")
	return res, nil
}

func toolMissing(results []search.Result) bool {
	for _, r := range results {
		if errors.Is(r.Err, internal.ErrToolMissing) {
			return true
		}
	}
	return false
}

func (p *Pipeline) stage(s Stage) {
	internal.LogDebug("stage: %s", s)
	if p.Observer.OnStage != nil {
		p.Observer.OnStage(s)
	}
}
