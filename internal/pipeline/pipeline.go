// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline resolves legal questions: it normalizes and classifies
// the question, runs the retrieval cascade, synthesizes an answer with the
// strategy for the detected intent, then extracts citations, scores, and
// validates. Every failure after input validation becomes data on the
// returned result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pdiddy/legal-engine/internal/citation"
	"github.com/pdiddy/legal-engine/internal/llm"
	"github.com/pdiddy/legal-engine/internal/normalize"
	"github.com/pdiddy/legal-engine/internal/retrieve"
	"github.com/pdiddy/legal-engine/internal/score"
	"github.com/pdiddy/legal-engine/internal/search"
	"github.com/pdiddy/legal-engine/internal/strategy"
	"github.com/pdiddy/legal-engine/pkg/types"
)

// Defaults used when no option overrides them.
const (
	DefaultTimeout    = 60 * time.Second
	DefaultMaxResults = 5
	DefaultMinScore   = 0.3
)

// Pipeline is safe for concurrent use. Each Resolve call owns its working
// set; only Metrics is shared.
type Pipeline struct {
	analyzer   normalize.Analyzer
	index      retrieve.Index
	web        retrieve.WebSearcher
	completer  llm.Completer
	timeout    time.Duration
	maxResults int
	minScore   float64
	webScore   float64
	logger     *slog.Logger
	now        func() time.Time

	retriever  *retrieve.Retriever
	dispatcher *strategy.Dispatcher
	citations  *citation.Extractor
	metrics    *Metrics
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithIndex sets the vector-index capability.
func WithIndex(idx retrieve.Index) Option {
	return func(p *Pipeline) { p.index = idx }
}

// WithWebSearcher enables the web fallback.
func WithWebSearcher(w retrieve.WebSearcher) Option {
	return func(p *Pipeline) { p.web = w }
}

// WithCompleter sets the completion capability.
func WithCompleter(c llm.Completer) Option {
	return func(p *Pipeline) { p.completer = c }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithTimeout bounds each invocation. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithRetrieval sets the result quota and score cutoff.
func WithRetrieval(maxResults int, minScore float64) Option {
	return func(p *Pipeline) {
		p.maxResults = maxResults
		p.minScore = minScore
	}
}

// WithWebRelevance overrides the fixed score of web chunks.
func WithWebRelevance(s float64) Option {
	return func(p *Pipeline) { p.webScore = s }
}

// WithQuestionLimits sets the maximum question length and the domain used
// when none is detected.
func WithQuestionLimits(maxLength int, defaultDomain types.Domain) Option {
	return func(p *Pipeline) {
		p.analyzer = normalize.Analyzer{MaxLength: maxLength, DefaultDomain: defaultDomain}
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithConfig applies pipeline and retrieval settings from configuration.
func WithConfig(pc types.PipelineConfig, rc types.RetrievalConfig) Option {
	return func(p *Pipeline) {
		p.timeout = pc.Timeout
		p.analyzer = normalize.Analyzer{MaxLength: pc.MaxQuestionLength, DefaultDomain: pc.DefaultDomain}
		if rc.MaxResults > 0 {
			p.maxResults = rc.MaxResults
		}
		p.minScore = rc.MinScore
	}
}

// New builds a Pipeline. Missing capabilities degrade results instead of
// failing: without an index every query is answered from an empty
// context, and without a completer every answer is the apology.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		analyzer:   normalize.Analyzer{MaxLength: 2000},
		timeout:    DefaultTimeout,
		maxResults: DefaultMaxResults,
		minScore:   DefaultMinScore,
		webScore:   retrieve.DefaultWebRelevance,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
		citations:  citation.New(),
		metrics:    NewMetrics(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.completer == nil {
		p.completer = missingCompleter{}
	}

	ropts := []retrieve.Option{retrieve.WithLogger(p.logger), retrieve.WithWebRelevance(p.webScore)}
	if p.web != nil {
		ropts = append(ropts, retrieve.WithWebSearcher(p.web))
	}
	p.retriever = retrieve.New(p.index, ropts...)
	p.dispatcher = strategy.NewDispatcher(p.completer)
	return p
}

// Metrics returns the shared metrics.
func (p *Pipeline) Metrics() *Metrics { return p.metrics }

// Dispatcher returns the strategy dispatcher.
func (p *Pipeline) Dispatcher() *strategy.Dispatcher { return p.dispatcher }

// Resolve answers one question. The only error it returns is *InputError;
// every later failure is reported through the result's warnings.
func (p *Pipeline) Resolve(ctx context.Context, q types.Query) (*types.QueryResult, error) {
	start := p.now()

	nq, err := p.analyzer.Analyze(q)
	if err != nil {
		p.metrics.recordRejected()
		p.logger.WarnContext(ctx, "question rejected", "error", err)
		return nil, &InputError{Err: err}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	res := &types.QueryResult{
		ID:              nq.ID,
		Question:        q.Text,
		LegalDomain:     nq.Domain,
		QueryType:       nq.Intent,
		ConfidenceLevel: types.ConfidenceUncertain,
		Citations:       []types.Citation{},
		Sources:         []types.DocumentChunk{},
		Warnings:        []string{},
		Timestamp:       start,
	}

	out, err := p.retriever.Retrieve(ctx, nq.NormalizedText, nq.Domain, p.maxResults, p.minScore)
	if out.Chunks != nil {
		res.Sources = out.Chunks
	}
	for _, rerr := range out.Errors {
		res.Warnings = append(res.Warnings, retrievalWarning(rerr))
	}
	if err != nil {
		if ctx.Err() != nil {
			return p.degrade(ctx, res, start), nil
		}
		res.Warnings = append(res.Warnings, retrievalWarning(err))
	}
	if len(res.Sources) == 0 {
		res.Suggestions = search.Suggestions(q.Text)
	}

	if ctx.Err() != nil {
		return p.degrade(ctx, res, start), nil
	}

	strat := p.dispatcher.For(nq.Intent)
	res.Strategy = strat.Name()
	partial, err := strat.Synthesize(ctx, nq, res.Sources, nq.Domain)
	if err != nil {
		if ctx.Err() != nil {
			return p.degrade(ctx, res, start), nil
		}
		return p.apologize(ctx, res, err, start), nil
	}

	res.Answer = partial.Answer
	res.Reasoning = partial.Reasoning
	res.Warnings = append(res.Warnings, partial.Warnings...)

	p.guard(ctx, res, "trích dẫn", func() {
		res.Citations = p.extractCitations(nq.Original, res.Answer, res.Sources)
	})
	graded := partial.Raw
	if graded == "" {
		graded = partial.Answer
	}
	p.guard(ctx, res, "chấm điểm", func() {
		res.ConfidenceScore = score.Score(graded, res.Sources)
		res.ConfidenceLevel = partial.Thresholds.Level(res.ConfidenceScore)
	})
	p.guard(ctx, res, "kiểm tra", func() {
		v := score.Validate(graded, res.Sources)
		res.Warnings = append(res.Warnings, v.Warnings...)
		if !v.IsValid {
			res.Warnings = append(res.Warnings, WarnInvalid)
		}
		if v.ConfidenceAdjustment != 0 {
			res.Reasoning += fmt.Sprintf(" Điều chỉnh độ tin cậy đề xuất: %.2f.", v.ConfidenceAdjustment)
		}
	})

	p.finish(ctx, res, start, outcomeOK)
	return res, nil
}

// extractCitations runs the extractor over sources then answer and ranks
// the union against the question.
func (p *Pipeline) extractCitations(question, answer string, sources []types.DocumentChunk) []types.Citation {
	all := p.citations.FromChunks(sources)
	all = append(all, p.citations.FromText(answer)...)
	ranked := citation.Detailed(question, all)
	if ranked == nil {
		return []types.Citation{}
	}
	return ranked
}

// guard runs fn and turns a panic into a warning so a result is still
// returned.
func (p *Pipeline) guard(ctx context.Context, res *types.QueryResult, step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.ErrorContext(ctx, "post-synthesis step panicked", "id", res.ID, "step", step, "panic", r)
			res.Warnings = append(res.Warnings, internalWarning(step))
		}
	}()
	fn()
}

// apologize fills the fixed answer for a generation failure.
func (p *Pipeline) apologize(ctx context.Context, res *types.QueryResult, err error, start time.Time) *types.QueryResult {
	p.logger.ErrorContext(ctx, "generation failed", "id", res.ID, "strategy", res.Strategy, "error", err)

	res.Answer = ApologyAnswer
	res.ConfidenceScore = 0
	res.ConfidenceLevel = types.ConfidenceUncertain
	res.Warnings = append(res.Warnings, WarnGeneration)
	res.Reasoning = err.Error()
	p.guard(ctx, res, "trích dẫn", func() {
		res.Citations = p.extractCitations(res.Question, "", res.Sources)
	})
	p.finish(ctx, res, start, outcomeError)
	return res
}

// degrade fills the timeout answer once the invocation context expired.
func (p *Pipeline) degrade(ctx context.Context, res *types.QueryResult, start time.Time) *types.QueryResult {
	err := ctx.Err()
	p.logger.WarnContext(ctx, "query did not complete", "id", res.ID, "error", err)

	res.Answer = TimeoutAnswer
	res.ConfidenceScore = 0
	res.ConfidenceLevel = types.ConfidenceUncertain
	if errors.Is(err, context.DeadlineExceeded) {
		res.Warnings = append(res.Warnings, WarnTimedOut)
		res.Reasoning = fmt.Sprintf("timed out after %s", p.timeout)
	} else {
		res.Warnings = append(res.Warnings, WarnCancelled)
		res.Reasoning = fmt.Sprintf("cancelled: %v", err)
	}
	p.guard(ctx, res, "trích dẫn", func() {
		res.Citations = p.extractCitations(res.Question, "", res.Sources)
	})
	p.finish(ctx, res, start, outcomeTimeout)
	return res
}

// finish records metrics exactly once and logs the outcome.
func (p *Pipeline) finish(ctx context.Context, res *types.QueryResult, start time.Time, o outcome) {
	elapsed := p.now().Sub(start)
	p.metrics.record(types.QuerySummary{
		ID:              res.ID,
		Domain:          res.LegalDomain,
		QueryType:       res.QueryType,
		ConfidenceScore: res.ConfidenceScore,
		ConfidenceLevel: res.ConfidenceLevel,
		Sources:         len(res.Sources),
		Duration:        elapsed,
		Timestamp:       res.Timestamp,
	}, o)
	p.logger.InfoContext(ctx, "query resolved",
		"id", res.ID,
		"domain", res.LegalDomain,
		"query_type", res.QueryType,
		"strategy", res.Strategy,
		"confidence", res.ConfidenceScore,
		"level", res.ConfidenceLevel,
		"sources", len(res.Sources),
		"warnings", len(res.Warnings),
		"duration", elapsed,
	)
}

// missingCompleter stands in when no backend is configured.
type missingCompleter struct{}

func (missingCompleter) Name() string { return "none" }

func (missingCompleter) Complete(context.Context, []llm.Message) (string, error) {
	return "", ErrNoCompleter
}
