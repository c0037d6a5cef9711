// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package strategy synthesizes answers. A static dispatcher maps each query
// type to one strategy; every strategy renders its prompt, calls the
// completer once, and post-processes the raw answer.
package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/legal-engine/internal/llm"
	"github.com/pdiddy/legal-engine/internal/score"
	"github.com/pdiddy/legal-engine/pkg/types"
)

// Thresholds are the lower bounds of the high, medium, and low confidence
// levels. Scores below Low are uncertain.
type Thresholds struct {
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
	Low    float64 `json:"low"`
}

// Level buckets a confidence score.
func (t Thresholds) Level(s float64) types.ConfidenceLevel {
	switch {
	case s >= t.High:
		return types.ConfidenceHigh
	case s >= t.Medium:
		return types.ConfidenceMedium
	case s >= t.Low:
		return types.ConfidenceLow
	default:
		return types.ConfidenceUncertain
	}
}

// Per-strategy thresholds. Strategies whose answers carry legal risk use
// stricter cutoffs.
var (
	standardThresholds = Thresholds{High: 0.80, Medium: 0.60, Low: 0.40}
	strictThresholds   = Thresholds{High: 0.85, Medium: 0.70, Low: 0.50}
	caseThresholds     = Thresholds{High: 0.80, Medium: 0.65, Low: 0.45}
)

// Partial is what a strategy contributes to the final result.
type Partial struct {
	// Answer is the post-processed text shown to the user.
	Answer string

	// Raw is the completion before post-processing. Scoring and validation
	// grade Raw so that headers, footers, and disclaimers added here do not
	// count as the model's citations or structure.
	Raw string

	Reasoning  string
	Warnings   []string
	Thresholds Thresholds

	// Provisional is the strategy's own score of its raw answer.
	Provisional float64
}

// Strategy synthesizes an answer for one query type.
type Strategy interface {
	Name() string
	Synthesize(ctx context.Context, q types.NormalizedQuery, sources []types.DocumentChunk, domain types.Domain) (Partial, error)
}

// postFunc rewrites a raw answer and appends warnings.
type postFunc func(p *Partial, q types.NormalizedQuery, sources []types.DocumentChunk, domain types.Domain)

// rag is the single strategy implementation, parameterized per query type.
type rag struct {
	name        string
	instruction string
	thresholds  Thresholds
	post        postFunc
	completer   llm.Completer
}

func (s *rag) Name() string { return s.name }

// Synthesize renders the prompt, calls the completer once, and applies the
// strategy's post-processing. Empty sources are acknowledged, not errors.
func (s *rag) Synthesize(ctx context.Context, q types.NormalizedQuery, sources []types.DocumentChunk, domain types.Domain) (Partial, error) {
	prompt, err := renderPrompt(s.instruction, q, sources, domain)
	if err != nil {
		return Partial{}, &GenerationError{Strategy: s.name, Err: err}
	}

	raw, err := s.completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		return Partial{}, &GenerationError{Strategy: s.name, Err: err}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Partial{}, &GenerationError{Strategy: s.name, Err: llm.ErrEmptyCompletion}
	}

	p := Partial{
		Answer:      raw,
		Raw:         raw,
		Thresholds:  s.thresholds,
		Provisional: score.Score(raw, sources),
		Reasoning:   reasoning(s.name, sources, domain),
	}
	if len(sources) == 0 {
		p.Warnings = append(p.Warnings, WarnNoDocuments)
	}
	if s.post != nil {
		s.post(&p, q, sources, domain)
	}
	return p, nil
}

// reasoning summarizes how the answer was produced.
func reasoning(name string, sources []types.DocumentChunk, domain types.Domain) string {
	var index, web int
	for _, c := range sources {
		if c.Origin == types.OriginWeb {
			web++
		} else {
			index++
		}
	}
	return fmt.Sprintf("Chiến lược %s, lĩnh vực %s: tổng hợp từ %d tài liệu trong cơ sở dữ liệu và %d kết quả tìm kiếm web.",
		name, domain.Info().Name, index, web)
}

// Dispatcher maps query types to strategies.
type Dispatcher struct {
	strategies map[types.QueryType]Strategy
	fallback   Strategy
}

// NewDispatcher builds the six strategies on top of c.
func NewDispatcher(c llm.Completer) *Dispatcher {
	general := &rag{name: "GeneralLegalRAG", instruction: generalInstruction, thresholds: standardThresholds, completer: c}
	d := &Dispatcher{
		fallback: general,
		strategies: map[types.QueryType]Strategy{
			types.QueryGeneral: general,
			types.QuerySpecificLaw: &rag{name: "SpecificLawRAG", instruction: specificLawInstruction,
				thresholds: strictThresholds, post: postSpecificLaw, completer: c},
			types.QueryCaseAnalysis: &rag{name: "CaseAnalysisRAG", instruction: caseAnalysisInstruction,
				thresholds: caseThresholds, post: postCaseAnalysis, completer: c},
			types.QueryCompliance: &rag{name: "ComplianceRAG", instruction: complianceInstruction,
				thresholds: strictThresholds, post: postCompliance, completer: c},
			types.QueryInterpretation: &rag{name: "InterpretationRAG", instruction: interpretationInstruction,
				thresholds: standardThresholds, post: postInterpretation, completer: c},
			types.QueryProcedure: &rag{name: "ProcedureRAG", instruction: procedureInstruction,
				thresholds: standardThresholds, post: postProcedure, completer: c},
		},
	}
	return d
}

// For returns the strategy for t. Unmapped types, general_information
// included, get the general strategy.
func (d *Dispatcher) For(t types.QueryType) Strategy {
	if s, ok := d.strategies[t]; ok {
		return s
	}
	return d.fallback
}

// Names returns the strategy name per mapped query type.
func (d *Dispatcher) Names() map[types.QueryType]string {
	out := make(map[types.QueryType]string, len(d.strategies))
	for t, s := range d.strategies {
		out[t] = s.Name()
	}
	return out
}
