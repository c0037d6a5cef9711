// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score computes answer confidence and runs rule-based quality
// checks over synthesized answers.
package score

import (
	"math"
	"unicode/utf8"

	"github.com/pdiddy/legal-engine/internal/citation"
	"github.com/pdiddy/legal-engine/pkg/types"
)

// Floor is the score given to answers without sources.
const Floor = 0.1

// Signal weights and saturation points.
const (
	relevanceWeight = 0.4
	sourcesWeight   = 0.2
	lengthWeight    = 0.2
	citationWeight  = 0.2

	saturatingSources = 3
	saturatingLength  = 500

	citedSignal   = 0.8
	uncitedSignal = 0.6
)

// Score combines average source relevance, source count, answer length,
// and citation presence into a value in [0,1] rounded to two decimals.
// Empty sources give Floor.
func Score(answer string, sources []types.DocumentChunk) float64 {
	if len(sources) == 0 {
		return Floor
	}

	var sum float64
	for _, s := range sources {
		sum += clamp(s.RelevanceScore)
	}
	avg := sum / float64(len(sources))

	count := math.Min(float64(len(sources))/saturatingSources, 1)
	length := math.Min(float64(utf8.RuneCountInString(answer))/saturatingLength, 1)

	cited := uncitedSignal
	if citation.PatternRe.MatchString(answer) {
		cited = citedSignal
	}

	total := avg*relevanceWeight + count*sourcesWeight + length*lengthWeight + cited*citationWeight
	return Round(clamp(total))
}

// Round rounds x to two decimals.
func Round(x float64) float64 {
	return math.Round(x*100) / 100
}

func clamp(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
