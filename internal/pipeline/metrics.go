// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"sync"

	"github.com/pdiddy/legal-engine/pkg/types"
)

// recentLimit is the number of query summaries kept.
const recentLimit = 50

type outcome int

const (
	outcomeOK outcome = iota
	outcomeError
	outcomeTimeout
)

// Metrics is the process-wide aggregate of completed queries. All methods
// are safe for concurrent use.
type Metrics struct {
	mu            sync.Mutex
	total         int
	confidenceSum float64
	domains       map[types.Domain]int
	queryTypes    map[types.QueryType]int
	errors        int
	timeouts      int
	recent        []types.QuerySummary
}

// NewMetrics returns empty metrics.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.resetLocked()
	return m
}

func (m *Metrics) resetLocked() {
	m.total = 0
	m.confidenceSum = 0
	m.domains = make(map[types.Domain]int)
	m.queryTypes = make(map[types.QueryType]int)
	m.errors = 0
	m.timeouts = 0
	m.recent = nil
}

// record folds one completed query into the aggregate.
func (m *Metrics) record(s types.QuerySummary, o outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.confidenceSum += s.ConfidenceScore
	m.domains[s.Domain]++
	m.queryTypes[s.QueryType]++
	switch o {
	case outcomeError:
		m.errors++
	case outcomeTimeout:
		m.timeouts++
	}

	m.recent = append(m.recent, s)
	if len(m.recent) > recentLimit {
		m.recent = append([]types.QuerySummary(nil), m.recent[len(m.recent)-recentLimit:]...)
	}
}

// recordRejected counts a question rejected before processing.
func (m *Metrics) recordRejected() {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (m *Metrics) Snapshot() types.MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := types.MetricsSnapshot{
		TotalQueries:          m.total,
		DomainDistribution:    make(map[types.Domain]int, len(m.domains)),
		QueryTypeDistribution: make(map[types.QueryType]int, len(m.queryTypes)),
		Errors:                m.errors,
		Timeouts:              m.timeouts,
		RecentQueries:         append([]types.QuerySummary{}, m.recent...),
	}
	if m.total > 0 {
		s.AvgConfidence = m.confidenceSum / float64(m.total)
	}
	for k, v := range m.domains {
		s.DomainDistribution[k] = v
	}
	for k, v := range m.queryTypes {
		s.QueryTypeDistribution[k] = v
	}
	return s
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	m.mu.Lock()
	m.resetLocked()
	m.mu.Unlock()
}
