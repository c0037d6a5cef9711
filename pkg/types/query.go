// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// QueryType is the classified intent of a question. It selects the
// synthesis strategy.
type QueryType string

const (
	QueryGeneral            QueryType = "general"
	QuerySpecificLaw        QueryType = "specific_law"
	QueryCaseAnalysis       QueryType = "case_analysis"
	QueryCompliance         QueryType = "compliance"
	QueryInterpretation     QueryType = "interpretation"
	QueryProcedure          QueryType = "procedure"
	QueryGeneralInformation QueryType = "general_information"
)

// ConfidenceLevel is the discrete bucket of a confidence score.
type ConfidenceLevel string

const (
	ConfidenceHigh      ConfidenceLevel = "high"
	ConfidenceMedium    ConfidenceLevel = "medium"
	ConfidenceLow       ConfidenceLevel = "low"
	ConfidenceUncertain ConfidenceLevel = "uncertain"
)

// Query is a raw question with optional hints. It lives for one pipeline
// invocation.
type Query struct {
	Text       string  `json:"question" yaml:"question"`
	DomainHint *Domain `json:"domain,omitempty" yaml:"domain,omitempty"`
	RegionHint *Region `json:"region,omitempty" yaml:"region,omitempty"`
}

// NormalizedQuery is derived once from a Query and read-only afterward.
type NormalizedQuery struct {
	ID             string    `json:"id" yaml:"id"`
	Original       string    `json:"original" yaml:"original"`
	NormalizedText string    `json:"normalized_text" yaml:"normalized_text"`
	Domain         Domain    `json:"detected_domain" yaml:"detected_domain"`
	Intent         QueryType `json:"detected_intent" yaml:"detected_intent"`
	Region         Region    `json:"region,omitempty" yaml:"region,omitempty"`

	// LegalTerms has set semantics; order is first occurrence.
	LegalTerms     []string `json:"legal_terms" yaml:"legal_terms"`
	SearchKeywords []string `json:"search_keywords" yaml:"search_keywords"`
}

// QueryResult is the terminal artifact of one pipeline invocation.
type QueryResult struct {
	ID              string          `json:"id" yaml:"id"`
	Question        string          `json:"question" yaml:"question"`
	Answer          string          `json:"answer" yaml:"answer"`
	ConfidenceScore float64         `json:"confidence_score" yaml:"confidence_score"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level" yaml:"confidence_level"`
	LegalDomain     Domain          `json:"legal_domain" yaml:"legal_domain"`
	QueryType       QueryType       `json:"query_type" yaml:"query_type"`
	Strategy        string          `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Citations       []Citation      `json:"citations" yaml:"citations"`
	Sources         []DocumentChunk `json:"sources" yaml:"sources"`
	Warnings        []string        `json:"warnings" yaml:"warnings"`
	Suggestions     []string        `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
	Reasoning       string          `json:"reasoning" yaml:"reasoning"`
	Timestamp       time.Time       `json:"timestamp" yaml:"timestamp"`
}

// QuerySummary is the short record of a completed query kept in metrics.
type QuerySummary struct {
	ID              string          `json:"id"`
	Domain          Domain          `json:"domain"`
	QueryType       QueryType       `json:"query_type"`
	ConfidenceScore float64         `json:"confidence_score"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	Sources         int             `json:"sources"`
	Duration        time.Duration   `json:"duration"`
	Timestamp       time.Time       `json:"timestamp"`
}

// MetricsSnapshot is a copy of the pipeline's aggregate state.
type MetricsSnapshot struct {
	TotalQueries          int               `json:"total_queries"`
	AvgConfidence         float64           `json:"avg_confidence"`
	DomainDistribution    map[Domain]int    `json:"domain_distribution"`
	QueryTypeDistribution map[QueryType]int `json:"query_type_distribution"`
	Errors                int               `json:"errors"`
	Timeouts              int               `json:"timeouts"`
	RecentQueries         []QuerySummary    `json:"recent_queries"`
}
