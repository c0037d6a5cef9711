// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pdiddy/legal-engine/pkg/types"
)

// intentRule triggers an intent when any phrase is a substring of the
// lower-cased text or any pattern matches the original text.
type intentRule struct {
	intent   types.QueryType
	phrases  []string
	patterns []*regexp.Regexp
}

// intentRules are evaluated in order and the first match wins. The order is
// policy: an explicit provision reference outranks a procedural phrasing,
// which outranks compliance, case analysis, and interpretation.
var intentRules = []intentRule{
	{
		intent: types.QuerySpecificLaw,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)điều\s+\d+`),
			regexp.MustCompile(`(?i)(?:luật|nghị định|thông tư|quyết định)\s+(?:[^.?!]*?\s)?số\s+\d+`),
			regexp.MustCompile(`\d+/\d{4}/[\p{L}\d-]+`),
		},
	},
	{
		intent:  types.QueryProcedure,
		phrases: []string{"thủ tục", "quy trình", "trình tự", "hồ sơ", "làm thế nào", "các bước", "cách thức", "làm sao để"},
	},
	{
		intent:  types.QueryCompliance,
		phrases: []string{"vi phạm", "có được phép", "được phép", "có được không", "tuân thủ", "hợp pháp", "bị phạt", "xử phạt"},
	},
	{
		intent:  types.QueryCaseAnalysis,
		phrases: []string{"phân tích", "trường hợp", "tình huống", "vụ việc"},
	},
	{
		intent:  types.QueryInterpretation,
		phrases: []string{"là gì", "nghĩa là", "giải thích", "hiểu thế nào", "định nghĩa", "khái niệm"},
	},
}

// DetectDomain counts each domain's keywords in the lower-cased text and
// returns the domain with the highest non-zero count. Ties go to the domain
// declared first in types.Domains; no hits give DomainGeneral.
func DetectDomain(text string) types.Domain {
	lower := strings.ToLower(text)
	best, bestCount := types.DomainGeneral, 0
	for _, info := range types.Domains {
		count := 0
		for _, kw := range info.Keywords {
			count += strings.Count(lower, kw)
		}
		if count > bestCount {
			best, bestCount = info.Domain, count
		}
	}
	return best
}

// DetectIntent returns the intent of the first matching rule, or
// QueryGeneralInformation.
func DetectIntent(text string) types.QueryType {
	lower := strings.ToLower(text)
	for _, rule := range intentRules {
		for _, re := range rule.patterns {
			if re.MatchString(text) {
				return rule.intent
			}
		}
		for _, p := range rule.phrases {
			if strings.Contains(lower, p) {
				return rule.intent
			}
		}
	}
	return types.QueryGeneralInformation
}

// Classify derives the domain and intent of normalized text.
func Classify(normalized string) (types.Domain, types.QueryType) {
	return DetectDomain(normalized), DetectIntent(normalized)
}

// Analyzer turns a raw Query into a NormalizedQuery.
type Analyzer struct {
	// MaxLength caps the question length in runes. Zero disables the check.
	MaxLength int

	// DefaultDomain replaces DomainGeneral when nothing was detected.
	DefaultDomain types.Domain
}

// Analyze normalizes and classifies q. Hints override detection. Errors wrap
// one of the package sentinels.
func (a Analyzer) Analyze(q types.Query) (types.NormalizedQuery, error) {
	if a.MaxLength > 0 && utf8.RuneCountInString(q.Text) > a.MaxLength {
		return types.NormalizedQuery{}, fmt.Errorf("%w: %d runes (max %d)", ErrTooLong, utf8.RuneCountInString(q.Text), a.MaxLength)
	}

	text, err := Normalize(q.Text)
	if err != nil {
		return types.NormalizedQuery{}, err
	}

	domain, intent := Classify(text)
	if domain == types.DomainGeneral && a.DefaultDomain != "" {
		domain = a.DefaultDomain
	}
	if q.DomainHint != nil && *q.DomainHint != "" {
		d, err := types.ParseDomain(string(*q.DomainHint))
		if err != nil {
			return types.NormalizedQuery{}, fmt.Errorf("%w: %v", ErrUnknownHint, err)
		}
		domain = d
	}

	var region types.Region
	if q.RegionHint != nil && *q.RegionHint != "" {
		r, err := types.ParseRegion(string(*q.RegionHint))
		if err != nil {
			return types.NormalizedQuery{}, fmt.Errorf("%w: %v", ErrUnknownHint, err)
		}
		region = r
	}

	return types.NormalizedQuery{
		ID:             uuid.NewString(),
		Original:       q.Text,
		NormalizedText: text,
		Domain:         domain,
		Intent:         intent,
		Region:         region,
		LegalTerms:     LegalTerms(text),
		SearchKeywords: Keywords(text),
	}, nil
}
