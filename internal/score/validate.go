// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/legal-engine/pkg/types"
)

// MaxWarnings is the number of warnings an answer may carry and still be
// valid.
const MaxWarnings = 4

// minSourceOverlap is the fraction of source documents an answer should
// mention.
const minSourceOverlap = 0.3

// Validation is the outcome of Validate. It annotates a result and never
// blocks it.
type Validation struct {
	IsValid              bool     `json:"is_valid"`
	Warnings             []string `json:"warnings"`
	ConfidenceAdjustment float64  `json:"confidence_adjustment"`
	Suggestions          []string `json:"suggestions"`
}

var structureRe = regexp.MustCompile(`(?i:điều\s+\d+|khoản\s+\d+|điểm\s+\p{Ll}\b|chương\s+[\dIVXLC]+)|(?:Bộ luật|Luật|Nghị định|Thông tư)\s+\p{Lu}`)

// terminology is the domain vocabulary an answer is expected to use.
var terminology = []string{
	"quyền", "nghĩa vụ", "trách nhiệm", "quy định", "pháp luật", "hợp đồng",
	"vi phạm", "xử phạt", "thủ tục", "cơ quan", "tòa án", "luật sư",
	"bồi thường", "thẩm quyền", "văn bản",
}

// absolutePhrases overstate legal certainty.
var absolutePhrases = []string{
	"chắc chắn 100%", "hoàn toàn chính xác", "không có ngoại lệ", "tuyệt đối", "đảm bảo 100%",
}

type rule struct {
	fails      func(answer, lower string, sources []types.DocumentChunk) bool
	warning    string
	suggestion string
	adjustment float64
}

// rules run in order; each failing rule adds its warning and adjustment.
var rules = []rule{
	{
		fails: func(answer, _ string, _ []types.DocumentChunk) bool {
			return utf8.RuneCountInString(strings.TrimSpace(answer)) < 50
		},
		warning:    "Phản hồi quá ngắn, có thể thiếu thông tin cần thiết",
		suggestion: "Bổ sung giải thích chi tiết hơn",
		adjustment: -0.2,
	},
	{
		fails: func(answer, _ string, _ []types.DocumentChunk) bool {
			return !structureRe.MatchString(answer)
		},
		warning:    "Phản hồi thiếu trích dẫn cấu trúc pháp lý (điều, khoản, văn bản)",
		suggestion: "Trích dẫn cụ thể điều, khoản và tên văn bản",
		adjustment: -0.1,
	},
	{
		fails: func(_, lower string, sources []types.DocumentChunk) bool {
			return sourceOverlap(lower, sources) < minSourceOverlap
		},
		warning:    "Phản hồi ít tham chiếu đến các nguồn tài liệu đã tìm được",
		suggestion: "Liên kết câu trả lời với các tài liệu nguồn",
		adjustment: -0.05,
	},
	{
		fails: func(_, lower string, _ []types.DocumentChunk) bool {
			for _, t := range terminology {
				if strings.Contains(lower, t) {
					return false
				}
			}
			return true
		},
		warning:    "Phản hồi thiếu thuật ngữ pháp lý chuyên ngành",
		suggestion: "Sử dụng thuật ngữ pháp lý chính xác",
		adjustment: -0.05,
	},
	{
		fails: func(_, lower string, _ []types.DocumentChunk) bool {
			for _, p := range absolutePhrases {
				if strings.Contains(lower, p) {
					return true
				}
			}
			return false
		},
		warning:    "Phản hồi chứa thuật ngữ tuyệt đối, không phù hợp với tư vấn pháp lý",
		suggestion: "Tránh khẳng định tuyệt đối; nêu rõ các ngoại lệ và điều kiện áp dụng",
		adjustment: -0.15,
	},
}

// Validate checks answer against the rule list. IsValid is false only when
// more than MaxWarnings rules fail.
func Validate(answer string, sources []types.DocumentChunk) Validation {
	lower := strings.ToLower(answer)
	v := Validation{Warnings: []string{}, Suggestions: []string{}}
	for _, r := range rules {
		if !r.fails(answer, lower, sources) {
			continue
		}
		v.Warnings = append(v.Warnings, r.warning)
		v.Suggestions = append(v.Suggestions, r.suggestion)
		v.ConfidenceAdjustment += r.adjustment
	}
	v.ConfidenceAdjustment = Round(v.ConfidenceAdjustment)
	v.IsValid = len(v.Warnings) <= MaxWarnings
	return v
}

// sourceOverlap returns the fraction of distinct source document names
// mentioned in the lower-cased answer. Without named sources it returns 1.
func sourceOverlap(lower string, sources []types.DocumentChunk) float64 {
	seen := make(map[string]bool)
	var mentioned int
	for _, s := range sources {
		name := strings.ToLower(strings.TrimSpace(s.DocumentName()))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if strings.Contains(lower, name) {
			mentioned++
		}
	}
	if len(seen) == 0 {
		return 1
	}
	return float64(mentioned) / float64(len(seen))
}
