// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/legal-engine/pkg/types"
)

func sources(scores ...float64) []types.DocumentChunk {
	out := make([]types.DocumentChunk, len(scores))
	for i, s := range scores {
		out[i] = types.DocumentChunk{
			Content:        "nội dung",
			Metadata:       map[string]any{types.MetaDocumentName: "Bộ luật Lao động 2019"},
			RelevanceScore: s,
			Origin:         types.OriginIndex,
		}
	}
	return out
}

func TestScoreEmptySourcesFloor(t *testing.T) {
	assert.Equal(t, 0.1, Score("Theo Điều 15 Bộ luật Dân sự", nil))
	assert.Equal(t, 0.1, Score(strings.Repeat("a", 2000), []types.DocumentChunk{}))
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		sources []types.DocumentChunk
		want    float64
	}{
		{
			name:    "all signals saturated",
			answer:  "Điều 5 " + strings.Repeat("a", 493),
			sources: sources(1, 1, 1),
			want:    0.96,
		},
		{
			name:    "single weak source short uncited",
			answer:  "abc",
			sources: sources(0.5),
			want:    0.39,
		},
		{
			name:    "source count saturates past three",
			answer:  strings.Repeat("b", 1000),
			sources: sources(0.9, 0.9, 0.9, 0.9, 0.9, 0.9),
			want:    0.88,
		},
		{
			name:    "length counted in runes",
			answer:  strings.Repeat("ệ", 250),
			sources: sources(0, 0, 0),
			want:    0.42,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.answer, tt.sources))
		})
	}
}

func TestScoreBounds(t *testing.T) {
	got := Score("x", sources(5, 5, 5))
	assert.LessOrEqual(t, got, 1.0)
	got = Score("x", sources(-3))
	assert.GreaterOrEqual(t, got, 0.0)
}

func TestValidateGoodResponse(t *testing.T) {
	answer := `Theo quy định tại Điều 15 Khoản 1 của Luật Dân sự, quyền dân sự của công dân
được pháp luật bảo vệ. Nghĩa vụ tương ứng là tôn trọng quyền của người khác.`
	src := []types.DocumentChunk{{Metadata: map[string]any{types.MetaDocumentName: "Luật Dân sự"}}}

	v := Validate(answer, src)
	assert.True(t, v.IsValid)
	assert.Empty(t, v.Warnings)
	assert.Equal(t, 0.0, v.ConfidenceAdjustment)
}

func TestValidatePoorResponse(t *testing.T) {
	v := Validate("Không biết", nil)
	assert.True(t, v.IsValid)
	assert.Len(t, v.Warnings, 3)
	assert.Len(t, v.Suggestions, 3)
	assert.Contains(t, v.Warnings[0], "Phản hồi quá ngắn")
	assert.Equal(t, -0.35, v.ConfidenceAdjustment)
}

func TestValidateProhibitedTerms(t *testing.T) {
	v := Validate("Tôi chắc chắn 100% rằng điều này hoàn toàn chính xác và không có ngoại lệ.", nil)
	found := false
	for _, w := range v.Warnings {
		if strings.Contains(strings.ToLower(w), "thuật ngữ tuyệt đối") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateSourceOverlap(t *testing.T) {
	answer := "Theo Điều 105 Bộ luật Lao động 2019, thời giờ làm việc bình thường không quá 8 giờ trong 01 ngày theo quy định."
	src := []types.DocumentChunk{
		{Metadata: map[string]any{types.MetaDocumentName: "Bộ luật Lao động 2019"}},
		{Metadata: map[string]any{types.MetaDocumentName: "Nghị định 145/2020/NĐ-CP"}},
		{Metadata: map[string]any{types.MetaDocumentName: "Luật Việc làm 2013"}},
		{Metadata: map[string]any{types.MetaDocumentName: "Luật Công đoàn 2012"}},
	}
	v := Validate(answer, src)
	assert.Len(t, v.Warnings, 1)
	assert.Contains(t, v.Warnings[0], "nguồn")
	assert.Equal(t, -0.05, v.ConfidenceAdjustment)
}

func TestValidateAllRulesFail(t *testing.T) {
	src := []types.DocumentChunk{{Metadata: map[string]any{types.MetaDocumentName: "Luật Đất đai 2024"}}}
	v := Validate("tuyệt đối", src)
	assert.Len(t, v.Warnings, 5)
	assert.False(t, v.IsValid)
	assert.Equal(t, -0.55, v.ConfidenceAdjustment)
}
