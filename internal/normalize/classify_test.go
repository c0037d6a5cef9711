// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/legal-engine/pkg/types"
)

func TestDetectDomain(t *testing.T) {
	tests := []struct {
		text string
		want types.Domain
	}{
		{"Tôi muốn ly hôn", types.DomainFamily},
		{"Hợp đồng mua bán tài sản bị vô hiệu", types.DomainCivil},
		{"Công ty nợ lương người lao động", types.DomainLabor},
		{"Thủ tục khai thuế thu nhập cá nhân", types.DomainTax},
		{"Hôm nay trời đẹp", types.DomainGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDomain(tt.text))
		})
	}
}

func TestDetectDomainTieBreaksByDeclarationOrder(t *testing.T) {
	// One civil keyword and one family keyword: civil is declared first.
	assert.Equal(t, types.DomainCivil, DetectDomain("tài sản khi ly hôn"))
	// Two family keywords outweigh one civil keyword.
	assert.Equal(t, types.DomainFamily, DetectDomain("chia tài sản khi ly hôn và nuôi con"))
}

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		text string
		want types.QueryType
	}{
		{"Điều 15 Luật Dân sự quy định gì?", types.QuerySpecificLaw},
		{"Luật Doanh nghiệp số 59/2020/QH14 áp dụng thế nào", types.QuerySpecificLaw},
		{"Quyền dân sự là gì?", types.QueryInterpretation},
		{"Thủ tục kết hôn như thế nào?", types.QueryProcedure},
		{"Hành vi này có vi phạm không?", types.QueryCompliance},
		{"Phân tích trường hợp này", types.QueryCaseAnalysis},
		{"Nghĩa vụ của công dân?", types.QueryGeneralInformation},
		// Procedure outranks compliance.
		{"Thủ tục xử lý khi vi phạm hợp đồng", types.QueryProcedure},
		// An explicit article outranks everything.
		{"Giải thích Điều 5 về thủ tục", types.QuerySpecificLaw},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectIntent(tt.text))
		})
	}
}

func TestAnalyze(t *testing.T) {
	a := Analyzer{MaxLength: 100}
	nq, err := a.Analyze(types.Query{Text: "  Tôi muốn ly hôn theo TT?? "})
	require.NoError(t, err)

	assert.NotEmpty(t, nq.ID)
	assert.Equal(t, "Tôi muốn ly hôn theo Thông tư?", nq.NormalizedText)
	assert.Equal(t, types.DomainFamily, nq.Domain)
	assert.Equal(t, types.QueryGeneralInformation, nq.Intent)
	assert.Contains(t, nq.LegalTerms, "ly hôn")
	assert.Contains(t, nq.SearchKeywords, "hôn")
}

func TestAnalyzeHints(t *testing.T) {
	domain := types.DomainLabor
	region := types.RegionSouth
	nq, err := Analyzer{}.Analyze(types.Query{Text: "Tôi muốn ly hôn", DomainHint: &domain, RegionHint: &region})
	require.NoError(t, err)
	assert.Equal(t, types.DomainLabor, nq.Domain)
	assert.Equal(t, types.RegionSouth, nq.Region)

	bad := types.Domain("vu_tru")
	_, err = Analyzer{}.Analyze(types.Query{Text: "Tôi muốn ly hôn", DomainHint: &bad})
	assert.ErrorIs(t, err, ErrUnknownHint)
}

func TestAnalyzeDefaultDomain(t *testing.T) {
	nq, err := Analyzer{DefaultDomain: types.DomainCivil}.Analyze(types.Query{Text: "Nghĩa vụ của công dân?"})
	require.NoError(t, err)
	assert.Equal(t, types.DomainCivil, nq.Domain)
}

func TestAnalyzeRejectsLongInput(t *testing.T) {
	_, err := Analyzer{MaxLength: 10}.Analyze(types.Query{Text: strings.Repeat("luật ", 10)})
	assert.ErrorIs(t, err, ErrTooLong)
}
