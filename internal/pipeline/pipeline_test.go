// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/legal-engine/internal/llm"
	"github.com/pdiddy/legal-engine/internal/normalize"
	"github.com/pdiddy/legal-engine/internal/score"
	"github.com/pdiddy/legal-engine/pkg/types"
)

type stubIndex struct {
	mu      sync.Mutex
	byDom   map[types.Domain][]types.DocumentChunk
	err     error
	delay   time.Duration
	queried []types.Domain
}

func (s *stubIndex) Search(_ context.Context, _ string, d types.Domain, topK int) ([]types.DocumentChunk, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	s.queried = append(s.queried, d)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := s.byDom[d]
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

type stubWeb struct {
	mu      sync.Mutex
	results []types.WebResult
	calls   int
}

func (w *stubWeb) Available() bool { return true }

func (w *stubWeb) Search(_ context.Context, _ string, maxResults int) ([]types.WebResult, error) {
	w.mu.Lock()
	w.calls++
	w.mu.Unlock()
	if len(w.results) > maxResults {
		return w.results[:maxResults], nil
	}
	return w.results, nil
}

type stubCompleter struct {
	answer string
	err    error
}

func (c stubCompleter) Name() string { return "stub" }

func (c stubCompleter) Complete(context.Context, []llm.Message) (string, error) {
	return c.answer, c.err
}

const goodAnswer = "Theo Điều 105 Bộ luật Lao động 2019, thời giờ làm việc bình thường không quá 08 giờ trong 01 ngày và không quá 48 giờ trong 01 tuần theo quy định."

func lawChunk(id, name, article, domain string, s float64) types.DocumentChunk {
	return types.DocumentChunk{
		ID:      id,
		Content: "Điều " + article + ". Nội dung của " + name,
		Metadata: map[string]any{
			types.MetaDocumentName:  name,
			types.MetaArticleNumber: article,
			types.MetaLegalDomain:   domain,
		},
		RelevanceScore: s,
		Origin:         types.OriginIndex,
	}
}

func TestResolveRejectsInput(t *testing.T) {
	p := New(WithCompleter(stubCompleter{answer: goodAnswer}))

	for _, text := range []string{"", "   ", string([]byte{0xff, 0xfe})} {
		res, err := p.Resolve(context.Background(), types.Query{Text: text})
		assert.Nil(t, res)
		var inErr *InputError
		require.ErrorAs(t, err, &inErr)
	}

	bad := types.Domain("space_law")
	_, err := p.Resolve(context.Background(), types.Query{Text: "câu hỏi", DomainHint: &bad})
	assert.ErrorIs(t, err, normalize.ErrUnknownHint)

	snap := p.Metrics().Snapshot()
	assert.Equal(t, 0, snap.TotalQueries)
	assert.Equal(t, 4, snap.Errors)
}

func TestResolveDetectsFamilyDomain(t *testing.T) {
	p := New(WithCompleter(stubCompleter{answer: "Bạn có thể nộp đơn ly hôn tại Tòa án."}))
	res, err := p.Resolve(context.Background(), types.Query{Text: "Tôi muốn ly hôn"})
	require.NoError(t, err)
	assert.Equal(t, types.DomainFamily, res.LegalDomain)
	assert.NotEqual(t, types.DomainCivil, res.LegalDomain)
}

func TestResolveRelatedDomainSkipsWeb(t *testing.T) {
	idx := &stubIndex{byDom: map[types.Domain][]types.DocumentChunk{
		types.DomainCivil: {
			lawChunk("c1", "Bộ luật Dân sự 2015", "385", "dan_su", 0.9),
			lawChunk("c2", "Bộ luật Dân sự 2015", "386", "dan_su", 0.8),
			lawChunk("c3", "Bộ luật Dân sự 2015", "387", "dan_su", 0.7),
		},
	}}
	web := &stubWeb{results: []types.WebResult{{Title: "t", URL: "https://x.vn", Content: "c"}}}
	p := New(WithIndex(idx), WithWebSearcher(web), WithCompleter(stubCompleter{answer: goodAnswer}))

	res, err := p.Resolve(context.Background(), types.Query{Text: "Người lao động nghỉ việc có được trả lương?"})
	require.NoError(t, err)

	assert.Equal(t, types.DomainLabor, res.LegalDomain)
	assert.Equal(t, []types.Domain{types.DomainLabor, types.DomainCivil}, idx.queried)
	assert.Equal(t, 0, web.calls)
	require.Len(t, res.Sources, 3)
	for _, s := range res.Sources {
		assert.Equal(t, "dan_su", s.Meta(types.MetaLegalDomain))
		assert.Equal(t, types.OriginIndex, s.Origin)
	}
}

func TestResolveWebFallback(t *testing.T) {
	idx := &stubIndex{}
	web := &stubWeb{results: []types.WebResult{
		{Title: "Thời giờ làm việc", URL: "https://thuvienphapluat.vn/a", Content: "Không quá 8 giờ", Authority: "SerpAPI"},
		{Title: "Làm thêm giờ", URL: "https://thuvienphapluat.vn/b", Content: "Không quá 40 giờ", Authority: "SerpAPI"},
	}}
	p := New(WithIndex(idx), WithWebSearcher(web), WithCompleter(stubCompleter{answer: goodAnswer}))

	res, err := p.Resolve(context.Background(), types.Query{Text: "Giờ làm việc của người lao động?"})
	require.NoError(t, err)

	require.NotEmpty(t, res.Sources)
	for _, s := range res.Sources {
		assert.Equal(t, types.OriginWeb, s.Origin)
	}
	assert.Equal(t, 1, web.calls)
	assert.Empty(t, res.Suggestions)

	var webCites int
	for _, c := range res.Citations {
		if c.SourceURL != "" && strings.HasPrefix(c.SourceURL, "https://thuvienphapluat.vn") {
			webCites++
		}
	}
	assert.Equal(t, 2, webCites)
}

func TestResolveWebFallbackWithoutIndex(t *testing.T) {
	web := &stubWeb{results: []types.WebResult{
		{Title: "Thời giờ làm việc", URL: "https://thuvienphapluat.vn/a", Content: "Không quá 8 giờ", Authority: "SerpAPI"},
	}}
	p := New(WithWebSearcher(web), WithCompleter(stubCompleter{answer: goodAnswer}))

	res, err := p.Resolve(context.Background(), types.Query{Text: "Giờ làm việc của người lao động?"})
	require.NoError(t, err)

	require.Len(t, res.Sources, 1)
	assert.Equal(t, types.OriginWeb, res.Sources[0].Origin)
	assert.Equal(t, 1, web.calls)
	assert.Empty(t, res.Suggestions)
}

func TestResolveConfidenceFloor(t *testing.T) {
	p := New(WithIndex(&stubIndex{}), WithCompleter(stubCompleter{answer: goodAnswer}))
	res, err := p.Resolve(context.Background(), types.Query{Text: "Quy định về giờ làm việc?"})
	require.NoError(t, err)

	assert.Empty(t, res.Sources)
	assert.Equal(t, 0.1, res.ConfidenceScore)
	assert.Equal(t, types.ConfidenceUncertain, res.ConfidenceLevel)
	assert.NotEmpty(t, res.Suggestions)
	assert.Contains(t, res.Warnings, "Không tìm thấy tài liệu pháp lý liên quan; câu trả lời chỉ mang tính tham khảo chung")
}

func TestResolveSuccess(t *testing.T) {
	idx := &stubIndex{byDom: map[types.Domain][]types.DocumentChunk{
		types.DomainLabor: {
			lawChunk("l1", "Bộ luật Lao động 2019", "105", "lao_dong", 0.9),
			lawChunk("l2", "Bộ luật Lao động 2019", "107", "lao_dong", 0.8),
			lawChunk("l3", "Bộ luật Lao động 2019", "98", "lao_dong", 0.7),
		},
	}}
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p := New(WithIndex(idx), WithCompleter(stubCompleter{answer: goodAnswer}), WithClock(func() time.Time { return fixed }))

	res, err := p.Resolve(context.Background(), types.Query{Text: "Thời giờ làm việc tối đa của người lao động là bao lâu?"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, types.DomainLabor, res.LegalDomain)
	assert.Equal(t, "GeneralLegalRAG", res.Strategy)
	assert.Equal(t, goodAnswer, res.Answer)
	assert.Len(t, res.Sources, 3)
	assert.Equal(t, fixed, res.Timestamp)

	// 0.4*0.8 + 0.2 + 0.2*len/500 + 0.2*0.8
	assert.Greater(t, res.ConfidenceScore, 0.7)
	assert.LessOrEqual(t, res.ConfidenceScore, 1.0)
	assert.NotEqual(t, types.ConfidenceUncertain, res.ConfidenceLevel)

	require.NotEmpty(t, res.Citations)
	var articles []string
	for _, c := range res.Citations {
		articles = append(articles, c.Article)
	}
	assert.Contains(t, articles, "105")
	assert.LessOrEqual(t, len(res.Citations), 10)

	snap := p.Metrics().Snapshot()
	assert.Equal(t, 1, snap.TotalQueries)
	assert.Equal(t, 1, snap.DomainDistribution[types.DomainLabor])
	assert.Equal(t, res.ConfidenceScore, snap.AvgConfidence)
	require.Len(t, snap.RecentQueries, 1)
	assert.Equal(t, res.ID, snap.RecentQueries[0].ID)
}

func TestResolveGenerationFailure(t *testing.T) {
	p := New(WithIndex(&stubIndex{}), WithCompleter(stubCompleter{err: errors.New("upstream down")}))

	res, err := p.Resolve(context.Background(), types.Query{Text: "Thủ tục ly hôn thuận tình?"})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, ApologyAnswer, res.Answer)
	assert.Equal(t, 0.0, res.ConfidenceScore)
	assert.Equal(t, types.ConfidenceUncertain, res.ConfidenceLevel)
	assert.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings, WarnGeneration)
	assert.Contains(t, res.Reasoning, "upstream down")
	assert.Equal(t, "ProcedureRAG", res.Strategy)

	snap := p.Metrics().Snapshot()
	assert.Equal(t, 1, snap.TotalQueries)
	assert.Equal(t, 1, snap.Errors)
}

func TestResolveWithoutCompleter(t *testing.T) {
	res, err := New().Resolve(context.Background(), types.Query{Text: "Hợp đồng là gì?"})
	require.NoError(t, err)
	assert.Equal(t, types.ConfidenceUncertain, res.ConfidenceLevel)
	assert.Contains(t, res.Reasoning, ErrNoCompleter.Error())
	assert.NotEmpty(t, res.Warnings)
}

func TestResolveRetrievalFailureIsWarning(t *testing.T) {
	idx := &stubIndex{err: errors.New("connection refused")}
	p := New(WithIndex(idx), WithCompleter(stubCompleter{answer: goodAnswer}))

	res, err := p.Resolve(context.Background(), types.Query{Text: "Thuế thu nhập cá nhân?"})
	require.NoError(t, err)
	assert.Equal(t, goodAnswer, res.Answer)

	var found bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "connection refused") {
			found = true
		}
	}
	assert.True(t, found, "warnings: %v", res.Warnings)
}

func TestResolveTimeout(t *testing.T) {
	idx := &stubIndex{delay: 50 * time.Millisecond}
	p := New(WithIndex(idx), WithCompleter(stubCompleter{answer: goodAnswer}), WithTimeout(10*time.Millisecond))

	res, err := p.Resolve(context.Background(), types.Query{Text: "Người lao động nghỉ việc?"})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, TimeoutAnswer, res.Answer)
	assert.Contains(t, res.Warnings, WarnTimedOut)
	assert.Equal(t, types.ConfidenceUncertain, res.ConfidenceLevel)
	assert.Contains(t, res.Reasoning, "timed out")

	snap := p.Metrics().Snapshot()
	assert.Equal(t, 1, snap.Timeouts)
	assert.Equal(t, 1, snap.TotalQueries)
}

func TestResolveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(WithIndex(&stubIndex{}), WithCompleter(stubCompleter{answer: goodAnswer}))

	res, err := p.Resolve(ctx, types.Query{Text: "Hợp đồng mua bán nhà?"})
	require.NoError(t, err)
	assert.Contains(t, res.Warnings, WarnCancelled)
}

func TestResolveValidationWarnings(t *testing.T) {
	p := New(WithIndex(&stubIndex{}), WithCompleter(stubCompleter{answer: "Không biết."}))
	res, err := p.Resolve(context.Background(), types.Query{Text: "Câu hỏi về hợp đồng"})
	require.NoError(t, err)

	var short bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "Phản hồi quá ngắn") {
			short = true
		}
	}
	assert.True(t, short)
	assert.Contains(t, res.Reasoning, "Điều chỉnh độ tin cậy đề xuất")
	assert.Equal(t, 0.1, res.ConfidenceScore)
}

func TestResolveGradesRawProcedureAnswer(t *testing.T) {
	const raw = "Bạn cần chuẩn bị tờ khai và giấy tờ tùy thân, sau đó nộp tại ủy ban nhân dân cấp xã nơi cư trú."
	idx := &stubIndex{byDom: map[types.Domain][]types.DocumentChunk{
		types.DomainFamily: {lawChunk("h1", "Luật Hộ tịch 2014", "18", "gia_dinh", 0.9)},
	}}
	p := New(WithIndex(idx), WithCompleter(stubCompleter{answer: raw}))

	res, err := p.Resolve(context.Background(), types.Query{Text: "Thủ tục đăng ký kết hôn như thế nào?"})
	require.NoError(t, err)
	require.Equal(t, "ProcedureRAG", res.Strategy)

	// The footer names the source and an article; grading must not see it.
	assert.Contains(t, res.Answer, "Luật Hộ tịch 2014")
	assert.Equal(t, score.Score(raw, res.Sources), res.ConfidenceScore)
	assert.Less(t, res.ConfidenceScore, score.Score(res.Answer, res.Sources))

	tests := []struct {
		name string
		want string
	}{
		{"missing structure", "thiếu trích dẫn cấu trúc"},
		{"low source overlap", "ít tham chiếu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found := false
			for _, w := range res.Warnings {
				if strings.Contains(w, tt.want) {
					found = true
				}
			}
			assert.True(t, found, "warnings: %v", res.Warnings)
		})
	}
}

func TestGuardRecoversPanic(t *testing.T) {
	p := New()
	res := &types.QueryResult{Warnings: []string{}}
	p.guard(context.Background(), res, "trích dẫn", func() { panic("boom") })
	assert.Equal(t, []string{internalWarning("trích dẫn")}, res.Warnings)
}

func TestResolveConcurrentMetrics(t *testing.T) {
	p := New(WithIndex(&stubIndex{}), WithCompleter(stubCompleter{answer: goodAnswer}))

	const n = 40
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Resolve(context.Background(), types.Query{Text: fmt.Sprintf("Câu hỏi số %d về hợp đồng", i)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap := p.Metrics().Snapshot()
	assert.Equal(t, n, snap.TotalQueries)
	assert.Equal(t, n, snap.DomainDistribution[types.DomainCivil])
	assert.Len(t, snap.RecentQueries, n)
	assert.InDelta(t, 0.1, snap.AvgConfidence, 1e-9)
}

func TestMetricsRecentLimitAndReset(t *testing.T) {
	m := NewMetrics()
	for i := range recentLimit + 10 {
		m.record(types.QuerySummary{ID: fmt.Sprint(i), Domain: types.DomainTax, ConfidenceScore: 0.5}, outcomeOK)
	}
	m.record(types.QuerySummary{ID: "err", Domain: types.DomainTax}, outcomeError)

	snap := m.Snapshot()
	assert.Equal(t, recentLimit+11, snap.TotalQueries)
	require.Len(t, snap.RecentQueries, recentLimit)
	assert.Equal(t, "err", snap.RecentQueries[recentLimit-1].ID)
	assert.Equal(t, "11", snap.RecentQueries[0].ID)
	assert.Equal(t, 1, snap.Errors)

	snap.DomainDistribution[types.DomainTax] = 0
	assert.Equal(t, recentLimit+11, m.Snapshot().DomainDistribution[types.DomainTax])

	m.Reset()
	snap = m.Snapshot()
	assert.Zero(t, snap.TotalQueries)
	assert.Zero(t, snap.AvgConfidence)
	assert.Empty(t, snap.RecentQueries)
	assert.Empty(t, snap.DomainDistribution)
}

func TestResolveBatch(t *testing.T) {
	p := New(WithIndex(&stubIndex{}), WithCompleter(stubCompleter{answer: goodAnswer}))
	queries := []types.Query{
		{Text: "Tôi muốn ly hôn"},
		{Text: ""},
		{Text: "Khai thuế thu nhập cá nhân"},
	}

	got, err := p.ResolveBatch(context.Background(), queries, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, types.DomainFamily, got[0].Result.LegalDomain)
	assert.Nil(t, got[1].Result)
	var inErr *InputError
	assert.ErrorAs(t, got[1].Err, &inErr)
	assert.Equal(t, types.DomainTax, got[2].Result.LegalDomain)
	assert.Equal(t, queries[2], got[2].Query)
}

func TestResolveBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(WithCompleter(stubCompleter{answer: goodAnswer}))

	got, err := p.ResolveBatch(ctx, []types.Query{{Text: "a b"}, {Text: "c d"}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].Result)
}

func TestWithConfig(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Pipeline.MaxQuestionLength = 10
	cfg.Retrieval.MaxResults = 8
	p := New(WithConfig(cfg.Pipeline, cfg.Retrieval))

	assert.Equal(t, 8, p.maxResults)
	assert.Equal(t, cfg.Retrieval.MinScore, p.minScore)
	assert.Equal(t, cfg.Pipeline.Timeout, p.timeout)

	_, err := p.Resolve(context.Background(), types.Query{Text: "một câu hỏi rất dài vượt giới hạn"})
	assert.ErrorIs(t, err, normalize.ErrTooLong)
}
