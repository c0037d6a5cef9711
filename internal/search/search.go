// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries SerpAPI for Vietnamese legal material and returns
// unified, deduplicated web results. It is the retriever's web-search
// capability.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/pdiddy/legal-engine/internal/httputil"
	"github.com/pdiddy/legal-engine/pkg/types"
)

// serpAPIBase is the SerpAPI search endpoint. Declared as a var so tests
// can substitute an httptest server.
var serpAPIBase = "https://serpapi.com/search.json"

// Authority labels every result from this client.
const Authority = "SerpAPI"

// demoKey is the placeholder key shipped in sample configs.
const demoKey = "demo-serp-key"

// Request parameters that pin results to Vietnamese sources.
const (
	serpLocation = "Vietnam"
	serpLanguage = "vi"
	serpCountry  = "vn"
	serpNum      = 3
)

// ErrAllQueriesFailed is returned when no query variant succeeded.
var ErrAllQueriesFailed = errors.New("all web search queries failed")

// Variants returns the query variants sent for a question, in priority
// order.
func Variants(question string) []string {
	q := strings.TrimSpace(question)
	return []string{
		fmt.Sprintf("%q thư viện pháp luật việt nam", q),
		fmt.Sprintf("%q luật việt nam filetype:pdf", q),
		fmt.Sprintf("%q bộ luật dân sự việt nam", q),
		fmt.Sprintf("%q site:thuvienphapluat.vn", q),
		q + " pháp luật việt nam",
	}
}

// Suggestions returns follow-up search phrasings for a question.
func Suggestions(question string) []string {
	terms := []string{"luật việt nam", "bộ luật dân sự", "bộ luật hình sự", "bộ luật lao động", "thư viện pháp luật"}
	q := strings.TrimSpace(question)
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = q + " " + t
	}
	return out
}

// Client is a SerpAPI web searcher.
type Client struct {
	http      *http.Client
	apiKey    string
	userAgent string
	perQuery  int
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a Client configured from cfg.
func New(cfg types.WebSearchConfig, opts ...Option) *Client {
	perQuery := cfg.ResultsPerQuery
	if perQuery <= 0 {
		perQuery = 2
	}
	c := &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		apiKey:    cfg.APIKey,
		userAgent: cfg.UserAgent,
		perQuery:  perQuery,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether a real API key is configured.
func (c *Client) Available() bool {
	return c.apiKey != "" && c.apiKey != demoKey
}

// Search fans the question's variants out to SerpAPI concurrently, takes
// up to perQuery organic results from each, deduplicates by URL keeping
// variant order, and returns at most maxResults. Failed variants are
// logged and skipped; the call fails only when every variant fails.
func (c *Client) Search(ctx context.Context, question string, maxResults int) ([]types.WebResult, error) {
	if !c.Available() {
		return nil, fmt.Errorf("serpapi key not configured")
	}
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("empty web search question")
	}
	if maxResults <= 0 {
		return nil, nil
	}

	variants := Variants(question)

	type variantResult struct {
		results []types.WebResult
		err     error
	}
	out := make([]variantResult, len(variants))

	var wg sync.WaitGroup
	for i, q := range variants {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			results, err := c.query(ctx, q)
			out[i] = variantResult{results: results, err: err}
		}(i, q)
	}
	wg.Wait()

	var (
		all  []types.WebResult
		errs []error
	)
	for i, vr := range out {
		if vr.err != nil {
			errs = append(errs, fmt.Errorf("query %d: %w", i+1, vr.err))
			c.logger.WarnContext(ctx, "serpapi query failed", "variant", i+1, "error", vr.err)
			continue
		}
		c.logger.DebugContext(ctx, "serpapi query", "variant", i+1, "results", len(vr.results))
		all = append(all, vr.results...)
	}
	if len(errs) == len(variants) {
		return nil, fmt.Errorf("%w: %w", ErrAllQueriesFailed, errors.Join(errs...))
	}

	deduped := deduplicate(all)
	if len(deduped) > maxResults {
		deduped = deduped[:maxResults]
	}
	c.logger.InfoContext(ctx, "web search completed", "results", len(deduped))
	return deduped, nil
}

type serpResponse struct {
	Error          string        `json:"error"`
	OrganicResults []serpOrganic `json:"organic_results"`
}

type serpOrganic struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
}

func (c *Client) query(ctx context.Context, q string) ([]types.WebResult, error) {
	params := url.Values{
		"engine":   {"google"},
		"q":        {q},
		"location": {serpLocation},
		"hl":       {serpLanguage},
		"gl":       {serpCountry},
		"num":      {strconv.Itoa(serpNum)},
		"api_key":  {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serpAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 2)
	if err != nil {
		return nil, fmt.Errorf("SerpAPI request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp, "SerpAPI"); err != nil {
		return nil, err
	}

	var sr serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing SerpAPI response: %w", err)
	}
	if sr.Error != "" {
		return nil, fmt.Errorf("SerpAPI error: %s", sr.Error)
	}

	var results []types.WebResult
	for _, o := range sr.OrganicResults {
		if len(results) >= c.perQuery {
			break
		}
		if o.Link == "" {
			continue
		}
		title := o.Title
		if title == "" {
			title = "Tài liệu pháp lý"
		}
		results = append(results, types.WebResult{
			Title:     title,
			Content:   formatContent(o),
			URL:       o.Link,
			Authority: Authority,
			Query:     q,
			Position:  o.Position,
		})
	}
	return results, nil
}

// formatContent renders a search hit as a source passage with a reminder
// that it is unverified.
func formatContent(o serpOrganic) string {
	var b strings.Builder
	if o.Snippet != "" {
		b.WriteString(o.Snippet)
		b.WriteString("\n")
	}
	b.WriteString("Nguồn: ")
	b.WriteString(o.Link)
	b.WriteString("\nLưu ý: kết quả tìm kiếm tự động, cần đối chiếu với văn bản pháp luật chính thức.")
	return b.String()
}

// deduplicate drops results whose normalized URL was already seen.
func deduplicate(results []types.WebResult) []types.WebResult {
	seen := make(map[string]bool)
	var out []types.WebResult
	for _, r := range results {
		key := normalizeURL(r.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func normalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimRight(raw, "/"))
	}
	return strings.ToLower(u.Host) + strings.TrimRight(u.Path, "/") + queryKey(u)
}

func queryKey(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	return "?" + u.RawQuery
}
