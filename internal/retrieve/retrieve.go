// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve implements the cascading retriever: the domain index
// first, related domains when the primary domain is thin, and web search
// only when the index as a whole cannot fill half the quota.
package retrieve

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/pdiddy/legal-engine/pkg/types"
)

// Index is the vector-index capability. An empty index returns zero chunks
// and no error. DomainGeneral searches without a domain filter.
type Index interface {
	Search(ctx context.Context, query string, domain types.Domain, topK int) ([]types.DocumentChunk, error)
}

// WebSearcher is the optional web-search capability.
type WebSearcher interface {
	// Available reports whether the searcher is configured to make calls.
	Available() bool
	Search(ctx context.Context, question string, maxResults int) ([]types.WebResult, error)
}

// DefaultWebRelevance is the fixed score given to web chunks. It is not a
// similarity score and is only comparable to other web chunks.
const DefaultWebRelevance = 0.8

// Output is the result of one cascade run.
type Output struct {
	Chunks []types.DocumentChunk

	// DomainsSearched lists the index scopes queried, in order.
	DomainsSearched []types.Domain

	// WebUsed reports whether the web stage ran.
	WebUsed bool

	// Errors holds one *RetrievalError per failed capability call.
	Errors []error
}

// Retriever runs the cascade. It holds no per-query state and is safe for
// concurrent use when its capabilities are.
type Retriever struct {
	index        Index
	web          WebSearcher
	webRelevance float64
	logger       *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithWebSearcher enables the web fallback stage.
func WithWebSearcher(w WebSearcher) Option {
	return func(r *Retriever) { r.web = w }
}

// WithWebRelevance overrides DefaultWebRelevance.
func WithWebRelevance(score float64) Option {
	return func(r *Retriever) { r.webRelevance = score }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// New returns a Retriever over index.
func New(index Index, opts ...Option) *Retriever {
	r := &Retriever{
		index:        index,
		webRelevance: DefaultWebRelevance,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// insufficient reports n < max/2 without integer truncation.
func insufficient(n, max int) bool {
	return 2*n < max
}

// Retrieve runs the cascade for query scoped to domain:
//
//  1. search the index for domain;
//  2. while fewer than maxResults/2, search each related domain in order;
//  3. drop chunks below minScore and sort by score, descending;
//  4. if still fewer than maxResults/2 and web search is available, append
//     web chunks into the remaining slots;
//  5. truncate to maxResults.
//
// No results is not an error. Capability failures, including a missing
// index, are recorded in Output.Errors and the cascade continues. The
// returned error is non-nil only for invalid arguments or when ctx expires
// at a stage boundary; in the latter case Output holds what was gathered
// so far.
func (r *Retriever) Retrieve(ctx context.Context, query string, domain types.Domain, maxResults int, minScore float64) (Output, error) {
	var out Output
	if maxResults <= 0 {
		return out, ErrInvalidLimit
	}
	seen := make(map[string]bool)
	var pool []types.DocumentChunk

	search := func(stage Stage, d types.Domain) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		out.DomainsSearched = append(out.DomainsSearched, d)
		chunks, err := r.index.Search(ctx, query, d, maxResults)
		if err != nil {
			out.Errors = append(out.Errors, &RetrievalError{
				Stage:  stage,
				Domain: d,
				Err:    fmt.Errorf("%w: %v", ErrIndexUnavailable, err),
			})
			r.logger.WarnContext(ctx, "index search failed", "stage", stage, "domain", d, "error", err)
			return nil
		}
		added := 0
		for _, c := range chunks {
			key := chunkKey(c)
			if seen[key] {
				continue
			}
			seen[key] = true
			if c.Origin == "" {
				c.Origin = types.OriginIndex
			}
			pool = append(pool, c)
			added++
		}
		r.logger.DebugContext(ctx, "index searched", "stage", stage, "domain", d, "results", len(chunks), "added", added)
		return nil
	}

	if r.index == nil {
		// Without an index the cascade starts at the web stage.
		out.Errors = append(out.Errors, &RetrievalError{Stage: StagePrimary, Domain: domain, Err: ErrNoIndex})
	} else if err := search(StagePrimary, domain); err != nil {
		return r.finish(out, pool, minScore, maxResults), err
	}

	if r.index != nil && insufficient(len(pool), maxResults) {
		for _, related := range domain.Info().Related {
			if related == domain {
				continue
			}
			if err := search(StageRelated, related); err != nil {
				return r.finish(out, pool, minScore, maxResults), err
			}
			if !insufficient(len(pool), maxResults) {
				break
			}
		}
	}

	out = r.finish(out, pool, minScore, maxResults)

	if !insufficient(len(out.Chunks), maxResults) || r.web == nil || !r.web.Available() {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	remaining := maxResults - len(out.Chunks)
	out.WebUsed = true
	results, err := r.web.Search(ctx, query, remaining)
	if err != nil {
		out.Errors = append(out.Errors, &RetrievalError{
			Stage:  StageWeb,
			Domain: domain,
			Err:    fmt.Errorf("%w: %v", ErrWebUnavailable, err),
		})
		r.logger.WarnContext(ctx, "web search failed", "error", err)
		return out, nil
	}

	for i, res := range results {
		if i >= remaining {
			break
		}
		out.Chunks = append(out.Chunks, r.webChunk(res, domain))
	}
	r.logger.DebugContext(ctx, "web searched", "results", len(results), "kept", min(len(results), remaining))
	return out, nil
}

// finish filters by minScore, sorts descending, and truncates.
func (r *Retriever) finish(out Output, pool []types.DocumentChunk, minScore float64, maxResults int) Output {
	kept := make([]types.DocumentChunk, 0, len(pool))
	for _, c := range pool {
		if c.RelevanceScore >= minScore {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].RelevanceScore > kept[j].RelevanceScore
	})
	if len(kept) > maxResults {
		kept = kept[:maxResults]
	}
	out.Chunks = kept
	return out
}

func (r *Retriever) webChunk(res types.WebResult, domain types.Domain) types.DocumentChunk {
	title := strings.TrimSpace(res.Title)
	if title == "" {
		title = "Tài liệu pháp lý"
	}
	authority := res.Authority
	if authority == "" {
		authority = "web"
	}

	var b strings.Builder
	b.WriteString(title)
	if res.Content != "" {
		b.WriteString("\n")
		b.WriteString(res.Content)
	}

	return types.DocumentChunk{
		ID:      "web:" + res.URL,
		Content: b.String(),
		Metadata: map[string]any{
			types.MetaDocumentName: title,
			types.MetaTitle:        title,
			types.MetaSourceURL:    res.URL,
			types.MetaAuthority:    authority,
			types.MetaLegalDomain:  string(domain),
		},
		RelevanceScore: r.webRelevance,
		Origin:         types.OriginWeb,
	}
}

func chunkKey(c types.DocumentChunk) string {
	if c.ID != "" {
		return c.ID
	}
	return c.DocumentName() + "\x00" + c.Content
}
