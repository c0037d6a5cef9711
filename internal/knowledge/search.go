// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/legal-engine/internal/normalize"
	"github.com/pdiddy/legal-engine/pkg/types"
)

// candidateFactor widens the FTS candidate set before keyword-coverage
// scoring picks the final topK.
const candidateFactor = 3

// ListOptions holds structured filters for listing and export.
type ListOptions struct {
	// Domain filters by legal domain. Empty or general lists everything.
	Domain types.Domain

	// DocumentName filters by exact document name.
	DocumentName string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Search returns up to topK chunks matching query, restricted to domain
// unless domain is general. It satisfies the retriever's Index capability.
//
// Candidates come from FTS5 in bm25 order. Each is scored by the share of
// query keywords it contains, which keeps scores in [0,1] and comparable
// across corpus sizes. A query with no usable keywords returns nothing.
func (s *Store) Search(ctx context.Context, query string, domain types.Domain, topK int) ([]types.DocumentChunk, error) {
	if topK <= 0 {
		topK = s.maxResults
	}
	keywords := normalize.Keywords(query)
	if len(keywords) == 0 {
		return nil, nil
	}

	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(
		`SELECT c.id, c.content, c.metadata
		FROM chunks_fts
		JOIN chunks c ON c.rowid = chunks_fts.rowid
		WHERE chunks_fts MATCH ?`)
	args = append(args, matchExpr(keywords))

	if domain != "" && domain != types.DomainGeneral {
		qb.WriteString(` AND c.legal_domain = ?`)
		args = append(args, string(domain))
	}

	qb.WriteString(` ORDER BY chunks_fts.rank LIMIT ?`)
	args = append(args, topK*candidateFactor)

	chunks, err := s.query(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("searching knowledge base: %w", err)
	}

	for i := range chunks {
		chunks[i].RelevanceScore = coverage(keywords, chunks[i])
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].RelevanceScore > chunks[j].RelevanceScore
	})
	if len(chunks) > topK {
		chunks = chunks[:topK]
	}
	return chunks, nil
}

// List returns stored chunks matching the structured filters, ordered by
// document then insertion.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]types.DocumentChunk, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(`SELECT c.id, c.content, c.metadata FROM chunks c WHERE 1=1`)

	if opts.Domain != "" && opts.Domain != types.DomainGeneral {
		qb.WriteString(` AND c.legal_domain = ?`)
		args = append(args, string(opts.Domain))
	}
	if opts.DocumentName != "" {
		qb.WriteString(` AND c.document_name = ?`)
		args = append(args, opts.DocumentName)
	}

	qb.WriteString(` ORDER BY c.document_name, c.rowid LIMIT ?`)
	args = append(args, maxResults)

	chunks, err := s.query(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing knowledge base: %w", err)
	}
	return chunks, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]types.DocumentChunk, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []types.DocumentChunk
	for rows.Next() {
		var (
			c        types.DocumentChunk
			metaJSON sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Content, &metaJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if metaJSON.Valid {
			json.Unmarshal([]byte(metaJSON.String), &c.Metadata)
		}
		if c.Metadata == nil {
			c.Metadata = map[string]any{}
		}
		c.Origin = types.OriginIndex
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// matchExpr builds an FTS5 OR-query with every keyword quoted as a phrase.
func matchExpr(keywords []string) string {
	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = `"` + strings.ReplaceAll(kw, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}

// coverage is the fraction of keywords present in the chunk's content or
// document name, rounded to two decimals.
func coverage(keywords []string, c types.DocumentChunk) float64 {
	text := strings.ToLower(c.Content + " " + c.DocumentName())
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	score := float64(hits) / float64(len(keywords))
	return float64(int(score*100+0.5)) / 100
}
