// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vector implements the retriever's Index capability on PostgreSQL
// with the pgvector extension. Chunks are embedded on upsert; queries are
// embedded and matched by L2 distance.
package vector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/pdiddy/legal-engine/pkg/types"
)

// Embedder turns texts into vectors of a fixed dimension.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Sentinel errors for the vector index.
var (
	ErrNoPool            = errors.New("postgres pool is nil")
	ErrInvalidDimension  = errors.New("embedding dimension must be positive")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// embedBatch bounds the number of texts sent per embedding call.
const embedBatch = 64

// Index is a pgvector-backed chunk index.
type Index struct {
	pool      *pgxpool.Pool
	embedder  Embedder
	dimension int
}

// Connect opens a connection pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// New returns an Index over pool. The embedder must produce vectors of
// length dimension.
func New(pool *pgxpool.Pool, embedder Embedder, dimension int) (*Index, error) {
	if pool == nil {
		return nil, ErrNoPool
	}
	if dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	return &Index{pool: pool, embedder: embedder, dimension: dimension}, nil
}

// SchemaStatements returns the DDL for a given embedding dimension.
func SchemaStatements(dimension int) ([]string, error) {
	if dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	return []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS legal_chunks (
			id TEXT PRIMARY KEY,
			document_name TEXT NOT NULL,
			legal_domain TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, dimension),
		"CREATE INDEX IF NOT EXISTS idx_legal_chunks_domain ON legal_chunks(legal_domain)",
		"CREATE INDEX IF NOT EXISTS idx_legal_chunks_embedding ON legal_chunks USING ivfflat (embedding vector_l2_ops)",
	}, nil
}

// EnsureSchema creates the extension, table, and indexes if missing.
func (x *Index) EnsureSchema(ctx context.Context) error {
	stmts, err := SchemaStatements(x.dimension)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := x.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}

// Upsert embeds and stores chunks, replacing rows with the same ID.
func (x *Index) Upsert(ctx context.Context, chunks []types.DocumentChunk) (int, error) {
	stored := 0
	for start := 0; start < len(chunks); start += embedBatch {
		end := min(start+embedBatch, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vecs, err := x.embed(ctx, texts)
		if err != nil {
			return stored, err
		}

		b := &pgx.Batch{}
		for i, c := range batch {
			domain := c.Meta(types.MetaLegalDomain)
			if domain == "" {
				domain = string(types.DomainGeneral)
			}
			meta, err := json.Marshal(c.Metadata)
			if err != nil {
				return stored, fmt.Errorf("marshal metadata for %s: %w", c.ID, err)
			}
			b.Queue(`
				INSERT INTO legal_chunks (id, document_name, legal_domain, content, metadata, embedding)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO UPDATE SET
					document_name = EXCLUDED.document_name,
					legal_domain = EXCLUDED.legal_domain,
					content = EXCLUDED.content,
					metadata = EXCLUDED.metadata,
					embedding = EXCLUDED.embedding,
					updated_at = NOW()
			`, c.ID, c.DocumentName(), domain, c.Content, string(meta), pgvector.NewVector(vecs[i]))
		}

		if err := x.pool.SendBatch(ctx, b).Close(); err != nil {
			return stored, fmt.Errorf("upsert legal chunks: %w", err)
		}
		stored += len(batch)
	}
	return stored, nil
}

// Search embeds query and returns the topK nearest chunks, restricted to
// domain unless domain is general. Scores are 1/(1+distance).
func (x *Index) Search(ctx context.Context, query string, domain types.Domain, topK int) ([]types.DocumentChunk, error) {
	if topK <= 0 {
		topK = 5
	}
	vecs, err := x.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	vec := pgvector.NewVector(vecs[0])

	var rows pgx.Rows
	if domain == "" || domain == types.DomainGeneral {
		rows, err = x.pool.Query(ctx, `
			SELECT id, content, metadata, (embedding <-> $1::vector) AS distance
			FROM legal_chunks
			ORDER BY embedding <-> $1::vector
			LIMIT $2
		`, vec, topK)
	} else {
		rows, err = x.pool.Query(ctx, `
			SELECT id, content, metadata, (embedding <-> $1::vector) AS distance
			FROM legal_chunks
			WHERE legal_domain = $3
			ORDER BY embedding <-> $1::vector
			LIMIT $2
		`, vec, topK, string(domain))
	}
	if err != nil {
		return nil, fmt.Errorf("query similar chunks: %w", err)
	}
	defer rows.Close()

	var chunks []types.DocumentChunk
	for rows.Next() {
		var (
			c        types.DocumentChunk
			meta     []byte
			distance float64
		)
		if err := rows.Scan(&c.ID, &c.Content, &meta, &distance); err != nil {
			return nil, fmt.Errorf("scan similar chunk: %w", err)
		}
		if err := json.Unmarshal(meta, &c.Metadata); err != nil || c.Metadata == nil {
			c.Metadata = map[string]any{}
		}
		c.RelevanceScore = Similarity(distance)
		c.Origin = types.OriginIndex
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Similarity maps an L2 distance to a score in (0,1].
func Similarity(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}

func (x *Index) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if x.embedder == nil {
		return nil, errors.New("no embedder configured")
	}
	vecs, err := x.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed texts: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embed texts: got %d vectors for %d texts", len(vecs), len(texts))
	}
	for _, v := range vecs {
		if len(v) != x.dimension {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, x.dimension, len(v))
		}
	}
	return vecs, nil
}

// Close releases the pool.
func (x *Index) Close() {
	x.pool.Close()
}
