// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge persists legal document chunks in SQLite and serves
// them through an FTS5 full-text index. The Store satisfies the retriever's
// Index capability, so the pipeline runs without an embedding service.
package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/legal-engine/internal/ingest"
	"github.com/pdiddy/legal-engine/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "legal.db"
)

// Store manages the knowledge base SQLite database.
type Store struct {
	db           *sql.DB
	knowledgeDir string
	maxResults   int
}

// NewStore opens or creates the knowledge base SQLite database at
// knowledgeDir/index/legal.db. It creates the schema if it does not exist.
func NewStore(cfg types.KnowledgeBaseConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.KnowledgeDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:           db,
		knowledgeDir: cfg.KnowledgeDir,
		maxResults:   maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			content TEXT NOT NULL,
			document_name TEXT NOT NULL,
			legal_domain TEXT NOT NULL,
			article_number TEXT,
			clause_number TEXT,
			point TEXT,
			source_url TEXT,
			source_file TEXT,
			metadata TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_domain ON chunks(legal_domain)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_name)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_source_file ON chunks(source_file)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			source_file TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync. Diacritics are kept so
	// that "luật" and "lưu" stay distinct tokens.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='chunks_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE chunks_fts USING fts5(
				content, document_name,
				content=chunks, content_rowid=rowid,
				tokenize='unicode61 remove_diacritics 0'
			)`,
			`CREATE TRIGGER chunks_ai AFTER INSERT ON chunks BEGIN
				INSERT INTO chunks_fts(rowid, content, document_name) VALUES (new.rowid, new.content, new.document_name);
			END`,
			`CREATE TRIGGER chunks_ad AFTER DELETE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, content, document_name) VALUES('delete', old.rowid, old.content, old.document_name);
			END`,
			`CREATE TRIGGER chunks_au AFTER UPDATE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, content, document_name) VALUES('delete', old.rowid, old.content, old.document_name);
				INSERT INTO chunks_fts(rowid, content, document_name) VALUES (new.rowid, new.content, new.document_name);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Upsert stores chunks, replacing any existing rows with the same ID.
// Chunks without an ID or document name are rejected.
func (s *Store) Upsert(ctx context.Context, chunks []types.DocumentChunk) (int, error) {
	return s.upsert(ctx, "", chunks)
}

func (s *Store) upsert(ctx context.Context, sourceFile string, chunks []types.DocumentChunk) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if sourceFile != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE source_file = ?`, sourceFile); err != nil {
			return 0, fmt.Errorf("deleting old chunks: %w", err)
		}
	}

	// ON CONFLICT DO UPDATE keeps the rowid so the FTS update trigger fires.
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, content, document_name, legal_domain, article_number,
			clause_number, point, source_url, source_file, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			content=excluded.content, document_name=excluded.document_name,
			legal_domain=excluded.legal_domain, article_number=excluded.article_number,
			clause_number=excluded.clause_number, point=excluded.point,
			source_url=excluded.source_url, source_file=excluded.source_file,
			metadata=excluded.metadata`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if c.ID == "" {
			return 0, fmt.Errorf("chunk without id in %q", c.DocumentName())
		}
		if c.DocumentName() == "" {
			return 0, fmt.Errorf("chunk %s has no document name", c.ID)
		}
		domain := c.Meta(types.MetaLegalDomain)
		if domain == "" {
			domain = string(types.DomainGeneral)
		}
		metaJSON, err := json.Marshal(c.Metadata)
		if err != nil {
			return 0, fmt.Errorf("marshaling metadata for %s: %w", c.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			c.ID, c.Content, c.DocumentName(), domain,
			c.Meta(types.MetaArticleNumber), c.Meta(types.MetaClauseNumber), c.Meta(types.MetaPoint),
			c.Meta(types.MetaSourceURL), sourceFile, string(metaJSON),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing chunks: %w", err)
	}
	return len(chunks), nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// IngestSummary holds counts from a corpus indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
	Chunks  int
}

// Total returns the number of files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// IngestDir loads every supported file under dir and stores its chunks.
// Files whose modification time has not changed since the last run are
// skipped; changed files have their previous chunks replaced. Progress is
// written to w. The onChunks callback, when non-nil, receives the chunks
// of each indexed file so other indexes can be fed in the same pass.
func (s *Store) IngestDir(ctx context.Context, dir string, w io.Writer, onChunks func(context.Context, []types.DocumentChunk) error) (IngestSummary, error) {
	paths, err := ingest.Discover(dir)
	if err != nil {
		return IngestSummary{}, err
	}

	var summary IngestSummary

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}

		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rel, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE source_file = ?`, rel,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", rel)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		doc, err := ingest.LoadFile(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rel, err)
			summary.Failed++
			continue
		}

		chunks := doc.Chunks()
		if _, err := s.upsert(ctx, rel, chunks); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rel, err)
			summary.Failed++
			continue
		}
		if onChunks != nil {
			if err := onChunks(ctx, chunks); err != nil {
				fmt.Fprintf(w, "warning %s: %v\n", rel, err)
			}
		}

		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO indexing_status (source_file, file_mod_time) VALUES (?, ?)
			 ON CONFLICT(source_file) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
			rel, modTime,
		); err != nil {
			fmt.Fprintf(w, "failed  %s: updating indexing status: %v\n", rel, err)
			summary.Failed++
			continue
		}

		summary.Chunks += len(chunks)
		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d chunks)\n", rel, len(chunks))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d chunks)\n", rel, len(chunks))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	if summary.Indexed > 0 || summary.Updated > 0 {
		if err := s.ExportYAML(ctx, ListOptions{}); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}

	return summary, nil
}
