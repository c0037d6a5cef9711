// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/legal-engine/pkg/types"
)

// ExportEntry holds one stored chunk for export.
type ExportEntry struct {
	ID            string `json:"id" yaml:"id"`
	DocumentName  string `json:"document_name" yaml:"document_name"`
	LegalDomain   string `json:"legal_domain" yaml:"legal_domain"`
	ArticleNumber string `json:"article_number,omitempty" yaml:"article_number,omitempty"`
	ClauseNumber  string `json:"clause_number,omitempty" yaml:"clause_number,omitempty"`
	Point         string `json:"point,omitempty" yaml:"point,omitempty"`
	SourceURL     string `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	Content       string `json:"content" yaml:"content"`
}

const exportLimit = 100000

// ExportYAML writes the knowledge base to knowledge/index/export.yaml,
// applying the same filters as List.
func (s *Store) ExportYAML(ctx context.Context, opts ListOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.knowledgeDir, indexDir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the knowledge base to knowledge/index/export.json,
// applying the same filters as List.
func (s *Store) ExportJSON(ctx context.Context, opts ListOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.knowledgeDir, indexDir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts ListOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	chunks, err := s.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = ExportEntry{
			ID:            c.ID,
			DocumentName:  c.DocumentName(),
			LegalDomain:   c.Meta(types.MetaLegalDomain),
			ArticleNumber: c.Meta(types.MetaArticleNumber),
			ClauseNumber:  c.Meta(types.MetaClauseNumber),
			Point:         c.Meta(types.MetaPoint),
			SourceURL:     c.Meta(types.MetaSourceURL),
			Content:       c.Content,
		}
	}

	return entries, nil
}
