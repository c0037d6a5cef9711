// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/legal-engine/internal/knowledge"
	"github.com/pdiddy/legal-engine/pkg/types"
)

const corpusDir = "corpus"

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load legal documents into the knowledge base",
	Long: `Index reads legal documents (.txt, .md, .pdf, .yaml) from the corpus
directory, splits them into article chunks, and stores them in the SQLite
knowledge base with FTS5 indexing. Unchanged files are skipped on later runs.

With --vector (or backend pgvector) the same chunks are embedded and
upserted into the pgvector index.`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := commandConfig(cmd)
	ctx := cmd.Context()

	dir, _ := cmd.Flags().GetString("corpus")
	if dir == "" {
		dir = filepath.Join(cfg.Knowledge.KnowledgeDir, corpusDir)
	}

	store, err := knowledge.NewStore(cfg.Knowledge)
	if err != nil {
		return err
	}
	defer store.Close()

	var onChunks func(context.Context, []types.DocumentChunk) error
	withVector, _ := cmd.Flags().GetBool("vector")
	if withVector || cfg.Retrieval.Backend == backendPgvector {
		idx, err := openVector(ctx, cfg)
		if err != nil {
			return err
		}
		defer idx.Close()
		if err := idx.EnsureSchema(ctx); err != nil {
			return err
		}
		onChunks = func(ctx context.Context, chunks []types.DocumentChunk) error {
			_, err := idx.Upsert(ctx, chunks)
			return err
		}
	}

	summary, err := store.IngestDir(ctx, dir, os.Stdout, onChunks)
	if err != nil {
		return err
	}

	total, err := store.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d chunks in knowledge base\n", total)

	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed indexing", summary.Failed)
	}
	return nil
}

func init() {
	indexCmd.Flags().String("corpus", "", "directory of legal documents (default <knowledge-dir>/corpus)")
	indexCmd.Flags().Bool("vector", false, "also embed chunks into the pgvector index")

	rootCmd.AddCommand(indexCmd)
}
