// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/legal-engine/internal/pipeline"
	"github.com/pdiddy/legal-engine/pkg/types"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Answer every question in a YAML or JSON file",
	Long: `Batch reads a list of questions from a YAML or JSON file and resolves them
concurrently. Each entry has a question and optional domain and region:

  - question: Thủ tục đăng ký kết hôn như thế nào?
    region: north
  - question: Mức phạt vượt đèn đỏ là bao nhiêu?

Results are written in input order to --out (default stdout). Progress goes
to stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// batchEntry is one line of batch output.
type batchEntry struct {
	Question string             `json:"question" yaml:"question"`
	Result   *types.QueryResult `json:"result,omitempty" yaml:"result,omitempty"`
	Error    string             `json:"error,omitempty" yaml:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	queries, err := readQueries(args[0])
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return fmt.Errorf("no questions in %s", args[0])
	}

	cfg := commandConfig(cmd)
	if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
		cfg.Pipeline.BatchConcurrency = n
	}

	p, cleanup, err := buildPipeline(cmd.Context(), cfg, commandLogger(cmd))
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Fprintf(os.Stderr, "Resolving %d questions (concurrency %d)\n", len(queries), cfg.Pipeline.BatchConcurrency)
	results, batchErr := p.ResolveBatch(cmd.Context(), queries, cfg.Pipeline.BatchConcurrency)
	entries, failed := batchEntries(os.Stderr, results)

	outPath, _ := cmd.Flags().GetString("out")
	format, _ := cmd.Flags().GetString("format")
	if err := writeBatch(outPath, format, entries); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\nBatch complete: %d resolved, %d failed\n", len(entries)-failed, failed)
	if batchErr != nil {
		return fmt.Errorf("batch interrupted: %w", batchErr)
	}
	return nil
}

// readQueries parses a YAML or JSON list of queries. JSON is read with the
// YAML decoder.
func readQueries(path string) ([]types.Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var queries []types.Query
	if err := yaml.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return queries, nil
}

// batchEntries converts results to output entries, writing one progress
// line per query to w.
func batchEntries(w io.Writer, results []pipeline.BatchResult) ([]batchEntry, int) {
	entries := make([]batchEntry, len(results))
	failed := 0
	for i, r := range results {
		entries[i].Question = r.Query.Text
		switch {
		case r.Err != nil:
			entries[i].Error = r.Err.Error()
			failed++
			fmt.Fprintf(w, "  [%d/%d] failed: %v\n", i+1, len(results), r.Err)
		case r.Result == nil:
			entries[i].Error = "not started"
			failed++
			fmt.Fprintf(w, "  [%d/%d] not started\n", i+1, len(results))
		default:
			entries[i].Result = r.Result
			fmt.Fprintf(w, "  [%d/%d] %s %.2f (%s)\n", i+1, len(results),
				r.Result.LegalDomain, r.Result.ConfidenceScore, r.Result.ConfidenceLevel)
		}
	}
	return entries, failed
}

func writeBatch(path, format string, entries []batchEntry) error {
	if format == "" && path != "" {
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			format = "yaml"
		}
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case "json", "":
		data, err = json.MarshalIndent(entries, "", "  ")
		data = append(data, '\n')
	case "yaml":
		data, err = yaml.Marshal(entries)
	default:
		return fmt.Errorf("unsupported format %q: use json or yaml", format)
	}
	if err != nil {
		return fmt.Errorf("marshaling batch results: %w", err)
	}

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}

func init() {
	batchCmd.Flags().Int("concurrency", 0, "questions resolved at once (0 = pipeline.batch_concurrency)")
	batchCmd.Flags().String("out", "", "output file (default stdout)")
	batchCmd.Flags().String("format", "", "output format: json or yaml (default from --out extension, else json)")

	rootCmd.AddCommand(batchCmd)
}
