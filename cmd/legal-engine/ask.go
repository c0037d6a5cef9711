// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/legal-engine/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single legal question",
	Long: `Ask resolves one question and prints the answer with its citations,
confidence, and warnings. The question is taken from the arguments, or from
stdin when no arguments are given.

Use --domain to force a legal domain and --region to focus on a region.`,
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	if question == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading question from stdin: %w", err)
		}
		question = string(data)
	}

	q, err := queryFromFlags(cmd, question)
	if err != nil {
		return err
	}

	cfg := commandConfig(cmd)
	p, cleanup, err := buildPipeline(cmd.Context(), cfg, commandLogger(cmd))
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := p.Resolve(cmd.Context(), q)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	return writeResult(os.Stdout, res, format)
}

// queryFromFlags builds a Query from question and the --domain and
// --region flags, rejecting unknown values early.
func queryFromFlags(cmd *cobra.Command, question string) (types.Query, error) {
	q := types.Query{Text: question}

	if s, _ := cmd.Flags().GetString("domain"); s != "" {
		d, err := types.ParseDomain(s)
		if err != nil {
			return q, err
		}
		q.DomainHint = &d
	}
	if s, _ := cmd.Flags().GetString("region"); s != "" {
		r, err := types.ParseRegion(s)
		if err != nil {
			return q, err
		}
		q.RegionHint = &r
	}
	return q, nil
}

func writeResult(w io.Writer, res *types.QueryResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		return writeText(w, res)
	default:
		return fmt.Errorf("unsupported format %q: use text, json, or yaml", format)
	}
}

func writeText(w io.Writer, res *types.QueryResult) error {
	fmt.Fprintf(w, "%s\n\n", res.Answer)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Lĩnh vực:    %s (%s)\n", res.LegalDomain.Info().Name, res.LegalDomain)
	fmt.Fprintf(w, "Loại câu hỏi: %s\n", res.QueryType)
	fmt.Fprintf(w, "Độ tin cậy:  %.2f (%s)\n", res.ConfidenceScore, res.ConfidenceLevel)

	if len(res.Citations) > 0 {
		fmt.Fprintln(w, "\nTrích dẫn:")
		for _, c := range res.Citations {
			fmt.Fprintf(w, "  - %s\n", c.String())
		}
	}
	if len(res.Sources) > 0 {
		fmt.Fprintln(w, "\nNguồn:")
		for i, s := range res.Sources {
			fmt.Fprintf(w, "  [%d] %s (%.2f, %s)\n", i+1, s.DocumentName(), s.RelevanceScore, s.Origin)
		}
	}
	if len(res.Warnings) > 0 {
		fmt.Fprintln(w, "\nCảnh báo:")
		for _, warn := range res.Warnings {
			fmt.Fprintf(w, "  ! %s\n", warn)
		}
	}
	if len(res.Suggestions) > 0 {
		fmt.Fprintln(w, "\nGợi ý:")
		for _, s := range res.Suggestions {
			fmt.Fprintf(w, "  * %s\n", s)
		}
	}
	return nil
}

func init() {
	askCmd.Flags().String("domain", "", "force a legal domain (e.g. gia_dinh, thue)")
	askCmd.Flags().String("region", "", "focus on a region: north, central, south, special_zones")
	askCmd.Flags().String("format", "text", "output format: text, json, or yaml")

	rootCmd.AddCommand(askCmd)
}
