// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/legal-engine/internal/knowledge"
	"github.com/pdiddy/legal-engine/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the knowledge base to YAML or JSON",
	Long: `Export writes the knowledge base (or a filtered subset) to
<knowledge-dir>/index/export.yaml or export.json.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	domain, _ := cmd.Flags().GetString("domain")
	document, _ := cmd.Flags().GetString("document")

	cfg := commandConfig(cmd)
	store, err := knowledge.NewStore(cfg.Knowledge)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := knowledge.ListOptions{DocumentName: document}
	if domain != "" {
		d, err := types.ParseDomain(domain)
		if err != nil {
			return err
		}
		opts.Domain = d
	}

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(cmd.Context(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/index/export.yaml\n", cfg.Knowledge.KnowledgeDir)
	case "json":
		if err := store.ExportJSON(cmd.Context(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/index/export.json\n", cfg.Knowledge.KnowledgeDir)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	return nil
}

func init() {
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	exportCmd.Flags().String("domain", "", "export only one legal domain")
	exportCmd.Flags().String("document", "", "export only one document by name")

	rootCmd.AddCommand(exportCmd)
}
