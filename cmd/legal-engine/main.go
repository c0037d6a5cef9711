// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the legal-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/legal-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the legal-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "legal-engine",
	Short: "Answer Vietnamese legal questions from a cited legal corpus",
	Long: `legal-engine resolves free-text Vietnamese legal questions into cited,
confidence-scored answers. A question is normalized and classified by legal
domain, relevant passages are retrieved from the local index (falling back to
web search), and an answer is synthesized by a strategy chosen from the
question type.

Use ask for a single question, batch for a file of questions, serve to run
the HTTP API, and index to load a corpus of legal documents.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is normal; only real parse failures matter.
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading .env: %w", err)
		}

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./legal-engine.yaml or ~/.config/legal-engine/legal-engine.yaml)")
	pf.String("provider", "", "completion provider: openai, ollama, or gemini")
	pf.String("model", "", "completion model identifier")
	pf.String("backend", "", "retrieval index: sqlite or pgvector")
	pf.String("knowledge-dir", "", "base directory for the knowledge base (contains corpus/, index/)")
	pf.Bool("no-web", false, "disable the web-search fallback")
	pf.Bool("verbose", false, "log pipeline steps to stderr")

	_ = viper.BindPFlag("llm.provider", pf.Lookup("provider"))
	_ = viper.BindPFlag("llm.model", pf.Lookup("model"))
	_ = viper.BindPFlag("retrieval.backend", pf.Lookup("backend"))
	_ = viper.BindPFlag("knowledge.knowledge_dir", pf.Lookup("knowledge-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("legal-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "legal-engine"))
		}
	}

	viper.SetEnvPrefix("LEGAL_ENGINE")
	viper.SetEnvKeyReplacer(replacer())
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// replacer maps nested config keys to environment names
// (llm.model -> LEGAL_ENGINE_LLM_MODEL).
func replacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
