// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/legal-engine/internal/knowledge"
	"github.com/pdiddy/legal-engine/internal/llm"
	"github.com/pdiddy/legal-engine/internal/pipeline"
	"github.com/pdiddy/legal-engine/internal/retrieve"
	"github.com/pdiddy/legal-engine/internal/search"
	"github.com/pdiddy/legal-engine/internal/secrets"
	"github.com/pdiddy/legal-engine/internal/vector"
	"github.com/pdiddy/legal-engine/pkg/types"
)

const backendPgvector = "pgvector"

// loadConfig overlays the keys set in v (config file, environment, bound
// flags) on top of the defaults, then fills credentials from s.
func loadConfig(v *viper.Viper, s map[string]string) types.Config {
	cfg := types.DefaultConfig()

	setDuration(v, "pipeline.timeout", &cfg.Pipeline.Timeout)
	setInt(v, "pipeline.max_question_length", &cfg.Pipeline.MaxQuestionLength)
	if d := v.GetString("pipeline.default_domain"); d != "" {
		cfg.Pipeline.DefaultDomain = types.Domain(d)
	}
	setInt(v, "pipeline.batch_concurrency", &cfg.Pipeline.BatchConcurrency)

	setInt(v, "retrieval.max_results", &cfg.Retrieval.MaxResults)
	setFloat(v, "retrieval.min_score", &cfg.Retrieval.MinScore)
	setString(v, "retrieval.backend", &cfg.Retrieval.Backend)
	if v.IsSet("retrieval.enable_web") {
		cfg.Retrieval.EnableWeb = v.GetBool("retrieval.enable_web")
	}

	if p := v.GetString("llm.provider"); p != "" {
		cfg.LLM.Provider = types.LLMProvider(p)
	}
	setString(v, "llm.model", &cfg.LLM.Model)
	setString(v, "llm.api_key", &cfg.LLM.APIKey)
	setString(v, "llm.base_url", &cfg.LLM.BaseURL)
	setDuration(v, "llm.timeout", &cfg.LLM.Timeout)
	if v.IsSet("llm.temperature") {
		cfg.LLM.Temperature = float32(v.GetFloat64("llm.temperature"))
	}
	setInt(v, "llm.max_retries", &cfg.LLM.MaxRetries)
	setString(v, "llm.embedding_model", &cfg.LLM.EmbeddingModel)

	setString(v, "knowledge.knowledge_dir", &cfg.Knowledge.KnowledgeDir)
	setInt(v, "knowledge.max_results", &cfg.Knowledge.MaxResults)

	setString(v, "vector.database_url", &cfg.Vector.DatabaseURL)
	setInt(v, "vector.dimension", &cfg.Vector.Dimension)

	setString(v, "web_search.api_key", &cfg.WebSearch.APIKey)
	setDuration(v, "web_search.timeout", &cfg.WebSearch.Timeout)
	setInt(v, "web_search.results_per_query", &cfg.WebSearch.ResultsPerQuery)
	setFloat(v, "web_search.default_relevance", &cfg.WebSearch.DefaultRelevance)

	setString(v, "server.addr", &cfg.Server.Addr)

	if cfg.LLM.EmbeddingDimension == 0 {
		cfg.LLM.EmbeddingDimension = cfg.Vector.Dimension
	}

	secrets.Apply(&cfg, s)
	return cfg
}

func setString(v *viper.Viper, key string, dst *string) {
	if s := v.GetString(key); s != "" {
		*dst = s
	}
}

func setInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

func setFloat(v *viper.Viper, key string, dst *float64) {
	if v.IsSet(key) {
		*dst = v.GetFloat64(key)
	}
}

func setDuration(v *viper.Viper, key string, dst *time.Duration) {
	if v.IsSet(key) {
		*dst = v.GetDuration(key)
	}
}

// commandConfig resolves the configuration for cmd, applying the flags
// that have no config key of their own.
func commandConfig(cmd *cobra.Command) types.Config {
	cfg := loadConfig(viper.GetViper(), loadedSecrets)
	if noWeb, _ := cmd.Flags().GetBool("no-web"); noWeb {
		cfg.Retrieval.EnableWeb = false
	}
	return cfg
}

// commandLogger returns a stderr logger when --verbose is set and a
// discarding one otherwise.
func commandLogger(cmd *cobra.Command) *slog.Logger {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openIndex opens the configured retrieval index. The returned function
// releases it.
func openIndex(ctx context.Context, cfg types.Config) (retrieve.Index, func(), error) {
	switch cfg.Retrieval.Backend {
	case backendPgvector:
		idx, err := openVector(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return idx, idx.Close, nil
	case "sqlite", "":
		store, err := knowledge.NewStore(cfg.Knowledge)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend %q: use sqlite or pgvector", cfg.Retrieval.Backend)
	}
}

// openVector connects to the pgvector index with an OpenAI embedder.
func openVector(ctx context.Context, cfg types.Config) (*vector.Index, error) {
	if cfg.Vector.DatabaseURL == "" {
		return nil, fmt.Errorf("pgvector backend requires a database URL (vector.database_url or .secrets/%s)", secrets.DatabaseURL)
	}
	embedCfg := cfg.LLM
	if embedCfg.Provider != types.ProviderOpenAI {
		// Embeddings always come from OpenAI.
		embedCfg.APIKey = loadedSecrets[secrets.OpenAIAPIKey]
		embedCfg.BaseURL = ""
	}
	embedder, err := llm.NewEmbedder(embedCfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	pool, err := vector.Connect(ctx, cfg.Vector.DatabaseURL)
	if err != nil {
		return nil, err
	}
	idx, err := vector.New(pool, embedder, cfg.Vector.Dimension)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

// buildPipeline wires the index, web search, and completer from cfg. A
// missing completion key is reported and the pipeline runs without a
// completer, answering every question with the apology. The returned func
// closes the completer and the index.
func buildPipeline(ctx context.Context, cfg types.Config, logger *slog.Logger) (*pipeline.Pipeline, func(), error) {
	idx, closeIndex, err := openIndex(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithIndex(idx),
		pipeline.WithLogger(logger),
		pipeline.WithConfig(cfg.Pipeline, cfg.Retrieval),
		pipeline.WithWebRelevance(cfg.WebSearch.DefaultRelevance),
	}

	if cfg.Retrieval.EnableWeb {
		web := search.New(cfg.WebSearch, search.WithLogger(logger))
		if web.Available() {
			opts = append(opts, pipeline.WithWebSearcher(web))
		} else {
			fmt.Fprintf(os.Stderr, "warning: web search disabled, no SerpAPI key (.secrets/%s)\n", secrets.SerpAPIAPIKey)
		}
	}

	cleanup := closeIndex
	completer, err := llm.New(ctx, cfg.LLM)
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		fmt.Fprintf(os.Stderr, "warning: %v; answers will be unavailable\n", err)
	case err != nil:
		closeIndex()
		return nil, nil, err
	default:
		opts = append(opts, pipeline.WithCompleter(completer))
		cleanup = func() {
			if err := llm.Close(completer); err != nil {
				logger.Warn("closing completer", "provider", completer.Name(), "error", err)
			}
			closeIndex()
		}
	}

	return pipeline.New(opts...), cleanup, nil
}
