// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/legal-engine/pkg/types"
)

// OpenAI completes prompts with the OpenAI chat API or any compatible
// endpoint set through BaseURL.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
}

func openAIConfig(cfg types.LLMConfig) openai.ClientConfig {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return oc
}

// NewOpenAI returns an OpenAI completer.
func NewOpenAI(cfg types.LLMConfig) *OpenAI {
	return &OpenAI{
		client:      openai.NewClientWithConfig(openAIConfig(cfg)),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

// Name returns the provider identifier.
func (c *OpenAI) Name() string { return "openai" }

// Complete sends messages as one chat completion and returns the first
// choice.
func (c *OpenAI) Complete(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
	}

	req.Messages = make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrEmptyCompletion)
	}
	return checkText("openai", resp.Choices[0].Message.Content)
}

// Embedder computes embeddings with the OpenAI embeddings API.
type Embedder struct {
	client    *openai.Client
	model     string
	dimension int
}

// NewEmbedder returns an OpenAI embedder using cfg.EmbeddingModel.
func NewEmbedder(cfg types.LLMConfig) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai embedder: %w", ErrMissingAPIKey)
	}
	return &Embedder{
		client:    openai.NewClientWithConfig(openAIConfig(cfg)),
		model:     cfg.EmbeddingModel,
		dimension: cfg.EmbeddingDimension,
	}, nil
}

// Embed returns one vector per text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("create openai embeddings: %w", err)
	}

	results := make([][]float32, len(texts))
	for _, datum := range resp.Data {
		if datum.Index < 0 || datum.Index >= len(results) {
			return nil, fmt.Errorf("openai embedding index %d out of range", datum.Index)
		}
		if e.dimension > 0 && len(datum.Embedding) != e.dimension {
			return nil, fmt.Errorf("openai embedding dimension mismatch: expected %d, got %d", e.dimension, len(datum.Embedding))
		}
		results[datum.Index] = datum.Embedding
	}
	for i, v := range results {
		if v == nil {
			return nil, fmt.Errorf("openai embedding missing for input %d", i)
		}
	}
	return results, nil
}
