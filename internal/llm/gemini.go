// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/pdiddy/legal-engine/pkg/types"
)

// Gemini completes prompts with Google's Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGemini opens a Gemini client for cfg.APIKey.
func NewGemini(ctx context.Context, cfg types.LLMConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Gemini{client: client, model: model, temperature: cfg.Temperature}, nil
}

// Name returns the provider identifier.
func (c *Gemini) Name() string { return "gemini" }

// Close releases the underlying client.
func (c *Gemini) Close() error { return c.client.Close() }

// Complete sends system messages as the system instruction and the rest
// as a single user turn.
func (c *Gemini) Complete(ctx context.Context, messages []Message) (string, error) {
	system, prompt := splitMessages(messages)

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(c.temperature)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: %w", ErrEmptyCompletion)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return checkText("gemini", b.String())
}

// splitMessages joins system turns and non-system turns separately.
func splitMessages(messages []Message) (system, prompt string) {
	var sys, rest []string
	for _, m := range messages {
		if m.Role == RoleSystem {
			sys = append(sys, m.Content)
		} else {
			rest = append(rest, m.Content)
		}
	}
	return strings.Join(sys, "\n\n"), strings.Join(rest, "\n\n")
}
