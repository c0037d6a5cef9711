// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm provides the completion capability used by the synthesis
// strategies, with OpenAI, Ollama, and Gemini backends, plus the OpenAI
// embedder used by the pgvector index.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/legal-engine/pkg/types"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat prompt.
type Message struct {
	Role    string
	Content string
}

// Completer produces an answer for a chat prompt.
type Completer interface {
	Name() string
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Sentinel errors for completion backends.
var (
	ErrEmptyCompletion = errors.New("completion returned no text")
	ErrMissingAPIKey   = errors.New("api key not set")
	ErrUnknownProvider = errors.New("unknown llm provider")
)

// New returns the completer for cfg.Provider, wrapped with retries when
// cfg.MaxRetries is positive.
func New(ctx context.Context, cfg types.LLMConfig) (Completer, error) {
	var (
		c   Completer
		err error
	)
	switch cfg.Provider {
	case types.ProviderOpenAI, "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider: %w", ErrMissingAPIKey)
		}
		c = NewOpenAI(cfg)
	case types.ProviderOllama:
		c = NewOllama(cfg)
	case types.ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini provider: %w", ErrMissingAPIKey)
		}
		c, err = NewGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	if cfg.MaxRetries > 0 {
		c = WithRetry(c, cfg.MaxRetries)
	}
	return c, nil
}

// Close releases resources held by c. Completers without resources, such
// as the HTTP-backed ones, close as a no-op.
func Close(c Completer) error {
	if cl, ok := c.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

type retrying struct {
	next       Completer
	maxRetries int
}

// WithRetry wraps c so failed calls are retried up to maxRetries times with
// exponential backoff. Context errors and empty completions are not
// retried.
func WithRetry(c Completer, maxRetries int) Completer {
	return &retrying{next: c, maxRetries: maxRetries}
}

func (r *retrying) Name() string { return r.next.Name() }

func (r *retrying) Close() error { return Close(r.next) }

func (r *retrying) Complete(ctx context.Context, messages []Message) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		out, err := r.next.Complete(ctx, messages)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, ErrEmptyCompletion) || ctx.Err() != nil {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", r.maxRetries, lastErr)
}

// checkText trims a completion and rejects blank output.
func checkText(provider, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", provider, ErrEmptyCompletion)
	}
	return text, nil
}
