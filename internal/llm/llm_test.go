// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/legal-engine/internal/httputil"
	"github.com/pdiddy/legal-engine/pkg/types"
)

func init() {
	backoffBase = time.Millisecond
	httputil.RetryBaseDelay = time.Millisecond
}

type fakeCompleter struct {
	calls int
	errs  []error
	out   string
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(_ context.Context, _ []Message) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	return f.out, nil
}

func TestNewProviderSelection(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, types.LLMConfig{Provider: types.ProviderOpenAI})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(ctx, types.LLMConfig{Provider: types.ProviderGemini})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(ctx, types.LLMConfig{Provider: "claude"})
	assert.ErrorIs(t, err, ErrUnknownProvider)

	c, err := New(ctx, types.LLMConfig{Provider: types.ProviderOllama, Model: "llama3.1"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.Name())

	c, err = New(ctx, types.LLMConfig{Provider: types.ProviderOpenAI, APIKey: "k", MaxRetries: 2})
	require.NoError(t, err)
	assert.IsType(t, &retrying{}, c)
	assert.Equal(t, "openai", c.Name())
}

type closingCompleter struct {
	fakeCompleter
	closed int
	err    error
}

func (c *closingCompleter) Close() error {
	c.closed++
	return c.err
}

func TestClose(t *testing.T) {
	tests := []struct {
		name    string
		inner   *closingCompleter
		wrap    bool
		wantErr bool
	}{
		{name: "direct", inner: &closingCompleter{}},
		{name: "through retry", inner: &closingCompleter{}, wrap: true},
		{name: "close error surfaces", inner: &closingCompleter{err: errors.New("boom")}, wrap: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Completer = tt.inner
			if tt.wrap {
				c = WithRetry(c, 2)
			}
			err := Close(c)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, 1, tt.inner.closed)
		})
	}

	assert.NoError(t, Close(&fakeCompleter{}))
	assert.NoError(t, Close(WithRetry(NewOllama(types.LLMConfig{}), 1)))
}

func TestWithRetryRecovers(t *testing.T) {
	f := &fakeCompleter{errs: []error{errors.New("boom"), errors.New("boom")}, out: "ok"}
	got, err := WithRetry(f, 2).Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, f.calls)
}

func TestWithRetryExhausted(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeCompleter{errs: []error{boom, boom, boom}}
	_, err := WithRetry(f, 2).Complete(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "after 2 retries")
	assert.Equal(t, 3, f.calls)
}

func TestWithRetryStopsOnEmpty(t *testing.T) {
	f := &fakeCompleter{errs: []error{fmt.Errorf("x: %w", ErrEmptyCompletion)}}
	_, err := WithRetry(f, 3).Complete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyCompletion)
	assert.Equal(t, 1, f.calls)
}

func TestWithRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeCompleter{errs: []error{errors.New("boom")}}
	_, err := WithRetry(f, 3).Complete(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.calls)
}

func TestOpenAIComplete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, RoleSystem, req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Theo Điều 105.  "},"finish_reason":"stop"}]}`)
	}))
	defer ts.Close()

	c := NewOpenAI(types.LLMConfig{APIKey: "test-key", BaseURL: ts.URL, Model: "gpt-4o-mini"})
	got, err := c.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "Bạn là chuyên gia pháp lý."},
		{Role: RoleUser, Content: "Giờ làm việc?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Theo Điều 105.", got)
}

func TestOpenAICompleteEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer ts.Close()

	c := NewOpenAI(types.LLMConfig{APIKey: "k", BaseURL: ts.URL})
	_, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "q"}})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestOpenAIEmbed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","data":[
			{"object":"embedding","index":1,"embedding":[0.3,0.4]},
			{"object":"embedding","index":0,"embedding":[0.1,0.2]}
		]}`)
	}))
	defer ts.Close()

	e, err := NewEmbedder(types.LLMConfig{APIKey: "k", BaseURL: ts.URL, EmbeddingModel: "text-embedding-3-small", EmbeddingDimension: 2})
	require.NoError(t, err)

	got, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, got)
}

func TestOpenAIEmbedDimensionMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[0.1,0.2,0.3]}]}`)
	}))
	defer ts.Close()

	e, err := NewEmbedder(types.LLMConfig{APIKey: "k", BaseURL: ts.URL, EmbeddingDimension: 2})
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "dimension mismatch")
}

func TestNewEmbedderRequiresKey(t *testing.T) {
	_, err := NewEmbedder(types.LLMConfig{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestOllamaComplete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.1", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "Thủ tục ly hôn?", req.Messages[0].Content)

		fmt.Fprint(w, `{"message":{"role":"assistant","content":"Bước 1: nộp đơn."},"done":true}`)
	}))
	defer ts.Close()

	c := NewOllama(types.LLMConfig{BaseURL: ts.URL + "/", Model: "llama3.1"})
	got, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "Thủ tục ly hôn?"}})
	require.NoError(t, err)
	assert.Equal(t, "Bước 1: nộp đơn.", got)
}

func TestOllamaErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"http status", http.StatusInternalServerError, "model crashed", "HTTP 500"},
		{"error field", http.StatusOK, `{"error":"model not found"}`, "model not found"},
		{"blank content", http.StatusOK, `{"message":{"role":"assistant","content":"  "},"done":true}`, ErrEmptyCompletion.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			c := NewOllama(types.LLMConfig{BaseURL: ts.URL})
			_, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "q"}})
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestOllamaDefaultHost(t *testing.T) {
	assert.Equal(t, defaultOllamaHost, NewOllama(types.LLMConfig{}).host)
}

func TestSplitMessages(t *testing.T) {
	sys, prompt := splitMessages([]Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "b"},
		{Role: RoleSystem, Content: "c"},
		{Role: RoleAssistant, Content: "d"},
	})
	assert.Equal(t, "a\n\nc", sys)
	assert.Equal(t, "b\n\nd", prompt)
}
