package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/moviegraph/internal/ttlcache"
)

func TestOllamaProvider_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "Why watch Inception?", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"Dreams within dreams."},"done":true}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL+"/", "llama3")
	resp, err := p.Chat(context.Background(), []Message{{Role: "user", Content: "Why watch Inception?"}})
	require.NoError(t, err)
	assert.Equal(t, "Dreams within dreams.", resp.Content)
	assert.Equal(t, "llama3", resp.Model)
	assert.False(t, resp.Cached)
}

func TestOllamaProvider_Chat_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"nope\" not found"}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nope")
	_, err := p.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "not found")
}

func TestOllamaProvider_Chat_Empty(t *testing.T) {
	p := NewOllamaProvider("http://localhost:11434", "llama3")
	_, err := p.Chat(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyConversation)
}

type countingProvider struct {
	calls atomic.Int32
	err   error
}

func (c *countingProvider) Chat(ctx context.Context, messages []Message) (*Response, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &Response{Content: "reply to " + messages[len(messages)-1].Content}, nil
}

func TestCachedProvider(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	cache := ttlcache.New[string]("ai", time.Hour, ttlcache.WithClock(func() time.Time { return now }))
	next := &countingProvider{}
	p := NewCachedProvider(next, "llama3", cache)
	ctx := context.Background()
	msgs := []Message{{Role: "user", Content: "hello"}}

	first, err := p.Chat(ctx, msgs)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := p.Chat(ctx, msgs)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, int32(1), next.calls.Load())

	// Different conversation, different entry
	_, err = p.Chat(ctx, []Message{{Role: "user", Content: "bye"}})
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())

	// Expired entries go back to the provider
	now = now.Add(time.Hour)
	_, err = p.Chat(ctx, msgs)
	require.NoError(t, err)
	assert.Equal(t, int32(3), next.calls.Load())
}

func TestCachedProvider_ErrorsNotCached(t *testing.T) {
	cache := ttlcache.New[string]("ai", time.Hour)
	next := &countingProvider{err: errors.New("ollama down")}
	p := NewCachedProvider(next, "llama3", cache)
	msgs := []Message{{Role: "user", Content: "hello"}}

	_, err := p.Chat(context.Background(), msgs)
	require.Error(t, err)
	_, err = p.Chat(context.Background(), msgs)
	require.Error(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
	assert.Zero(t, cache.Len())
}

func TestCacheKey(t *testing.T) {
	a := cacheKey("m", []Message{{Role: "user", Content: "ab"}})
	b := cacheKey("m", []Message{{Role: "usera", Content: "b"}})
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, cacheKey("other", []Message{{Role: "user", Content: "ab"}}))
}
