// Package ai provides LLM text generation with cached responses.
package ai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vmunix/moviegraph/internal/ttlcache"
)

// ErrEmptyConversation is returned when Chat is called without messages.
var ErrEmptyConversation = errors.New("no messages")

// Provider is an LLM backend.
type Provider interface {
	// Chat sends a conversation and returns the reply.
	Chat(ctx context.Context, messages []Message) (*Response, error)
}

// Message is a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Response is an LLM response.
type Response struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
	Cached  bool   `json:"cached"`
}

// OllamaProvider uses Ollama for local inference.
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	return &OllamaProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Model returns the configured model name.
func (o *OllamaProvider) Model() string { return o.model }

type ollamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaChatResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Error   string  `json:"error,omitempty"`
}

// Chat sends the conversation to Ollama's /api/chat endpoint.
func (o *OllamaProvider) Chat(ctx context.Context, messages []Message) (*Response, error) {
	if len(messages) == 0 {
		return nil, ErrEmptyConversation
	}

	body, err := json.Marshal(ollamaChatRequest{Model: o.model, Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out ollamaChatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, out.Error)
	}
	return &Response{Content: out.Message.Content, Model: out.Model}, nil
}

// CachedProvider memoizes replies in a TTL cache keyed by conversation.
type CachedProvider struct {
	next  Provider
	model string
	cache *ttlcache.Cache[string]
}

// NewCachedProvider wraps next. model is mixed into cache keys so switching
// models does not serve stale replies.
func NewCachedProvider(next Provider, model string, cache *ttlcache.Cache[string]) *CachedProvider {
	return &CachedProvider{next: next, model: model, cache: cache}
}

// Chat returns a cached reply when the same conversation was answered within
// the cache TTL, otherwise asks the wrapped provider.
func (c *CachedProvider) Chat(ctx context.Context, messages []Message) (*Response, error) {
	if len(messages) == 0 {
		return nil, ErrEmptyConversation
	}
	key := cacheKey(c.model, messages)
	if content, ok := c.cache.Get(key); ok {
		return &Response{Content: content, Model: c.model, Cached: true}, nil
	}

	resp, err := c.next.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, resp.Content)
	return resp, nil
}

func cacheKey(model string, messages []Message) string {
	h := sha256.New()
	h.Write([]byte(model))
	for _, m := range messages {
		h.Write([]byte{0})
		h.Write([]byte(m.Role))
		h.Write([]byte{0})
		h.Write([]byte(m.Content))
	}
	return hex.EncodeToString(h.Sum(nil))
}
