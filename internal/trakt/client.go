package trakt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/vmunix/moviegraph/internal/movie"
	"github.com/vmunix/moviegraph/internal/ttlcache"
)

const defaultBaseURL = "https://api.trakt.tv"

// Sentinel errors for Trakt API responses.
var (
	ErrNotFound     = errors.New("movie not found")
	ErrUnauthorized = errors.New("unauthorized: invalid trakt api key")
	ErrRateLimited  = errors.New("rate limited: too many requests")
)

// Client is a Trakt API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *ttlcache.Cache[[]byte]
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCache caches raw response bodies in the given namespace.
func WithCache(cache *ttlcache.Cache[[]byte]) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log.With("component", "trakt")
	}
}

// New creates a new Trakt client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search finds movies matching query. Non-movie hits are skipped.
func (c *Client) Search(ctx context.Context, query string) ([]movie.Ref, error) {
	params := url.Values{"query": {query}, "extended": {"full"}}
	var results []SearchResult
	if err := c.get(ctx, "/search/movie?"+params.Encode(), &results); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	refs := make([]movie.Ref, 0, len(results))
	for _, r := range results {
		if r.Movie == nil {
			continue
		}
		refs = append(refs, r.Movie.Ref())
	}
	return refs, nil
}

// GetMovie fetches a single movie by Trakt ID.
func (c *Client) GetMovie(ctx context.Context, id int64) (*movie.Ref, error) {
	var m Movie
	if err := c.get(ctx, fmt.Sprintf("/movies/%d?extended=full", id), &m); err != nil {
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}
	ref := m.Ref()
	return &ref, nil
}

// GetStats fetches community statistics for a movie.
func (c *Client) GetStats(ctx context.Context, id int64) (*movie.Stats, error) {
	var s Stats
	if err := c.get(ctx, fmt.Sprintf("/movies/%d/stats", id), &s); err != nil {
		return nil, fmt.Errorf("get stats %d: %w", id, err)
	}
	return s.toMovie(), nil
}

// GetRatings fetches the rating breakdown for a movie.
func (c *Client) GetRatings(ctx context.Context, id int64) (*movie.Ratings, error) {
	var r Ratings
	if err := c.get(ctx, fmt.Sprintf("/movies/%d/ratings", id), &r); err != nil {
		return nil, fmt.Errorf("get ratings %d: %w", id, err)
	}
	return r.toMovie(), nil
}

// GetRelated fetches movies related to the given one.
func (c *Client) GetRelated(ctx context.Context, id int64) ([]movie.Ref, error) {
	var movies []Movie
	if err := c.get(ctx, fmt.Sprintf("/movies/%d/related?extended=full", id), &movies); err != nil {
		return nil, fmt.Errorf("get related %d: %w", id, err)
	}
	refs := make([]movie.Ref, 0, len(movies))
	for i := range movies {
		refs = append(refs, movies[i].Ref())
	}
	return refs, nil
}

// get performs a GET request and decodes the JSON body into result.
// Successful bodies are cached by path when a cache is configured.
func (c *Client) get(ctx context.Context, path string, result any) error {
	if c.cache != nil {
		if data, ok := c.cache.Get(path); ok {
			if err := json.Unmarshal(data, result); err == nil {
				c.log.Debug("cache hit", "path", path)
				return nil
			}
			c.log.Warn("failed to unmarshal cached response", "path", path)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", "2")
	req.Header.Set("trakt-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("trakt API error: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	c.log.Debug("request complete", "path", path, "duration_ms", time.Since(start).Milliseconds())

	if c.cache != nil {
		c.cache.Set(path, data)
	}
	return nil
}
