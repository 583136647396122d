package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hbollon/go-edlib"

	"github.com/vmunix/moviegraph/internal/movie"
	"github.com/vmunix/moviegraph/internal/ttlcache"
)

const defaultBaseURL = "https://api.themoviedb.org"

// minTitleSimilarity is the lowest Jaro-Winkler score accepted as a match.
const minTitleSimilarity = 0.80

// ErrNotFound is returned when no TMDB movie matches.
var ErrNotFound = errors.New("movie not found")

// Client is a TMDB API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *ttlcache.Cache[[]byte]
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithCache caches raw search responses in the given namespace.
func WithCache(cache *ttlcache.Cache[[]byte]) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new TMDB client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchMovie queries /3/search/movie. A zero year searches all years.
func (c *Client) SearchMovie(ctx context.Context, title string, year int) ([]Movie, error) {
	params := url.Values{"query": {title}}
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	path := "/3/search/movie?" + params.Encode()

	var resp searchResponse
	if c.cache != nil {
		if data, ok := c.cache.Get(path); ok {
			if err := json.Unmarshal(data, &resp); err == nil {
				return resp.Results, nil
			}
		}
	}

	data, err := c.fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if c.cache != nil {
		c.cache.Set(path, data)
	}
	return resp.Results, nil
}

// FindByTitleYear returns poster metadata for the best-matching movie.
// Returns ErrNotFound when no result is similar enough.
func (c *Client) FindByTitleYear(ctx context.Context, title string, year int) (*movie.TMDBData, error) {
	results, err := c.SearchMovie(ctx, title, year)
	if err != nil {
		return nil, fmt.Errorf("find %q (%d): %w", title, year, err)
	}

	best := BestMatch(title, year, results)
	if best == nil {
		return nil, fmt.Errorf("find %q (%d): %w", title, year, ErrNotFound)
	}
	return &movie.TMDBData{
		ID:           best.ID,
		PosterPath:   best.PosterPath,
		PosterURL:    best.PosterURL(),
		BackdropPath: best.BackdropPath,
		VoteAverage:  best.VoteAverage,
		Popularity:   best.Popularity,
	}, nil
}

// BestMatch picks the result whose title is most similar to title.
// Results from the requested year win ties. Returns nil if nothing
// reaches the similarity threshold.
func BestMatch(title string, year int, results []Movie) *Movie {
	want := normalizeTitle(title)

	var best *Movie
	bestScore := 0.0
	for i := range results {
		m := &results[i]
		score := float64(edlib.JaroWinklerSimilarity(want, normalizeTitle(m.Title)))
		if year > 0 && m.Year() == year {
			score += 0.05
		}
		if score > bestScore {
			best, bestScore = m, score
		}
	}
	if bestScore < minTitleSimilarity {
		return nil
	}
	return best
}

func normalizeTitle(title string) string {
	return strings.ToLower(movie.Key(title, 0))
}

func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	sep := "&"
	if !strings.Contains(path, "?") {
		sep = "?"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+sep+"api_key="+url.QueryEscape(c.apiKey), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TMDB API error: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}
