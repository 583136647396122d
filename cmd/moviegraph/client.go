package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vmunix/moviegraph/internal/movie"
	"github.com/vmunix/moviegraph/internal/moviecache"
)

// Client wraps HTTP calls to the moviegraph server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new moviegraph API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// APIError is an error response from the server.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error %d (%s): %s", e.Status, e.Code, e.Message)
}

func readError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

func (c *Client) do(method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal error: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return readError(resp)
	}
	if result != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func (c *Client) get(path string, result any) error {
	return c.do(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body, result any) error {
	return c.do(http.MethodPost, path, body, result)
}

func (c *Client) delete(path string) error {
	return c.do(http.MethodDelete, path, nil, nil)
}

// API response types (mirror server types)

type HealthResponse struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	OriginConfigured bool   `json:"origin_configured"`
	PosterConfigured bool   `json:"poster_configured"`
	AIConfigured     bool   `json:"ai_configured"`
}

type MovieListResponse struct {
	Items []*movie.Record `json:"items"`
	Total int             `json:"total"`
}

type LookupResponse struct {
	Movie  *movie.Record `json:"movie"`
	Source string        `json:"source"`
}

type CleanupResponse struct {
	Deleted int64  `json:"deleted"`
	MaxAge  string `json:"max_age"`
}

// LookupParams identifies a movie for Lookup. Key wins over the others.
type LookupParams struct {
	Key     string
	ID      int64
	Title   string
	Year    int
	Enhance bool
}

func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get("/api/v1/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Lookup(p LookupParams) (*LookupResponse, error) {
	params := url.Values{}
	if p.Key != "" {
		params.Set("key", p.Key)
	}
	if p.ID > 0 {
		params.Set("id", strconv.FormatInt(p.ID, 10))
	}
	if p.Title != "" {
		params.Set("title", p.Title)
	}
	if p.Year > 0 {
		params.Set("year", strconv.Itoa(p.Year))
	}
	params.Set("enhance", strconv.FormatBool(p.Enhance))

	var resp LookupResponse
	if err := c.get("/api/v1/movies/lookup?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Search(query string, limit int) (*MovieListResponse, error) {
	params := url.Values{"query": {query}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var resp MovieListResponse
	if err := c.get("/api/v1/movies/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) LocalSearch(query string, limit int) (*MovieListResponse, error) {
	params := url.Values{}
	if query != "" {
		params.Set("query", query)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var resp MovieListResponse
	if err := c.get("/api/v1/movies/local?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Related(id int64, limit int) (*MovieListResponse, error) {
	path := fmt.Sprintf("/api/v1/movies/%d/related", id)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp MovieListResponse
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Enhance(ref movie.Ref) (*movie.Record, error) {
	var rec movie.Record
	if err := c.post("/api/v1/movies/enhance", map[string]any{"movie": ref}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) EnhanceBatch(refs []movie.Ref, maxConcurrent int) (*MovieListResponse, error) {
	body := map[string]any{"movies": refs, "max_concurrent": maxConcurrent}
	var resp MovieListResponse
	if err := c.post("/api/v1/movies/enhance", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SetFavorite(key string, favorite bool) (*movie.Record, error) {
	var rec movie.Record
	path := "/api/v1/movies/" + url.PathEscape(key) + "/favorite"
	if err := c.post(path, map[string]bool{"favorite": favorite}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) Stats() (*moviecache.Stats, error) {
	var resp moviecache.Stats
	if err := c.get("/api/v1/stats", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Clear empties one namespace, or every tier when namespace is empty.
func (c *Client) Clear(namespace string) error {
	path := "/api/v1/cache"
	if namespace != "" {
		path += "/" + url.PathEscape(namespace)
	}
	return c.delete(path)
}

func (c *Client) Cleanup(maxAge time.Duration) (*CleanupResponse, error) {
	path := "/api/v1/cleanup"
	if maxAge > 0 {
		path += "?max_age=" + url.QueryEscape(maxAge.String())
	}
	var resp CleanupResponse
	if err := c.post(path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
