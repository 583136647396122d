// Package v1 implements the native REST API.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vmunix/moviegraph/internal/ai"
	"github.com/vmunix/moviegraph/internal/enhance"
	"github.com/vmunix/moviegraph/internal/movie"
	"github.com/vmunix/moviegraph/internal/moviecache"
	"github.com/vmunix/moviegraph/internal/store"
)

const maxBodyBytes = 1 << 20

// Config holds API server configuration.
type Config struct {
	Version          string
	MaxAge           time.Duration // default for POST /cleanup
	OriginConfigured bool
	PosterConfigured bool
}

// Server is the v1 API server.
type Server struct {
	deps ServerDeps
	cfg  Config
}

// New creates a new v1 API server.
func New(deps ServerDeps, cfg Config) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingDependency, err)
	}
	return &Server{deps: deps, cfg: cfg}, nil
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Movies
	mux.HandleFunc("GET /api/v1/movies/lookup", s.lookup)
	mux.HandleFunc("GET /api/v1/movies/search", s.search)
	mux.HandleFunc("GET /api/v1/movies/local", s.localSearch)
	mux.HandleFunc("GET /api/v1/movies/{id}/related", s.related)
	mux.HandleFunc("POST /api/v1/movies/enhance", s.enhance)
	mux.HandleFunc("POST /api/v1/movies/{key}/favorite", s.setFavorite)

	// Cache management
	mux.HandleFunc("GET /api/v1/stats", s.stats)
	mux.HandleFunc("DELETE /api/v1/cache", s.clearCache)
	mux.HandleFunc("DELETE /api/v1/cache/{namespace}", s.clearCache)
	mux.HandleFunc("POST /api/v1/cleanup", s.cleanup)

	// AI
	mux.HandleFunc("POST /api/v1/ai/chat", s.requireChat(s.chat))

	// System
	mux.HandleFunc("GET /api/v1/health", s.health)
	if s.deps.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError maps domain errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, moviecache.ErrInvalidInput),
		errors.Is(err, ai.ErrEmptyConversation):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, moviecache.ErrUnknownNamespace):
		writeError(w, http.StatusNotFound, "UNKNOWN_NAMESPACE", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Movie not found")
	case errors.Is(err, enhance.ErrEnhancementFailed):
		writeError(w, http.StatusBadGateway, "UPSTREAM_FAILED", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return false
	}
	return true
}

// pathID extracts an integer ID from the URL path.
func pathID(r *http.Request, name string) (int64, error) {
	idStr := r.PathValue(name)
	if idStr == "" {
		return 0, fmt.Errorf("missing path parameter: %s", name)
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// queryBool extracts an optional boolean from query string.
func queryBool(r *http.Request, name string, defaultVal bool) bool {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func listResponse(items []*movie.Record) listMoviesResponse {
	if items == nil {
		items = []*movie.Record{}
	}
	return listMoviesResponse{Items: items, Total: len(items)}
}

// lookup answers from the cache tiers. On a miss by id or title it enhances
// the movie from upstream unless enhance=false.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	var (
		rec *movie.Record
		err error
	)
	if key := q.Get("key"); key != "" {
		rec, err = s.deps.Movies.LookupKey(ctx, key)
	} else {
		id := int64(queryInt(r, "id", 0))
		rec, err = s.deps.Movies.Lookup(ctx, id, q.Get("title"), queryInt(r, "year", 0))
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if rec != nil {
		writeJSON(w, http.StatusOK, lookupResponse{Movie: rec, Source: "cache"})
		return
	}

	ref := movie.Ref{
		OriginID: int64(queryInt(r, "id", 0)),
		Title:    strings.TrimSpace(q.Get("title")),
		Year:     queryInt(r, "year", 0),
	}
	if q.Get("key") != "" || (ref.Title == "" && ref.OriginID <= 0) || !queryBool(r, "enhance", true) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Movie not cached")
		return
	}
	rec, err = s.deps.Movies.Enhance(ctx, ref)
	if errors.Is(err, moviecache.ErrInvalidInput) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Movie not found upstream")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lookupResponse{Movie: rec, Source: "upstream"})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "query parameter is required")
		return
	}
	items, err := s.deps.Movies.Search(r.Context(), query, queryInt(r, "limit", 0))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(items))
}

func (s *Server) localSearch(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	if limit < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", "limit must be non-negative")
		return
	}
	const maxLimit = 1000
	if limit > maxLimit {
		limit = maxLimit
	}

	items, err := s.deps.Movies.LocalSearch(r.Context(), r.URL.Query().Get("query"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(items))
}

func (s *Server) related(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "id must be a positive integer")
		return
	}
	items, err := s.deps.Movies.Related(r.Context(), id, queryInt(r, "limit", 0))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(items))
}

func (s *Server) enhance(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	switch {
	case req.Movie != nil && len(req.Movies) > 0:
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "set either movie or movies, not both")
	case req.Movie != nil:
		rec, err := s.deps.Movies.Enhance(r.Context(), *req.Movie)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case len(req.Movies) > 0:
		if req.MaxConcurrent < 0 {
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", "max_concurrent must be non-negative")
			return
		}
		items := s.deps.Movies.EnhanceBatch(r.Context(), req.Movies, req.MaxConcurrent)
		writeJSON(w, http.StatusOK, listResponse(items))
	default:
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "movie or movies is required")
	}
}

func (s *Server) setFavorite(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	req := favoriteRequest{}
	if r.ContentLength != 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}
	favorite := true
	if req.Favorite != nil {
		favorite = *req.Favorite
	}

	rec, err := s.deps.Movies.SetFavorite(r.Context(), key, favorite)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Movies.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) clearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Movies.Clear(r.Context(), r.PathValue("namespace")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) cleanup(w http.ResponseWriter, r *http.Request) {
	maxAge := s.cfg.MaxAge
	if v := r.URL.Query().Get("max_age"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", "max_age must be a positive duration")
			return
		}
		maxAge = d
	}
	if maxAge <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "max_age is required")
		return
	}

	deleted, err := s.deps.Movies.Cleanup(r.Context(), maxAge)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cleanupResponse{Deleted: deleted, MaxAge: maxAge.String()})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.deps.Chat.Chat(r.Context(), req.Messages)
	if err != nil {
		if errors.Is(err, ai.ErrEmptyConversation) {
			writeServiceError(w, err)
			return
		}
		writeError(w, http.StatusBadGateway, "AI_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:           "healthy",
		Version:          s.cfg.Version,
		OriginConfigured: s.cfg.OriginConfigured,
		PosterConfigured: s.cfg.PosterConfigured,
		AIConfigured:     s.deps.Chat != nil,
	})
}
