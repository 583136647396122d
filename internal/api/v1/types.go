package v1

import (
	"github.com/vmunix/moviegraph/internal/ai"
	"github.com/vmunix/moviegraph/internal/movie"
)

// listMoviesResponse is the response for the search, local and related endpoints.
type listMoviesResponse struct {
	Items []*movie.Record `json:"items"`
	Total int             `json:"total"`
}

// lookupResponse is the response for GET /movies/lookup.
type lookupResponse struct {
	Movie  *movie.Record `json:"movie"`
	Source string        `json:"source"` // "cache" or "upstream"
}

// enhanceRequest is the request body for POST /movies/enhance.
// Exactly one of Movie and Movies must be set.
type enhanceRequest struct {
	Movie         *movie.Ref  `json:"movie,omitempty"`
	Movies        []movie.Ref `json:"movies,omitempty"`
	MaxConcurrent int         `json:"max_concurrent,omitempty"`
}

// favoriteRequest is the request body for POST /movies/{key}/favorite.
type favoriteRequest struct {
	Favorite *bool `json:"favorite"`
}

// cleanupResponse is the response for POST /cleanup.
type cleanupResponse struct {
	Deleted int64  `json:"deleted"`
	MaxAge  string `json:"max_age"`
}

// healthResponse is the response for GET /health.
type healthResponse struct {
	Status           string `json:"status"`
	Version          string `json:"version,omitempty"`
	OriginConfigured bool   `json:"origin_configured"`
	PosterConfigured bool   `json:"poster_configured"`
	AIConfigured     bool   `json:"ai_configured"`
}

// chatRequest is the request body for POST /ai/chat.
type chatRequest struct {
	Messages []ai.Message `json:"messages"`
}
