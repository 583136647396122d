package v1

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vmunix/moviegraph/internal/ai"
	"github.com/vmunix/moviegraph/internal/movie"
	"github.com/vmunix/moviegraph/internal/moviecache"
)

// ErrMissingDependency is returned when a required dependency is nil.
var ErrMissingDependency = errors.New("missing required dependency")

// MovieCache is the cache-first movie API served over HTTP.
type MovieCache interface {
	Lookup(ctx context.Context, originID int64, title string, year int) (*movie.Record, error)
	LookupKey(ctx context.Context, key string) (*movie.Record, error)
	Search(ctx context.Context, query string, limit int) ([]*movie.Record, error)
	LocalSearch(ctx context.Context, query string, limit int) ([]*movie.Record, error)
	Related(ctx context.Context, originID int64, limit int) ([]*movie.Record, error)
	Enhance(ctx context.Context, ref movie.Ref) (*movie.Record, error)
	EnhanceBatch(ctx context.Context, refs []movie.Ref, maxConcurrent int) []*movie.Record
	Stats(ctx context.Context) (moviecache.Stats, error)
	Clear(ctx context.Context, namespace string) error
	Cleanup(ctx context.Context, maxAge time.Duration) (int64, error)
	SetFavorite(ctx context.Context, key string, favorite bool) (*movie.Record, error)
}

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required dependencies
	Movies MovieCache

	// Optional dependencies (nil if not configured)
	Chat     ai.Provider         // enables POST /api/v1/ai/chat
	Gatherer prometheus.Gatherer // enables GET /metrics
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.Movies == nil {
		return errors.New("movie cache is required")
	}
	return nil
}
