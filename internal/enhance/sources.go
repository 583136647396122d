package enhance

//go:generate mockgen -source=sources.go -destination=mocks/sources.go -package=mocks

import (
	"context"

	"github.com/vmunix/moviegraph/internal/movie"
	"github.com/vmunix/moviegraph/internal/store"
)

// OriginSource provides per-movie community data from the origin catalog.
// GetMovie resolves title and year for references known only by id.
type OriginSource interface {
	GetMovie(ctx context.Context, id int64) (*movie.Ref, error)
	GetStats(ctx context.Context, id int64) (*movie.Stats, error)
	GetRatings(ctx context.Context, id int64) (*movie.Ratings, error)
}

// PosterSource finds secondary metadata (poster, backdrop) by title and year.
type PosterSource interface {
	FindByTitleYear(ctx context.Context, title string, year int) (*movie.TMDBData, error)
}

// RecordStore is the persistent tier consulted before and written after enhancement.
type RecordStore interface {
	Get(ctx context.Context, l store.Lookup) (*movie.Record, store.Tier, error)
	Store(ctx context.Context, rec *movie.Record) error
}
