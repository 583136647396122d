package enhance

import (
	"errors"
	"time"

	"github.com/vmunix/moviegraph/internal/movie"
)

// Upstream source names.
const (
	SourceStats   = "stats"
	SourceRatings = "ratings"
	SourcePoster  = "poster"
	SourceMovie   = "movie"
)

// Outcome is the settled result of one upstream call.
type Outcome struct {
	Source   string
	Err      error
	Duration time.Duration
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Result collects the outcomes of one movie's upstream calls.
// Data fields are set only for sources whose outcome is OK.
type Result struct {
	Stats    *movie.Stats
	Ratings  *movie.Ratings
	Poster   *movie.TMDBData
	Outcomes []Outcome
}

// Succeeded returns the number of sources that returned data.
func (r *Result) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Err joins the errors of every failed source.
func (r *Result) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if !o.OK() {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// Merge applies the successful fields of r onto rec's full details.
// Fields already present on rec are replaced only by fresh data, never
// cleared by a failed source.
func (r *Result) Merge(rec *movie.Record, ids movie.IDs, at time.Time) {
	full := &movie.Full{}
	if rec.Full != nil {
		c := rec.Clone()
		full = c.Full
	}

	if r.Stats != nil {
		full.Stats = r.Stats
	}
	if r.Ratings != nil {
		full.Ratings = r.Ratings
	}
	if r.Poster != nil {
		full.TMDB = r.Poster
		if r.Poster.PosterURL != "" {
			full.PosterURL = r.Poster.PosterURL
		}
		if ids.TMDB == 0 {
			ids.TMDB = r.Poster.ID
		}
	}

	full.IDs = mergeIDs(full.IDs, ids)
	if full.IDs.Trakt == 0 {
		full.IDs.Trakt = rec.OriginID
	}
	full.EnhancedAt = at
	rec.Full = full
}

func mergeIDs(old, fresh movie.IDs) movie.IDs {
	if fresh.Trakt != 0 {
		old.Trakt = fresh.Trakt
	}
	if fresh.Slug != "" {
		old.Slug = fresh.Slug
	}
	if fresh.IMDB != "" {
		old.IMDB = fresh.IMDB
	}
	if fresh.TMDB != 0 {
		old.TMDB = fresh.TMDB
	}
	return old
}
