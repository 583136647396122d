// Package movie defines the cached movie record and its identity key.
package movie

import (
	"time"
)

// IDs holds the identifiers a movie is known by across catalogs.
type IDs struct {
	Trakt int64  `json:"trakt,omitempty"`
	Slug  string `json:"slug,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
	TMDB  int64  `json:"tmdb,omitempty"`
}

// Ref is a raw movie reference as returned by an origin search or related lookup.
type Ref struct {
	OriginID int64  `json:"origin_id"`
	Title    string `json:"title"`
	Year     int    `json:"year"`
	IDs      IDs    `json:"ids"`
	Basic    *Basic `json:"basic,omitempty"`
}

// Key returns the persistence key of the referenced movie.
func (r Ref) Key() string { return Key(r.Title, r.Year) }

// Basic holds the fields available from a search result.
type Basic struct {
	Overview      string   `json:"overview,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	Votes         int      `json:"votes,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	Languages     []string `json:"languages,omitempty"`
	Runtime       int      `json:"runtime,omitempty"` // minutes
	Certification string   `json:"certification,omitempty"`
	Trailer       string   `json:"trailer,omitempty"`
	Tagline       string   `json:"tagline,omitempty"`
	Released      string   `json:"released,omitempty"` // "2010-07-16"
}

// Stats are community counters from the origin catalog.
type Stats struct {
	Watchers    int `json:"watchers"`
	Plays       int `json:"plays"`
	Collectors  int `json:"collectors"`
	Comments    int `json:"comments"`
	Lists       int `json:"lists"`
	Votes       int `json:"votes"`
	Recommended int `json:"recommended"`
}

// Ratings is the origin catalog's rating breakdown.
type Ratings struct {
	Rating       float64        `json:"rating"`
	Votes        int            `json:"votes"`
	Distribution map[string]int `json:"distribution,omitempty"`
}

// TMDBData is the secondary-source metadata attached during enhancement.
type TMDBData struct {
	ID           int64   `json:"id"`
	PosterPath   string  `json:"poster_path,omitempty"`
	PosterURL    string  `json:"poster_url,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
	Popularity   float64 `json:"popularity,omitempty"`
}

// Full is the enriched representation. Any field may be nil when the
// corresponding upstream source failed.
type Full struct {
	Stats      *Stats    `json:"stats,omitempty"`
	Ratings    *Ratings  `json:"ratings,omitempty"`
	PosterURL  string    `json:"poster_url,omitempty"`
	TMDB       *TMDBData `json:"tmdb,omitempty"`
	IDs        IDs       `json:"ids"`
	EnhancedAt time.Time `json:"enhanced_at"`
}

// Record is the canonical cached unit of movie data.
type Record struct {
	Key          string    `json:"movie_key"`
	OriginID     int64     `json:"origin_id,omitempty"`
	Title        string    `json:"title"`
	Year         int       `json:"year"`
	Basic        Basic     `json:"basic"`
	Full         *Full     `json:"full,omitempty"`
	Favorite     bool      `json:"favorite"`
	CachedAt     time.Time `json:"cached_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

// HasFull reports whether the record has been enhanced.
func (r *Record) HasFull() bool { return r != nil && r.Full != nil }

// Rating returns the best known rating: the enriched one if present,
// otherwise the basic one.
func (r *Record) Rating() *float64 {
	if r.HasFull() && r.Full.Ratings != nil {
		v := r.Full.Ratings.Rating
		return &v
	}
	return r.Basic.Rating
}

// NewRecord builds a basic-only record from a raw reference.
func NewRecord(ref Ref) *Record {
	rec := &Record{
		Key:      ref.Key(),
		OriginID: ref.OriginID,
		Title:    ref.Title,
		Year:     ref.Year,
	}
	if ref.Basic != nil {
		rec.Basic = *ref.Basic
	}
	return rec
}

// Ref returns the raw reference for the record.
func (r *Record) Ref() Ref {
	ref := Ref{OriginID: r.OriginID, Title: r.Title, Year: r.Year}
	if r.HasFull() {
		ref.IDs = r.Full.IDs
	}
	basic := r.Basic
	ref.Basic = &basic
	return ref
}

// Clone returns a deep copy so callers can mutate without touching cached state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Basic.Genres = append([]string(nil), r.Basic.Genres...)
	c.Basic.Languages = append([]string(nil), r.Basic.Languages...)
	if r.Basic.Rating != nil {
		v := *r.Basic.Rating
		c.Basic.Rating = &v
	}
	if r.Full != nil {
		f := *r.Full
		if r.Full.Stats != nil {
			s := *r.Full.Stats
			f.Stats = &s
		}
		if r.Full.Ratings != nil {
			rt := *r.Full.Ratings
			if r.Full.Ratings.Distribution != nil {
				rt.Distribution = make(map[string]int, len(r.Full.Ratings.Distribution))
				for k, v := range r.Full.Ratings.Distribution {
					rt.Distribution[k] = v
				}
			}
			f.Ratings = &rt
		}
		if r.Full.TMDB != nil {
			td := *r.Full.TMDB
			f.TMDB = &td
		}
		c.Full = &f
	}
	return &c
}
