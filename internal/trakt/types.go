// Package trakt provides a client for the Trakt v2 movie catalog API.
package trakt

import (
	"github.com/vmunix/moviegraph/internal/movie"
)

// IDs are the identifiers Trakt attaches to a movie.
type IDs struct {
	Trakt int64  `json:"trakt"`
	Slug  string `json:"slug"`
	IMDB  string `json:"imdb"`
	TMDB  int64  `json:"tmdb"`
}

// Movie is a Trakt movie with extended=full fields.
type Movie struct {
	Title         string   `json:"title"`
	Year          int      `json:"year"`
	IDs           IDs      `json:"ids"`
	Tagline       string   `json:"tagline,omitempty"`
	Overview      string   `json:"overview,omitempty"`
	Released      string   `json:"released,omitempty"` // "2010-07-16"
	Runtime       int      `json:"runtime,omitempty"`
	Trailer       string   `json:"trailer,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	Votes         int      `json:"votes,omitempty"`
	Language      string   `json:"language,omitempty"`
	Languages     []string `json:"languages,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	Certification string   `json:"certification,omitempty"`
}

// SearchResult is one hit from /search/movie.
type SearchResult struct {
	Type  string  `json:"type"`
	Score float64 `json:"score"`
	Movie *Movie  `json:"movie"`
}

// Stats is the payload of /movies/{id}/stats.
type Stats struct {
	Watchers    int `json:"watchers"`
	Plays       int `json:"plays"`
	Collectors  int `json:"collectors"`
	Comments    int `json:"comments"`
	Lists       int `json:"lists"`
	Votes       int `json:"votes"`
	Recommended int `json:"recommended"`
}

// Ratings is the payload of /movies/{id}/ratings.
type Ratings struct {
	Rating       float64        `json:"rating"`
	Votes        int            `json:"votes"`
	Distribution map[string]int `json:"distribution"`
}

// Ref converts a Trakt movie into a raw movie reference.
func (m *Movie) Ref() movie.Ref {
	langs := m.Languages
	if len(langs) == 0 && m.Language != "" {
		langs = []string{m.Language}
	}
	return movie.Ref{
		OriginID: m.IDs.Trakt,
		Title:    m.Title,
		Year:     m.Year,
		IDs: movie.IDs{
			Trakt: m.IDs.Trakt,
			Slug:  m.IDs.Slug,
			IMDB:  m.IDs.IMDB,
			TMDB:  m.IDs.TMDB,
		},
		Basic: &movie.Basic{
			Overview:      m.Overview,
			Rating:        m.Rating,
			Votes:         m.Votes,
			Genres:        m.Genres,
			Languages:     langs,
			Runtime:       m.Runtime,
			Certification: m.Certification,
			Trailer:       m.Trailer,
			Tagline:       m.Tagline,
			Released:      m.Released,
		},
	}
}

func (s *Stats) toMovie() *movie.Stats {
	return &movie.Stats{
		Watchers:    s.Watchers,
		Plays:       s.Plays,
		Collectors:  s.Collectors,
		Comments:    s.Comments,
		Lists:       s.Lists,
		Votes:       s.Votes,
		Recommended: s.Recommended,
	}
}

func (r *Ratings) toMovie() *movie.Ratings {
	return &movie.Ratings{
		Rating:       r.Rating,
		Votes:        r.Votes,
		Distribution: r.Distribution,
	}
}
