// Package tmdb provides a client for The Movie Database API.
package tmdb

import "strconv"

// ImageBaseURL is the prefix for w500 poster images.
const ImageBaseURL = "https://image.tmdb.org/t/p/w500"

// Movie is one entry of a TMDB search response.
type Movie struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"` // "2024-03-01"
	PosterPath   string  `json:"poster_path"`  // "/abc123.jpg"
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
}

// searchResponse is the payload of /3/search/movie.
type searchResponse struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalResults int     `json:"total_results"`
}

// Year extracts the year from ReleaseDate.
func (m *Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// PosterURL returns the full w500 poster image URL.
func (m *Movie) PosterURL() string {
	if m.PosterPath == "" {
		return ""
	}
	return ImageBaseURL + m.PosterPath
}
