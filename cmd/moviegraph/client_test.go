package main

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/moviegraph/internal/movie"
	"github.com/vmunix/moviegraph/internal/moviecache"
	"github.com/vmunix/moviegraph/internal/ttlcache"
)

func inception() *movie.Record {
	rating := 8.8
	return &movie.Record{
		Key:      "Inception_2010",
		OriginID: 16662,
		Title:    "Inception",
		Year:     2010,
		Basic:    movie.Basic{Overview: "dreams", Rating: &rating},
	}
}

func TestClient_Health(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/health").
		ExpectGET().
		RespondJSON(HealthResponse{Status: "healthy", Version: "1.0.0", OriginConfigured: true}).
		Build()
	defer srv.Close()

	h, err := NewClient(srv.URL).Health()
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.True(t, h.OriginConfigured)
	assert.False(t, h.PosterConfigured)
}

func TestClient_Lookup(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/movies/lookup").
		ExpectGET().
		ExpectQuery("id", "16662").
		ExpectQuery("title", "Inception").
		ExpectQuery("year", "2010").
		ExpectQuery("enhance", "false").
		ExpectQuery("key", "").
		RespondJSON(LookupResponse{Movie: inception(), Source: "cache"}).
		Build()
	defer srv.Close()

	resp, err := NewClient(srv.URL).Lookup(LookupParams{ID: 16662, Title: "Inception", Year: 2010})
	require.NoError(t, err)
	assert.Equal(t, "cache", resp.Source)
	assert.Equal(t, "Inception_2010", resp.Movie.Key)
}

func TestClient_Lookup_NotFound(t *testing.T) {
	srv := newMockServer(t).
		RespondAPIError(http.StatusNotFound, "NOT_FOUND", "Movie not cached").
		Build()
	defer srv.Close()

	_, err := NewClient(srv.URL).Lookup(LookupParams{ID: 1})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.Equal(t, "Movie not cached", apiErr.Message)
}

func TestClient_PlainTextError(t *testing.T) {
	srv := newMockServer(t).RespondText(http.StatusBadGateway, "upstream down").Build()
	defer srv.Close()

	_, err := NewClient(srv.URL).Stats()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestClient_Search(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/movies/search").
		ExpectGET().
		ExpectQuery("query", "the matrix").
		ExpectQuery("limit", "5").
		RespondJSON(MovieListResponse{Items: []*movie.Record{inception()}, Total: 1}).
		Build()
	defer srv.Close()

	resp, err := NewClient(srv.URL).Search("the matrix", 5)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Inception", resp.Items[0].Title)
}

func TestClient_Related(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/movies/16662/related").
		ExpectGET().
		RespondJSON(MovieListResponse{Items: []*movie.Record{}, Total: 0}).
		Build()
	defer srv.Close()

	resp, err := NewClient(srv.URL).Related(16662, 0)
	require.NoError(t, err)
	assert.Zero(t, resp.Total)
}

func TestClient_Enhance(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/movies/enhance").
		ExpectPOST().
		Handler(func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Movie movie.Ref `json:"movie"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, int64(16662), body.Movie.OriginID)
			assert.Equal(t, "Inception", body.Movie.Title)
			respondJSON(t, w, inception())
		}).
		Build()
	defer srv.Close()

	rec, err := NewClient(srv.URL).Enhance(movie.Ref{OriginID: 16662, Title: "Inception", Year: 2010})
	require.NoError(t, err)
	assert.Equal(t, "Inception_2010", rec.Key)
}

func TestClient_EnhanceBatch(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/movies/enhance").
		ExpectPOST().
		Handler(func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Movies        []movie.Ref `json:"movies"`
				MaxConcurrent int         `json:"max_concurrent"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Len(t, body.Movies, 2)
			assert.Equal(t, 3, body.MaxConcurrent)
			respondJSON(t, w, MovieListResponse{Items: []*movie.Record{inception()}, Total: 1})
		}).
		Build()
	defer srv.Close()

	resp, err := NewClient(srv.URL).EnhanceBatch([]movie.Ref{{Title: "A"}, {Title: "B"}}, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
}

func TestClient_SetFavorite(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/movies/Inception_2010/favorite").
		ExpectPOST().
		Handler(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]bool
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.False(t, body["favorite"])
			respondJSON(t, w, inception())
		}).
		Build()
	defer srv.Close()

	rec, err := NewClient(srv.URL).SetFavorite("Inception_2010", false)
	require.NoError(t, err)
	assert.False(t, rec.Favorite)
}

func TestClient_Stats(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/stats").
		ExpectGET().
		RespondJSON(moviecache.Stats{
			Namespaces: []ttlcache.Stats{{Name: "enriched", Total: 3, Active: 2, Expired: 1}},
			Hits:       moviecache.HitStats{Memory: 3, Miss: 1, HitRate: 0.75},
		}).
		Build()
	defer srv.Close()

	st, err := NewClient(srv.URL).Stats()
	require.NoError(t, err)
	require.Len(t, st.Namespaces, 1)
	assert.Equal(t, 2, st.Namespaces[0].Active)
	assert.InDelta(t, 0.75, st.Hits.HitRate, 0.001)
}

func TestClient_Clear(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/cache/enriched").
		ExpectDELETE().
		RespondStatus(http.StatusNoContent).
		Build()
	defer srv.Close()

	require.NoError(t, NewClient(srv.URL).Clear("enriched"))
}

func TestClient_ClearAll(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/cache").
		ExpectDELETE().
		RespondStatus(http.StatusNoContent).
		Build()
	defer srv.Close()

	require.NoError(t, NewClient(srv.URL+"/").Clear(""))
}

func TestClient_Cleanup(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/cleanup").
		ExpectPOST().
		ExpectQuery("max_age", "72h0m0s").
		RespondJSON(CleanupResponse{Deleted: 4, MaxAge: "72h0m0s"}).
		Build()
	defer srv.Close()

	resp, err := NewClient(srv.URL).Cleanup(72 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.Deleted)
}
