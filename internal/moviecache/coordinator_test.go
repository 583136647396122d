package moviecache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/moviegraph/internal/enhance"
	"github.com/vmunix/moviegraph/internal/movie"
	"github.com/vmunix/moviegraph/internal/store"
	"github.com/vmunix/moviegraph/internal/ttlcache"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeOrigin serves canned search and related results.
type fakeOrigin struct {
	refs    []movie.Ref
	related []movie.Ref
	err     error
}

func (f *fakeOrigin) Search(ctx context.Context, query string) ([]movie.Ref, error) {
	return f.refs, f.err
}

func (f *fakeOrigin) GetRelated(ctx context.Context, id int64) ([]movie.Ref, error) {
	return f.related, f.err
}

// stubSource answers every enhancement call and counts them.
type stubSource struct {
	calls atomic.Int32
}

// GetMovie resolves ids the way refs numbers them.
func (s *stubSource) GetMovie(ctx context.Context, id int64) (*movie.Ref, error) {
	s.calls.Add(1)
	return &movie.Ref{OriginID: id, Title: fmt.Sprintf("Movie %d", id), Year: 1999 + int(id)}, nil
}

func (s *stubSource) GetStats(ctx context.Context, id int64) (*movie.Stats, error) {
	s.calls.Add(1)
	return &movie.Stats{Watchers: int(id)}, nil
}

func (s *stubSource) GetRatings(ctx context.Context, id int64) (*movie.Ratings, error) {
	s.calls.Add(1)
	return &movie.Ratings{Rating: 7}, nil
}

func (s *stubSource) FindByTitleYear(ctx context.Context, title string, year int) (*movie.TMDBData, error) {
	s.calls.Add(1)
	return nil, errors.New("no poster")
}

type fixture struct {
	c        *Coordinator
	store    *store.Store
	enriched *ttlcache.Cache[*movie.Record]
	origin   *fakeOrigin
	source   *stubSource
	reg      *prometheus.Registry
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st, err := store.New(db)
	require.NoError(t, err)

	enriched := ttlcache.New[*movie.Record](NamespaceEnriched, time.Hour)
	src := &stubSource{}
	p := enhance.New(src, src, st, enriched, enhance.Config{}, testLogger())
	origin := &fakeOrigin{}
	reg := prometheus.NewRegistry()

	c, err := New(Deps{
		Store:       st,
		Pipeline:    p,
		Enriched:    enriched,
		Origin:      origin,
		OriginCache: ttlcache.New[[]byte](NamespaceOrigin, time.Hour),
		AICache:     ttlcache.New[string](NamespaceAI, time.Hour),
		Registerer:  reg,
		Logger:      testLogger(),
	}, cfg)
	require.NoError(t, err)
	return &fixture{c: c, store: st, enriched: enriched, origin: origin, source: src, reg: reg}
}

func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			match := true
			for _, lp := range m.GetLabel() {
				if v, ok := labels[lp.GetName()]; ok && v != lp.GetValue() {
					match = false
				}
			}
			if !match {
				continue
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

func refs(n int) []movie.Ref {
	out := make([]movie.Ref, n)
	for i := range out {
		out[i] = movie.Ref{
			OriginID: int64(i + 1),
			Title:    fmt.Sprintf("Movie %d", i+1),
			Year:     2000 + i,
			Basic:    &movie.Basic{Overview: "a film about number " + fmt.Sprint(i+1)},
		}
	}
	return out
}

func TestNew_MissingDependency(t *testing.T) {
	_, err := New(Deps{}, Config{})
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestCoordinator_Lookup_TiersAndHitStats(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	require.NoError(t, f.store.Store(ctx, movie.NewRecord(movie.Ref{OriginID: 16662, Title: "Inception", Year: 2010})))

	rec, err := f.c.Lookup(ctx, 16662, "", 0)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Inception_2010", rec.Key)

	rec, err = f.c.Lookup(ctx, 0, "Inception", 2010)
	require.NoError(t, err)
	require.NotNil(t, rec)

	rec, err = f.c.Lookup(ctx, 0, "Tenet", 2020)
	require.NoError(t, err)
	assert.Nil(t, rec)

	hs := f.c.HitStats()
	assert.Equal(t, uint64(1), hs.Memory)
	assert.Equal(t, uint64(1), hs.Database)
	assert.Equal(t, uint64(1), hs.Miss)
	assert.InDelta(t, 2.0/3.0, hs.HitRate, 0.0001)
	assert.Zero(t, f.source.calls.Load(), "lookup never goes upstream")

	assert.Equal(t, 1.0, metricValue(t, f.reg, "moviegraph_cache_lookups_total", map[string]string{"tier": "database"}))

	f.c.ResetHitStats()
	assert.Equal(t, HitStats{}, f.c.HitStats())
	assert.Equal(t, 1.0, metricValue(t, f.reg, "moviegraph_cache_lookups_total", map[string]string{"tier": "miss"}),
		"exported counters are monotonic")
}

func TestCoordinator_Lookup_InvalidInput(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.c.Lookup(context.Background(), 0, "", 2010)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.c.LookupKey(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, HitStats{}, f.c.HitStats())
}

func TestCoordinator_Search(t *testing.T) {
	f := newFixture(t, Config{SearchEnhance: 3, SearchWorkers: 2})
	f.origin.refs = refs(12)
	ctx := context.Background()

	results, err := f.c.Search(ctx, "movie", 10)
	require.NoError(t, err)
	require.Len(t, results, 10)

	for i, rec := range results {
		assert.Equal(t, fmt.Sprintf("Movie_%d_%d", i+1, 2000+i), rec.Key)
		assert.Equal(t, i < 3, rec.HasFull(), "result %d", i)
	}

	st, err := f.store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, st.TotalMovies)
	assert.Equal(t, 3, st.CachedMovies)
}

func TestCoordinator_Search_NeverDowngradesStoredRecords(t *testing.T) {
	f := newFixture(t, Config{SearchEnhance: 1})
	ctx := context.Background()
	all := refs(3)

	// Enhance the third movie ahead of time
	_, err := f.c.Enhance(ctx, all[2])
	require.NoError(t, err)

	f.origin.refs = all
	results, err := f.c.Search(ctx, "movie", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[0].HasFull(), "top result is enhanced")
	assert.False(t, results[1].HasFull())
	assert.Equal(t, all[2].Key(), results[2].Key)
	assert.True(t, results[2].HasFull(), "previously enhanced result keeps full details")

	rec, err := f.c.LookupKey(ctx, all[2].Key())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.HasFull())
}

func TestCoordinator_Search_FallsBackToLocalIndex(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	require.NoError(t, f.store.Store(ctx, movie.NewRecord(movie.Ref{
		Title: "Inception", Year: 2010,
		Basic: &movie.Basic{Overview: "A thief enters dreams."},
	})))
	f.origin.err = errors.New("origin down")

	results, err := f.c.Search(ctx, "dreams", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Inception_2010", results[0].Key)
}

func TestCoordinator_Search_EmptyQuery(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.c.Search(context.Background(), "  ", 5)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCoordinator_Related(t *testing.T) {
	f := newFixture(t, Config{RelatedLimit: 4, RelatedWorkers: 2})
	f.origin.related = refs(6)

	results, err := f.c.Related(context.Background(), 16662, 0)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, rec := range results {
		assert.True(t, rec.HasFull())
	}

	f.origin.err = errors.New("origin down")
	results, err = f.c.Related(context.Background(), 16662, 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = f.c.Related(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCoordinator_EnhanceBatch(t *testing.T) {
	f := newFixture(t, Config{})
	batch := append(refs(3), movie.Ref{})

	recs := f.c.EnhanceBatch(context.Background(), batch, 2)
	assert.Len(t, recs, 3)
}

func TestCoordinator_LocalSearch(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	for _, r := range refs(3) {
		require.NoError(t, f.store.Store(ctx, movie.NewRecord(r)))
	}

	results, err := f.c.LocalSearch(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = f.c.LocalSearch(ctx, "number", 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestCoordinator_Stats(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	_, err := f.c.Enhance(ctx, refs(1)[0])
	require.NoError(t, err)

	st, err := f.c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Store.TotalMovies)
	assert.Equal(t, 1, st.Store.CachedMovies)

	names := make(map[string]int)
	for _, ns := range st.Namespaces {
		names[ns.Name] = ns.Active
	}
	assert.Equal(t, map[string]int{"origin": 0, "enriched": 2, "ai": 0}, names)

	assert.Equal(t, 2.0, metricValue(t, f.reg, "moviegraph_cache_entries",
		map[string]string{"namespace": "enriched", "state": "active"}))
}

func TestCoordinator_Clear(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	_, err := f.c.Enhance(ctx, refs(1)[0])
	require.NoError(t, err)

	err = f.c.Clear(ctx, "bogus")
	assert.ErrorIs(t, err, ErrUnknownNamespace)

	require.NoError(t, f.c.Clear(ctx, NamespaceEnriched))
	assert.Zero(t, f.enriched.Len())
	st, err := f.store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalMovies, "clearing a namespace keeps the store")

	require.NoError(t, f.c.Clear(ctx, ""))
	st, err = f.store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.TotalMovies)
}

func TestCoordinator_Cleanup_KeepsFavorites(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	for _, r := range refs(2) {
		require.NoError(t, f.store.Store(ctx, movie.NewRecord(r)))
	}
	_, err := f.c.SetFavorite(ctx, "Movie_1_2000", true)
	require.NoError(t, err)

	// Negative max age puts the cutoff in the future
	deleted, err := f.c.Cleanup(ctx, -time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	rec, err := f.c.LookupKey(ctx, "Movie_1_2000")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Favorite)
}

func TestCoordinator_SetFavorite(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	_, err := f.c.Enhance(ctx, refs(1)[0])
	require.NoError(t, err)

	rec, err := f.c.SetFavorite(ctx, "Movie_1_2000", true)
	require.NoError(t, err)
	assert.True(t, rec.Favorite)

	// The enriched copy is refreshed from the store
	again, err := f.c.Enhance(ctx, refs(1)[0])
	require.NoError(t, err)
	assert.True(t, again.Favorite)

	_, err = f.c.SetFavorite(ctx, "Nope_1900", true)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
