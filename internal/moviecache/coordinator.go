// Package moviecache is the cache-first entry point over the movie store,
// the TTL cache namespaces and the enhancement pipeline.
package moviecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vmunix/moviegraph/internal/enhance"
	"github.com/vmunix/moviegraph/internal/movie"
	"github.com/vmunix/moviegraph/internal/store"
	"github.com/vmunix/moviegraph/internal/ttlcache"
)

// Namespace names accepted by Clear.
const (
	NamespaceOrigin   = "origin"
	NamespaceEnriched = "enriched"
	NamespaceAI       = "ai"
	NamespaceStore    = "store"
)

var (
	// ErrInvalidInput indicates a request that identifies no movie.
	ErrInvalidInput = enhance.ErrInvalidInput

	// ErrUnknownNamespace is returned by Clear for an unrecognized namespace.
	ErrUnknownNamespace = errors.New("unknown cache namespace")

	// ErrMissingDependency is returned when a required dependency is nil.
	ErrMissingDependency = errors.New("missing required dependency")
)

// Namespace is the type-independent view of a TTL cache.
type Namespace interface {
	Name() string
	Stats() ttlcache.Stats
	Sweep() int
	Clear()
}

// Origin is the catalog consulted for searches and related movies.
type Origin interface {
	Search(ctx context.Context, query string) ([]movie.Ref, error)
	GetRelated(ctx context.Context, id int64) ([]movie.Ref, error)
}

// Deps holds the coordinator's collaborators.
// Store, Pipeline and Enriched are required; the rest may be nil.
type Deps struct {
	Store    *store.Store
	Pipeline *enhance.Pipeline
	Enriched *ttlcache.Cache[*movie.Record]

	Origin      Origin
	OriginCache Namespace // raw origin responses
	AICache     Namespace

	Registerer prometheus.Registerer // nil disables metrics
	Logger     *slog.Logger
}

// Validate checks that all required dependencies are provided.
func (d Deps) Validate() error {
	if d.Store == nil {
		return fmt.Errorf("%w: store", ErrMissingDependency)
	}
	if d.Pipeline == nil {
		return fmt.Errorf("%w: pipeline", ErrMissingDependency)
	}
	if d.Enriched == nil {
		return fmt.Errorf("%w: enriched cache", ErrMissingDependency)
	}
	return nil
}

// Config sizes the search and related fan-outs.
type Config struct {
	SearchEnhance  int // top search results enhanced per query
	SearchWorkers  int
	RelatedLimit   int
	RelatedWorkers int
}

// DefaultConfig matches the sizes used by the web front end.
func DefaultConfig() Config {
	return Config{
		SearchEnhance:  10,
		SearchWorkers:  5,
		RelatedLimit:   8,
		RelatedWorkers: 4,
	}
}

// HitStats counts lookups by answering tier since start or the last reset.
type HitStats struct {
	Memory   uint64  `json:"memory"`
	Database uint64  `json:"database"`
	Miss     uint64  `json:"miss"`
	HitRate  float64 `json:"hit_rate"`
}

// Coordinator answers lookups from the fastest tier that has the movie.
type Coordinator struct {
	store    *store.Store
	pipeline *enhance.Pipeline
	enriched *ttlcache.Cache[*movie.Record]
	origin   Origin

	namespaces []Namespace
	cfg        Config
	log        *slog.Logger
	metrics    *metrics

	memoryHits   atomic.Uint64
	databaseHits atomic.Uint64
	misses       atomic.Uint64
}

// New creates a coordinator.
func New(deps Deps, cfg Config) (*Coordinator, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	def := DefaultConfig()
	if cfg.SearchEnhance <= 0 {
		cfg.SearchEnhance = def.SearchEnhance
	}
	if cfg.SearchWorkers <= 0 {
		cfg.SearchWorkers = def.SearchWorkers
	}
	if cfg.RelatedLimit <= 0 {
		cfg.RelatedLimit = def.RelatedLimit
	}
	if cfg.RelatedWorkers <= 0 {
		cfg.RelatedWorkers = def.RelatedWorkers
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	var namespaces []Namespace
	if deps.OriginCache != nil {
		namespaces = append(namespaces, deps.OriginCache)
	}
	namespaces = append(namespaces, deps.Enriched)
	if deps.AICache != nil {
		namespaces = append(namespaces, deps.AICache)
	}

	m, err := newMetrics(deps.Registerer, namespaces)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	return &Coordinator{
		store:      deps.Store,
		pipeline:   deps.Pipeline,
		enriched:   deps.Enriched,
		origin:     deps.Origin,
		namespaces: namespaces,
		cfg:        cfg,
		log:        log,
		metrics:    m,
	}, nil
}

// Lookup returns the stored record for a movie, or nil on a miss. It never
// calls upstream; callers populate misses through Enhance.
func (c *Coordinator) Lookup(ctx context.Context, originID int64, title string, year int) (*movie.Record, error) {
	if originID <= 0 && title == "" {
		return nil, fmt.Errorf("%w: origin id or title is required", ErrInvalidInput)
	}

	rec, tier, err := c.store.Get(ctx, store.Lookup{OriginID: originID, Title: title, Year: year})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	c.recordHit(tier)
	return rec, nil
}

// LookupKey is Lookup by movie key.
func (c *Coordinator) LookupKey(ctx context.Context, key string) (*movie.Record, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: movie key is required", ErrInvalidInput)
	}
	rec, tier, err := c.store.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	c.recordHit(tier)
	return rec, nil
}

func (c *Coordinator) recordHit(tier store.Tier) {
	switch tier {
	case store.TierMemory:
		c.memoryHits.Add(1)
	case store.TierDatabase:
		c.databaseHits.Add(1)
	default:
		c.misses.Add(1)
	}
	c.metrics.recordLookup(tier.String())
}

// HitStats returns the lookup counters.
func (c *Coordinator) HitStats() HitStats {
	hs := HitStats{
		Memory:   c.memoryHits.Load(),
		Database: c.databaseHits.Load(),
		Miss:     c.misses.Load(),
	}
	if total := hs.Memory + hs.Database + hs.Miss; total > 0 {
		hs.HitRate = float64(hs.Memory+hs.Database) / float64(total)
	}
	return hs
}

// ResetHitStats zeroes the lookup counters. Exported Prometheus counters
// keep counting.
func (c *Coordinator) ResetHitStats() {
	c.memoryHits.Store(0)
	c.databaseHits.Store(0)
	c.misses.Store(0)
}
