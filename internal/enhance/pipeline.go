// Package enhance enriches raw movie references from several upstream sources
// concurrently and writes the merged record to the cache tiers.
package enhance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/vmunix/moviegraph/internal/movie"
	"github.com/vmunix/moviegraph/internal/store"
	"github.com/vmunix/moviegraph/internal/ttlcache"
)

const (
	DefaultCallTimeout   = 3 * time.Second
	DefaultMaxConcurrent = 5
)

var (
	// ErrInvalidInput indicates a reference with neither origin id nor title.
	ErrInvalidInput = errors.New("invalid movie reference")

	// ErrEnhancementFailed indicates every upstream source failed for a movie.
	ErrEnhancementFailed = errors.New("enhancement failed")

	errNoOriginID = errors.New("no origin id")
	errNoPoster   = errors.New("no poster source configured")
)

// Config bounds upstream calls.
type Config struct {
	CallTimeout   time.Duration // per upstream call
	MaxConcurrent int           // default batch chunk size and in-flight call cap
}

// Pipeline turns raw references into enriched records.
type Pipeline struct {
	origin OriginSource
	poster PosterSource
	store  RecordStore
	cache  *ttlcache.Cache[*movie.Record]
	cfg    Config
	log    *slog.Logger
	now    func() time.Time
}

// New creates a pipeline. poster may be nil, in which case records are
// enriched from the origin only.
func New(origin OriginSource, poster PosterSource, st RecordStore, cache *ttlcache.Cache[*movie.Record], cfg Config, log *slog.Logger) *Pipeline {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	return &Pipeline{
		origin: origin,
		poster: poster,
		store:  st,
		cache:  cache,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// SetClock overrides the time source used for EnhancedAt (for testing).
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// cacheKeys are the enriched-namespace keys for a reference: the origin id
// when known, and the movie key.
func cacheKeys(ref movie.Ref) []string {
	var keys []string
	if ref.OriginID > 0 {
		keys = append(keys, "id:"+strconv.FormatInt(ref.OriginID, 10))
	}
	if ref.Title != "" {
		keys = append(keys, ref.Key())
	}
	return keys
}

func validate(ref movie.Ref) error {
	if ref.OriginID <= 0 && ref.Title == "" {
		return fmt.Errorf("%w: origin id or title is required", ErrInvalidInput)
	}
	return nil
}

// EnhanceOne returns the enriched record for ref.
//
// The enriched cache and then the persistent store are consulted first; only
// records with full details count as hits there. A reference known only by
// origin id that the store lacks is resolved to a title and year through the
// origin; ErrInvalidInput is returned if that fails. On a miss the stats,
// ratings and poster sources are called concurrently, each under its own
// timeout. Failed sources leave their fields absent. If all of them fail the
// result is ErrEnhancementFailed. A failed store write is logged, not returned.
func (p *Pipeline) EnhanceOne(ctx context.Context, ref movie.Ref) (*movie.Record, error) {
	return p.enhance(ctx, ref, nil)
}

func (p *Pipeline) enhance(ctx context.Context, ref movie.Ref, sem *semaphore.Weighted) (*movie.Record, error) {
	if err := validate(ref); err != nil {
		return nil, err
	}
	keys := cacheKeys(ref)

	for _, k := range keys {
		if rec, ok := p.cache.Get(k); ok {
			p.log.Debug("enriched cache hit", "key", k)
			return rec.Clone(), nil
		}
	}

	existing, tier, err := p.store.Get(ctx, store.Lookup{OriginID: ref.OriginID, Title: ref.Title, Year: ref.Year})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if existing.HasFull() {
		p.log.Debug("store hit", "key", existing.Key, "tier", tier.String())
		p.remember(keys, existing)
		return existing, nil
	}

	if ref.Title == "" {
		if existing == nil {
			resolved, err := p.resolve(ctx, ref, sem)
			if err != nil {
				return nil, err
			}
			return p.enhance(ctx, resolved, sem)
		}
		ref.Title, ref.Year = existing.Title, existing.Year
	}

	start := time.Now()
	res := p.fetch(ctx, ref, sem)
	key := ref.Key()
	for _, o := range res.Outcomes {
		if !o.OK() {
			p.log.Warn("enhancement source failed", "movie", key, "source", o.Source, "error", o.Err, "duration_ms", o.Duration.Milliseconds())
		}
	}
	if res.Succeeded() == 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrEnhancementFailed, key, res.Err())
	}

	rec := existing
	if rec == nil {
		rec = movie.NewRecord(ref)
	} else if rec.OriginID == 0 {
		rec.OriginID = ref.OriginID
	}
	res.Merge(rec, ref.IDs, p.now())

	if err := p.store.Store(ctx, rec); err != nil {
		p.log.Warn("failed to persist enriched record", "movie", rec.Key, "error", err)
	}
	p.remember(cacheKeys(rec.Ref()), rec)

	p.log.Debug("movie enhanced", "movie", rec.Key, "sources", res.Succeeded(), "duration_ms", time.Since(start).Milliseconds())
	return rec.Clone(), nil
}

// resolve looks up title and year for a reference known only by origin id.
func (p *Pipeline) resolve(ctx context.Context, ref movie.Ref, sem *semaphore.Weighted) (movie.Ref, error) {
	var found *movie.Ref
	o := p.call(ctx, sem, SourceMovie, func(ctx context.Context) error {
		m, err := p.origin.GetMovie(ctx, ref.OriginID)
		found = m
		return err
	})
	if !o.OK() {
		return ref, fmt.Errorf("%w: resolve origin id %d: %w", ErrInvalidInput, ref.OriginID, o.Err)
	}
	if found == nil || found.Title == "" {
		return ref, fmt.Errorf("%w: origin id %d has no title", ErrInvalidInput, ref.OriginID)
	}

	resolved := *found
	resolved.OriginID = ref.OriginID
	if resolved.Basic == nil {
		resolved.Basic = ref.Basic
	}
	p.log.Debug("resolved origin id", "origin_id", ref.OriginID, "movie", resolved.Key())
	return resolved, nil
}

// remember caches rec under keys. Records without a movie key are never cached.
func (p *Pipeline) remember(keys []string, rec *movie.Record) {
	if rec.Key == "" {
		return
	}
	for _, k := range keys {
		p.cache.Set(k, rec.Clone())
	}
}

// fetch calls every source concurrently. Calls never cancel each other; each
// derives its own timeout from ctx.
func (p *Pipeline) fetch(ctx context.Context, ref movie.Ref, sem *semaphore.Weighted) *Result {
	res := &Result{Outcomes: make([]Outcome, 3)}

	var g errgroup.Group
	g.Go(func() error {
		res.Outcomes[0] = p.call(ctx, sem, SourceStats, func(ctx context.Context) error {
			if ref.OriginID <= 0 {
				return errNoOriginID
			}
			stats, err := p.origin.GetStats(ctx, ref.OriginID)
			res.Stats = stats
			return err
		})
		return nil
	})
	g.Go(func() error {
		res.Outcomes[1] = p.call(ctx, sem, SourceRatings, func(ctx context.Context) error {
			if ref.OriginID <= 0 {
				return errNoOriginID
			}
			ratings, err := p.origin.GetRatings(ctx, ref.OriginID)
			res.Ratings = ratings
			return err
		})
		return nil
	})
	g.Go(func() error {
		res.Outcomes[2] = p.call(ctx, sem, SourcePoster, func(ctx context.Context) error {
			if p.poster == nil {
				return errNoPoster
			}
			data, err := p.poster.FindByTitleYear(ctx, ref.Title, ref.Year)
			res.Poster = data
			return err
		})
		return nil
	})
	_ = g.Wait()

	// Discard data from sources that reported an error.
	if !res.Outcomes[0].OK() {
		res.Stats = nil
	}
	if !res.Outcomes[1].OK() {
		res.Ratings = nil
	}
	if !res.Outcomes[2].OK() {
		res.Poster = nil
	}
	return res
}

// call runs fn under the per-call timeout, holding one slot of sem if set.
func (p *Pipeline) call(ctx context.Context, sem *semaphore.Weighted, source string, fn func(context.Context) error) Outcome {
	start := time.Now()
	if sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			return Outcome{Source: source, Err: err}
		}
		defer sem.Release(1)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	defer cancel()

	err := fn(callCtx)
	if err == nil && callCtx.Err() != nil {
		err = callCtx.Err()
	}
	if err != nil {
		err = fmt.Errorf("%s: %w", source, err)
	}
	return Outcome{Source: source, Err: err, Duration: time.Since(start)}
}

// EnhanceBatch enhances refs in sequential chunks of maxConcurrent items,
// items within a chunk concurrently. At most maxConcurrent upstream calls are
// in flight at any time. Invalid and totally failed items are dropped;
// successful records keep their input order.
func (p *Pipeline) EnhanceBatch(ctx context.Context, refs []movie.Ref, maxConcurrent int) []*movie.Record {
	if maxConcurrent <= 0 {
		maxConcurrent = p.cfg.MaxConcurrent
	}
	sem := semaphore.NewWeighted(int64(maxConcurrent))
	start := time.Now()

	out := make([]*movie.Record, 0, len(refs))
	dropped := 0
	for lo := 0; lo < len(refs); lo += maxConcurrent {
		if ctx.Err() != nil {
			dropped += len(refs) - lo
			break
		}
		chunk := refs[lo:min(lo+maxConcurrent, len(refs))]
		results := make([]*movie.Record, len(chunk))

		var g errgroup.Group
		for i, ref := range chunk {
			g.Go(func() error {
				rec, err := p.enhance(ctx, ref, sem)
				if err != nil {
					p.log.Warn("dropping movie from batch", "title", ref.Title, "origin_id", ref.OriginID, "error", err)
					return nil
				}
				results[i] = rec
				return nil
			})
		}
		_ = g.Wait()

		for _, rec := range results {
			if rec == nil {
				dropped++
				continue
			}
			out = append(out, rec)
		}
	}

	p.log.Info("batch enhanced", "requested", len(refs), "enhanced", len(out), "dropped", dropped, "max_concurrent", maxConcurrent, "duration_ms", time.Since(start).Milliseconds())
	return out
}
