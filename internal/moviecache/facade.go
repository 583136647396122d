package moviecache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vmunix/moviegraph/internal/movie"
	"github.com/vmunix/moviegraph/internal/store"
	"github.com/vmunix/moviegraph/internal/ttlcache"
)

const defaultSearchLimit = 15

// Stats is the combined view of every cache tier.
type Stats struct {
	Store      store.Stats      `json:"store"`
	Namespaces []ttlcache.Stats `json:"namespaces"`
	Hits       HitStats         `json:"hits"`
}

// Search queries the origin catalog, stores every result as a basic record
// and enhances the top results. When the origin is unavailable it answers
// from the local full-text index instead.
func (c *Coordinator) Search(ctx context.Context, query string, limit int) ([]*movie.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	if c.origin == nil {
		return c.LocalSearch(ctx, query, limit)
	}
	refs, err := c.origin.Search(ctx, query)
	if err != nil {
		c.log.Warn("origin search failed, using local index", "query", query, "error", err)
		return c.LocalSearch(ctx, query, limit)
	}
	if len(refs) > limit {
		refs = refs[:limit]
	}
	return c.populate(ctx, refs, c.cfg.SearchEnhance, c.cfg.SearchWorkers), nil
}

// Related returns movies related to originID, the first ones enhanced.
// An origin failure yields an empty result.
func (c *Coordinator) Related(ctx context.Context, originID int64, limit int) ([]*movie.Record, error) {
	if originID <= 0 {
		return nil, fmt.Errorf("%w: origin id is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = c.cfg.RelatedLimit
	}
	if c.origin == nil {
		return []*movie.Record{}, nil
	}

	refs, err := c.origin.GetRelated(ctx, originID)
	if err != nil {
		c.log.Warn("related lookup failed", "origin_id", originID, "error", err)
		return []*movie.Record{}, nil
	}
	if len(refs) > limit {
		refs = refs[:limit]
	}
	return c.populate(ctx, refs, c.cfg.RelatedLimit, c.cfg.RelatedWorkers), nil
}

// populate stores refs as basic records and enhances the first n of them.
// Results keep the order of refs. Movies outside the first n, or whose
// enhancement failed, are returned as stored, so earlier full details survive.
func (c *Coordinator) populate(ctx context.Context, refs []movie.Ref, n, workers int) []*movie.Record {
	out := make([]*movie.Record, 0, len(refs))
	for _, ref := range refs {
		rec := movie.NewRecord(ref)
		if err := c.store.Store(ctx, rec); err != nil {
			c.log.Warn("failed to store search result", "movie", rec.Key, "error", err)
		} else if stored, _, _ := c.store.GetByKey(ctx, rec.Key); stored != nil {
			// The stored row keeps full details from earlier enhancement.
			rec = stored
		}
		out = append(out, rec)
	}

	enhanced := c.pipeline.EnhanceBatch(ctx, refs[:min(n, len(refs))], workers)
	byKey := make(map[string]*movie.Record, len(enhanced))
	for _, rec := range enhanced {
		byKey[rec.Key] = rec
	}
	for i, rec := range out {
		if e, ok := byKey[rec.Key]; ok {
			out[i] = e
		}
	}
	return out
}

// LocalSearch answers from the persistent store only. An empty query lists
// the most recently accessed movies.
func (c *Coordinator) LocalSearch(ctx context.Context, query string, limit int) ([]*movie.Record, error) {
	if strings.TrimSpace(query) == "" {
		return c.store.SearchAll(ctx, limit, 0)
	}
	return c.store.Search(ctx, query, limit)
}

// Enhance enriches one movie.
func (c *Coordinator) Enhance(ctx context.Context, ref movie.Ref) (*movie.Record, error) {
	return c.pipeline.EnhanceOne(ctx, ref)
}

// EnhanceBatch enriches refs with at most maxConcurrent upstream calls in
// flight. Movies that could not be enriched are omitted.
func (c *Coordinator) EnhanceBatch(ctx context.Context, refs []movie.Ref, maxConcurrent int) []*movie.Record {
	return c.pipeline.EnhanceBatch(ctx, refs, maxConcurrent)
}

// Stats reports the store aggregates, namespace sizes and lookup counters.
func (c *Coordinator) Stats(ctx context.Context) (Stats, error) {
	st, err := c.store.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	ns := make([]ttlcache.Stats, 0, len(c.namespaces))
	for _, n := range c.namespaces {
		ns = append(ns, n.Stats())
	}
	return Stats{Store: st, Namespaces: ns, Hits: c.HitStats()}, nil
}

// Clear empties one namespace, the persistent store ("store"), or
// everything when namespace is empty.
func (c *Coordinator) Clear(ctx context.Context, namespace string) error {
	if namespace == "" {
		for _, n := range c.namespaces {
			n.Clear()
		}
		if err := c.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear store: %w", err)
		}
		c.log.Info("all caches cleared")
		return nil
	}

	if namespace == NamespaceStore {
		if err := c.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear store: %w", err)
		}
		// Enriched entries would otherwise outlive the records behind them.
		c.enriched.Clear()
		c.log.Info("cache cleared", "namespace", namespace)
		return nil
	}

	for _, n := range c.namespaces {
		if n.Name() == namespace {
			n.Clear()
			c.log.Info("cache cleared", "namespace", namespace)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownNamespace, namespace)
}

// Cleanup drops expired namespace entries and deletes stored movies not
// accessed within maxAge. Favorites are kept.
func (c *Coordinator) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	swept := 0
	for _, n := range c.namespaces {
		swept += n.Sweep()
	}
	deleted, err := c.store.Cleanup(ctx, maxAge)
	if err != nil {
		return 0, fmt.Errorf("cleanup store: %w", err)
	}
	if deleted > 0 {
		c.enriched.Clear()
	}
	c.log.Info("cleanup complete", "deleted", deleted, "swept", swept, "max_age", maxAge)
	return deleted, nil
}

// SetFavorite flags a stored movie so Cleanup keeps it.
func (c *Coordinator) SetFavorite(ctx context.Context, key string, favorite bool) (*movie.Record, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: movie key is required", ErrInvalidInput)
	}
	if err := c.store.SetFavorite(ctx, key, favorite); err != nil {
		return nil, err
	}

	rec, _, err := c.store.GetByKey(ctx, key)
	if err != nil || rec == nil {
		return nil, fmt.Errorf("reload %s: %w", key, store.ErrNotFound)
	}
	c.enriched.Delete(key)
	if rec.OriginID > 0 {
		c.enriched.Delete("id:" + strconv.FormatInt(rec.OriginID, 10))
	}
	return rec, nil
}
