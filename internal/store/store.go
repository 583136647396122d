// Package store persists movie records in SQLite behind a small in-process LRU.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vmunix/moviegraph/internal/movie"
)

// DefaultLRUSize is the capacity of the in-process front end.
const DefaultLRUSize = 100

// Tier identifies where a lookup was satisfied.
type Tier int

const (
	TierMiss Tier = iota
	TierMemory
	TierDatabase
)

func (t Tier) String() string {
	switch t {
	case TierMemory:
		return "memory"
	case TierDatabase:
		return "database"
	default:
		return "miss"
	}
}

// Lookup identifies a movie by any of its keys.
// Resolution order is OriginID, Key, then Title and Year.
type Lookup struct {
	Key      string
	OriginID int64
	Title    string
	Year     int
}

func (l Lookup) valid() bool {
	return l.Key != "" || l.OriginID > 0 || l.Title != ""
}

// movieKey returns the persistence key the lookup resolves to, if known.
func (l Lookup) movieKey() string {
	if l.Key != "" {
		return l.Key
	}
	if l.Title != "" {
		return movie.Key(l.Title, l.Year)
	}
	return ""
}

// memoryKeys are the LRU keys the lookup may be cached under.
func (l Lookup) memoryKeys() []string {
	var keys []string
	if l.OriginID > 0 {
		keys = append(keys, originKey(l.OriginID))
	}
	if k := l.movieKey(); k != "" {
		keys = append(keys, k)
	}
	return keys
}

func originKey(id int64) string {
	return "id:" + strconv.FormatInt(id, 10)
}

func recordKeys(rec *movie.Record) []string {
	keys := []string{rec.Key}
	if rec.OriginID > 0 {
		keys = append(keys, originKey(rec.OriginID))
	}
	return keys
}

// querier abstracts *sql.DB and *sql.Tx for shared query logic.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store provides cached access to movie records.
//
// The memory front end is a true LRU: reads move an entry to the front and
// the least recently read entry is evicted at capacity. Memory hits do not
// write to SQLite; their access times are buffered and flushed before any
// query that depends on last_accessed.
type Store struct {
	db     *sql.DB
	memory *lru.Cache[string, *movie.Record]
	log    *slog.Logger
	now    func() time.Time

	touchMu sync.Mutex
	touched map[string]time.Time
}

// Option configures a Store.
type Option func(*options)

type options struct {
	lruSize int
	log     *slog.Logger
	now     func() time.Time
}

// WithLRUSize sets the capacity of the memory front end.
func WithLRUSize(n int) Option {
	return func(o *options) {
		o.lruSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithClock sets the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates a store over an already-migrated database.
func New(db *sql.DB, opts ...Option) (*Store, error) {
	o := options{
		lruSize: DefaultLRUSize,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	memory, err := lru.New[string, *movie.Record](o.lruSize)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Store{
		db:      db,
		memory:  memory,
		log:     o.log,
		now:     o.now,
		touched: make(map[string]time.Time),
	}, nil
}

// MemoryLen returns the number of records in the memory front end.
func (s *Store) MemoryLen() int { return s.memory.Len() }

// PurgeMemory empties the memory front end without touching SQLite.
func (s *Store) PurgeMemory() { s.memory.Purge() }

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) remember(rec *movie.Record, extra ...string) {
	keys := append(recordKeys(rec), extra...)
	for _, k := range keys {
		s.memory.Add(k, rec)
	}
}

// forget drops every memory entry for the movie, including origin id aliases.
func (s *Store) forget(key string) {
	s.memory.Remove(key)
	for _, k := range s.memory.Keys() {
		if rec, ok := s.memory.Peek(k); ok && rec.Key == key {
			s.memory.Remove(k)
		}
	}
}

func (s *Store) touch(key string, at time.Time) {
	s.touchMu.Lock()
	defer s.touchMu.Unlock()
	s.touched[key] = at
}

// takeTouches swaps out the buffered memory-hit access times.
func (s *Store) takeTouches() map[string]time.Time {
	s.touchMu.Lock()
	defer s.touchMu.Unlock()
	pending := s.touched
	s.touched = make(map[string]time.Time)
	return pending
}

// restoreTouches puts back access times whose write did not commit. A later
// touch buffered in the meantime wins.
func (s *Store) restoreTouches(pending map[string]time.Time) {
	s.touchMu.Lock()
	defer s.touchMu.Unlock()
	for key, at := range pending {
		if cur, ok := s.touched[key]; !ok || at.After(cur) {
			s.touched[key] = at
		}
	}
}

// writeTouches writes access times to SQLite.
func writeTouches(ctx context.Context, q querier, pending map[string]time.Time) error {
	for key, at := range pending {
		if _, err := q.ExecContext(ctx,
			"UPDATE movies SET last_accessed = MAX(last_accessed, ?) WHERE movie_key = ?",
			at.UnixMilli(), key,
		); err != nil {
			return fmt.Errorf("flush access time %s: %w", key, mapSQLiteError(err))
		}
	}
	return nil
}

// Flush persists buffered access times.
func (s *Store) Flush(ctx context.Context) error {
	pending := s.takeTouches()
	if err := writeTouches(ctx, s.db, pending); err != nil {
		s.restoreTouches(pending)
		return err
	}
	return nil
}
