package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vmunix/moviegraph/internal/movie"
)

const movieColumns = `movie_key, origin_id, title, year, overview, rating, votes, runtime,
	certification, trailer, tagline, released, full_json, favorite, cached_at, last_accessed`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMovie(sc scanner) (*movie.Record, error) {
	var (
		rec          movie.Record
		originID     sql.NullInt64
		rating       sql.NullFloat64
		fullJSON     sql.NullString
		favorite     int
		cachedAt     int64
		lastAccessed int64
	)
	err := sc.Scan(&rec.Key, &originID, &rec.Title, &rec.Year, &rec.Basic.Overview, &rating,
		&rec.Basic.Votes, &rec.Basic.Runtime, &rec.Basic.Certification, &rec.Basic.Trailer,
		&rec.Basic.Tagline, &rec.Basic.Released, &fullJSON, &favorite, &cachedAt, &lastAccessed)
	if err != nil {
		return nil, err
	}

	rec.OriginID = originID.Int64
	if rating.Valid {
		v := rating.Float64
		rec.Basic.Rating = &v
	}
	if fullJSON.Valid {
		var full movie.Full
		if err := json.Unmarshal([]byte(fullJSON.String), &full); err != nil {
			return nil, fmt.Errorf("decode full details for %s: %w", rec.Key, err)
		}
		rec.Full = &full
	}
	rec.Favorite = favorite != 0
	rec.CachedAt = time.UnixMilli(cachedAt)
	rec.LastAccessed = time.UnixMilli(lastAccessed)
	return &rec, nil
}

func loadTags(ctx context.Context, q querier, rec *movie.Record) error {
	genres, err := queryStrings(ctx, q, "SELECT genre FROM movie_genres WHERE movie_key = ? ORDER BY genre", rec.Key)
	if err != nil {
		return fmt.Errorf("load genres: %w", err)
	}
	langs, err := queryStrings(ctx, q, "SELECT language FROM movie_languages WHERE movie_key = ? ORDER BY language", rec.Key)
	if err != nil {
		return fmt.Errorf("load languages: %w", err)
	}
	rec.Basic.Genres = genres
	rec.Basic.Languages = langs
	return nil
}

func queryStrings(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// queryMovies runs a SELECT over movieColumns and loads tags for each row.
func queryMovies(ctx context.Context, q querier, query string, args ...any) ([]*movie.Record, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var results []*movie.Record
	for rows.Next() {
		rec, err := scanMovie(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	_ = rows.Close()

	for _, rec := range results {
		if err := loadTags(ctx, q, rec); err != nil {
			return nil, err
		}
	}
	return results, nil
}

type condition struct {
	where string
	args  []any
}

func findMovie(ctx context.Context, q querier, l Lookup) (*movie.Record, error) {
	var conds []condition
	if l.OriginID > 0 {
		conds = append(conds, condition{"origin_id = ?", []any{l.OriginID}})
	}
	if k := l.movieKey(); k != "" {
		conds = append(conds, condition{"movie_key = ?", []any{k}})
	}
	if l.Title != "" {
		conds = append(conds, condition{"title = ? COLLATE NOCASE AND year = ?", []any{l.Title, l.Year}})
	}

	// Each condition is tried in resolution order so an origin id match
	// wins over a title match for a different record.
	for _, c := range conds {
		rec, err := scanMovie(q.QueryRowContext(ctx,
			"SELECT "+movieColumns+" FROM movies WHERE "+c.where+" LIMIT 1", c.args...))
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, mapSQLiteError(err)
		}
		if err := loadTags(ctx, q, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}
	return nil, ErrNotFound
}

// Get resolves a lookup through the memory front end, then SQLite by origin
// id, then by movie key or case-insensitive title and year.
//
// SQLite failures are logged and reported as a miss so callers can fall
// through to enhancement. The only error returned is ErrInvalidLookup.
func (s *Store) Get(ctx context.Context, l Lookup) (*movie.Record, Tier, error) {
	if !l.valid() {
		return nil, TierMiss, ErrInvalidLookup
	}

	now := s.now()
	for _, k := range l.memoryKeys() {
		if rec, ok := s.memory.Get(k); ok {
			s.touch(rec.Key, now)
			c := rec.Clone()
			c.LastAccessed = now
			return c, TierMemory, nil
		}
	}

	rec, err := findMovie(ctx, s.db, l)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("store lookup failed", "key", l.movieKey(), "origin_id", l.OriginID, "error", err)
		}
		return nil, TierMiss, nil
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE movies SET last_accessed = ? WHERE movie_key = ?", now.UnixMilli(), rec.Key,
	); err != nil {
		s.log.Warn("failed to update access time", "key", rec.Key, "error", err)
	}
	rec.LastAccessed = now

	// Alias the lookup's title key only when it names this record.
	var aliases []string
	if k := l.movieKey(); k != "" && k != rec.Key && strings.EqualFold(k, rec.Key) {
		aliases = append(aliases, k)
	}
	s.remember(rec, aliases...)
	return rec.Clone(), TierDatabase, nil
}

// GetByKey is Get by movie key.
func (s *Store) GetByKey(ctx context.Context, key string) (*movie.Record, Tier, error) {
	return s.Get(ctx, Lookup{Key: key})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

// Store upserts rec by movie key in one transaction.
//
// Only fields present in rec are written: a basic-only record never clears
// previously stored full details, and empty basic fields keep their stored
// values. Genre and language tags are replaced when rec carries any.
func (s *Store) Store(ctx context.Context, rec *movie.Record) error {
	if rec == nil || rec.Title == "" {
		return ErrInvalidRecord
	}
	if rec.Key == "" {
		rec.Key = movie.Key(rec.Title, rec.Year)
	}

	now := s.now()
	if rec.CachedAt.IsZero() {
		rec.CachedAt = now
	}
	if rec.LastAccessed.IsZero() {
		rec.LastAccessed = now
	}

	var (
		fullJSON  sql.NullString
		posterURL sql.NullString
		imdbID    sql.NullString
		tmdbID    sql.NullInt64
		enhanced  sql.NullInt64
		rating    sql.NullFloat64
	)
	if rec.Full != nil {
		data, err := json.Marshal(rec.Full)
		if err != nil {
			return fmt.Errorf("encode full details: %w", err)
		}
		fullJSON = sql.NullString{String: string(data), Valid: true}
		posterURL = nullString(rec.Full.PosterURL)
		imdbID = nullString(rec.Full.IDs.IMDB)
		tmdbID = nullInt(rec.Full.IDs.TMDB)
		if !rec.Full.EnhancedAt.IsZero() {
			enhanced = sql.NullInt64{Int64: rec.Full.EnhancedAt.UnixMilli(), Valid: true}
		}
	}
	if rec.Basic.Rating != nil {
		rating = sql.NullFloat64{Float64: *rec.Basic.Rating, Valid: true}
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO movies (movie_key, origin_id, title, year, overview, rating, votes, runtime,
				certification, trailer, tagline, released, full_json, poster_url, imdb_id, tmdb_id,
				enhanced_at, favorite, cached_at, last_accessed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(movie_key) DO UPDATE SET
				origin_id     = COALESCE(excluded.origin_id, movies.origin_id),
				title         = excluded.title,
				year          = excluded.year,
				overview      = CASE WHEN excluded.overview <> '' THEN excluded.overview ELSE movies.overview END,
				rating        = COALESCE(excluded.rating, movies.rating),
				votes         = CASE WHEN excluded.votes > 0 THEN excluded.votes ELSE movies.votes END,
				runtime       = CASE WHEN excluded.runtime > 0 THEN excluded.runtime ELSE movies.runtime END,
				certification = CASE WHEN excluded.certification <> '' THEN excluded.certification ELSE movies.certification END,
				trailer       = CASE WHEN excluded.trailer <> '' THEN excluded.trailer ELSE movies.trailer END,
				tagline       = CASE WHEN excluded.tagline <> '' THEN excluded.tagline ELSE movies.tagline END,
				released      = CASE WHEN excluded.released <> '' THEN excluded.released ELSE movies.released END,
				full_json     = COALESCE(excluded.full_json, movies.full_json),
				poster_url    = COALESCE(excluded.poster_url, movies.poster_url),
				imdb_id       = COALESCE(excluded.imdb_id, movies.imdb_id),
				tmdb_id       = COALESCE(excluded.tmdb_id, movies.tmdb_id),
				enhanced_at   = COALESCE(excluded.enhanced_at, movies.enhanced_at),
				favorite      = MAX(excluded.favorite, movies.favorite),
				cached_at     = MIN(movies.cached_at, excluded.cached_at),
				last_accessed = MAX(excluded.last_accessed, movies.last_accessed)`,
			rec.Key, nullInt(rec.OriginID), rec.Title, rec.Year, rec.Basic.Overview, rating,
			rec.Basic.Votes, rec.Basic.Runtime, rec.Basic.Certification, rec.Basic.Trailer,
			rec.Basic.Tagline, rec.Basic.Released, fullJSON, posterURL, imdbID, tmdbID,
			enhanced, boolInt(rec.Favorite), rec.CachedAt.UnixMilli(), rec.LastAccessed.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("upsert movie %s: %w", rec.Key, mapSQLiteError(err))
		}

		if len(rec.Basic.Genres) > 0 {
			if err := replaceTags(ctx, tx, "movie_genres", "genre", rec.Key, rec.Basic.Genres); err != nil {
				return err
			}
		}
		if len(rec.Basic.Languages) > 0 {
			if err := replaceTags(ctx, tx, "movie_languages", "language", rec.Key, rec.Basic.Languages); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.forget(rec.Key)
	return nil
}

// replaceTags deletes all associations for key and inserts values once each.
func replaceTags(ctx context.Context, tx *sql.Tx, table, column, key string, values []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE movie_key = ?", key); err != nil {
		return fmt.Errorf("clear %s for %s: %w", table, key, mapSQLiteError(err))
	}
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO "+table+" (movie_key, "+column+") VALUES (?, ?)", key, v,
		); err != nil {
			return fmt.Errorf("insert %s for %s: %w", table, key, mapSQLiteError(err))
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SetFavorite flags or unflags a movie. Favorites survive Cleanup.
// Returns ErrNotFound if the movie does not exist.
func (s *Store) SetFavorite(ctx context.Context, key string, favorite bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE movies SET favorite = ? WHERE movie_key = ?", boolInt(favorite), key,
	)
	if err != nil {
		return fmt.Errorf("set favorite %s: %w", key, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("set favorite %s: %w", key, ErrNotFound)
	}

	s.forget(key)
	return nil
}
