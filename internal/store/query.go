package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vmunix/moviegraph/internal/movie"
)

// Stats aggregates the persisted catalog.
type Stats struct {
	TotalMovies    int     `json:"total_movies"`
	CachedMovies   int     `json:"cached_movies"` // records with full details
	AverageRating  float64 `json:"average_rating"`
	LanguagesCount int     `json:"languages_count"`
	FavoritesCount int     `json:"favorites_count"`
	MemoryEntries  int     `json:"memory_entries"`
}

// ftsQuery turns free text into an FTS5 expression of quoted prefix terms.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"*`)
	}
	return strings.Join(quoted, " OR ")
}

// Search ranks movies by full-text relevance over title and overview, with
// ties broken by rating (nulls last). When the full-text index yields
// nothing, a case-insensitive substring match is used instead.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]*movie.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	results, err := queryMovies(ctx, s.db, `
		SELECT `+prefixed("m", movieColumns)+`
		FROM movies_fts f
		JOIN movies m ON m.rowid = f.rowid
		WHERE movies_fts MATCH ?
		ORDER BY f.rank, m.rating DESC NULLS LAST
		LIMIT ?`,
		ftsQuery(query), limit,
	)
	if err != nil {
		s.log.Debug("full-text search failed, using substring match", "query", query, "error", err)
	}
	if len(results) > 0 {
		return results, nil
	}

	pattern := "%" + escapeLike(query) + "%"
	results, err = queryMovies(ctx, s.db, `
		SELECT `+movieColumns+`
		FROM movies
		WHERE title LIKE ? ESCAPE '\' OR overview LIKE ? ESCAPE '\'
		ORDER BY rating DESC NULLS LAST, title
		LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, mapSQLiteError(err))
	}
	return results, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// prefixed qualifies each column in a comma-separated list with alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// SearchAll pages through every record, most recently accessed first.
func (s *Store) SearchAll(ctx context.Context, limit, offset int) ([]*movie.Record, error) {
	if err := s.Flush(ctx); err != nil {
		s.log.Warn("failed to flush access times", "error", err)
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	results, err := queryMovies(ctx, s.db,
		"SELECT "+movieColumns+" FROM movies ORDER BY last_accessed DESC, movie_key LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", mapSQLiteError(err))
	}
	return results, nil
}

// Stats computes catalog aggregates on demand.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var (
		st        Stats
		avg       sql.NullFloat64
		favorites sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(full_json), AVG(rating), SUM(favorite)
		FROM movies`,
	).Scan(&st.TotalMovies, &st.CachedMovies, &avg, &favorites)
	if err != nil {
		return Stats{}, fmt.Errorf("movie stats: %w", mapSQLiteError(err))
	}
	st.AverageRating = avg.Float64
	st.FavoritesCount = int(favorites.Int64)

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT language) FROM movie_languages",
	).Scan(&st.LanguagesCount); err != nil {
		return Stats{}, fmt.Errorf("language stats: %w", mapSQLiteError(err))
	}

	st.MemoryEntries = s.memory.Len()
	return st, nil
}

// Cleanup deletes non-favorite movies not accessed within maxAge and returns
// how many were removed. Runs as a single transaction.
func (s *Store) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := s.now().Add(-maxAge).UnixMilli()

	pending := s.takeTouches()
	var deleted int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := writeTouches(ctx, tx, pending); err != nil {
			return err
		}

		const stale = "SELECT movie_key FROM movies WHERE last_accessed < ? AND favorite = 0"
		if _, err := tx.ExecContext(ctx, "DELETE FROM movie_genres WHERE movie_key IN ("+stale+")", cutoff); err != nil {
			return fmt.Errorf("cleanup genres: %w", mapSQLiteError(err))
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM movie_languages WHERE movie_key IN ("+stale+")", cutoff); err != nil {
			return fmt.Errorf("cleanup languages: %w", mapSQLiteError(err))
		}
		result, err := tx.ExecContext(ctx, "DELETE FROM movies WHERE last_accessed < ? AND favorite = 0", cutoff)
		if err != nil {
			return fmt.Errorf("cleanup movies: %w", mapSQLiteError(err))
		}
		deleted, err = result.RowsAffected()
		return err
	})
	if err != nil {
		s.restoreTouches(pending)
		return 0, err
	}

	if deleted > 0 {
		s.memory.Purge()
	}
	s.log.Info("store cleanup", "max_age", maxAge, "deleted", deleted)
	return deleted, nil
}

// Clear deletes every movie and tag and empties the memory front end.
func (s *Store) Clear(ctx context.Context) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"movie_genres", "movie_languages", "movies"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, mapSQLiteError(err))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.memory.Purge()
	s.touchMu.Lock()
	s.touched = make(map[string]time.Time)
	s.touchMu.Unlock()
	return nil
}
