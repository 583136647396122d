package store

import (
	"database/sql"
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates the requested movie doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidLookup indicates a lookup with no usable identifier.
	ErrInvalidLookup = errors.New("lookup needs a movie key, origin id or title")

	// ErrInvalidRecord indicates a record that cannot be persisted.
	ErrInvalidRecord = errors.New("invalid movie record")

	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate entry")

	// ErrConstraint indicates a foreign key or check constraint violation.
	ErrConstraint = errors.New("constraint violation")
)

// mapSQLiteError converts SQLite errors to custom error types.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	// modernc.org/sqlite wraps errors; check error message for constraint violations
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "PRIMARY KEY constraint failed") {
		return ErrDuplicate
	}
	if strings.Contains(errStr, "FOREIGN KEY constraint failed") ||
		strings.Contains(errStr, "CHECK constraint failed") {
		return ErrConstraint
	}
	return err
}
