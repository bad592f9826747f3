package service

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tripfolio/api/internal/repository/ports"
)

var (
	ErrTripNotFound   = errors.New("trip not found")
	ErrTripValidation = errors.New("trip validation failed")

	// ErrTripConflict surfaces a lost-update: the stored trip advanced while
	// this request held its copy. The merge result was discarded; the caller
	// re-fetches and retries.
	ErrTripConflict = errors.New("trip was modified concurrently")

	// ErrNoUsableDocuments means the whole batch failed: individual document
	// failures are tolerated as long as at least one yields data.
	ErrNoUsableDocuments = errors.New("no usable booking data in uploaded documents")
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isVersionConflict(err error) bool {
	return errors.Is(err, ports.ErrVersionConflict)
}
