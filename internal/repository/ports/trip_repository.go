package ports

import (
	"context"
	"errors"

	"github.com/tripfolio/api/internal/domain"
)

// ErrVersionConflict is returned by Save when the stored trip version has
// advanced since the caller loaded its copy. The caller re-fetches and
// re-merges; nothing was written.
var ErrVersionConflict = errors.New("trip version conflict")

type TripRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
	List(ctx context.Context) ([]domain.TripSummary, error)
	Create(ctx context.Context, trip *domain.Trip) error

	// Save persists the full aggregate, comparing trip.Version against the
	// stored row. On success the trip's version is bumped in place.
	Save(ctx context.Context, trip *domain.Trip) error

	Rename(ctx context.Context, id string, title map[string]string) error
	Delete(ctx context.Context, id string) error
}
