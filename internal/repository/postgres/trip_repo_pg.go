package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tripfolio/api/internal/domain"
	"github.com/tripfolio/api/internal/repository/ports"
)

// TripRepository stores each trip aggregate as one JSONB document plus a few
// flat columns for listing. The version column implements the
// compare-and-swap that Save relies on.
type TripRepository struct {
	db *sqlx.DB
}

func NewTripRepo(db *sqlx.DB) *TripRepository {
	return &TripRepository{db: db}
}

type tripRow struct {
	ID          string          `db:"id"`
	Title       []byte          `db:"title"`
	Destination string          `db:"destination"`
	StartDate   string          `db:"start_date"`
	EndDate     string          `db:"end_date"`
	Route       *string         `db:"route"`
	Document    json.RawMessage `db:"document"`
	Version     int             `db:"version"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	const query = `
		SELECT id, title, destination, start_date, end_date, route,
		       document, version, created_at, updated_at
		FROM trip
		WHERE id = $1
	`

	var row tripRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return row.toTrip()
}

func (r *TripRepository) List(ctx context.Context) ([]domain.TripSummary, error) {
	const query = `
		SELECT id, title, destination, start_date, end_date, route, updated_at
		FROM trip
		ORDER BY start_date DESC, id
	`

	var rows []struct {
		ID          string    `db:"id"`
		Title       []byte    `db:"title"`
		Destination string    `db:"destination"`
		StartDate   string    `db:"start_date"`
		EndDate     string    `db:"end_date"`
		Route       *string   `db:"route"`
		UpdatedAt   time.Time `db:"updated_at"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	summaries := make([]domain.TripSummary, 0, len(rows))
	for _, row := range rows {
		title, err := decodeTitle(row.Title)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, domain.TripSummary{
			ID:          row.ID,
			Title:       title,
			Destination: row.Destination,
			StartDate:   row.StartDate,
			EndDate:     row.EndDate,
			Route:       row.Route,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return summaries, nil
}

func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	const query = `
		INSERT INTO trip (id, title, destination, start_date, end_date, route, document, version)
		VALUES (:id, :title, :destination, :start_date, :end_date, :route, :document, 1)
		RETURNING version, created_at, updated_at
	`

	args, err := tripArgs(trip)
	if err != nil {
		return err
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		return sql.ErrNoRows
	}
	return rows.Scan(&trip.Version, &trip.CreatedAt, &trip.UpdatedAt)
}

func (r *TripRepository) Save(ctx context.Context, trip *domain.Trip) error {
	const query = `
		UPDATE trip
		SET title = :title, destination = :destination,
		    start_date = :start_date, end_date = :end_date, route = :route,
		    document = :document, version = version + 1, updated_at = NOW()
		WHERE id = :id AND version = :version
		RETURNING version, updated_at
	`

	args, err := tripArgs(trip)
	if err != nil {
		return err
	}
	args["version"] = trip.Version

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return err
	}
	defer rows.Close()

	if rows.Next() {
		return rows.Scan(&trip.Version, &trip.UpdatedAt)
	}

	// No row matched: either the trip is gone or someone saved in between.
	var current int
	err = r.db.GetContext(ctx, &current, `SELECT version FROM trip WHERE id = $1`, trip.ID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: stored version %d, attempted %d", ports.ErrVersionConflict, current, trip.Version)
}

func (r *TripRepository) Rename(ctx context.Context, id string, title map[string]string) error {
	encoded, err := json.Marshal(title)
	if err != nil {
		return err
	}

	const query = `
		UPDATE trip
		SET title = $2,
		    document = jsonb_set(document, '{title}', $2::jsonb),
		    version = version + 1, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, encoded)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *TripRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM trip WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func tripArgs(trip *domain.Trip) (map[string]any, error) {
	title, err := json.Marshal(trip.Title)
	if err != nil {
		return nil, err
	}
	document, err := json.Marshal(trip)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":          trip.ID,
		"title":       title,
		"destination": trip.Destination,
		"start_date":  trip.StartDate,
		"end_date":    trip.EndDate,
		"route":       trip.Route,
		"document":    document,
	}, nil
}

func (row *tripRow) toTrip() (*domain.Trip, error) {
	var trip domain.Trip
	if err := json.Unmarshal(row.Document, &trip); err != nil {
		return nil, fmt.Errorf("decode trip document %s: %w", row.ID, err)
	}
	// Flat columns are authoritative for identity and versioning.
	trip.ID = row.ID
	trip.Version = row.Version
	trip.CreatedAt = row.CreatedAt
	trip.UpdatedAt = row.UpdatedAt
	return &trip, nil
}

func decodeTitle(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var title map[string]string
	if err := json.Unmarshal(raw, &title); err != nil {
		return nil, err
	}
	return title, nil
}
