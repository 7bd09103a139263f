package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/gridline/internal/database"
	"github.com/yourusername/gridline/internal/models"
)

// PostgresEventRepository implements EventRepository for PostgreSQL
type PostgresEventRepository struct {
	db *database.DB
}

// NewPostgresEventRepository creates a new event repository
func NewPostgresEventRepository(db *database.DB) EventRepository {
	return &PostgresEventRepository{db: db}
}

// Upsert inserts or updates an event keyed on (season, round). The
// surrogate ID of an existing row wins so references stay stable across
// calendar refreshes.
func (r *PostgresEventRepository) Upsert(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (id, name, season, round, country, location, scheduled_completion, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (season, round) DO UPDATE SET
			name = EXCLUDED.name,
			country = EXCLUDED.country,
			location = EXCLUDED.location,
			scheduled_completion = EXCLUDED.scheduled_completion,
			updated_at = EXCLUDED.updated_at
		RETURNING id, status
	`

	now := time.Now().UTC()
	err := r.db.GetPool().QueryRow(ctx, query,
		event.ID, event.Name, event.Season, event.Round, event.Country, event.Location,
		event.ScheduledCompletion, event.Status, now, now,
	).Scan(&event.ID, &event.Status)
	if err != nil {
		return fmt.Errorf("failed to upsert event: %w", err)
	}

	return nil
}

// GetByID retrieves an event by ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	query := `
		SELECT id, name, season, round, country, location, scheduled_completion, status, created_at, updated_at
		FROM events WHERE id = $1
	`

	event := &models.Event{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&event.ID, &event.Name, &event.Season, &event.Round, &event.Country, &event.Location,
		&event.ScheduledCompletion, &event.Status, &event.CreatedAt, &event.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return event, nil
}

// GetBySeason retrieves all events for a season ordered by round
func (r *PostgresEventRepository) GetBySeason(ctx context.Context, season int) ([]models.Event, error) {
	query := `
		SELECT id, name, season, round, country, location, scheduled_completion, status, created_at, updated_at
		FROM events
		WHERE season = $1
		ORDER BY round
	`

	rows, err := r.db.GetPool().Query(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("failed to query events by season: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		event := models.Event{}
		err := rows.Scan(
			&event.ID, &event.Name, &event.Season, &event.Round, &event.Country, &event.Location,
			&event.ScheduledCompletion, &event.Status, &event.CreatedAt, &event.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// UpdateStatus transitions an event to the given status
func (r *PostgresEventRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.EventStatus) error {
	query := `UPDATE events SET status = $1, updated_at = $2 WHERE id = $3`

	tag, err := r.db.GetPool().Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
