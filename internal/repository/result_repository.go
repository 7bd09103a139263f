package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yourusername/gridline/internal/database"
	"github.com/yourusername/gridline/internal/models"
)

// PostgresResultRepository implements ResultRepository for PostgreSQL
type PostgresResultRepository struct {
	db *database.DB
}

// NewPostgresResultRepository creates a new result repository
func NewPostgresResultRepository(db *database.DB) ResultRepository {
	return &PostgresResultRepository{db: db}
}

// CreateBatch inserts a full classification. Duplicate (event, driver)
// rows are ignored so a re-run after a partial failure converges instead
// of erroring.
func (r *PostgresResultRepository) CreateBatch(ctx context.Context, results []models.Result) error {
	query := `
		INSERT INTO results (id, event_id, driver, final_position, points, did_not_finish, source, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id, driver) DO NOTHING
	`

	for i := range results {
		result := &results[i]
		_, err := r.db.GetPool().Exec(ctx, query,
			result.ID, result.EventID, result.Driver, result.FinalPosition,
			result.Points, result.DidNotFinish, result.Source, result.RecordedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert result for %s: %w", result.Driver, err)
		}
	}

	return nil
}

// GetByEventID retrieves the classification for an event
func (r *PostgresResultRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) ([]models.Result, error) {
	query := `
		SELECT id, event_id, driver, final_position, points, did_not_finish, source, recorded_at
		FROM results
		WHERE event_id = $1
		ORDER BY final_position
	`

	rows, err := r.db.GetPool().Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []models.Result
	for rows.Next() {
		result := models.Result{}
		err := rows.Scan(
			&result.ID, &result.EventID, &result.Driver, &result.FinalPosition,
			&result.Points, &result.DidNotFinish, &result.Source, &result.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}

	return results, rows.Err()
}
