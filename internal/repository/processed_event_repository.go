package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/gridline/internal/database"
)

// PostgresProcessedEventRepository implements ProcessedEventRepository
// for PostgreSQL. The primary key on event_key together with ON CONFLICT
// DO NOTHING gives an atomic insert-if-absent.
type PostgresProcessedEventRepository struct {
	db *database.DB
}

// NewPostgresProcessedEventRepository creates a new processed-event repository
func NewPostgresProcessedEventRepository(db *database.DB) ProcessedEventRepository {
	return &PostgresProcessedEventRepository{db: db}
}

// MarkProcessed inserts the key, returning true only for the inserting caller
func (r *PostgresProcessedEventRepository) MarkProcessed(ctx context.Context, key string) (bool, error) {
	query := `
		INSERT INTO processed_events (event_key, processed_at)
		VALUES ($1, $2)
		ON CONFLICT (event_key) DO NOTHING
	`

	tag, err := r.db.GetPool().Exec(ctx, query, key, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to mark event processed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// IsProcessed reports whether the key has been recorded
func (r *PostgresProcessedEventRepository) IsProcessed(ctx context.Context, key string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_key = $1)`

	var exists bool
	if err := r.db.GetPool().QueryRow(ctx, query, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check processed event: %w", err)
	}

	return exists, nil
}
