package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yourusername/gridline/internal/database"
	"github.com/yourusername/gridline/internal/models"
)

// PostgresInsightRepository implements InsightRepository for PostgreSQL
type PostgresInsightRepository struct {
	db *database.DB
}

// NewPostgresInsightRepository creates a new insight repository
func NewPostgresInsightRepository(db *database.DB) InsightRepository {
	return &PostgresInsightRepository{db: db}
}

// CreateBatch appends a batch of insights
func (r *PostgresInsightRepository) CreateBatch(ctx context.Context, insights []models.Insight) error {
	query := `
		INSERT INTO insights (id, event_id, event_name, type, message, priority, suggested_action, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for i := range insights {
		insight := &insights[i]
		_, err := r.db.GetPool().Exec(ctx, query,
			insight.ID, insight.EventID, insight.EventName, insight.Type,
			insight.Message, insight.Priority, insight.SuggestedAction, insight.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create insight: %w", err)
		}
	}

	return nil
}

// GetByEventID retrieves all insights for an event
func (r *PostgresInsightRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) ([]models.Insight, error) {
	query := `
		SELECT id, event_id, event_name, type, message, priority, suggested_action, created_at
		FROM insights
		WHERE event_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.GetPool().Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	defer rows.Close()

	var insights []models.Insight
	for rows.Next() {
		insight := models.Insight{}
		err := rows.Scan(
			&insight.ID, &insight.EventID, &insight.EventName, &insight.Type,
			&insight.Message, &insight.Priority, &insight.SuggestedAction, &insight.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		insights = append(insights, insight)
	}

	return insights, rows.Err()
}
