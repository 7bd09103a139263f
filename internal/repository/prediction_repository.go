package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yourusername/gridline/internal/database"
	"github.com/yourusername/gridline/internal/models"
)

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

// Create inserts a new prediction
func (r *PostgresPredictionRepository) Create(ctx context.Context, prediction *models.Prediction) error {
	query := `
		INSERT INTO predictions (id, event_id, driver, predicted_position, probability, model_version, predicted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		prediction.ID, prediction.EventID, prediction.Driver, prediction.PredictedPosition,
		prediction.Probability, prediction.ModelVersion, prediction.PredictedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create prediction: %w", err)
	}

	return nil
}

// GetByEventID retrieves all predictions for an event
func (r *PostgresPredictionRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) ([]models.Prediction, error) {
	query := `
		SELECT id, event_id, driver, predicted_position, probability, model_version, predicted_at
		FROM predictions
		WHERE event_id = $1
		ORDER BY predicted_position
	`

	rows, err := r.db.GetPool().Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []models.Prediction
	for rows.Next() {
		prediction := models.Prediction{}
		err := rows.Scan(
			&prediction.ID, &prediction.EventID, &prediction.Driver, &prediction.PredictedPosition,
			&prediction.Probability, &prediction.ModelVersion, &prediction.PredictedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, prediction)
	}

	return predictions, rows.Err()
}
