package repository

import (
	"context"
	"fmt"

	"github.com/yourusername/gridline/internal/betting"
	"github.com/yourusername/gridline/internal/database"
)

// PostgresFeedbackRepository implements FeedbackRepository for PostgreSQL.
// Rows key on wager_id, so replayed settlements cannot duplicate
// training data.
type PostgresFeedbackRepository struct {
	db *database.DB
}

// NewPostgresFeedbackRepository creates a new feedback repository
func NewPostgresFeedbackRepository(db *database.DB) FeedbackRepository {
	return &PostgresFeedbackRepository{db: db}
}

// Append stores one settled-wager outcome row
func (r *PostgresFeedbackRepository) Append(ctx context.Context, row *betting.FeedbackRow) error {
	query := `
		INSERT INTO wager_feedback (wager_id, event_key, driver, bet_type, predicted_probability, won, profit_loss, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (wager_id) DO NOTHING
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		row.WagerID, row.EventKey, row.Driver, row.BetType,
		row.PredictedProbability, row.Won, row.ProfitLoss, row.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append feedback row: %w", err)
	}

	return nil
}
