package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/gridline/internal/database"
	"github.com/yourusername/gridline/internal/models"
)

// PostgresWagerRepository implements WagerRepository for PostgreSQL
type PostgresWagerRepository struct {
	db *database.DB
}

// NewPostgresWagerRepository creates a new wager repository
func NewPostgresWagerRepository(db *database.DB) WagerRepository {
	return &PostgresWagerRepository{db: db}
}

const wagerColumns = `id, event_id, event_key, driver, bet_kind, bet_position, odds, stake,
	predicted_probability, reasoning, bookmaker, status, actual_result, profit_loss, placed_at, settled_at`

// Create inserts a new wager
func (r *PostgresWagerRepository) Create(ctx context.Context, wager *models.Wager) error {
	query := `
		INSERT INTO wagers (` + wagerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		wager.ID, wager.EventID, wager.EventKey, wager.Driver, wager.Type.Kind, wager.Type.Position,
		wager.Odds, wager.Stake, wager.PredictedProbability, wager.Reasoning, wager.Bookmaker,
		wager.Status, wager.ActualResult, wager.ProfitLoss, wager.PlacedAt, wager.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create wager: %w", err)
	}

	return nil
}

// GetByID retrieves a wager by ID
func (r *PostgresWagerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`

	wager := &models.Wager{}
	err := scanWager(r.db.GetPool().QueryRow(ctx, query, id), wager)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager: %w", err)
	}

	return wager, nil
}

// PendingByEventKey retrieves all unsettled wagers on an event
func (r *PostgresWagerRepository) PendingByEventKey(ctx context.Context, eventKey string) ([]models.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE event_key = $1 AND status = $2
		ORDER BY placed_at
	`
	return r.queryWagers(ctx, query, eventKey, models.WagerStatusPending)
}

// Terminal retrieves all settled wagers
func (r *PostgresWagerRepository) Terminal(ctx context.Context) ([]models.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE status IN ($1, $2, $3)
		ORDER BY settled_at
	`
	return r.queryWagers(ctx, query, models.WagerStatusWon, models.WagerStatusLost, models.WagerStatusVoid)
}

// UpdateSettlement persists the settlement fields of a wager
func (r *PostgresWagerRepository) UpdateSettlement(ctx context.Context, wager *models.Wager) error {
	query := `
		UPDATE wagers
		SET status = $1, actual_result = $2, profit_loss = $3, settled_at = $4
		WHERE id = $5
	`

	tag, err := r.db.GetPool().Exec(ctx, query,
		wager.Status, wager.ActualResult, wager.ProfitLoss, wager.SettledAt, wager.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update wager settlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *PostgresWagerRepository) queryWagers(ctx context.Context, query string, args ...any) ([]models.Wager, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query wagers: %w", err)
	}
	defer rows.Close()

	var wagers []models.Wager
	for rows.Next() {
		wager := models.Wager{}
		if err := scanWager(rows, &wager); err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, wager)
	}

	return wagers, rows.Err()
}

func scanWager(row pgx.Row, wager *models.Wager) error {
	return row.Scan(
		&wager.ID, &wager.EventID, &wager.EventKey, &wager.Driver, &wager.Type.Kind, &wager.Type.Position,
		&wager.Odds, &wager.Stake, &wager.PredictedProbability, &wager.Reasoning, &wager.Bookmaker,
		&wager.Status, &wager.ActualResult, &wager.ProfitLoss, &wager.PlacedAt, &wager.SettledAt,
	)
}
