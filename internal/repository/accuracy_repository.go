package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yourusername/gridline/internal/database"
	"github.com/yourusername/gridline/internal/models"
)

// PostgresAccuracyRepository implements AccuracyRepository for PostgreSQL.
// Records are append-only; the nested metric structures are stored as a
// JSONB detail column alongside the queryable scalar columns.
type PostgresAccuracyRepository struct {
	db *database.DB
}

// NewPostgresAccuracyRepository creates a new accuracy repository
func NewPostgresAccuracyRepository(db *database.DB) AccuracyRepository {
	return &PostgresAccuracyRepository{db: db}
}

// accuracyDetail is the JSONB payload of one record
type accuracyDetail struct {
	Position      models.PositionAccuracy `json:"position_accuracy"`
	Calibration   models.Calibration      `json:"probability_calibration"`
	TopNPrecision map[int]float64         `json:"top_n_precision"`
	TopNRecall    map[int]float64         `json:"top_n_recall"`
	Errors        models.ErrorPatterns    `json:"error_patterns"`
}

// Create appends an analysis record
func (r *PostgresAccuracyRepository) Create(ctx context.Context, record *models.AccuracyRecord) error {
	detail, err := json.Marshal(accuracyDetail{
		Position:      record.Position,
		Calibration:   record.Calibration,
		TopNPrecision: record.TopNPrecision,
		TopNRecall:    record.TopNRecall,
		Errors:        record.Errors,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal accuracy detail: %w", err)
	}

	query := `
		INSERT INTO accuracy_records (id, event_id, event_name, analyzed_at, matched_drivers, unmatched_rows, overall_score, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.GetPool().Exec(ctx, query,
		record.ID, record.EventID, record.EventName, record.AnalyzedAt,
		record.MatchedDrivers, record.UnmatchedRows, record.OverallScore, detail,
	)
	if err != nil {
		return fmt.Errorf("failed to create accuracy record: %w", err)
	}

	return nil
}

// GetRecent retrieves the most recently analyzed records
func (r *PostgresAccuracyRepository) GetRecent(ctx context.Context, limit int) ([]models.AccuracyRecord, error) {
	query := `
		SELECT id, event_id, event_name, analyzed_at, matched_drivers, unmatched_rows, overall_score, detail
		FROM accuracy_records
		ORDER BY analyzed_at DESC
		LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query accuracy records: %w", err)
	}
	defer rows.Close()

	var records []models.AccuracyRecord
	for rows.Next() {
		record := models.AccuracyRecord{}
		var detail []byte
		err := rows.Scan(
			&record.ID, &record.EventID, &record.EventName, &record.AnalyzedAt,
			&record.MatchedDrivers, &record.UnmatchedRows, &record.OverallScore, &detail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan accuracy record: %w", err)
		}

		var d accuracyDetail
		if err := json.Unmarshal(detail, &d); err != nil {
			return nil, fmt.Errorf("failed to unmarshal accuracy detail: %w", err)
		}
		record.Position = d.Position
		record.Calibration = d.Calibration
		record.TopNPrecision = d.TopNPrecision
		record.TopNRecall = d.TopNRecall
		record.Errors = d.Errors

		records = append(records, record)
	}

	return records, rows.Err()
}
