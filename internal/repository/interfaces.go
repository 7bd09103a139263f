// Package repository implements PostgreSQL persistence for the reconciler.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/gridline/internal/betting"
	"github.com/yourusername/gridline/internal/models"
)

// EventRepository defines operations for race events
type EventRepository interface {
	Upsert(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	GetBySeason(ctx context.Context, season int) ([]models.Event, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.EventStatus) error
}

// PredictionRepository defines operations for model predictions
type PredictionRepository interface {
	Create(ctx context.Context, prediction *models.Prediction) error
	GetByEventID(ctx context.Context, eventID uuid.UUID) ([]models.Prediction, error)
}

// ResultRepository defines operations for final classifications
type ResultRepository interface {
	CreateBatch(ctx context.Context, results []models.Result) error
	GetByEventID(ctx context.Context, eventID uuid.UUID) ([]models.Result, error)
}

// WagerRepository defines operations for wagers
type WagerRepository interface {
	Create(ctx context.Context, wager *models.Wager) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Wager, error)
	PendingByEventKey(ctx context.Context, eventKey string) ([]models.Wager, error)
	UpdateSettlement(ctx context.Context, wager *models.Wager) error
	Terminal(ctx context.Context) ([]models.Wager, error)
}

// AccuracyRepository defines append-only operations for analysis records
type AccuracyRepository interface {
	Create(ctx context.Context, record *models.AccuracyRecord) error
	GetRecent(ctx context.Context, limit int) ([]models.AccuracyRecord, error)
}

// InsightRepository defines append-only operations for insights
type InsightRepository interface {
	CreateBatch(ctx context.Context, insights []models.Insight) error
	GetByEventID(ctx context.Context, eventID uuid.UUID) ([]models.Insight, error)
}

// ProcessedEventRepository is the dedup store behind the processing ledger
type ProcessedEventRepository interface {
	MarkProcessed(ctx context.Context, key string) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
}

// FeedbackRepository stores settled-wager outcomes for model tuning
type FeedbackRepository interface {
	Append(ctx context.Context, row *betting.FeedbackRow) error
}
