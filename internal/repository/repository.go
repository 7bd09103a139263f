package repository

import (
	"fmt"

	"github.com/yourusername/gridline/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Event          EventRepository
	Prediction     PredictionRepository
	Result         ResultRepository
	Wager          WagerRepository
	Accuracy       AccuracyRepository
	Insight        InsightRepository
	ProcessedEvent ProcessedEventRepository
	Feedback       FeedbackRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Event:          NewPostgresEventRepository(db),
		Prediction:     NewPostgresPredictionRepository(db),
		Result:         NewPostgresResultRepository(db),
		Wager:          NewPostgresWagerRepository(db),
		Accuracy:       NewPostgresAccuracyRepository(db),
		Insight:        NewPostgresInsightRepository(db),
		ProcessedEvent: NewPostgresProcessedEventRepository(db),
		Feedback:       NewPostgresFeedbackRepository(db),
	}, nil
}
