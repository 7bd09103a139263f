package models

import (
	"time"

	"github.com/google/uuid"
)

// Prediction represents a model's forecast for one driver in one race.
// Predictions are produced upstream and are immutable once written.
type Prediction struct {
	ID                uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	EventID           uuid.UUID `db:"event_id" json:"event_id" validate:"required,uuid4"`
	Driver            string    `db:"driver" json:"driver" validate:"required"`
	PredictedPosition int       `db:"predicted_position" json:"predicted_position" validate:"required,gte=1"`
	Probability       float64   `db:"probability" json:"probability" validate:"gte=0,lte=1"`
	ModelVersion      string    `db:"model_version" json:"model_version"`
	PredictedAt       time.Time `db:"predicted_at" json:"predicted_at" validate:"required"`
}

// MeetsThreshold checks whether the predicted probability clears the
// given confidence floor.
func (p *Prediction) MeetsThreshold(threshold float64) bool {
	return p.Probability >= threshold
}
