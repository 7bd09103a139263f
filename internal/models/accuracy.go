package models

import (
	"time"

	"github.com/google/uuid"
)

// PositionAccuracy holds the position-error metrics for one analyzed race
type PositionAccuracy struct {
	ExactAccuracy       float64 `json:"exact_accuracy"`
	Within1Accuracy     float64 `json:"within_1_accuracy"`
	Within2Accuracy     float64 `json:"within_2_accuracy"`
	Within3Accuracy     float64 `json:"within_3_accuracy"`
	Top3Accuracy        float64 `json:"top3_accuracy"`
	Top10Accuracy       float64 `json:"top10_accuracy"`
	MeanPositionError   float64 `json:"mean_position_error"`
	MedianPositionError float64 `json:"median_position_error"`
}

// CalibrationBucket is one probability bin in the calibration analysis
type CalibrationBucket struct {
	Bucket            int     `json:"bucket"`
	Count             int     `json:"count"`
	AvgProbability    float64 `json:"avg_probability"`
	ActualSuccessRate float64 `json:"actual_success_rate"`
	CalibrationError  float64 `json:"calibration_error"`
}

// Calibration summarizes how well stated probabilities match observed
// success rates across buckets
type Calibration struct {
	AverageError float64             `json:"average_calibration_error"`
	MaxError     float64             `json:"max_calibration_error"`
	Score        float64             `json:"calibration_score"` // 1 - average error
	Buckets      []CalibrationBucket `json:"buckets,omitempty"`
}

// Miss records one badly missed prediction
type Miss struct {
	Driver            string `json:"driver"`
	PredictedPosition int    `json:"predicted_position"`
	ActualPosition    int    `json:"actual_position"`
	PositionError     int    `json:"position_error"`
}

// ErrorPatterns captures systematic tendencies in the prediction errors
type ErrorPatterns struct {
	WorstPredictions        []Miss  `json:"worst_predictions"`
	OverestimationRate      float64 `json:"overestimation_rate"`  // predicted better than actual
	UnderestimationRate     float64 `json:"underestimation_rate"` // predicted worse than actual
	AvgOverestimationError  float64 `json:"avg_overestimation_error"`
	AvgUnderestimationError float64 `json:"avg_underestimation_error"`
}

// AccuracyRecord is the append-only per-race analysis result
type AccuracyRecord struct {
	ID             uuid.UUID          `db:"id" json:"id"`
	EventID        uuid.UUID          `db:"event_id" json:"event_id"`
	EventName      string             `db:"event_name" json:"event_name"`
	AnalyzedAt     time.Time          `db:"analyzed_at" json:"analyzed_at"`
	MatchedDrivers int                `db:"matched_drivers" json:"matched_drivers"`
	UnmatchedRows  int                `db:"unmatched_rows" json:"unmatched_rows"`
	Position       PositionAccuracy   `db:"-" json:"position_accuracy"`
	Calibration    Calibration        `db:"-" json:"probability_calibration"`
	TopNPrecision  map[int]float64    `db:"-" json:"top_n_precision"`
	TopNRecall     map[int]float64    `db:"-" json:"top_n_recall"`
	Errors         ErrorPatterns      `db:"-" json:"error_patterns"`
	OverallScore   float64            `db:"overall_score" json:"overall_score"`
}

// InsightPriority orders insights for the operator report
type InsightPriority string

const (
	InsightPriorityHigh   InsightPriority = "high"
	InsightPriorityMedium InsightPriority = "medium"
	InsightPriorityInfo   InsightPriority = "info"
)

// Insight is a derived, prioritized recommendation tied to an analyzed race
type Insight struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	EventID         uuid.UUID       `db:"event_id" json:"event_id"`
	EventName       string          `db:"event_name" json:"event_name"`
	Type            string          `db:"type" json:"type"`
	Message         string          `db:"message" json:"message"`
	Priority        InsightPriority `db:"priority" json:"priority"`
	SuggestedAction string          `db:"suggested_action" json:"suggested_action"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}
