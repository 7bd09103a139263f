package analysis

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/gridline/internal/models"
)

// Insight rule thresholds. The bias threshold lives in Config instead
// since it depends on the model's ranking style.
const (
	lowExactAccuracy   = 0.10
	highCalibrationErr = 0.20
	strongOverallScore = 0.80
)

// GenerateInsights derives prioritized recommendations from one analyzed
// race. An empty slice means nothing actionable was found.
func (a *Analyzer) GenerateInsights(record *models.AccuracyRecord) []models.Insight {
	var insights []models.Insight
	now := time.Now().UTC()

	add := func(insightType, message string, priority models.InsightPriority, action string) {
		insights = append(insights, models.Insight{
			ID:              uuid.New(),
			EventID:         record.EventID,
			EventName:       record.EventName,
			Type:            insightType,
			Message:         message,
			Priority:        priority,
			SuggestedAction: action,
			CreatedAt:       now,
		})
	}

	if record.MatchedDrivers == 0 {
		return insights
	}

	if record.Position.ExactAccuracy < lowExactAccuracy {
		add("accuracy",
			fmt.Sprintf("Exact position accuracy is %.1f%%, below the %.0f%% floor",
				record.Position.ExactAccuracy*100, lowExactAccuracy*100),
			models.InsightPriorityHigh, "model_retraining")
	}

	if record.Calibration.AverageError > highCalibrationErr {
		add("calibration",
			fmt.Sprintf("Average calibration error is %.2f; stated probabilities diverge from observed hit rates",
				record.Calibration.AverageError),
			models.InsightPriorityMedium, "probability_recalibration")
	}

	if record.Errors.OverestimationRate > a.cfg.BiasThreshold {
		add("bias",
			fmt.Sprintf("Model overestimates finishing positions in %.0f%% of predictions",
				record.Errors.OverestimationRate*100),
			models.InsightPriorityMedium, "bias_correction")
	} else if record.Errors.UnderestimationRate > a.cfg.BiasThreshold {
		add("bias",
			fmt.Sprintf("Model underestimates finishing positions in %.0f%% of predictions",
				record.Errors.UnderestimationRate*100),
			models.InsightPriorityMedium, "bias_correction")
	}

	if record.OverallScore > strongOverallScore {
		add("performance",
			fmt.Sprintf("Overall accuracy score %.2f exceeds the maintenance threshold", record.OverallScore),
			models.InsightPriorityInfo, "maintain_current_approach")
	}

	return insights
}
