package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridline/internal/models"
)

// Reporter appends operator-facing accuracy reports to a text file.
// Reports are append-only so the file doubles as an analysis history.
type Reporter struct {
	path   string
	logger *logrus.Logger
}

// NewReporter creates a reporter writing to the given path
func NewReporter(path string, logger *logrus.Logger) *Reporter {
	return &Reporter{path: path, logger: logger}
}

// Write renders the records and insights as a textual report and appends
// it to the report file.
func (r *Reporter) Write(records []models.AccuracyRecord, insights []models.Insight) error {
	if len(records) == 0 {
		return nil
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open report file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(Render(records, insights)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"path":     r.path,
		"races":    len(records),
		"insights": len(insights),
	}).Info("Appended accuracy report")
	return nil
}

// Render builds the report text for the given records and insights
func Render(records []models.AccuracyRecord, insights []models.Insight) string {
	var b strings.Builder

	b.WriteString(strings.Repeat("=", 70) + "\n")
	b.WriteString("PREDICTION ACCURACY REPORT\n")
	b.WriteString("Generated: " + time.Now().UTC().Format(time.RFC3339) + "\n")
	b.WriteString(strings.Repeat("=", 70) + "\n\n")

	var overallSum, exactSum float64
	for _, rec := range records {
		overallSum += rec.OverallScore
		exactSum += rec.Position.ExactAccuracy
	}
	n := float64(len(records))
	fmt.Fprintf(&b, "SUMMARY\n")
	fmt.Fprintf(&b, "  Races analyzed:      %d\n", len(records))
	fmt.Fprintf(&b, "  Avg overall score:   %.3f\n", overallSum/n)
	fmt.Fprintf(&b, "  Avg exact accuracy:  %.1f%%\n\n", exactSum/n*100)

	b.WriteString("RACE DETAILS\n")
	for _, rec := range records {
		fmt.Fprintf(&b, "  %s (analyzed %s)\n", rec.EventName, rec.AnalyzedAt.Format("2006-01-02"))
		fmt.Fprintf(&b, "    matched %d drivers, %d unmatched rows\n", rec.MatchedDrivers, rec.UnmatchedRows)
		fmt.Fprintf(&b, "    exact %.1f%%  within-3 %.1f%%  top-3 %.1f%%\n",
			rec.Position.ExactAccuracy*100, rec.Position.Within3Accuracy*100, rec.Position.Top3Accuracy*100)
		fmt.Fprintf(&b, "    calibration score %.3f  overall %.3f\n", rec.Calibration.Score, rec.OverallScore)
		for _, miss := range rec.Errors.WorstPredictions {
			if miss.PositionError < 3 {
				continue
			}
			fmt.Fprintf(&b, "    miss: %s predicted P%d, finished P%d\n",
				miss.Driver, miss.PredictedPosition, miss.ActualPosition)
		}
	}
	b.WriteString("\n")

	if len(insights) > 0 {
		b.WriteString("INSIGHTS\n")
		for _, priority := range []models.InsightPriority{
			models.InsightPriorityHigh, models.InsightPriorityMedium, models.InsightPriorityInfo,
		} {
			for _, insight := range insights {
				if insight.Priority != priority {
					continue
				}
				fmt.Fprintf(&b, "  [%s] %s: %s\n", strings.ToUpper(string(insight.Priority)),
					insight.EventName, insight.Message)
			}
		}
		b.WriteString("\nRECOMMENDATIONS\n")
		seen := make(map[string]bool)
		for _, insight := range insights {
			if seen[insight.SuggestedAction] {
				continue
			}
			seen[insight.SuggestedAction] = true
			fmt.Fprintf(&b, "  - %s\n", insight.SuggestedAction)
		}
	}

	b.WriteString("\n")
	return b.String()
}
