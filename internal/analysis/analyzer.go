// Package analysis scores prediction accuracy and probability calibration
// against final race classifications.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridline/internal/identity"
	"github.com/yourusername/gridline/internal/models"
)

// topNLevels are the cutoffs scored for precision and recall
var topNLevels = []int{1, 3, 5, 10}

// Weights controls the blend of the overall accuracy score
type Weights struct {
	Exact         float64 `mapstructure:"exact"`
	Within3       float64 `mapstructure:"within3"`
	Top3          float64 `mapstructure:"top3"`
	Calibration   float64 `mapstructure:"calibration"`
	Top3Precision float64 `mapstructure:"top3_precision"`
}

// Config controls analyzer behaviour
type Config struct {
	BucketCount   int     `mapstructure:"bucket_count"`
	BiasThreshold float64 `mapstructure:"bias_threshold"`
	Weights       Weights `mapstructure:"weights"`
}

// DefaultConfig returns the standard scoring configuration
func DefaultConfig() Config {
	return Config{
		BucketCount:   10,
		BiasThreshold: 0.70,
		Weights: Weights{
			Exact:         0.30,
			Within3:       0.20,
			Top3:          0.20,
			Calibration:   0.15,
			Top3Precision: 0.15,
		},
	}
}

// Analyzer computes per-race accuracy records
type Analyzer struct {
	cfg    Config
	logger *logrus.Logger
}

// NewAnalyzer creates an analyzer with the given scoring configuration
func NewAnalyzer(cfg Config, logger *logrus.Logger) *Analyzer {
	if cfg.BucketCount <= 0 {
		cfg.BucketCount = 10
	}
	return &Analyzer{cfg: cfg, logger: logger}
}

// matchedRow pairs one prediction with the driver's actual classification
type matchedRow struct {
	driver            string
	predictedPosition int
	probability       float64
	actualPosition    int
}

// Analyze joins predictions to results on canonical driver identity and
// scores the race. Unmatched rows on either side are counted and
// excluded; they never fail the analysis.
func (a *Analyzer) Analyze(event *models.Event, predictions []models.Prediction, results []models.Result) *models.AccuracyRecord {
	matched, unmatched := a.join(predictions, results)

	record := &models.AccuracyRecord{
		ID:             uuid.New(),
		EventID:        event.ID,
		EventName:      event.Name,
		AnalyzedAt:     time.Now().UTC(),
		MatchedDrivers: len(matched),
		UnmatchedRows:  unmatched,
		TopNPrecision:  make(map[int]float64, len(topNLevels)),
		TopNRecall:     make(map[int]float64, len(topNLevels)),
	}

	if len(matched) == 0 {
		a.logger.WithField("event", event.Name).Warn("No predictions matched the classification")
		record.Calibration = models.Calibration{AverageError: 1.0, MaxError: 1.0, Score: 0}
		return record
	}

	record.Position = a.positionAccuracy(matched)
	record.Calibration = a.calibration(matched)
	a.topNSets(matched, record)
	record.Errors = a.errorPatterns(matched)
	record.OverallScore = a.overallScore(record)

	a.logger.WithFields(logrus.Fields{
		"event":     event.Name,
		"matched":   len(matched),
		"unmatched": unmatched,
		"exact":     record.Position.ExactAccuracy,
		"overall":   record.OverallScore,
	}).Info("Analyzed race predictions")

	return record
}

// join pairs predictions with classified results by canonical identity.
// Non-finishers carry no classified position and are treated as
// unmatched for position scoring.
func (a *Analyzer) join(predictions []models.Prediction, results []models.Result) ([]matchedRow, int) {
	actual := make(map[string]models.Result, len(results))
	for _, result := range results {
		if result.DidNotFinish {
			continue
		}
		actual[identity.Normalize(result.Driver)] = result
	}

	matched := make([]matchedRow, 0, len(predictions))
	claimed := make(map[string]bool, len(predictions))
	unmatched := 0
	for _, pred := range predictions {
		driver := identity.Normalize(pred.Driver)
		result, ok := actual[driver]
		if !ok {
			unmatched++
			continue
		}
		claimed[driver] = true
		matched = append(matched, matchedRow{
			driver:            driver,
			predictedPosition: pred.PredictedPosition,
			probability:       pred.Probability,
			actualPosition:    result.FinalPosition,
		})
	}
	for driver := range actual {
		if !claimed[driver] {
			unmatched++
		}
	}
	return matched, unmatched
}

func (a *Analyzer) positionAccuracy(matched []matchedRow) models.PositionAccuracy {
	n := float64(len(matched))
	var exact, within1, within2, within3 float64
	var top3Hits, top3Total, top10Hits, top10Total float64
	errors := make([]float64, 0, len(matched))

	for _, row := range matched {
		diff := math.Abs(float64(row.predictedPosition - row.actualPosition))
		errors = append(errors, diff)
		if diff == 0 {
			exact++
		}
		if diff <= 1 {
			within1++
		}
		if diff <= 2 {
			within2++
		}
		if diff <= 3 {
			within3++
		}
		if row.predictedPosition <= 3 {
			top3Total++
			if row.actualPosition <= 3 {
				top3Hits++
			}
		}
		if row.predictedPosition <= 10 {
			top10Total++
			if row.actualPosition <= 10 {
				top10Hits++
			}
		}
	}

	return models.PositionAccuracy{
		ExactAccuracy:       exact / n,
		Within1Accuracy:     within1 / n,
		Within2Accuracy:     within2 / n,
		Within3Accuracy:     within3 / n,
		Top3Accuracy:        ratio(top3Hits, top3Total),
		Top10Accuracy:       ratio(top10Hits, top10Total),
		MeanPositionError:   mean(errors),
		MedianPositionError: median(errors),
	}
}

// calibration bins predicted probabilities into equal-width buckets and
// compares each bucket's mean probability to its exact-hit rate.
func (a *Analyzer) calibration(matched []matchedRow) models.Calibration {
	type bucketAcc struct {
		count     int
		probSum   float64
		exactHits int
	}
	accs := make([]bucketAcc, a.cfg.BucketCount)

	for _, row := range matched {
		idx := int(row.probability * float64(a.cfg.BucketCount))
		if idx >= a.cfg.BucketCount {
			idx = a.cfg.BucketCount - 1
		}
		if idx < 0 {
			idx = 0
		}
		accs[idx].count++
		accs[idx].probSum += row.probability
		if row.predictedPosition == row.actualPosition {
			accs[idx].exactHits++
		}
	}

	cal := models.Calibration{}
	nonEmpty := 0
	for i, acc := range accs {
		if acc.count == 0 {
			continue
		}
		nonEmpty++
		avgProb := acc.probSum / float64(acc.count)
		hitRate := float64(acc.exactHits) / float64(acc.count)
		bucketErr := math.Abs(avgProb - hitRate)

		cal.Buckets = append(cal.Buckets, models.CalibrationBucket{
			Bucket:            i,
			Count:             acc.count,
			AvgProbability:    avgProb,
			ActualSuccessRate: hitRate,
			CalibrationError:  bucketErr,
		})
		cal.AverageError += bucketErr
		if bucketErr > cal.MaxError {
			cal.MaxError = bucketErr
		}
	}

	if nonEmpty == 0 {
		cal.AverageError = 1.0
		cal.MaxError = 1.0
		return cal
	}
	cal.AverageError /= float64(nonEmpty)
	cal.Score = 1 - cal.AverageError
	return cal
}

// topNSets scores the overlap between predicted and actual top-N cohorts
func (a *Analyzer) topNSets(matched []matchedRow, record *models.AccuracyRecord) {
	for _, n := range topNLevels {
		predicted := make(map[string]bool)
		actual := make(map[string]bool)
		for _, row := range matched {
			if row.predictedPosition <= n {
				predicted[row.driver] = true
			}
			if row.actualPosition <= n {
				actual[row.driver] = true
			}
		}

		overlap := 0.0
		for driver := range predicted {
			if actual[driver] {
				overlap++
			}
		}

		record.TopNPrecision[n] = ratio(overlap, float64(len(predicted)))
		record.TopNRecall[n] = ratio(overlap, float64(len(actual)))
	}
}

func (a *Analyzer) errorPatterns(matched []matchedRow) models.ErrorPatterns {
	var over, under int
	var overSum, underSum float64
	misses := make([]models.Miss, 0, len(matched))

	for _, row := range matched {
		diff := row.actualPosition - row.predictedPosition
		if diff > 0 {
			// Predicted a better finish than the driver achieved.
			over++
			overSum += float64(diff)
		} else if diff < 0 {
			under++
			underSum += float64(-diff)
		}
		misses = append(misses, models.Miss{
			Driver:            row.driver,
			PredictedPosition: row.predictedPosition,
			ActualPosition:    row.actualPosition,
			PositionError:     abs(diff),
		})
	}

	sort.Slice(misses, func(i, j int) bool {
		return misses[i].PositionError > misses[j].PositionError
	})
	if len(misses) > 5 {
		misses = misses[:5]
	}

	n := float64(len(matched))
	return models.ErrorPatterns{
		WorstPredictions:        misses,
		OverestimationRate:      float64(over) / n,
		UnderestimationRate:     float64(under) / n,
		AvgOverestimationError:  ratio(overSum, float64(over)),
		AvgUnderestimationError: ratio(underSum, float64(under)),
	}
}

func (a *Analyzer) overallScore(record *models.AccuracyRecord) float64 {
	w := a.cfg.Weights
	score := w.Exact*record.Position.ExactAccuracy +
		w.Within3*record.Position.Within3Accuracy +
		w.Top3*record.Position.Top3Accuracy +
		w.Calibration*record.Calibration.Score +
		w.Top3Precision*record.TopNPrecision[3]
	return math.Max(0, math.Min(1, score))
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
