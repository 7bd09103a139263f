// Package betting tracks placed wagers and settles them against final
// race classifications.
package betting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridline/internal/identity"
	"github.com/yourusername/gridline/internal/metrics"
	"github.com/yourusername/gridline/internal/models"
)

// WagerStore persists wagers
type WagerStore interface {
	Create(ctx context.Context, wager *models.Wager) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Wager, error)
	PendingByEventKey(ctx context.Context, eventKey string) ([]models.Wager, error)
	UpdateSettlement(ctx context.Context, wager *models.Wager) error
	Terminal(ctx context.Context) ([]models.Wager, error)
}

// FeedbackStore receives settled-wager outcome rows for model tuning.
// Implementations must dedup by wager ID so re-settlement attempts
// never produce duplicate training rows.
type FeedbackStore interface {
	Append(ctx context.Context, row *FeedbackRow) error
}

// FeedbackRow is one settled-wager outcome exported for model tuning
type FeedbackRow struct {
	WagerID              uuid.UUID `db:"wager_id" json:"wager_id"`
	EventKey             string    `db:"event_key" json:"event_key"`
	Driver               string    `db:"driver" json:"driver"`
	BetType              string    `db:"bet_type" json:"bet_type"`
	PredictedProbability float64   `db:"predicted_probability" json:"predicted_probability"`
	Won                  bool      `db:"won" json:"won"`
	ProfitLoss           float64   `db:"profit_loss" json:"profit_loss"`
	SettledAt            time.Time `db:"settled_at" json:"settled_at"`
}

// Ledger is the wager ledger and settlement engine
type Ledger struct {
	wagers   WagerStore
	feedback FeedbackStore
	logger   *logrus.Logger
}

// NewLedger creates a wager ledger. The feedback store may be nil when
// model-tuning export is disabled.
func NewLedger(wagers WagerStore, feedback FeedbackStore, logger *logrus.Logger) *Ledger {
	return &Ledger{wagers: wagers, feedback: feedback, logger: logger}
}

// Place records a new pending wager
func (l *Ledger) Place(ctx context.Context, wager *models.Wager) error {
	if wager.Stake <= 0 {
		return fmt.Errorf("stake must be positive, got %v", wager.Stake)
	}
	if wager.Odds <= 1 {
		return fmt.Errorf("odds must exceed 1.0, got %v", wager.Odds)
	}

	if wager.ID == uuid.Nil {
		wager.ID = uuid.New()
	}
	wager.Driver = identity.Normalize(wager.Driver)
	wager.Status = models.WagerStatusPending
	if wager.PlacedAt.IsZero() {
		wager.PlacedAt = time.Now().UTC()
	}

	if err := l.wagers.Create(ctx, wager); err != nil {
		return fmt.Errorf("failed to persist wager: %w", err)
	}

	metrics.RecordWagerPlaced()
	l.logger.WithFields(logrus.Fields{
		"wager_id": wager.ID,
		"event":    wager.EventKey,
		"driver":   wager.Driver,
		"bet_type": wager.Type.String(),
		"odds":     wager.Odds,
		"stake":    wager.Stake,
	}).Info("Wager placed")
	return nil
}

// Settle resolves a pending wager against the driver's final
// classification. Settling an already-terminal wager is a no-op; a
// conflicting outcome is logged as a double-dispatch signal.
func (l *Ledger) Settle(ctx context.Context, wager *models.Wager, finalPosition int, didNotFinish bool) error {
	won := wager.Type.Wins(finalPosition, didNotFinish)
	status := models.WagerStatusLost
	if won {
		status = models.WagerStatusWon
	}
	return l.finalize(ctx, wager, status, classification(finalPosition, didNotFinish))
}

// Void settles a wager at zero profit, returning the stake. Used when
// the event is cancelled.
func (l *Ledger) Void(ctx context.Context, wager *models.Wager) error {
	return l.finalize(ctx, wager, models.WagerStatusVoid, "cancelled")
}

func (l *Ledger) finalize(ctx context.Context, wager *models.Wager, status models.WagerStatus, actual string) error {
	if wager.IsSettled() {
		if wager.Status != status {
			l.logger.WithFields(logrus.Fields{
				"wager_id": wager.ID,
				"recorded": wager.Status,
				"incoming": status,
			}).Warn("Conflicting settlement for terminal wager, keeping recorded outcome")
		}
		return nil
	}

	var profit float64
	switch status {
	case models.WagerStatusWon:
		profit = wager.Stake * (wager.Odds - 1)
	case models.WagerStatusLost:
		profit = -wager.Stake
	case models.WagerStatusVoid:
		profit = 0
	default:
		return fmt.Errorf("cannot settle wager to non-terminal status %q", status)
	}

	now := time.Now().UTC()
	wager.Status = status
	wager.ActualResult = &actual
	wager.ProfitLoss = &profit
	wager.SettledAt = &now

	if err := l.wagers.UpdateSettlement(ctx, wager); err != nil {
		return fmt.Errorf("failed to persist settlement: %w", err)
	}

	metrics.RecordWagerSettled(string(status))
	metrics.CumulativeProfit.Add(profit)
	l.logger.WithFields(logrus.Fields{
		"wager_id": wager.ID,
		"event":    wager.EventKey,
		"driver":   wager.Driver,
		"status":   status,
		"actual":   actual,
		"profit":   profit,
	}).Info("Wager settled")

	l.exportFeedback(ctx, wager)
	return nil
}

// SettleRace settles every pending wager on the event. Wagers whose
// driver does not appear in the classification are left pending and
// logged; they settle on a later pass if the classification grows.
func (l *Ledger) SettleRace(ctx context.Context, event *models.Event, results []models.Result) error {
	pending, err := l.wagers.PendingByEventKey(ctx, event.Key())
	if err != nil {
		return fmt.Errorf("failed to load pending wagers: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	if event.IsCancelled() {
		for i := range pending {
			if err := l.Void(ctx, &pending[i]); err != nil {
				return err
			}
		}
		return nil
	}

	byDriver := make(map[string]models.Result, len(results))
	for _, result := range results {
		byDriver[identity.Normalize(result.Driver)] = result
	}

	for i := range pending {
		wager := &pending[i]
		result, ok := byDriver[identity.Normalize(wager.Driver)]
		if !ok {
			l.logger.WithFields(logrus.Fields{
				"wager_id": wager.ID,
				"driver":   wager.Driver,
				"event":    event.Name,
			}).Warn("Wager driver missing from classification, leaving pending")
			continue
		}
		if err := l.Settle(ctx, wager, result.FinalPosition, result.DidNotFinish); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) exportFeedback(ctx context.Context, wager *models.Wager) {
	if l.feedback == nil {
		return
	}

	row := &FeedbackRow{
		WagerID:              wager.ID,
		EventKey:             wager.EventKey,
		Driver:               wager.Driver,
		BetType:              wager.Type.String(),
		PredictedProbability: wager.PredictedProbability,
		Won:                  wager.Status == models.WagerStatusWon,
		ProfitLoss:           wager.Profit(),
		SettledAt:            *wager.SettledAt,
	}
	if err := l.feedback.Append(ctx, row); err != nil {
		l.logger.WithError(err).WithField("wager_id", wager.ID).
			Warn("Failed to export settlement feedback")
	}
}

func classification(finalPosition int, didNotFinish bool) string {
	if didNotFinish {
		return "DNF"
	}
	return fmt.Sprintf("P%d", finalPosition)
}
