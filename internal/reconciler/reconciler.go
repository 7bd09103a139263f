// Package reconciler orchestrates the polling loop that turns completed
// races into recorded results, accuracy records, and settled wagers.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridline/internal/analysis"
	"github.com/yourusername/gridline/internal/betting"
	"github.com/yourusername/gridline/internal/ledger"
	"github.com/yourusername/gridline/internal/metrics"
	"github.com/yourusername/gridline/internal/models"
	"github.com/yourusername/gridline/internal/repository"
	"github.com/yourusername/gridline/internal/resultsource"
	"github.com/yourusername/gridline/internal/schedule"
)

// ScheduleTracker is the calendar surface the reconciler drives
type ScheduleTracker interface {
	Refresh(ctx context.Context) error
	DueEvents(ctx context.Context, now time.Time) ([]models.Event, error)
}

// ResultFetcher resolves an event to its final classification
type ResultFetcher interface {
	Fetch(ctx context.Context, event *models.Event) ([]models.Result, string, error)
}

// PollObserver is notified when a full pass completes
type PollObserver interface {
	RecordPoll()
}

// Reconciler runs the periodic reconciliation loop. It is written for a
// single worker; the processing ledger's atomic mark is the only
// coordination point should more ever run.
type Reconciler struct {
	tracker     ScheduleTracker
	chain       ResultFetcher
	events      repository.EventRepository
	predictions repository.PredictionRepository
	results     repository.ResultRepository
	accuracy    repository.AccuracyRepository
	insights    repository.InsightRepository
	processing  *ledger.ProcessingLedger
	bets        *betting.Ledger
	analyzer    *analysis.Analyzer
	reporter    *analysis.Reporter
	observer    PollObserver

	interval time.Duration
	cron     *cron.Cron
	logger   *logrus.Logger

	mu        sync.Mutex
	isRunning bool
}

// Deps bundles the reconciler's collaborators
type Deps struct {
	Tracker     ScheduleTracker
	Chain       ResultFetcher
	Events      repository.EventRepository
	Predictions repository.PredictionRepository
	Results     repository.ResultRepository
	Accuracy    repository.AccuracyRepository
	Insights    repository.InsightRepository
	Processing  *ledger.ProcessingLedger
	Bets        *betting.Ledger
	Analyzer    *analysis.Analyzer
	Reporter    *analysis.Reporter
	Observer    PollObserver // optional
}

// New creates a reconciler polling at the given interval
func New(deps Deps, interval time.Duration, logger *logrus.Logger) *Reconciler {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Reconciler{
		tracker:     deps.Tracker,
		chain:       deps.Chain,
		events:      deps.Events,
		predictions: deps.Predictions,
		results:     deps.Results,
		accuracy:    deps.Accuracy,
		insights:    deps.Insights,
		processing:  deps.Processing,
		bets:        deps.Bets,
		analyzer:    deps.Analyzer,
		reporter:    deps.Reporter,
		observer:    deps.Observer,
		interval:    interval,
		cron:        cron.New(cron.WithLocation(time.UTC)),
		logger:      logger,
	}
}

// Start begins the polling loop. The first pass runs immediately; later
// passes follow the configured interval.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return fmt.Errorf("reconciler is already running")
	}

	_, err := r.cron.AddFunc(fmt.Sprintf("@every %s", r.interval), func() {
		r.RunPass(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule poll job: %w", err)
	}

	r.cron.Start()
	r.isRunning = true
	r.logger.WithField("interval", r.interval.String()).Info("Reconciler started")

	go r.RunPass(ctx)
	return nil
}

// Stop halts the polling loop, waiting for an in-flight pass to finish
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRunning {
		return
	}

	stopCtx := r.cron.Stop()
	<-stopCtx.Done()
	r.isRunning = false
	r.logger.Info("Reconciler stopped")
}

// RunPass executes one reconciliation pass. Per-event failures are
// logged and isolated so one bad event never blocks the rest.
func (r *Reconciler) RunPass(ctx context.Context) {
	start := time.Now()
	metrics.PollCyclesTotal.Inc()

	// Refresh failure is not fatal: due events come from the store, so
	// races already on the books still get reconciled during an outage.
	if err := r.tracker.Refresh(ctx); err != nil {
		r.logger.WithError(err).Error("Schedule refresh failed, continuing with stored schedule")
	}

	due, err := r.tracker.DueEvents(ctx, time.Now().UTC())
	if err != nil {
		r.logger.WithError(err).Error("Failed to determine due events")
		return
	}

	for i := range due {
		if ctx.Err() != nil {
			r.logger.Info("Pass interrupted by shutdown")
			return
		}
		event := &due[i]
		if err := r.processEvent(ctx, event); err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"event":  event.Name,
				"season": event.Season,
				"round":  event.Round,
			}).Error("Failed to reconcile event")
		}
	}

	if r.observer != nil {
		r.observer.RecordPoll()
	}
	metrics.PollCycleDuration.Observe(time.Since(start).Seconds())
}

func (r *Reconciler) processEvent(ctx context.Context, event *models.Event) error {
	key := event.Key()

	processed, err := r.processing.IsProcessed(ctx, key)
	if err != nil {
		return fmt.Errorf("ledger lookup failed: %w", err)
	}
	if processed {
		metrics.EventsSkippedTotal.WithLabelValues("already_processed").Inc()
		return nil
	}

	if event.IsCancelled() {
		return r.reconcileCancelled(ctx, event, key)
	}

	results, source, err := r.chain.Fetch(ctx, event)
	if errors.Is(err, resultsource.ErrResultsNotAvailable) {
		r.logger.WithField("event", event.Name).Debug("Results not yet available, retrying next pass")
		metrics.EventsSkippedTotal.WithLabelValues("results_unavailable").Inc()
		return nil
	}
	if err != nil {
		return fmt.Errorf("result fetch failed: %w", err)
	}

	if err := r.results.CreateBatch(ctx, results); err != nil {
		return fmt.Errorf("failed to persist results: %w", err)
	}

	if err := r.analyzeEvent(ctx, event, results); err != nil {
		return err
	}

	if err := r.bets.SettleRace(ctx, event, results); err != nil {
		return fmt.Errorf("settlement failed: %w", err)
	}

	if err := r.events.UpdateStatus(ctx, event.ID, models.EventStatusCompleted); err != nil {
		return fmt.Errorf("failed to mark event completed: %w", err)
	}

	if _, err := r.processing.MarkProcessed(ctx, key); err != nil {
		return fmt.Errorf("failed to record processing: %w", err)
	}

	metrics.EventsProcessedTotal.Inc()
	r.logger.WithFields(logrus.Fields{
		"event":  event.Name,
		"source": source,
		"rows":   len(results),
	}).Info("Event reconciled")
	return nil
}

// reconcileCancelled voids the event's wagers; there is nothing to fetch
// or analyze for a race that never ran.
func (r *Reconciler) reconcileCancelled(ctx context.Context, event *models.Event, key string) error {
	if err := r.bets.SettleRace(ctx, event, nil); err != nil {
		return fmt.Errorf("failed to void wagers: %w", err)
	}
	if _, err := r.processing.MarkProcessed(ctx, key); err != nil {
		return fmt.Errorf("failed to record processing: %w", err)
	}
	metrics.EventsSkippedTotal.WithLabelValues("cancelled").Inc()
	r.logger.WithField("event", event.Name).Info("Cancelled event reconciled, wagers voided")
	return nil
}

func (r *Reconciler) analyzeEvent(ctx context.Context, event *models.Event, results []models.Result) error {
	predictions, err := r.predictions.GetByEventID(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to load predictions: %w", err)
	}
	if len(predictions) == 0 {
		r.logger.WithField("event", event.Name).Info("No predictions recorded, skipping analysis")
		return nil
	}

	record := r.analyzer.Analyze(event, predictions, results)
	if err := r.accuracy.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to persist accuracy record: %w", err)
	}
	metrics.LastAccuracyScore.Set(record.OverallScore)

	insights := r.analyzer.GenerateInsights(record)
	if len(insights) > 0 {
		if err := r.insights.CreateBatch(ctx, insights); err != nil {
			return fmt.Errorf("failed to persist insights: %w", err)
		}
	}

	if r.reporter != nil {
		if err := r.reporter.Write([]models.AccuracyRecord{*record}, insights); err != nil {
			r.logger.WithError(err).Warn("Failed to append accuracy report")
		}
	}
	return nil
}

var _ ScheduleTracker = (*schedule.Tracker)(nil)
var _ ResultFetcher = (*resultsource.Chain)(nil)
