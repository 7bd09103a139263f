package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gridline/internal/analysis"
	"github.com/yourusername/gridline/internal/betting"
	"github.com/yourusername/gridline/internal/ledger"
	"github.com/yourusername/gridline/internal/models"
	"github.com/yourusername/gridline/internal/resultsource"
)

// --- fakes ---

type fakeTracker struct {
	events     []models.Event
	refreshErr error
}

func (f *fakeTracker) Refresh(ctx context.Context) error { return f.refreshErr }
func (f *fakeTracker) DueEvents(ctx context.Context, now time.Time) ([]models.Event, error) {
	return f.events, nil
}

type fakeSource struct {
	name     string
	outcomes []resultsource.Outcome
	calls    int
}

func (f *fakeSource) Name() string  { return f.name }
func (f *fakeSource) Enabled() bool { return true }
func (f *fakeSource) FetchResults(ctx context.Context, event *models.Event) resultsource.Outcome {
	idx := f.calls
	if idx >= len(f.outcomes) {
		idx = len(f.outcomes) - 1
	}
	f.calls++
	return f.outcomes[idx]
}

type fakeEventRepo struct {
	statuses map[uuid.UUID]models.EventStatus
}

func (f *fakeEventRepo) Upsert(ctx context.Context, event *models.Event) error { return nil }
func (f *fakeEventRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return nil, models.ErrNotFound
}
func (f *fakeEventRepo) GetBySeason(ctx context.Context, season int) ([]models.Event, error) {
	return nil, nil
}
func (f *fakeEventRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.EventStatus) error {
	f.statuses[id] = status
	return nil
}

type fakePredictionRepo struct {
	byEvent map[uuid.UUID][]models.Prediction
}

func (f *fakePredictionRepo) Create(ctx context.Context, p *models.Prediction) error { return nil }
func (f *fakePredictionRepo) GetByEventID(ctx context.Context, eventID uuid.UUID) ([]models.Prediction, error) {
	return f.byEvent[eventID], nil
}

type fakeResultRepo struct {
	batches [][]models.Result
}

func (f *fakeResultRepo) CreateBatch(ctx context.Context, results []models.Result) error {
	f.batches = append(f.batches, results)
	return nil
}
func (f *fakeResultRepo) GetByEventID(ctx context.Context, eventID uuid.UUID) ([]models.Result, error) {
	return nil, nil
}

type fakeAccuracyRepo struct {
	records []models.AccuracyRecord
}

func (f *fakeAccuracyRepo) Create(ctx context.Context, record *models.AccuracyRecord) error {
	f.records = append(f.records, *record)
	return nil
}
func (f *fakeAccuracyRepo) GetRecent(ctx context.Context, limit int) ([]models.AccuracyRecord, error) {
	return f.records, nil
}

type fakeInsightRepo struct {
	insights []models.Insight
}

func (f *fakeInsightRepo) CreateBatch(ctx context.Context, insights []models.Insight) error {
	f.insights = append(f.insights, insights...)
	return nil
}
func (f *fakeInsightRepo) GetByEventID(ctx context.Context, eventID uuid.UUID) ([]models.Insight, error) {
	return f.insights, nil
}

type memoryWagerStore struct {
	wagers map[uuid.UUID]models.Wager
}

func (s *memoryWagerStore) Create(ctx context.Context, w *models.Wager) error {
	s.wagers[w.ID] = *w
	return nil
}
func (s *memoryWagerStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Wager, error) {
	w, ok := s.wagers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &w, nil
}
func (s *memoryWagerStore) PendingByEventKey(ctx context.Context, key string) ([]models.Wager, error) {
	var out []models.Wager
	for _, w := range s.wagers {
		if w.EventKey == key && w.Status == models.WagerStatusPending {
			out = append(out, w)
		}
	}
	return out, nil
}
func (s *memoryWagerStore) UpdateSettlement(ctx context.Context, w *models.Wager) error {
	s.wagers[w.ID] = *w
	return nil
}
func (s *memoryWagerStore) Terminal(ctx context.Context) ([]models.Wager, error) {
	var out []models.Wager
	for _, w := range s.wagers {
		if w.Status.IsTerminal() {
			out = append(out, w)
		}
	}
	return out, nil
}

// --- fixture ---

type fixture struct {
	reconciler *Reconciler
	tracker    *fakeTracker
	eventRepo  *fakeEventRepo
	resultRepo *fakeResultRepo
	accuracy   *fakeAccuracyRepo
	insights   *fakeInsightRepo
	wagers     *memoryWagerStore
	preds      *fakePredictionRepo
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newFixture(t *testing.T, chain ResultFetcher) *fixture {
	t.Helper()
	logger := testLogger()

	f := &fixture{
		tracker:    &fakeTracker{},
		eventRepo:  &fakeEventRepo{statuses: make(map[uuid.UUID]models.EventStatus)},
		resultRepo: &fakeResultRepo{},
		accuracy:   &fakeAccuracyRepo{},
		insights:   &fakeInsightRepo{},
		wagers:     &memoryWagerStore{wagers: make(map[uuid.UUID]models.Wager)},
		preds:      &fakePredictionRepo{byEvent: make(map[uuid.UUID][]models.Prediction)},
	}

	f.reconciler = New(Deps{
		Tracker:     f.tracker,
		Chain:       chain,
		Events:      f.eventRepo,
		Predictions: f.preds,
		Results:     f.resultRepo,
		Accuracy:    f.accuracy,
		Insights:    f.insights,
		Processing:  ledger.NewProcessingLedger(ledger.NewMemoryDedupStore(), logger),
		Bets:        betting.NewLedger(f.wagers, nil, logger),
		Analyzer:    analysis.NewAnalyzer(analysis.DefaultConfig(), logger),
	}, 30*time.Minute, logger)

	return f
}

func dueEvent() models.Event {
	return models.Event{
		ID:                  uuid.New(),
		Name:                "Monaco Grand Prix",
		Season:              2025,
		Round:               8,
		ScheduledCompletion: time.Now().UTC().Add(-6 * time.Hour),
		Status:              models.EventStatusScheduled,
	}
}

func classification(eventID uuid.UUID) []models.Result {
	return []models.Result{
		{ID: uuid.New(), EventID: eventID, Driver: "Max Verstappen", FinalPosition: 1, Source: "ergast", RecordedAt: time.Now()},
		{ID: uuid.New(), EventID: eventID, Driver: "Lando Norris", FinalPosition: 2, Source: "ergast", RecordedAt: time.Now()},
	}
}

// --- tests ---

func TestPassReconcilesEventThroughProviderFallback(t *testing.T) {
	event := dueEvent()

	first := &fakeSource{name: "f1_official", outcomes: []resultsource.Outcome{
		resultsource.Retryable("timeout", errors.New("deadline exceeded")),
	}}
	second := &fakeSource{name: "openf1", outcomes: []resultsource.Outcome{
		resultsource.Retryable("timeout", errors.New("deadline exceeded")),
	}}
	third := &fakeSource{name: "ergast", outcomes: []resultsource.Outcome{
		resultsource.Ok(classification(event.ID)),
	}}
	chain := resultsource.NewChain(testLogger(), first, second, third)

	f := newFixture(t, chain)
	f.tracker.events = []models.Event{event}
	f.preds.byEvent[event.ID] = []models.Prediction{
		{Driver: "Max Verstappen", PredictedPosition: 1, Probability: 0.6},
		{Driver: "Lando Norris", PredictedPosition: 2, Probability: 0.3},
	}

	wager := &models.Wager{
		EventID:  event.ID,
		EventKey: event.Key(),
		Driver:   "Max Verstappen",
		Type:     models.BetType{Kind: models.BetKindWin},
		Odds:     2.5,
		Stake:    10,
	}
	bets := betting.NewLedger(f.wagers, nil, testLogger())
	require.NoError(t, bets.Place(context.Background(), wager))

	f.reconciler.RunPass(context.Background())

	// Lower-priority provider served the data.
	require.Len(t, f.resultRepo.batches, 1)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 1, third.calls)

	// Accuracy recorded and wager settled.
	require.Len(t, f.accuracy.records, 1)
	assert.Equal(t, 2, f.accuracy.records[0].MatchedDrivers)

	settled, err := f.wagers.GetByID(context.Background(), wager.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WagerStatusWon, settled.Status)
	assert.Equal(t, 15.0, settled.Profit())

	assert.Equal(t, models.EventStatusCompleted, f.eventRepo.statuses[event.ID])
}

func TestPassIsIdempotentAcrossRuns(t *testing.T) {
	event := dueEvent()
	source := &fakeSource{name: "ergast", outcomes: []resultsource.Outcome{
		resultsource.Ok(classification(event.ID)),
	}}
	chain := resultsource.NewChain(testLogger(), source)

	f := newFixture(t, chain)
	f.tracker.events = []models.Event{event}
	f.preds.byEvent[event.ID] = []models.Prediction{
		{Driver: "Max Verstappen", PredictedPosition: 1, Probability: 0.6},
	}

	f.reconciler.RunPass(context.Background())
	f.reconciler.RunPass(context.Background())

	assert.Len(t, f.resultRepo.batches, 1, "second pass is a no-op")
	assert.Len(t, f.accuracy.records, 1)
	assert.Equal(t, 1, source.calls)
}

func TestPassRetriesWhenResultsNotYetAvailable(t *testing.T) {
	event := dueEvent()
	source := &fakeSource{name: "ergast", outcomes: []resultsource.Outcome{
		resultsource.Exhausted("results not published"),
		resultsource.Ok(classification(event.ID)),
	}}
	chain := resultsource.NewChain(testLogger(), source)

	f := newFixture(t, chain)
	f.tracker.events = []models.Event{event}

	f.reconciler.RunPass(context.Background())
	assert.Empty(t, f.resultRepo.batches, "nothing persisted while results are unavailable")

	f.reconciler.RunPass(context.Background())
	assert.Len(t, f.resultRepo.batches, 1, "event reconciled once results appear")
}

func TestPassContinuesWhenScheduleRefreshFails(t *testing.T) {
	event := dueEvent()
	source := &fakeSource{name: "ergast", outcomes: []resultsource.Outcome{
		resultsource.Ok(classification(event.ID)),
	}}
	chain := resultsource.NewChain(testLogger(), source)

	f := newFixture(t, chain)
	f.tracker.events = []models.Event{event}
	f.tracker.refreshErr = errors.New("calendar api unreachable")

	f.reconciler.RunPass(context.Background())

	require.Len(t, f.resultRepo.batches, 1, "known races reconcile during a calendar outage")
	assert.Equal(t, models.EventStatusCompleted, f.eventRepo.statuses[event.ID])
}

func TestPassVoidsWagersOnCancelledEvent(t *testing.T) {
	event := dueEvent()
	event.Status = models.EventStatusCancelled

	source := &fakeSource{name: "ergast", outcomes: []resultsource.Outcome{
		resultsource.Ok(classification(event.ID)),
	}}
	chain := resultsource.NewChain(testLogger(), source)

	f := newFixture(t, chain)
	f.tracker.events = []models.Event{event}

	wager := &models.Wager{
		EventID:  event.ID,
		EventKey: event.Key(),
		Driver:   "Max Verstappen",
		Type:     models.BetType{Kind: models.BetKindWin},
		Odds:     3.0,
		Stake:    20,
	}
	bets := betting.NewLedger(f.wagers, nil, testLogger())
	require.NoError(t, bets.Place(context.Background(), wager))

	f.reconciler.RunPass(context.Background())

	assert.Equal(t, 0, source.calls, "no fetch for a race that never ran")
	voided, err := f.wagers.GetByID(context.Background(), wager.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WagerStatusVoid, voided.Status)
	assert.Equal(t, 0.0, voided.Profit())
}

func TestPassIsolatesPerEventFailures(t *testing.T) {
	broken := dueEvent()
	healthy := dueEvent()
	healthy.Round = 9
	healthy.Name = "Spanish Grand Prix"

	source := &eventKeyedSource{results: map[uuid.UUID][]models.Result{
		healthy.ID: classification(healthy.ID),
	}}
	chain := resultsource.NewChain(testLogger(), source)

	f := newFixture(t, chain)
	f.tracker.events = []models.Event{broken, healthy}

	f.reconciler.RunPass(context.Background())

	require.Len(t, f.resultRepo.batches, 1, "healthy event reconciled despite the broken one")
	assert.Equal(t, models.EventStatusCompleted, f.eventRepo.statuses[healthy.ID])
	_, brokenDone := f.eventRepo.statuses[broken.ID]
	assert.False(t, brokenDone)
}

type eventKeyedSource struct {
	results map[uuid.UUID][]models.Result
}

func (s *eventKeyedSource) Name() string  { return "ergast" }
func (s *eventKeyedSource) Enabled() bool { return true }
func (s *eventKeyedSource) FetchResults(ctx context.Context, event *models.Event) resultsource.Outcome {
	if results, ok := s.results[event.ID]; ok {
		return resultsource.Ok(results)
	}
	return resultsource.Retryable("boom", errors.New("provider failure"))
}
