package schedule

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gridline/internal/models"
	"github.com/yourusername/gridline/internal/resultsource"
)

type memoryEventStore struct {
	events map[uuid.UUID]models.Event
}

func newMemoryEventStore() *memoryEventStore {
	return &memoryEventStore{events: make(map[uuid.UUID]models.Event)}
}

func (s *memoryEventStore) Upsert(ctx context.Context, event *models.Event) error {
	// Mirrors the postgres upsert: the existing row's ID and status win.
	for id, existing := range s.events {
		if existing.Season == event.Season && existing.Round == event.Round {
			event.ID = id
			event.Status = existing.Status
			s.events[id] = *event
			return nil
		}
	}
	s.events[event.ID] = *event
	return nil
}

func (s *memoryEventStore) GetBySeason(ctx context.Context, season int) ([]models.Event, error) {
	var out []models.Event
	for _, event := range s.events {
		if event.Season == season {
			out = append(out, event)
		}
	}
	return out, nil
}

func (s *memoryEventStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.EventStatus) error {
	event, ok := s.events[id]
	if !ok {
		return models.ErrNotFound
	}
	event.Status = status
	s.events[id] = event
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func fastHTTPClient() *resultsource.RateLimitedHTTPClient {
	cfg := resultsource.HTTPClientConfig{
		Timeout:           5 * time.Second,
		MaxRetries:        0,
		RetryWait:         time.Millisecond,
		RateLimit:         1000,
		CircuitBreakerMax: 5,
	}
	return resultsource.NewRateLimitedHTTPClient(cfg, testLogger())
}

func seedEvent(store *memoryEventStore, round int, completedAgo time.Duration, status models.EventStatus) uuid.UUID {
	event := models.Event{
		ID:                  uuid.New(),
		Name:                "Test Grand Prix",
		Season:              2025,
		Round:               round,
		ScheduledCompletion: time.Now().UTC().Add(-completedAgo),
		Status:              status,
	}
	store.events[event.ID] = event
	return event.ID
}

func TestDueEventsWindow(t *testing.T) {
	store := newMemoryEventStore()
	seedEvent(store, 1, time.Hour, models.EventStatusScheduled)          // too recent
	dueID := seedEvent(store, 2, 72*time.Hour, models.EventStatusScheduled) // inside window
	seedEvent(store, 3, -24*time.Hour, models.EventStatusScheduled)      // not run yet
	seedEvent(store, 4, 72*time.Hour, models.EventStatusCompleted)       // already reconciled

	tracker := NewTracker(nil, store, DefaultTrackerConfig(2025), testLogger())

	due, err := tracker.DueEvents(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, dueID, due[0].ID)
}

func TestDueEventsAbandonsPastWindowOnce(t *testing.T) {
	store := newMemoryEventStore()
	staleID := seedEvent(store, 1, 10*24*time.Hour, models.EventStatusScheduled)

	tracker := NewTracker(nil, store, DefaultTrackerConfig(2025), testLogger())

	due, err := tracker.DueEvents(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, due, "10-day-old event with a 7-day window is never due")
	assert.Equal(t, models.EventStatusAbandoned, store.events[staleID].Status)

	// Second pass skips the abandoned event without touching it again.
	due, err = tracker.DueEvents(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestDueEventsIncludesCancelled(t *testing.T) {
	store := newMemoryEventStore()
	cancelledID := seedEvent(store, 1, 24*time.Hour, models.EventStatusCancelled)

	tracker := NewTracker(nil, store, DefaultTrackerConfig(2025), testLogger())

	due, err := tracker.DueEvents(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, due, 1, "cancelled events stay due so wagers get voided")
	assert.Equal(t, cancelledID, due[0].ID)
}

const calendarBody = `{
	"MRData": {
		"RaceTable": {
			"Races": [
				{"raceName": "Bahrain Grand Prix", "season": "2025", "round": "1",
				 "date": "2025-03-02", "time": "15:00:00Z",
				 "Circuit": {"circuitName": "Bahrain International Circuit",
				             "Location": {"country": "Bahrain", "locality": "Sakhir"}}},
				{"raceName": "Monaco Grand Prix", "season": "2025", "round": "8",
				 "date": "2025-05-25",
				 "Circuit": {"circuitName": "Circuit de Monaco",
				             "Location": {"country": "Monaco", "locality": "Monte-Carlo"}}}
			]
		}
	}
}`

func TestRefreshUpsertsCalendar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2025.json", r.URL.Path)
		w.Write([]byte(calendarBody))
	}))
	defer server.Close()

	store := newMemoryEventStore()
	client := NewCalendarClient(fastHTTPClient(), server.URL, testLogger())
	tracker := NewTracker(client, store, DefaultTrackerConfig(2025), testLogger())

	require.NoError(t, tracker.Refresh(context.Background()))

	events, err := store.GetBySeason(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, events, 2)

	for _, event := range events {
		if event.Round == 1 {
			want := time.Date(2025, 3, 2, 15, 0, 0, 0, time.UTC).Add(raceDuration)
			assert.True(t, event.ScheduledCompletion.Equal(want))
		}
		if event.Round == 8 {
			// No published time defaults to midday UTC.
			want := time.Date(2025, 5, 25, 12, 0, 0, 0, time.UTC).Add(raceDuration)
			assert.True(t, event.ScheduledCompletion.Equal(want))
		}
	}

	// Refreshing again updates in place instead of duplicating.
	require.NoError(t, tracker.Refresh(context.Background()))
	events, err = store.GetBySeason(context.Background(), 2025)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

const trimmedCalendarBody = `{
	"MRData": {
		"RaceTable": {
			"Races": [
				{"raceName": "Bahrain Grand Prix", "season": "2025", "round": "1",
				 "date": "2025-03-02", "time": "15:00:00Z",
				 "Circuit": {"circuitName": "Bahrain International Circuit",
				             "Location": {"country": "Bahrain", "locality": "Sakhir"}}}
			]
		}
	}
}`

func TestRefreshCancelsDroppedRounds(t *testing.T) {
	var trimmed atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if trimmed.Load() {
			w.Write([]byte(trimmedCalendarBody))
			return
		}
		w.Write([]byte(calendarBody))
	}))
	defer server.Close()

	store := newMemoryEventStore()
	client := NewCalendarClient(fastHTTPClient(), server.URL, testLogger())
	tracker := NewTracker(client, store, DefaultTrackerConfig(2025), testLogger())

	require.NoError(t, tracker.Refresh(context.Background()))

	// Monaco disappears from the published calendar.
	trimmed.Store(true)
	require.NoError(t, tracker.Refresh(context.Background()))

	events, err := store.GetBySeason(context.Background(), 2025)
	require.NoError(t, err)
	statuses := make(map[int]models.EventStatus, len(events))
	for _, event := range events {
		statuses[event.Round] = event.Status
	}
	assert.Equal(t, models.EventStatusScheduled, statuses[1])
	assert.Equal(t, models.EventStatusCancelled, statuses[8],
		"a round dropped mid-season is a cancelled race, not a missing one")
}

func TestRefreshLeavesCompletedRoundsAloneWhenDropped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(trimmedCalendarBody))
	}))
	defer server.Close()

	store := newMemoryEventStore()
	doneID := seedEvent(store, 8, 48*time.Hour, models.EventStatusCompleted)

	client := NewCalendarClient(fastHTTPClient(), server.URL, testLogger())
	tracker := NewTracker(client, store, DefaultTrackerConfig(2025), testLogger())

	require.NoError(t, tracker.Refresh(context.Background()))
	assert.Equal(t, models.EventStatusCompleted, store.events[doneID].Status)
}

func TestRefreshServesStaleSnapshotOnFailure(t *testing.T) {
	var failing atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(calendarBody))
	}))
	defer server.Close()

	store := newMemoryEventStore()
	client := NewCalendarClient(fastHTTPClient(), server.URL, testLogger())
	tracker := NewTracker(client, store, DefaultTrackerConfig(2025), testLogger())

	require.NoError(t, tracker.Refresh(context.Background()))

	failing.Store(true)
	assert.NoError(t, tracker.Refresh(context.Background()), "stale snapshot keeps serving")
}

func TestRefreshSurvivesOutageLongerThanTTL(t *testing.T) {
	var failing atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(calendarBody))
	}))
	defer server.Close()

	store := newMemoryEventStore()
	client := NewCalendarClient(fastHTTPClient(), server.URL, testLogger())
	cfg := DefaultTrackerConfig(2025)
	cfg.RefreshTTL = 10 * time.Millisecond
	tracker := NewTracker(client, store, cfg, testLogger())

	require.NoError(t, tracker.Refresh(context.Background()))

	failing.Store(true)
	time.Sleep(30 * time.Millisecond)
	assert.NoError(t, tracker.Refresh(context.Background()),
		"snapshot outlives the refresh interval during an outage")

	due, err := tracker.DueEvents(context.Background(), time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, due, 1, "known races stay reconcilable while the calendar API is down")
}

func TestRefreshFallsBackToStoredSchedule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	// A restarted process has no in-memory snapshot but the events
	// table still holds the last successful refresh.
	store := newMemoryEventStore()
	seedEvent(store, 1, 24*time.Hour, models.EventStatusScheduled)

	client := NewCalendarClient(fastHTTPClient(), server.URL, testLogger())
	tracker := NewTracker(client, store, DefaultTrackerConfig(2025), testLogger())

	require.NoError(t, tracker.Refresh(context.Background()))

	due, err := tracker.DueEvents(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestRefreshFailsWithNoSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	store := newMemoryEventStore()
	client := NewCalendarClient(fastHTTPClient(), server.URL, testLogger())
	tracker := NewTracker(client, store, DefaultTrackerConfig(2025), testLogger())

	assert.Error(t, tracker.Refresh(context.Background()))
}
