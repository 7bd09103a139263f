package resultsource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gridline/internal/metrics"
	"github.com/yourusername/gridline/internal/models"
)

type stubSource struct {
	name    string
	enabled bool
	outcome Outcome
	calls   int
}

func (s *stubSource) Name() string  { return s.name }
func (s *stubSource) Enabled() bool { return s.enabled }
func (s *stubSource) FetchResults(ctx context.Context, event *models.Event) Outcome {
	s.calls++
	return s.outcome
}

func testEvent() *models.Event {
	return &models.Event{
		ID:     uuid.New(),
		Name:   "Monaco Grand Prix",
		Season: 2025,
		Round:  8,
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func sampleResults(eventID uuid.UUID) []models.Result {
	return []models.Result{
		{ID: uuid.New(), EventID: eventID, Driver: "Max Verstappen", FinalPosition: 1, Source: "stub", RecordedAt: time.Now()},
		{ID: uuid.New(), EventID: eventID, Driver: "Lando Norris", FinalPosition: 2, Source: "stub", RecordedAt: time.Now()},
	}
}

func TestChainFallsBackToLowerPrioritySource(t *testing.T) {
	event := testEvent()
	first := &stubSource{name: "f1_official", enabled: true, outcome: Retryable("timeout", errors.New("deadline exceeded"))}
	second := &stubSource{name: "openf1", enabled: true, outcome: Retryable("timeout", errors.New("deadline exceeded"))}
	third := &stubSource{name: "ergast", enabled: true, outcome: Ok(sampleResults(event.ID))}

	chain := NewChain(testLogger(), first, second, third)

	results, source, err := chain.Fetch(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, "ergast", source)
	assert.Len(t, results, 2)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 1, third.calls)
}

func TestChainRecordsFetchLatency(t *testing.T) {
	event := testEvent()
	source := &stubSource{name: "timed_source", enabled: true, outcome: Ok(sampleResults(event.ID))}
	chain := NewChain(testLogger(), source)

	_, _, err := chain.Fetch(context.Background(), event)
	require.NoError(t, err)

	count := testutil.CollectAndCount(metrics.SourceFetchLatency, "gridline_source_fetch_latency_seconds")
	assert.Greater(t, count, 0, "every fetch attempt is timed")
}

func TestChainStopsAtFirstSuccess(t *testing.T) {
	event := testEvent()
	first := &stubSource{name: "f1_official", enabled: true, outcome: Ok(sampleResults(event.ID))}
	second := &stubSource{name: "ergast", enabled: true, outcome: Ok(sampleResults(event.ID))}

	chain := NewChain(testLogger(), first, second)

	_, source, err := chain.Fetch(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, "f1_official", source)
	assert.Equal(t, 0, second.calls, "lower priority source should not be queried")
}

func TestChainSkipsDisabledSources(t *testing.T) {
	event := testEvent()
	disabled := &stubSource{name: "f1_official", enabled: false, outcome: Ok(sampleResults(event.ID))}
	enabled := &stubSource{name: "ergast", enabled: true, outcome: Ok(sampleResults(event.ID))}

	chain := NewChain(testLogger(), disabled, enabled)

	_, source, err := chain.Fetch(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, "ergast", source)
	assert.Equal(t, 0, disabled.calls)
}

func TestChainReturnsNotAvailableWhenAllExhausted(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []Outcome
	}{
		{
			name:     "all exhausted",
			outcomes: []Outcome{Exhausted("not published"), Exhausted("not published")},
		},
		{
			name:     "mixed exhausted and retryable",
			outcomes: []Outcome{Retryable("server error", nil), Exhausted("not published")},
		},
		{
			name:     "success with empty classification",
			outcomes: []Outcome{Ok(nil), Exhausted("not published")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources := make([]ResultSource, 0, len(tt.outcomes))
			for _, outcome := range tt.outcomes {
				sources = append(sources, &stubSource{name: "source", enabled: true, outcome: outcome})
			}

			chain := NewChain(testLogger(), sources...)
			_, _, err := chain.Fetch(context.Background(), testEvent())
			assert.ErrorIs(t, err, ErrResultsNotAvailable)
		})
	}
}

func TestChainHonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := &stubSource{name: "f1_official", enabled: true, outcome: Retryable("timeout", nil)}
	second := &stubSource{name: "ergast", enabled: true, outcome: Ok(sampleResults(uuid.New()))}

	chain := NewChain(testLogger(), first, second)

	_, _, err := chain.Fetch(ctx, testEvent())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, second.calls)
}
