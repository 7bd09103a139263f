//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gridline/internal/database"
	"github.com/yourusername/gridline/internal/models"
	"github.com/yourusername/gridline/internal/repository"
)

const skipIntegration = "Skipping integration test in short mode"

// TestRepositoryIntegration exercises every repository against a real
// PostgreSQL instance. Connection details come from GRIDLINE_TEST_DB_*.
func TestRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip(skipIntegration)
	}

	ctx := context.Background()
	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repos, err := repository.NewRepositories(db)
	require.NoError(t, err)

	event := &models.Event{
		ID:                  uuid.New(),
		Name:                "Integration Grand Prix",
		Season:              2025,
		Round:               99,
		Country:             "Testland",
		Location:            "Testville",
		ScheduledCompletion: time.Now().UTC().Add(-4 * time.Hour),
		Status:              models.EventStatusScheduled,
	}

	t.Run("EventRepository", func(t *testing.T) {
		require.NoError(t, repos.Event.Upsert(ctx, event))

		// Upserting the same season and round keeps the original ID.
		again := *event
		again.ID = uuid.New()
		again.Name = "Integration Grand Prix (renamed)"
		require.NoError(t, repos.Event.Upsert(ctx, &again))
		assert.Equal(t, event.ID, again.ID)

		fetched, err := repos.Event.GetByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, "Integration Grand Prix (renamed)", fetched.Name)

		require.NoError(t, repos.Event.UpdateStatus(ctx, event.ID, models.EventStatusCompleted))
		fetched, err = repos.Event.GetByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EventStatusCompleted, fetched.Status)

		_, err = repos.Event.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("PredictionRepository", func(t *testing.T) {
		prediction := &models.Prediction{
			ID:                uuid.New(),
			EventID:           event.ID,
			Driver:            "max_verstappen",
			PredictedPosition: 1,
			Probability:       0.62,
			ModelVersion:      "v12",
			PredictedAt:       time.Now().UTC(),
		}
		require.NoError(t, repos.Prediction.Create(ctx, prediction))

		predictions, err := repos.Prediction.GetByEventID(ctx, event.ID)
		require.NoError(t, err)
		require.Len(t, predictions, 1)
		assert.Equal(t, "max_verstappen", predictions[0].Driver)
	})

	t.Run("ResultRepository", func(t *testing.T) {
		results := []models.Result{
			{ID: uuid.New(), EventID: event.ID, Driver: "max_verstappen", FinalPosition: 1, Source: "ergast", RecordedAt: time.Now().UTC()},
			{ID: uuid.New(), EventID: event.ID, Driver: "lando_norris", FinalPosition: 2, Source: "ergast", RecordedAt: time.Now().UTC()},
		}
		require.NoError(t, repos.Result.CreateBatch(ctx, results))

		// Re-inserting the same classification is a no-op.
		require.NoError(t, repos.Result.CreateBatch(ctx, results))

		stored, err := repos.Result.GetByEventID(ctx, event.ID)
		require.NoError(t, err)
		assert.Len(t, stored, 2)
	})

	t.Run("WagerRepository", func(t *testing.T) {
		wager := &models.Wager{
			ID:       uuid.New(),
			EventID:  event.ID,
			EventKey: event.Key(),
			Driver:   "max_verstappen",
			Type:     models.BetType{Kind: models.BetKindTopN, Position: 3},
			Odds:     1.8,
			Stake:    25,
			Status:   models.WagerStatusPending,
			PlacedAt: time.Now().UTC(),
		}
		require.NoError(t, repos.Wager.Create(ctx, wager))

		pending, err := repos.Wager.PendingByEventKey(ctx, event.Key())
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, models.BetKindTopN, pending[0].Type.Kind)
		assert.Equal(t, 3, pending[0].Type.Position)

		profit := 20.0
		actual := "P1"
		now := time.Now().UTC()
		wager.Status = models.WagerStatusWon
		wager.ProfitLoss = &profit
		wager.ActualResult = &actual
		wager.SettledAt = &now
		require.NoError(t, repos.Wager.UpdateSettlement(ctx, wager))

		terminal, err := repos.Wager.Terminal(ctx)
		require.NoError(t, err)
		require.Len(t, terminal, 1)
		assert.Equal(t, 20.0, terminal[0].Profit())
	})

	t.Run("ProcessedEventRepository", func(t *testing.T) {
		key := event.Key()

		inserted, err := repos.ProcessedEvent.MarkProcessed(ctx, key)
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = repos.ProcessedEvent.MarkProcessed(ctx, key)
		require.NoError(t, err)
		assert.False(t, inserted)

		processed, err := repos.ProcessedEvent.IsProcessed(ctx, key)
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("AccuracyRepository", func(t *testing.T) {
		record := &models.AccuracyRecord{
			ID:             uuid.New(),
			EventID:        event.ID,
			EventName:      event.Name,
			AnalyzedAt:     time.Now().UTC(),
			MatchedDrivers: 2,
			OverallScore:   0.74,
			Position:       models.PositionAccuracy{ExactAccuracy: 1.0},
			TopNPrecision:  map[int]float64{3: 1.0},
			TopNRecall:     map[int]float64{3: 1.0},
		}
		require.NoError(t, repos.Accuracy.Create(ctx, record))

		recent, err := repos.Accuracy.GetRecent(ctx, 5)
		require.NoError(t, err)
		require.NotEmpty(t, recent)
		assert.Equal(t, 0.74, recent[0].OverallScore)
		assert.Equal(t, 1.0, recent[0].Position.ExactAccuracy)
	})

	t.Run("InsightRepository", func(t *testing.T) {
		insights := []models.Insight{{
			ID:              uuid.New(),
			EventID:         event.ID,
			EventName:       event.Name,
			Type:            "model_accuracy",
			Message:         "exact accuracy below threshold",
			Priority:        models.InsightPriorityHigh,
			SuggestedAction: "model_retraining",
			CreatedAt:       time.Now().UTC(),
		}}
		require.NoError(t, repos.Insight.CreateBatch(ctx, insights))

		stored, err := repos.Insight.GetByEventID(ctx, event.ID)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, models.InsightPriorityHigh, stored[0].Priority)
	})
}
