package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridline/internal/metrics"
	"github.com/yourusername/gridline/internal/models"
)

const calendarCacheKey = "calendar"

// EventStore persists calendar events across schedule refreshes
type EventStore interface {
	Upsert(ctx context.Context, event *models.Event) error
	GetBySeason(ctx context.Context, season int) ([]models.Event, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.EventStatus) error
}

// TrackerConfig controls the due-event window
type TrackerConfig struct {
	Season        int
	MinHoursAfter float64 // results rarely exist before this
	MaxDaysAfter  float64 // past this the event is abandoned
	RefreshTTL    time.Duration
}

// DefaultTrackerConfig returns the standard reconciliation window
func DefaultTrackerConfig(season int) TrackerConfig {
	return TrackerConfig{
		Season:        season,
		MinHoursAfter: 2,
		MaxDaysAfter:  7,
		RefreshTTL:    6 * time.Hour,
	}
}

// Tracker maintains the season calendar and selects due events. A failed
// refresh falls back to the last successful snapshot so a flaky calendar
// API never stalls reconciliation of already-known races.
type Tracker struct {
	client      *CalendarClient
	store       EventStore
	cache       *gocache.Cache
	cfg         TrackerConfig
	logger      *logrus.Logger
	lastRefresh time.Time
}

// NewTracker creates a schedule tracker
func NewTracker(client *CalendarClient, store EventStore, cfg TrackerConfig, logger *logrus.Logger) *Tracker {
	return &Tracker{
		client: client,
		store:  store,
		cache:  gocache.New(cfg.RefreshTTL, 10*time.Minute),
		cfg:    cfg,
		logger: logger,
	}
}

// Refresh fetches the season calendar and upserts it into the store.
// On fetch failure the last-known schedule keeps serving, however old:
// a calendar outage must never stall reconciliation of known races.
func (t *Tracker) Refresh(ctx context.Context) error {
	events, err := t.client.FetchSeason(ctx, t.cfg.Season)
	if err != nil {
		return t.serveStale(ctx, err)
	}

	for i := range events {
		if err := t.store.Upsert(ctx, &events[i]); err != nil {
			return fmt.Errorf("failed to upsert event %q: %w", events[i].Name, err)
		}
	}

	t.cancelDropped(ctx, events)

	t.cache.Set(calendarCacheKey, events, gocache.NoExpiration)
	t.lastRefresh = time.Now()
	metrics.ScheduleStaleness.Set(0)
	return nil
}

// cancelDropped marks still-scheduled rounds that vanished from the
// refreshed calendar as cancelled. Their wagers get voided on the next
// reconciliation pass.
func (t *Tracker) cancelDropped(ctx context.Context, fetched []models.Event) {
	rounds := make(map[int]struct{}, len(fetched))
	for _, event := range fetched {
		rounds[event.Round] = struct{}{}
	}

	stored, err := t.store.GetBySeason(ctx, t.cfg.Season)
	if err != nil {
		t.logger.WithError(err).Warn("Could not check for dropped calendar rounds")
		return
	}

	for _, existing := range stored {
		if _, ok := rounds[existing.Round]; ok {
			continue
		}
		if existing.Status != models.EventStatusScheduled {
			continue
		}
		t.logger.WithFields(logrus.Fields{
			"event":  existing.Name,
			"season": existing.Season,
			"round":  existing.Round,
		}).Warn("Event dropped from calendar, marking cancelled")
		if err := t.store.UpdateStatus(ctx, existing.ID, models.EventStatusCancelled); err != nil {
			t.logger.WithError(err).WithField("event", existing.Name).
				Error("Failed to mark event cancelled")
		}
	}
}

// serveStale keeps the tracker operational through a calendar outage.
// The in-process snapshot covers the common case; a freshly started
// process falls back to the events already persisted in the store.
func (t *Tracker) serveStale(ctx context.Context, cause error) error {
	if _, found := t.cache.Get(calendarCacheKey); found {
		t.logger.WithError(cause).WithField("season", t.cfg.Season).
			Warn("Calendar refresh failed, serving stale snapshot")
		metrics.ScheduleStaleness.Set(time.Since(t.lastRefresh).Seconds())
		return nil
	}

	stored, err := t.store.GetBySeason(ctx, t.cfg.Season)
	if err == nil && len(stored) > 0 {
		t.logger.WithError(cause).WithFields(logrus.Fields{
			"season": t.cfg.Season,
			"events": len(stored),
		}).Warn("Calendar refresh failed, serving stored schedule")
		t.cache.Set(calendarCacheKey, stored, gocache.NoExpiration)
		return nil
	}

	return fmt.Errorf("calendar refresh failed with no known schedule: %w", cause)
}

// DueEvents returns the events whose scheduled completion falls inside the
// reconciliation window. Events past the window are marked abandoned
// exactly once and never returned again.
func (t *Tracker) DueEvents(ctx context.Context, now time.Time) ([]models.Event, error) {
	events, err := t.store.GetBySeason(ctx, t.cfg.Season)
	if err != nil {
		return nil, fmt.Errorf("failed to load season events: %w", err)
	}

	due := make([]models.Event, 0, len(events))
	for _, event := range events {
		switch event.Status {
		case models.EventStatusCompleted, models.EventStatusAbandoned:
			continue
		}

		hours := event.HoursSinceCompletion(now)
		if hours < t.cfg.MinHoursAfter {
			continue
		}
		if hours > t.cfg.MaxDaysAfter*24 {
			t.abandon(ctx, event, hours)
			continue
		}

		due = append(due, event)
	}

	metrics.DueEvents.Set(float64(len(due)))
	return due, nil
}

func (t *Tracker) abandon(ctx context.Context, event models.Event, hours float64) {
	t.logger.WithFields(logrus.Fields{
		"event":      event.Name,
		"season":     event.Season,
		"round":      event.Round,
		"hours_late": int(hours),
	}).Warn("Abandoning event past reconciliation window")

	if err := t.store.UpdateStatus(ctx, event.ID, models.EventStatusAbandoned); err != nil {
		t.logger.WithError(err).WithField("event", event.Name).
			Error("Failed to mark event abandoned")
	}
}
