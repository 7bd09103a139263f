package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventStatus represents the lifecycle state of a race event
type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusAbandoned EventStatus = "abandoned" // past the due window, no result recovered
)

// Event represents a scheduled race on the season calendar
type Event struct {
	ID                  uuid.UUID   `db:"id" json:"id" validate:"required,uuid4"`
	Name                string      `db:"name" json:"name" validate:"required"`
	Season              int         `db:"season" json:"season" validate:"required,gt=1949"`
	Round               int         `db:"round" json:"round" validate:"required,gt=0"`
	Country             string      `db:"country" json:"country"`
	Location            string      `db:"location" json:"location"`
	ScheduledCompletion time.Time   `db:"scheduled_completion" json:"scheduled_completion" validate:"required"`
	Status              EventStatus `db:"status" json:"status" validate:"required"`
	CreatedAt           time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time   `db:"updated_at" json:"updated_at"`
}

// Key returns the natural identifier used by the processing ledger.
// It is stable across schedule refreshes, unlike the surrogate ID.
func (e *Event) Key() string {
	slug := strings.ToLower(strings.ReplaceAll(e.Name, " ", "_"))
	return fmt.Sprintf("%d_%d_%s", e.Season, e.Round, slug)
}

// HoursSinceCompletion returns how long ago the race was scheduled to finish.
// Negative values mean the race has not yet started.
func (e *Event) HoursSinceCompletion(now time.Time) float64 {
	return now.Sub(e.ScheduledCompletion).Hours()
}

// IsCancelled reports whether the event was called off, which voids wagers
// instead of settling them.
func (e *Event) IsCancelled() bool {
	return e.Status == EventStatusCancelled
}
