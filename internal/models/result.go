package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Result represents one driver's final classification in a race.
// A result set is recorded exactly once per event; the processing ledger
// enforces the idempotency.
type Result struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	EventID       uuid.UUID       `db:"event_id" json:"event_id"`
	Driver        string          `db:"driver" json:"driver" validate:"required"`
	FinalPosition int             `db:"final_position" json:"final_position" validate:"gte=1"`
	Points        decimal.Decimal `db:"points" json:"points"`
	DidNotFinish  bool            `db:"did_not_finish" json:"did_not_finish"`
	Source        string          `db:"source" json:"source"` // provider that supplied the row
	RecordedAt    time.Time       `db:"recorded_at" json:"recorded_at"`
}

// Classification is a convenience display form, "P4" or "DNF".
func (r *Result) Classification() string {
	if r.DidNotFinish {
		return "DNF"
	}
	return "P" + strconv.Itoa(r.FinalPosition)
}
