package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// WagerStatus represents the settlement state of a wager
type WagerStatus string

const (
	WagerStatusPending WagerStatus = "pending"
	WagerStatusWon     WagerStatus = "won"
	WagerStatusLost    WagerStatus = "lost"
	WagerStatusVoid    WagerStatus = "void"
)

// IsTerminal reports whether the status admits no further transition.
func (s WagerStatus) IsTerminal() bool {
	return s == WagerStatusWon || s == WagerStatusLost || s == WagerStatusVoid
}

// BetKind enumerates the supported wager kinds
type BetKind string

const (
	BetKindWin      BetKind = "win"      // driver finishes first
	BetKindPodium   BetKind = "podium"   // driver finishes top 3
	BetKindTopN     BetKind = "top_n"    // driver finishes within the top N
	BetKindExactPos BetKind = "exact"    // driver finishes in exactly position P
)

// BetType is a closed tagged variant carrying its own win predicate.
// The variant is selected once, when the wager is created; settlement
// never re-interprets strings.
type BetType struct {
	Kind     BetKind `db:"bet_kind" json:"kind"`
	Position int     `db:"bet_position" json:"position,omitempty"` // N for top_n, P for exact
}

// Wins evaluates the bet against a final classification. A non-finisher
// carries no classified position and loses every positional bet.
func (b BetType) Wins(finalPosition int, didNotFinish bool) bool {
	if didNotFinish {
		return false
	}
	switch b.Kind {
	case BetKindWin:
		return finalPosition == 1
	case BetKindPodium:
		return finalPosition <= 3
	case BetKindTopN:
		return finalPosition <= b.Position
	case BetKindExactPos:
		return finalPosition == b.Position
	default:
		return false
	}
}

// String returns the canonical label for the bet type.
func (b BetType) String() string {
	switch b.Kind {
	case BetKindTopN:
		return "top" + strconv.Itoa(b.Position)
	case BetKindExactPos:
		return "P" + strconv.Itoa(b.Position)
	default:
		return string(b.Kind)
	}
}

// ParseBetType interprets the loose labels accepted at wager creation:
// "win"/"p1", "podium"/"p2"/"p3", "top5", "top10", "points" (top 10),
// and "pN" for an exact finishing position.
func ParseBetType(s string) (BetType, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "win", "p1":
		return BetType{Kind: BetKindWin}, nil
	case "podium", "p2", "p3":
		return BetType{Kind: BetKindPodium}, nil
	case "top5":
		return BetType{Kind: BetKindTopN, Position: 5}, nil
	case "top10", "points":
		return BetType{Kind: BetKindTopN, Position: 10}, nil
	default:
		if strings.HasPrefix(v, "top") {
			if n, err := strconv.Atoi(v[3:]); err == nil && n > 0 {
				return BetType{Kind: BetKindTopN, Position: n}, nil
			}
		}
		if strings.HasPrefix(v, "p") {
			if p, err := strconv.Atoi(v[1:]); err == nil && p > 0 {
				return BetType{Kind: BetKindExactPos, Position: p}, nil
			}
		}
		return BetType{}, fmt.Errorf("%w: %q", ErrUnknownBetType, s)
	}
}

// Wager represents a placed bet. A wager is created pending and mutated
// only by settlement; it is never deleted.
type Wager struct {
	ID                   uuid.UUID   `db:"id" json:"id" validate:"required,uuid4"`
	EventID              uuid.UUID   `db:"event_id" json:"event_id" validate:"required,uuid4"`
	EventKey             string      `db:"event_key" json:"event_key" validate:"required"`
	Driver               string      `db:"driver" json:"driver" validate:"required"`
	Type                 BetType     `db:"-" json:"bet_type"`
	Odds                 float64     `db:"odds" json:"odds" validate:"required,gt=1"`
	Stake                float64     `db:"stake" json:"stake" validate:"required,gt=0"`
	PredictedProbability float64     `db:"predicted_probability" json:"predicted_probability" validate:"gte=0,lte=1"`
	Reasoning            string      `db:"reasoning" json:"reasoning"`
	Bookmaker            string      `db:"bookmaker" json:"bookmaker"`
	Status               WagerStatus `db:"status" json:"status" validate:"required"`
	ActualResult         *string     `db:"actual_result" json:"actual_result"`
	ProfitLoss           *float64    `db:"profit_loss" json:"profit_loss"`
	PlacedAt             time.Time   `db:"placed_at" json:"placed_at" validate:"required"`
	SettledAt            *time.Time  `db:"settled_at" json:"settled_at"`
}

// IsSettled checks if the wager has reached a terminal state.
func (w *Wager) IsSettled() bool {
	return w.Status.IsTerminal()
}

// Profit returns the realized profit/loss, zero while pending.
func (w *Wager) Profit() float64 {
	if w.ProfitLoss == nil {
		return 0
	}
	return *w.ProfitLoss
}

// ROI returns the wager's return on investment as a percentage.
func (w *Wager) ROI() float64 {
	if w.Stake == 0 {
		return 0
	}
	return w.Profit() / w.Stake * 100
}
