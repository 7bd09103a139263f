package betting

import (
	"context"
	"fmt"

	"github.com/yourusername/gridline/internal/models"
)

// PerformanceStats summarizes settled wager outcomes. Pending wagers are
// excluded so the numbers never move retroactively.
type PerformanceStats struct {
	TotalBets   int     `json:"total_bets"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Voids       int     `json:"voids"`
	WinRate     float64 `json:"win_rate_pct"`
	TotalStake  float64 `json:"total_stake"`
	TotalProfit float64 `json:"total_profit"`
	ROI         float64 `json:"roi_pct"`
}

func (s *PerformanceStats) add(wager *models.Wager) {
	s.TotalBets++
	s.TotalStake += wager.Stake
	s.TotalProfit += wager.Profit()
	switch wager.Status {
	case models.WagerStatusWon:
		s.Wins++
	case models.WagerStatusLost:
		s.Losses++
	case models.WagerStatusVoid:
		s.Voids++
	}
}

func (s *PerformanceStats) finish() {
	decided := s.Wins + s.Losses
	if decided > 0 {
		s.WinRate = float64(s.Wins) / float64(decided) * 100
	}
	if s.TotalStake > 0 {
		s.ROI = s.TotalProfit / s.TotalStake * 100
	}
}

// PerformanceStats aggregates all terminal wagers
func (l *Ledger) PerformanceStats(ctx context.Context) (*PerformanceStats, error) {
	settled, err := l.wagers.Terminal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settled wagers: %w", err)
	}

	stats := &PerformanceStats{}
	for i := range settled {
		stats.add(&settled[i])
	}
	stats.finish()
	return stats, nil
}

// PerformanceByBetType aggregates terminal wagers per bet type label
func (l *Ledger) PerformanceByBetType(ctx context.Context) (map[string]*PerformanceStats, error) {
	settled, err := l.wagers.Terminal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settled wagers: %w", err)
	}

	byType := make(map[string]*PerformanceStats)
	for i := range settled {
		label := settled[i].Type.String()
		stats, ok := byType[label]
		if !ok {
			stats = &PerformanceStats{}
			byType[label] = stats
		}
		stats.add(&settled[i])
	}
	for _, stats := range byType {
		stats.finish()
	}
	return byType, nil
}
