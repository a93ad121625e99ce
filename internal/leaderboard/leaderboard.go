package leaderboard

import (
	"fmt"
	"time"
)

// Row is one leaderboard entry: a user and their total training
// volume, the sum of weight times reps over the matching sets.
type Row struct {
	Username    string  `json:"username"`
	TotalVolume float64 `json:"totalVolume"`
}

type TimePeriod string

const (
	TimePeriodAll   TimePeriod = "all"
	TimePeriodWeek  TimePeriod = "week"
	TimePeriodMonth TimePeriod = "month"
	TimePeriodYear  TimePeriod = "year"
)

func ParseTimePeriod(raw string) (TimePeriod, error) {
	switch TimePeriod(raw) {
	case "", TimePeriodAll:
		return TimePeriodAll, nil
	case TimePeriodWeek, TimePeriodMonth, TimePeriodYear:
		return TimePeriod(raw), nil
	default:
		return "", fmt.Errorf("unknown time period: %q", raw)
	}
}

// WindowStart returns the inclusive lower bound of the period as of
// the given instant, or nil for the all-time window. The week window
// is Monday anchored, unlike the Sunday anchored week records.
func (p TimePeriod) WindowStart(asOf time.Time) *time.Time {
	midnight := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, asOf.Location())
	var start time.Time
	switch p {
	case TimePeriodWeek:
		start = midnight.AddDate(0, 0, -((int(asOf.Weekday()) + 6) % 7))
	case TimePeriodMonth:
		start = time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())
	case TimePeriodYear:
		start = time.Date(asOf.Year(), 1, 1, 0, 0, 0, 0, asOf.Location())
	default:
		return nil
	}
	return &start
}
