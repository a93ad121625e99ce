package weekly

import (
	"time"
)

// WeeklyWorkout binds one Sunday-anchored calendar week to up to seven
// optional template assignments, one per day. A nil slot is a rest day.
type WeeklyWorkout struct {
	ID            int       `json:"id"`
	WeekStartDate time.Time `json:"weekStartDate"`
	// DayTemplates is indexed by time.Weekday, Sunday first.
	DayTemplates [7]*int `json:"dayTemplates"`
}

// NormalizeWeekStart anchors t to the Sunday on or before it, at
// midnight in t's location. A Sunday input maps to itself.
func NormalizeWeekStart(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return t.AddDate(0, 0, -int(t.Weekday()))
}
