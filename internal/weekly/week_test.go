package weekly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWeekStart(t *testing.T) {
	// 2024-03-13 is a Wednesday; the week starts on Sunday 2024-03-10
	wednesday := time.Date(2024, 3, 13, 15, 30, 0, 0, time.UTC)
	anchored := NormalizeWeekStart(wednesday)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), anchored)
	assert.Equal(t, time.Sunday, anchored.Weekday())
}

func TestNormalizeWeekStart_SundayIsFixedPoint(t *testing.T) {
	sunday := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, sunday, NormalizeWeekStart(sunday))
}

func TestNormalizeWeekStart_Idempotent(t *testing.T) {
	for day := 0; day < 14; day++ {
		raw := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC).AddDate(0, 0, day)
		once := NormalizeWeekStart(raw)
		assert.Equal(t, time.Sunday, once.Weekday())
		assert.False(t, once.After(raw))
		assert.Equal(t, once, NormalizeWeekStart(once))
	}
}
