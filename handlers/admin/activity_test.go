package admin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDateRangeToday(t *testing.T) {
	start := parseDateRange("today")
	now := time.Now()

	assert.Equal(t, now.Year(), start.Year())
	assert.Equal(t, now.Month(), start.Month())
	assert.Equal(t, now.Day(), start.Day())
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, 0, start.Minute())
}

func TestParseDateRangePresets(t *testing.T) {
	now := time.Now()

	week := parseDateRange("week")
	assert.WithinDuration(t, now.AddDate(0, 0, -7), week, time.Minute)

	month := parseDateRange("month")
	assert.WithinDuration(t, now.AddDate(0, -1, 0), month, time.Minute)

	days := parseDateRange("90days")
	assert.WithinDuration(t, now.AddDate(0, 0, -90), days, time.Minute)
}

func TestParseDateRangeUnbounded(t *testing.T) {
	assert.True(t, parseDateRange("all").IsZero())
	assert.True(t, parseDateRange("").IsZero())
	assert.True(t, parseDateRange("yesterdays").IsZero())
	assert.True(t, parseDateRange("0days").IsZero())
	assert.True(t, parseDateRange("-3days").IsZero())
}
