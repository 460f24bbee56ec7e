package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeParamRFC3339(t *testing.T) {
	ts, ok := parseTimeParam("2026-03-10T09:30:00Z")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC), ts)
}

func TestParseTimeParamBareDate(t *testing.T) {
	ts, ok := parseTimeParam("2026-03-10")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), ts)
}

func TestParseTimeParamInvalid(t *testing.T) {
	_, ok := parseTimeParam("")
	assert.False(t, ok)

	_, ok = parseTimeParam("10/03/2026")
	assert.False(t, ok)

	_, ok = parseTimeParam("next tuesday")
	assert.False(t, ok)
}
