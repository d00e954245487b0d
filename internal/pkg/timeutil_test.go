package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	// 01:30 local is still the previous UTC day
	local := time.Date(2026, 8, 16, 1, 30, 0, 0, loc)
	assert.Equal(t, "2026-08-15", DayKey(local))
}

func TestMonthKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 22:00 local on Aug 31 is already September in UTC
	local := time.Date(2026, 8, 31, 22, 0, 0, 0, loc)
	assert.Equal(t, "2026-09", MonthKey(local))
}

func TestNextUTCMidnight(t *testing.T) {
	now := time.Date(2026, 8, 15, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC), NextUTCMidnight(now))

	// month boundary
	now = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), NextUTCMidnight(now))
}

func TestMonthStart(t *testing.T) {
	start, err := MonthStart("2026-08")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), start)
}

func TestValidMonthKey(t *testing.T) {
	assert.True(t, ValidMonthKey("2026-08"))
	assert.False(t, ValidMonthKey("2026-8"))
	assert.False(t, ValidMonthKey("2026/08"))
	assert.False(t, ValidMonthKey("2026-13"))
	assert.False(t, ValidMonthKey(""))
}
