package reminders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseNaturalInMinutes(t *testing.T) {
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	res, ok := ParseNatural("in 5 minutes check the oven", now, time.UTC)
	require.True(t, ok)
	require.Equal(t, now.Add(5*time.Minute), res.ScheduledAt)
	require.Equal(t, "check the oven", res.Remainder)
}

func TestParseNaturalAtDotTimeSameDay(t *testing.T) {
	now := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	res, ok := ParseNatural("remind me at 10.47 to stand up", now, time.UTC)
	require.True(t, ok)
	require.Contains(t, res.Remainder, "stand up")
	require.Equal(t, time.Date(2025, 1, 15, 10, 47, 0, 0, time.UTC), res.ScheduledAt)
}

func TestParseNaturalAtColonFutureTimeToday(t *testing.T) {
	now := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	res, ok := ParseNatural("at 9:15 am take a break", now, time.UTC)
	require.True(t, ok)
	require.Equal(t, time.Date(2025, 1, 15, 9, 15, 0, 0, time.UTC), res.ScheduledAt)
}

func TestParseNaturalTomorrowDefaultsToNineAM(t *testing.T) {
	now := time.Date(2025, 1, 15, 20, 0, 0, 0, time.UTC)
	res, ok := ParseNatural("tomorrow call the vet", now, time.UTC)
	require.True(t, ok)
	require.Equal(t, time.Date(2025, 1, 16, 9, 0, 0, 0, time.UTC), res.ScheduledAt)
}

func TestParseNaturalUnmatchedReturnsFalse(t *testing.T) {
	_, ok := ParseNatural("just a regular sentence", time.Now(), time.UTC)
	require.False(t, ok)
}
