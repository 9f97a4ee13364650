package reminders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDurationConcatenatedUnits(t *testing.T) {
	d, ok := ParseDuration("1h30m")
	require.True(t, ok)
	require.Equal(t, 90*time.Minute, d)
}

func TestParseDurationRejectsTrailingGarbage(t *testing.T) {
	_, ok := ParseDuration("1h30mzz")
	require.False(t, ok)
}

func TestParseDurationDayUnit(t *testing.T) {
	d, ok := ParseDuration("2d")
	require.True(t, ok)
	require.Equal(t, 48*time.Hour, d)
}

func TestFormatDurationRoundTrip(t *testing.T) {
	d, ok := ParseDuration("1h30m")
	require.True(t, ok)
	require.Equal(t, "1 hour 30 minutes", FormatDuration(d))
}

func TestFormatDurationSingular(t *testing.T) {
	require.Equal(t, "1 minute", FormatDuration(time.Minute))
	require.Equal(t, "1 hour", FormatDuration(time.Hour))
}

func TestFormatDurationSubMinute(t *testing.T) {
	require.Equal(t, "less than a minute", FormatDuration(10*time.Second))
	require.Equal(t, "1 minute", FormatDuration(45*time.Second))
}
