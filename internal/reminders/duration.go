// Package reminders parses reminder input (platform-mention and natural
// language), formats durations and times back into persona-voice text, and
// validates reminder bodies (spec.md §4.9).
package reminders

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// unitPair matches one integer-unit pair of a platform-mention duration,
// e.g. "1h", "30m", "2d".
var unitPair = regexp.MustCompile(`(?i)(\d+)\s*(s|m|h|d)`)

// ParseDuration parses a concatenation of integer-unit pairs with units
// s|m|h|d (e.g. "1h30m") into a time.Duration. Unlike time.ParseDuration,
// this accepts the "d" (day) unit spec.md §4.9 requires and rejects any
// input that isn't entirely consumed by unit pairs.
func ParseDuration(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	matches := unitPair.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return 0, false
	}
	var total time.Duration
	consumed := 0
	for _, m := range matches {
		if m[0] != consumed {
			return 0, false
		}
		numStr := s[m[2]:m[3]]
		unit := strings.ToLower(s[m[4]:m[5]])
		n, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, false
		}
		switch unit {
		case "s":
			total += time.Duration(n) * time.Second
		case "m":
			total += time.Duration(n) * time.Minute
		case "h":
			total += time.Duration(n) * time.Hour
		case "d":
			total += time.Duration(n) * 24 * time.Hour
		}
		consumed = m[1]
	}
	if consumed != len(s) {
		return 0, false
	}
	return total, true
}

// FormatDuration renders d in the persona-voice confirmation format: whole
// hours/minutes with singular/plural correctness, sub-minute durations
// round to "1 minute" if >= 30s else "less than a minute".
func FormatDuration(d time.Duration) string {
	if d < 30*time.Second {
		return "less than a minute"
	}
	totalMinutes := int(d.Round(time.Minute) / time.Minute)
	if totalMinutes == 0 {
		totalMinutes = 1
	}
	hours := totalMinutes / 60
	minutes := totalMinutes % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, pluralize(hours, "hour"))
	}
	if minutes > 0 || hours == 0 {
		parts = append(parts, pluralize(minutes, "minute"))
	}
	return strings.Join(parts, " ")
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
