package reminders

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NaturalResult is what natural-language parsing of a reminder's
// "when" clause produces.
type NaturalResult struct {
	ScheduledAt time.Time
	// Remainder is the input with the matched time clause removed, left
	// for the caller to treat as the reminder body.
	Remainder string
}

var namedClockTokens = map[string]int{
	"midnight": 0, "noon": 12,
	"six pm": 18, "six am": 6,
	"seven pm": 19, "eight pm": 20, "nine pm": 21, "ten pm": 22,
}

var (
	reIn       = regexp.MustCompile(`(?i)\bin (\d+) (seconds?|minutes?|hours?|days?)\b`)
	reAtColon  = regexp.MustCompile(`(?i)\bat (\d{1,2}):(\d{2})\s*(am|pm)?\b`)
	reAtDot    = regexp.MustCompile(`(?i)\bat (\d{1,2})\.(\d{2})\s*(am|pm)?\b`)
	reTomorrow = regexp.MustCompile(`(?i)\btomorrow\b(?:\s+at\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?)?`)
	reForPM    = regexp.MustCompile(`(?i)\bfor (\d{1,2})(?::(\d{2}))?\s*pm\b`)
)

// ParseNatural applies, in spec.md §4.9's documented order, the ordered
// natural-language time patterns and returns the resolved instant plus the
// input with the time clause stripped out. now and loc anchor relative
// expressions ("in 5 minutes") and the today-vs-tomorrow rollover rule for
// absolute clock times.
func ParseNatural(text string, now time.Time, loc *time.Location) (NaturalResult, bool) {
	now = now.In(loc)

	if m := reIn.FindStringSubmatchIndex(text); m != nil {
		n, _ := strconv.Atoi(text[m[2]:m[3]])
		unit := strings.ToLower(text[m[4]:m[5]])
		d := durationForUnit(n, unit)
		return NaturalResult{ScheduledAt: now.Add(d), Remainder: strip(text, m)}, true
	}

	for token, hour := range namedClockTokens {
		if idx := indexFold(text, token); idx >= 0 {
			at := rollForward(now, hour, 0)
			return NaturalResult{ScheduledAt: at, Remainder: stripLiteral(text, token)}, true
		}
	}

	if m := reAtColon.FindStringSubmatchIndex(text); m != nil {
		hour, _ := strconv.Atoi(text[m[2]:m[3]])
		minute, _ := strconv.Atoi(text[m[4]:m[5]])
		ampm := ""
		if m[6] >= 0 {
			ampm = strings.ToLower(text[m[6]:m[7]])
		}
		at := resolveClock(now, hour, minute, ampm)
		return NaturalResult{ScheduledAt: at, Remainder: strip(text, m)}, true
	}

	if m := reAtDot.FindStringSubmatchIndex(text); m != nil {
		hour, _ := strconv.Atoi(text[m[2]:m[3]])
		minute, _ := strconv.Atoi(text[m[4]:m[5]])
		ampm := ""
		if m[6] >= 0 {
			ampm = strings.ToLower(text[m[6]:m[7]])
		}
		at := resolveClock(now, hour, minute, ampm)
		return NaturalResult{ScheduledAt: at, Remainder: strip(text, m)}, true
	}

	if m := reTomorrow.FindStringSubmatchIndex(text); m != nil {
		hour, minute := 9, 0
		if m[2] >= 0 {
			hour, _ = strconv.Atoi(text[m[2]:m[3]])
		}
		if m[4] >= 0 {
			minute, _ = strconv.Atoi(text[m[4]:m[5]])
		}
		ampm := ""
		if m[6] >= 0 {
			ampm = strings.ToLower(text[m[6]:m[7]])
		}
		hour = applyAMPM(hour, ampm)
		tomorrow := now.AddDate(0, 0, 1)
		at := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hour, minute, 0, 0, loc)
		return NaturalResult{ScheduledAt: at, Remainder: strip(text, m)}, true
	}

	if m := reForPM.FindStringSubmatchIndex(text); m != nil {
		hour, _ := strconv.Atoi(text[m[2]:m[3]])
		minute := 0
		if m[4] >= 0 {
			minute, _ = strconv.Atoi(text[m[4]:m[5]])
		}
		at := resolveClock(now, hour, minute, "pm")
		return NaturalResult{ScheduledAt: at, Remainder: strip(text, m)}, true
	}

	for token, hour := range namedClockTokens {
		if idx := indexFold(text, token); idx >= 0 {
			at := rollForward(now, hour, 0)
			return NaturalResult{ScheduledAt: at, Remainder: stripLiteral(text, token)}, true
		}
	}

	return NaturalResult{}, false
}

func durationForUnit(n int, unit string) time.Duration {
	switch {
	case strings.HasPrefix(unit, "second"):
		return time.Duration(n) * time.Second
	case strings.HasPrefix(unit, "minute"):
		return time.Duration(n) * time.Minute
	case strings.HasPrefix(unit, "hour"):
		return time.Duration(n) * time.Hour
	case strings.HasPrefix(unit, "day"):
		return time.Duration(n) * 24 * time.Hour
	default:
		return 0
	}
}

// applyAMPM normalizes hour (1-12 or 0-23) against an optional am/pm
// suffix; an empty suffix leaves hour as a 24-hour value.
func applyAMPM(hour int, ampm string) int {
	switch ampm {
	case "pm":
		if hour < 12 {
			return hour + 12
		}
		return hour
	case "am":
		if hour == 12 {
			return 0
		}
		return hour
	default:
		return hour
	}
}

// resolveClock turns an hour/minute/optional-suffix clock time into the
// next occurrence of that instant: today if still in the future, tomorrow
// otherwise.
func resolveClock(now time.Time, hour, minute int, ampm string) time.Time {
	hour = applyAMPM(hour, ampm)
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if candidate.After(now) {
		return candidate
	}
	return candidate.AddDate(0, 0, 1)
}

func rollForward(now time.Time, hour, minute int) time.Time {
	return resolveClock(now, hour, minute, "")
}

func strip(text string, matchIndices []int) string {
	return strings.TrimSpace(text[:matchIndices[0]] + " " + text[matchIndices[1]:])
}

func stripLiteral(text, literal string) string {
	idx := indexFold(text, literal)
	if idx < 0 {
		return text
	}
	return strings.TrimSpace(text[:idx] + " " + text[idx+len(literal):])
}

func indexFold(s, substr string) int {
	lowerS, lowerSub := strings.ToLower(s), strings.ToLower(substr)
	return strings.Index(lowerS, lowerSub)
}
