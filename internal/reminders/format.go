package reminders

import (
	"fmt"
	"time"
)

// FormatTime renders t (already converted to the scheduler's configured
// location) as spec.md §4.9's user-visible 12-hour clock: "10:02 AM GMT" /
// "10:02 AM BST", the timezone abbreviation's DST-ness determined by the
// location itself rather than hardcoded, so any IANA zone behaves
// correctly, not just Europe/London.
func FormatTime(t time.Time) string {
	hour := t.Hour()
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	zoneName, _ := t.Zone()
	return fmt.Sprintf("%d:%02d %s %s", hour12, t.Minute(), suffix, zoneName)
}
