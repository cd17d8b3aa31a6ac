package views

import (
	"fmt"
	"time"
)

// NotSaved is shown when no save has happened yet.
const NotSaved = "Not saved yet"

// FormatLastSaved describes how long ago saved was, relative to now. Anything
// older than a day is shown as a short date and time in now's location.
func FormatLastSaved(saved, now time.Time) string {
	if saved.IsZero() {
		return NotSaved
	}
	diff := now.Sub(saved)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return plural(int(diff/time.Minute), "minute") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff/time.Hour), "hour") + " ago"
	}
	return saved.In(now.Location()).Format("Jan 2, 3:04 PM")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
