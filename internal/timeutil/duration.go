package timeutil

import (
	"fmt"
	"time"
)

// FormatDuration formats a duration as a compact string like "1h 40m",
// "45m" or "30s".
func FormatDuration(d time.Duration) string {
	seconds := int64(d.Seconds())
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatDurationWords formats a duration in full English, e.g.
// "1 hour and 30 minutes" or "2 hours, 15 minutes and 45 seconds". Used
// for the derived duration comments in log files.
func FormatDurationWords(d time.Duration) string {
	total := int64(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	hours := plural(h, "hour")
	minutes := plural(m, "minute")
	seconds := plural(s, "second")

	switch {
	case h > 0 && m > 0 && s > 0:
		return fmt.Sprintf("%s, %s and %s", hours, minutes, seconds)
	case h > 0 && m > 0:
		return fmt.Sprintf("%s and %s", hours, minutes)
	case h > 0 && s > 0:
		return fmt.Sprintf("%s and %s", hours, seconds)
	case h > 0:
		return hours
	case m > 0 && s > 0:
		return fmt.Sprintf("%s and %s", minutes, seconds)
	case m > 0:
		return minutes
	default:
		return seconds
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
