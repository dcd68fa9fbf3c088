package timeutil_test

import (
	"testing"
	"time"

	"github.com/faffage/faff/internal/timeutil"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{time.Hour + 40*time.Minute, "1h 40m"},
		{45 * time.Minute, "45m"},
		{30 * time.Second, "30s"},
		{2 * time.Hour, "2h 0m"},
		{0, "0s"},
	}
	for _, tc := range tests {
		if got := timeutil.FormatDuration(tc.d); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestFormatDurationWords(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{2 * time.Hour, "2 hours"},
		{45 * time.Minute, "45 minutes"},
		{30 * time.Second, "30 seconds"},
		{time.Hour + 30*time.Minute, "1 hour and 30 minutes"},
		{2*time.Hour + 15*time.Minute + 45*time.Second, "2 hours, 15 minutes and 45 seconds"},
		{time.Hour + 30*time.Second, "1 hour and 30 seconds"},
		{time.Minute + time.Second, "1 minute and 1 second"},
		{0, "0 seconds"},
	}
	for _, tc := range tests {
		if got := timeutil.FormatDurationWords(tc.d); got != tc.want {
			t.Errorf("FormatDurationWords(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
