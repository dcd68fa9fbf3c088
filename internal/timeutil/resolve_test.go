package timeutil_test

import (
	"errors"
	"testing"
	"time"

	"github.com/faffage/faff/internal/timeutil"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("loading %s: %v", name, err)
	}
	return loc
}

func TestResolveClock(t *testing.T) {
	london := mustLoc(t, "Europe/London")

	tests := []struct {
		name  string
		date  string
		clock string
		want  string // canonical instant, empty when an error is expected
		err   error
	}{
		{
			name:  "winter date resolves to GMT",
			date:  "2025-01-15",
			clock: "09:00",
			want:  "2025-01-15T09:00:00+00:00",
		},
		{
			name:  "summer date resolves to BST",
			date:  "2025-07-15",
			clock: "09:00",
			want:  "2025-07-15T09:00:00+01:00",
		},
		{
			name:  "seconds are kept",
			date:  "2025-01-15",
			clock: "09:00:30",
			want:  "2025-01-15T09:00:30+00:00",
		},
		{
			name:  "spring-forward gap is rejected",
			date:  "2025-03-30",
			clock: "01:30",
			err:   timeutil.ErrNonexistentLocalTime,
		},
		{
			name:  "fall-back fold is rejected",
			date:  "2025-10-26",
			clock: "01:30",
			err:   timeutil.ErrAmbiguousLocalTime,
		},
		{
			name:  "explicit offset disambiguates the fold",
			date:  "2025-10-26",
			clock: "01:30+01:00",
			want:  "2025-10-26T01:30:00+01:00",
		},
		{
			name:  "explicit offset picks the second pass",
			date:  "2025-10-26",
			clock: "01:30+00:00",
			want:  "2025-10-26T01:30:00+00:00",
		},
		{
			name:  "explicit offset is authoritative even in the gap",
			date:  "2025-03-30",
			clock: "01:30+00:00",
			want:  "2025-03-30T01:30:00+00:00",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			date, err := timeutil.ParseDate(tc.date)
			if err != nil {
				t.Fatal(err)
			}
			got, err := timeutil.ResolveClock(date, tc.clock, london)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("ResolveClock(%q) error = %v, want %v", tc.clock, err, tc.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveClock(%q): %v", tc.clock, err)
			}
			if s := timeutil.FormatInstant(got); s != tc.want {
				t.Errorf("ResolveClock(%q) = %s, want %s", tc.clock, s, tc.want)
			}
		})
	}
}

func TestResolveClockInvalid(t *testing.T) {
	date, _ := timeutil.ParseDate("2025-01-15")
	for _, clock := range []string{"", "9:00", "09", "25:00", "09:61", "09:00+1:00", "09:00Z"} {
		if _, err := timeutil.ResolveClock(date, clock, time.UTC); err == nil {
			t.Errorf("ResolveClock(%q) succeeded, want error", clock)
		}
	}
}

func TestInstantRoundTrip(t *testing.T) {
	orig := time.Date(2025, 3, 15, 9, 30, 0, 0, timeutil.OffsetZone(3600))
	s := timeutil.FormatInstant(orig)
	if s != "2025-03-15T09:30:00+01:00" {
		t.Fatalf("FormatInstant = %s", s)
	}
	back, err := timeutil.ParseInstant(s)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(orig) {
		t.Errorf("round trip changed the instant: %v != %v", back, orig)
	}
}

func TestFormatInstantUTCNeverZ(t *testing.T) {
	s := timeutil.FormatInstant(time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC))
	if s != "2025-03-15T09:00:00+00:00" {
		t.Errorf("UTC instant = %s, want numeric +00:00 offset", s)
	}
}

func TestFormatClock(t *testing.T) {
	bst := timeutil.OffsetZone(3600)
	tests := []struct {
		t          time.Time
		withOffset bool
		want       string
	}{
		{time.Date(2025, 3, 15, 9, 5, 0, 0, time.UTC), false, "09:05"},
		{time.Date(2025, 3, 15, 9, 5, 30, 0, time.UTC), false, "09:05:30"},
		{time.Date(2025, 3, 15, 9, 5, 0, 0, bst), true, "09:05+01:00"},
		{time.Date(2025, 3, 15, 9, 5, 30, 0, bst), true, "09:05:30+01:00"},
	}
	for _, tc := range tests {
		if got := timeutil.FormatClock(tc.t, tc.withOffset); got != tc.want {
			t.Errorf("FormatClock(%v, %v) = %q, want %q", tc.t, tc.withOffset, got, tc.want)
		}
	}
}

func TestDateHasDSTEvent(t *testing.T) {
	london := mustLoc(t, "Europe/London")
	tests := []struct {
		date string
		want bool
	}{
		{"2025-03-30", true},
		{"2025-10-26", true},
		{"2025-03-15", false},
		{"2025-07-01", false},
	}
	for _, tc := range tests {
		date, _ := timeutil.ParseDate(tc.date)
		if got := timeutil.DateHasDSTEvent(date, london); got != tc.want {
			t.Errorf("DateHasDSTEvent(%s) = %v, want %v", tc.date, got, tc.want)
		}
	}
	date, _ := timeutil.ParseDate("2025-03-30")
	if timeutil.DateHasDSTEvent(date, time.UTC) {
		t.Error("UTC never has DST events")
	}
}
