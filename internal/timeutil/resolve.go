package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrAmbiguousLocalTime reports a wall-clock time that occurs twice on
	// the given date (DST fold) and carries no explicit offset.
	ErrAmbiguousLocalTime = errors.New("ambiguous local time")
	// ErrNonexistentLocalTime reports a wall-clock time skipped on the
	// given date (DST gap).
	ErrNonexistentLocalTime = errors.New("nonexistent local time")
)

// InstantLayout is the canonical rendering of an instant: RFC 3339 with an
// always-numeric UTC offset. UTC renders as +00:00, never Z, so that equal
// instants have exactly one textual form.
const InstantLayout = "2006-01-02T15:04:05-07:00"

// FormatInstant renders t in the canonical instant form.
func FormatInstant(t time.Time) string {
	return t.Format(InstantLayout)
}

// ParseInstant parses the canonical instant form. The result carries the
// encoded offset as a fixed zone.
func ParseInstant(s string) (time.Time, error) {
	t, err := time.Parse(InstantLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid instant %q: %w", s, err)
	}
	return t, nil
}

// OffsetZone returns a fixed time.Location named after the offset, e.g.
// "+01:00" for 3600 seconds.
func OffsetZone(offsetSeconds int) *time.Location {
	return time.FixedZone(formatOffset(offsetSeconds), offsetSeconds)
}

func formatOffset(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}

// ResolveClock converts a wall-clock string on a calendar date into an
// offset-qualified instant. The clock is HH:MM, optionally with seconds,
// optionally followed by an explicit ±HH:MM offset:
//
//	"09:00"  "09:00:30"  "01:30+01:00"  "01:30:00+00:00"
//
// With an explicit offset the instant is taken as given; the offset is
// authoritative and no zone rules are consulted. Without one, loc's rules
// for that date decide the offset — and a time that falls in a DST gap or
// fold is rejected (ErrNonexistentLocalTime / ErrAmbiguousLocalTime) rather
// than guessed. This is the single point where local times become instants;
// nothing downstream re-derives offsets from zone rules.
func ResolveClock(d Date, clock string, loc *time.Location) (time.Time, error) {
	hh, mm, ss, offset, hasOffset, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}

	if hasOffset {
		return time.Date(d.Year, d.Month, d.Day, hh, mm, ss, 0, OffsetZone(offset)), nil
	}

	// Candidate offsets are the ones in force at the start and end of the
	// date. A date without a zone transition has one candidate; a
	// transition date has two.
	_, startOffset := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc).Zone()
	_, endOffset := time.Date(d.Year, d.Month, d.Day, 23, 59, 59, 0, loc).Zone()
	offsets := []int{startOffset}
	if endOffset != startOffset {
		offsets = append(offsets, endOffset)
	}

	var matches []time.Time
	for _, off := range offsets {
		candidate := time.Date(d.Year, d.Month, d.Day, hh, mm, ss, 0, OffsetZone(off))
		local := candidate.In(loc)
		ly, lm, ld := local.Date()
		if ly == d.Year && lm == d.Month && ld == d.Day &&
			local.Hour() == hh && local.Minute() == mm && local.Second() == ss {
			matches = append(matches, candidate)
		}
	}

	switch len(matches) {
	case 0:
		return time.Time{}, fmt.Errorf("%s %s in %s: %w", d, clock, loc, ErrNonexistentLocalTime)
	case 1:
		return matches[0], nil
	default:
		return time.Time{}, fmt.Errorf("%s %s in %s: %w", d, clock, loc, ErrAmbiguousLocalTime)
	}
}

// FormatClock renders the wall-clock part of t, including seconds only when
// non-zero, and including the numeric offset when withOffset is set.
func FormatClock(t time.Time, withOffset bool) string {
	layout := "15:04"
	if t.Second() != 0 {
		layout = "15:04:05"
	}
	if withOffset {
		layout += "-07:00"
	}
	return t.Format(layout)
}

// DateHasDSTEvent reports whether loc changes its UTC offset at some point
// during the given date. Log files written for such dates qualify every
// time with an explicit offset.
func DateHasDSTEvent(d Date, loc *time.Location) bool {
	_, startOffset := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc).Zone()
	_, endOffset := time.Date(d.Year, d.Month, d.Day, 23, 59, 59, 0, loc).Zone()
	return startOffset != endOffset
}

// parseClock splits HH:MM[:SS][±HH:MM] into its parts.
func parseClock(s string) (hh, mm, ss, offset int, hasOffset bool, err error) {
	clock := s
	// An offset suffix starts with + or - after the time digits; the time
	// part itself never contains either.
	if i := strings.IndexAny(s, "+-"); i > 0 {
		clock = s[:i]
		offset, err = parseOffset(s[i:])
		if err != nil {
			return 0, 0, 0, 0, false, fmt.Errorf("invalid time %q: %v", s, err)
		}
		hasOffset = true
	}

	parts := strings.Split(clock, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, 0, 0, false, fmt.Errorf("invalid time %q: want HH:MM or HH:MM:SS", s)
	}
	fields := []*int{&hh, &mm, &ss}
	for i, p := range parts {
		v, convErr := strconv.Atoi(p)
		if convErr != nil || len(p) != 2 {
			return 0, 0, 0, 0, false, fmt.Errorf("invalid time %q", s)
		}
		*fields[i] = v
	}
	if hh > 23 || mm > 59 || ss > 59 {
		return 0, 0, 0, 0, false, fmt.Errorf("invalid time %q: out of range", s)
	}
	return hh, mm, ss, offset, hasOffset, nil
}

func parseOffset(s string) (int, error) {
	if len(s) != 6 || s[3] != ':' {
		return 0, fmt.Errorf("want ±HH:MM offset, got %q", s)
	}
	hh, err1 := strconv.Atoi(s[1:3])
	mm, err2 := strconv.Atoi(s[4:6])
	if err1 != nil || err2 != nil || hh > 23 || mm > 59 {
		return 0, fmt.Errorf("want ±HH:MM offset, got %q", s)
	}
	offset := hh*3600 + mm*60
	if s[0] == '-' {
		offset = -offset
	}
	return offset, nil
}
