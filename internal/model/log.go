package model

import (
	"fmt"
	"time"

	"github.com/faffage/faff/internal/timeutil"
)

// Log is the ordered timeline of sessions for one calendar date in one
// timezone. The timeline invariants hold for every observable value:
//
//  1. sessions are sorted by start, non-decreasing;
//  2. at most one session is open, and only as the last element;
//  3. consecutive sessions never overlap (next.start ≥ prev.end).
//
// Log values are immutable. Append and StopActive return new values and
// leave the receiver untouched; whichever component owns "the current log"
// decides which value wins.
type Log struct {
	date     timeutil.Date
	timezone *time.Location
	timeline []Session
}

// NewLog builds a Log from an existing timeline, re-checking the
// invariants. Use it when rehydrating from storage; an invalid timeline is
// rejected with the error naming the violated invariant.
func NewLog(date timeutil.Date, timezone *time.Location, timeline []Session) (Log, error) {
	if err := validateTimeline(timeline); err != nil {
		return Log{}, err
	}
	return Log{date: date, timezone: timezone, timeline: append([]Session(nil), timeline...)}, nil
}

// EmptyLog builds a Log with no sessions.
func EmptyLog(date timeutil.Date, timezone *time.Location) Log {
	return Log{date: date, timezone: timezone}
}

func validateTimeline(timeline []Session) error {
	for i, s := range timeline {
		if s.End != nil && s.End.Before(s.Start) {
			return fmt.Errorf("session %d: %w", i, ErrInvalidEndTime)
		}
		if s.End == nil && i != len(timeline)-1 {
			return fmt.Errorf("session %d is open but not last: %w", i, ErrSessionAlreadyActive)
		}
		if i > 0 {
			prev := timeline[i-1]
			if prev.End == nil {
				return fmt.Errorf("session %d follows an open session: %w", i, ErrSessionAlreadyActive)
			}
			if s.Start.Before(*prev.End) {
				return fmt.Errorf("session %d starts before session %d ends: %w", i, i-1, ErrSessionOverlap)
			}
		}
	}
	return nil
}

// Date returns the log's calendar date.
func (l Log) Date() timeutil.Date {
	return l.date
}

// Timezone returns the location used to render this log's instants.
func (l Log) Timezone() *time.Location {
	return l.timezone
}

// Timeline returns a copy of the session timeline.
func (l Log) Timeline() []Session {
	return append([]Session(nil), l.timeline...)
}

// Len returns the number of sessions.
func (l Log) Len() int {
	return len(l.timeline)
}

// ActiveSession returns the open session, if any.
func (l Log) ActiveSession() (Session, bool) {
	if len(l.timeline) == 0 {
		return Session{}, false
	}
	last := l.timeline[len(l.timeline)-1]
	if last.End == nil {
		return last, true
	}
	return Session{}, false
}

// IsClosed reports whether every session has an end. An empty log is
// closed.
func (l Log) IsClosed() bool {
	_, active := l.ActiveSession()
	return !active
}

// Append returns a new Log with the session added at the end of the
// timeline. The current last session must be closed
// (ErrSessionAlreadyActive) and the new session must not start before it
// ended (ErrSessionOverlap); starting exactly when the previous session
// ended is fine.
func (l Log) Append(s Session) (Log, error) {
	if s.End != nil && s.End.Before(s.Start) {
		return Log{}, ErrInvalidEndTime
	}
	if len(l.timeline) > 0 {
		last := l.timeline[len(l.timeline)-1]
		if last.End == nil {
			return Log{}, ErrSessionAlreadyActive
		}
		if s.Start.Before(*last.End) {
			return Log{}, fmt.Errorf("session starts %s before previous ends %s: %w",
				timeutil.FormatInstant(s.Start), timeutil.FormatInstant(*last.End), ErrSessionOverlap)
		}
	}
	timeline := make([]Session, 0, len(l.timeline)+1)
	timeline = append(timeline, l.timeline...)
	timeline = append(timeline, s)
	return Log{date: l.date, timezone: l.timezone, timeline: timeline}, nil
}

// StopActive returns a new Log with the active session closed at stopTime.
func (l Log) StopActive(stopTime time.Time) (Log, error) {
	active, ok := l.ActiveSession()
	if !ok {
		return Log{}, ErrNoActiveSession
	}
	if stopTime.Before(active.Start) {
		return Log{}, fmt.Errorf("stop %s before start %s: %w",
			timeutil.FormatInstant(stopTime), timeutil.FormatInstant(active.Start), ErrInvalidStopTime)
	}
	timeline := append([]Session(nil), l.timeline...)
	stopped, err := timeline[len(timeline)-1].WithEnd(stopTime)
	if err != nil {
		return Log{}, err
	}
	timeline[len(timeline)-1] = stopped
	return Log{date: l.date, timezone: l.timezone, timeline: timeline}, nil
}

// TotalRecordedTime sums end − start over closed sessions. The active
// session contributes nothing: recorded time is completed work, not
// in-progress elapsed time.
func (l Log) TotalRecordedTime() time.Duration {
	var total time.Duration
	for _, s := range l.timeline {
		if s.End != nil {
			total += s.End.Sub(s.Start)
		}
	}
	return total
}

// Equal reports whether two logs have the same date, timezone name and
// timeline.
func (l Log) Equal(o Log) bool {
	if l.date != o.date || l.timezone.String() != o.timezone.String() || len(l.timeline) != len(o.timeline) {
		return false
	}
	for i, s := range l.timeline {
		if !s.Equal(o.timeline[i]) {
			return false
		}
	}
	return true
}
