package model

import (
	"time"
)

// Session is one bounded (or currently open) interval of work tagged with
// an Intent. Start and End always carry an explicit UTC offset; the model
// never holds a timezone-naive timestamp. A nil End means the session is
// active.
type Session struct {
	Intent Intent
	Start  time.Time
	End    *time.Time
	Note   *string
}

// NewSession builds a Session, rejecting an end before the start.
// Zero-length sessions are permitted; they represent instantaneous logged
// events.
func NewSession(intent Intent, start time.Time, end *time.Time, note *string) (Session, error) {
	if end != nil && end.Before(start) {
		return Session{}, ErrInvalidEndTime
	}
	return Session{Intent: intent, Start: start, End: end, Note: note}, nil
}

// Active reports whether the session has no end yet.
func (s Session) Active() bool {
	return s.End == nil
}

// Duration returns end − start for a closed session. An active session has
// no duration: callers that want elapsed time must supply "now" themselves,
// the type holds no clock.
func (s Session) Duration() (time.Duration, error) {
	if s.End == nil {
		return 0, ErrSessionStillActive
	}
	return s.End.Sub(s.Start), nil
}

// WithEnd returns a copy of the session with the end set.
func (s Session) WithEnd(end time.Time) (Session, error) {
	if end.Before(s.Start) {
		return Session{}, ErrInvalidEndTime
	}
	out := s
	out.End = &end
	return out, nil
}

// Equal reports structural equality. Instants must name the same moment
// with the same recorded UTC offset: the offset survives canonical
// encoding, so sessions that compare equal always canonicalize to the
// same bytes.
func (s Session) Equal(o Session) bool {
	if !s.Intent.Equal(o.Intent) || !instantEqual(s.Start, o.Start) || !strPtrEqual(s.Note, o.Note) {
		return false
	}
	if s.End == nil || o.End == nil {
		return s.End == o.End
	}
	return instantEqual(*s.End, *o.End)
}

// instantEqual compares the moment and the recorded offset; zone names
// are irrelevant.
func instantEqual(a, b time.Time) bool {
	if !a.Equal(b) {
		return false
	}
	_, ao := a.Zone()
	_, bo := b.Zone()
	return ao == bo
}
