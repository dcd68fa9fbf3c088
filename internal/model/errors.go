package model

import "errors"

// Sentinel errors for the timeline and signing invariants. All are
// recoverable; callers branch with errors.Is.
var (
	// ErrSessionAlreadyActive is returned when appending to a log whose
	// last session is still open.
	ErrSessionAlreadyActive = errors.New("a session is already active")

	// ErrSessionOverlap is returned when a session starts before the
	// previous session ended.
	ErrSessionOverlap = errors.New("session overlaps previous session")

	// ErrNoActiveSession is returned when stopping a log with no open
	// session.
	ErrNoActiveSession = errors.New("no active session")

	// ErrInvalidStopTime is returned when a stop time precedes the active
	// session's start.
	ErrInvalidStopTime = errors.New("stop time precedes session start")

	// ErrInvalidEndTime is returned when a session end precedes its start.
	ErrInvalidEndTime = errors.New("end time precedes session start")

	// ErrSessionStillActive is returned when the duration of an open
	// session is requested; open sessions have no duration.
	ErrSessionStillActive = errors.New("session is still active")

	// ErrIncompleteSession is returned when a timesheet is compiled from a
	// timeline containing an open session.
	ErrIncompleteSession = errors.New("timeline contains an open session")

	// ErrUnknownSigner is returned when verifying a signer id with no
	// signature entry.
	ErrUnknownSigner = errors.New("unknown signer")

	// ErrSignatureInvalid is returned when a stored signature does not
	// verify against the canonical form.
	ErrSignatureInvalid = errors.New("signature verification failed")

	// ErrDeserialization is returned when a stored record is malformed.
	ErrDeserialization = errors.New("malformed record")
)
