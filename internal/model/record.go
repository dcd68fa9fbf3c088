package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/faffage/faff/internal/timeutil"
)

// Records are the structural (de)serialization forms of the core types:
// plain structs with only strings, pointers, maps and slices, shared by
// the JSON and TOML and CBOR surfaces. Round trips through a record are
// lossless for valid values; malformed records fail with
// ErrDeserialization.

// StringList unmarshals from either a single string or an array of
// strings. Log files written by hand often use the single-string form for
// a lone tracker.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("trackers must be a string or an array of strings: %w", ErrDeserialization)
	}
	*l = StringList(many)
	return nil
}

// UnmarshalTOML implements toml.Unmarshaler.
func (l *StringList) UnmarshalTOML(v any) error {
	switch value := v.(type) {
	case string:
		*l = StringList{value}
		return nil
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("trackers must be strings: %w", ErrDeserialization)
			}
			out = append(out, s)
		}
		*l = StringList(out)
		return nil
	default:
		return fmt.Errorf("trackers must be a string or an array of strings: %w", ErrDeserialization)
	}
}

// SessionRecord is the stored form of a session inside a log: intent
// fields flattened alongside wall-clock times. The times are interpreted
// against the log's date and timezone exactly once, at ingestion; a time
// may carry an explicit ±HH:MM offset, and must on DST-transition days.
type SessionRecord struct {
	Alias     *string    `json:"alias,omitempty" toml:"alias"`
	Role      *string    `json:"role,omitempty" toml:"role"`
	Objective *string    `json:"objective,omitempty" toml:"objective"`
	Action    *string    `json:"action,omitempty" toml:"action"`
	Subject   *string    `json:"subject,omitempty" toml:"subject"`
	Trackers  StringList `json:"trackers,omitempty" toml:"trackers"`
	Start     string     `json:"start" toml:"start"`
	End       *string    `json:"end,omitempty" toml:"end"`
	Note      *string    `json:"note,omitempty" toml:"note"`
}

// NewSessionFromRecord resolves a stored session record against the log's
// date and timezone. Ambiguous or nonexistent local times are rejected,
// never guessed.
func NewSessionFromRecord(rec SessionRecord, date timeutil.Date, loc *time.Location) (Session, error) {
	if rec.Start == "" {
		return Session{}, fmt.Errorf("session record has no start: %w", ErrDeserialization)
	}
	start, err := timeutil.ResolveClock(date, rec.Start, loc)
	if err != nil {
		return Session{}, fmt.Errorf("session start: %w", err)
	}
	var end *time.Time
	if rec.End != nil {
		e, err := timeutil.ResolveClock(date, *rec.End, loc)
		if err != nil {
			return Session{}, fmt.Errorf("session end: %w", err)
		}
		end = &e
	}
	intent := NewIntent(rec.Alias, rec.Role, rec.Objective, rec.Action, rec.Subject, rec.Trackers)
	return NewSession(intent, start, end, rec.Note)
}

// Record returns the stored form of the session rendered in loc's wall
// clock. withOffset qualifies each time with its numeric UTC offset;
// log files set it on DST-transition days.
func (s Session) Record(loc *time.Location, withOffset bool) SessionRecord {
	rec := SessionRecord{
		Alias:     s.Intent.Alias,
		Role:      s.Intent.Role,
		Objective: s.Intent.Objective,
		Action:    s.Intent.Action,
		Subject:   s.Intent.Subject,
		Trackers:  StringList(s.Intent.Trackers),
		Start:     timeutil.FormatClock(s.Start.In(loc), withOffset),
		Note:      s.Note,
	}
	if s.End != nil {
		end := timeutil.FormatClock(s.End.In(loc), withOffset)
		rec.End = &end
	}
	return rec
}

// LogRecord is the stored form of a log.
type LogRecord struct {
	Date     string          `json:"date" toml:"date"`
	Timezone string          `json:"timezone" toml:"timezone"`
	Timeline []SessionRecord `json:"timeline,omitempty" toml:"timeline"`
}

// Record returns the stored form of the log. Times carry explicit offsets
// when the date has a DST event, so they stay unambiguous.
func (l Log) Record() LogRecord {
	withOffset := timeutil.DateHasDSTEvent(l.date, l.timezone)
	rec := LogRecord{
		Date:     l.date.String(),
		Timezone: l.timezone.String(),
	}
	for _, s := range l.timeline {
		rec.Timeline = append(rec.Timeline, s.Record(l.timezone, withOffset))
	}
	return rec
}

// LogFromRecord rehydrates a log, re-checking the timeline invariants.
func LogFromRecord(rec LogRecord) (Log, error) {
	date, err := timeutil.ParseDate(rec.Date)
	if err != nil {
		return Log{}, fmt.Errorf("log date: %v: %w", err, ErrDeserialization)
	}
	if rec.Timezone == "" {
		return Log{}, fmt.Errorf("log record has no timezone: %w", ErrDeserialization)
	}
	loc, err := time.LoadLocation(rec.Timezone)
	if err != nil {
		return Log{}, fmt.Errorf("log timezone %q: %v: %w", rec.Timezone, err, ErrDeserialization)
	}
	timeline := make([]Session, 0, len(rec.Timeline))
	for i, sr := range rec.Timeline {
		s, err := NewSessionFromRecord(sr, date, loc)
		if err != nil {
			return Log{}, fmt.Errorf("timeline entry %d: %w", i, err)
		}
		timeline = append(timeline, s)
	}
	return NewLog(date, loc, timeline)
}

// TimesheetSessionRecord is the stored form of a session inside a
// timesheet. Unlike log records it is self-contained: times are full
// instants with explicit offsets, no external date or zone needed.
type TimesheetSessionRecord struct {
	Alias     *string    `json:"alias,omitempty"`
	Role      *string    `json:"role,omitempty"`
	Objective *string    `json:"objective,omitempty"`
	Action    *string    `json:"action,omitempty"`
	Subject   *string    `json:"subject,omitempty"`
	Trackers  StringList `json:"trackers,omitempty"`
	Start     string     `json:"start"`
	End       *string    `json:"end,omitempty"`
	Note      *string    `json:"note,omitempty"`
}

// SignatureRecord is the stored form of one signer's signature.
type SignatureRecord struct {
	Algorithm string `json:"algorithm"`
	Signature []byte `json:"signature"`
}

// MetaRecord is the stored form of timesheet meta.
type MetaRecord struct {
	AudienceID  string  `json:"audience_id"`
	SubmittedAt *string `json:"submitted_at,omitempty"`
	SubmittedBy *string `json:"submitted_by,omitempty"`
}

// TimesheetRecord is the stored form of a timesheet, signatures and meta
// included.
type TimesheetRecord struct {
	Actor      map[string]string          `json:"actor"`
	Date       string                     `json:"date"`
	Compiled   string                     `json:"compiled"`
	Timezone   string                     `json:"timezone"`
	Timeline   []TimesheetSessionRecord   `json:"timeline"`
	Signatures map[string]SignatureRecord `json:"signatures,omitempty"`
	Meta       MetaRecord                 `json:"meta"`
}

// Record returns the stored form of the timesheet.
func (t Timesheet) Record() TimesheetRecord {
	rec := TimesheetRecord{
		Actor:    copyStringMap(t.actor),
		Date:     t.date.String(),
		Compiled: timeutil.FormatInstant(t.compiled),
		Timezone: t.timezone.String(),
		Meta: MetaRecord{
			AudienceID:  t.meta.AudienceID,
			SubmittedBy: t.meta.SubmittedBy,
		},
	}
	if t.meta.SubmittedAt != nil {
		at := timeutil.FormatInstant(*t.meta.SubmittedAt)
		rec.Meta.SubmittedAt = &at
	}
	for _, s := range t.timeline {
		sr := TimesheetSessionRecord{
			Alias:     s.Intent.Alias,
			Role:      s.Intent.Role,
			Objective: s.Intent.Objective,
			Action:    s.Intent.Action,
			Subject:   s.Intent.Subject,
			Trackers:  StringList(s.Intent.Trackers),
			Start:     timeutil.FormatInstant(s.Start),
			Note:      s.Note,
		}
		if s.End != nil {
			end := timeutil.FormatInstant(*s.End)
			sr.End = &end
		}
		rec.Timeline = append(rec.Timeline, sr)
	}
	if len(t.signatures) > 0 {
		rec.Signatures = make(map[string]SignatureRecord, len(t.signatures))
		for id, sig := range t.signatures {
			rec.Signatures[id] = SignatureRecord{
				Algorithm: sig.Algorithm,
				Signature: append([]byte(nil), sig.Bytes...),
			}
		}
	}
	return rec
}

// TimesheetFromRecord rehydrates a timesheet, re-checking its invariants.
func TimesheetFromRecord(rec TimesheetRecord) (Timesheet, error) {
	date, err := timeutil.ParseDate(rec.Date)
	if err != nil {
		return Timesheet{}, fmt.Errorf("timesheet date: %v: %w", err, ErrDeserialization)
	}
	compiled, err := timeutil.ParseInstant(rec.Compiled)
	if err != nil {
		return Timesheet{}, fmt.Errorf("timesheet compiled: %v: %w", err, ErrDeserialization)
	}
	if rec.Timezone == "" {
		return Timesheet{}, fmt.Errorf("timesheet record has no timezone: %w", ErrDeserialization)
	}
	loc, err := time.LoadLocation(rec.Timezone)
	if err != nil {
		return Timesheet{}, fmt.Errorf("timesheet timezone %q: %v: %w", rec.Timezone, err, ErrDeserialization)
	}

	timeline := make([]Session, 0, len(rec.Timeline))
	for i, sr := range rec.Timeline {
		if sr.Start == "" {
			return Timesheet{}, fmt.Errorf("timeline entry %d has no start: %w", i, ErrDeserialization)
		}
		start, err := timeutil.ParseInstant(sr.Start)
		if err != nil {
			return Timesheet{}, fmt.Errorf("timeline entry %d start: %v: %w", i, err, ErrDeserialization)
		}
		var end *time.Time
		if sr.End != nil {
			e, err := timeutil.ParseInstant(*sr.End)
			if err != nil {
				return Timesheet{}, fmt.Errorf("timeline entry %d end: %v: %w", i, err, ErrDeserialization)
			}
			end = &e
		}
		intent := NewIntent(sr.Alias, sr.Role, sr.Objective, sr.Action, sr.Subject, sr.Trackers)
		s, err := NewSession(intent, start, end, sr.Note)
		if err != nil {
			return Timesheet{}, fmt.Errorf("timeline entry %d: %w", i, err)
		}
		timeline = append(timeline, s)
	}

	var signatures map[string]Signature
	if len(rec.Signatures) > 0 {
		signatures = make(map[string]Signature, len(rec.Signatures))
		for id, sr := range rec.Signatures {
			signatures[id] = Signature{
				Algorithm: sr.Algorithm,
				Bytes:     append([]byte(nil), sr.Signature...),
			}
		}
	}

	meta := Meta{AudienceID: rec.Meta.AudienceID, SubmittedBy: rec.Meta.SubmittedBy}
	if rec.Meta.SubmittedAt != nil {
		at, err := timeutil.ParseInstant(*rec.Meta.SubmittedAt)
		if err != nil {
			return Timesheet{}, fmt.Errorf("timesheet submitted_at: %v: %w", err, ErrDeserialization)
		}
		meta.SubmittedAt = &at
	}

	return NewTimesheet(rec.Actor, date, compiled, loc, timeline, signatures, meta)
}
