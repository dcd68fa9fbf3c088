package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/faffage/faff/internal/model"
	"github.com/faffage/faff/internal/timeutil"
)

func sampleIntent(alias string) model.Intent {
	return model.NewIntent(model.StrPtr(alias), model.StrPtr("engineer"),
		model.StrPtr("development"), model.StrPtr("coding"), model.StrPtr("features"), nil)
}

func at(hour, min int) time.Time {
	return time.Date(2025, 3, 15, hour, min, 0, 0, time.UTC)
}

func closedSession(t *testing.T, alias string, start, end time.Time) model.Session {
	t.Helper()
	s, err := model.NewSession(sampleIntent(alias), start, &end, nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func openSession(t *testing.T, alias string, start time.Time) model.Session {
	t.Helper()
	s, err := model.NewSession(sampleIntent(alias), start, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func sampleDate() timeutil.Date {
	return timeutil.Date{Year: 2025, Month: time.March, Day: 15}
}

func TestAppendRejectsWhileActive(t *testing.T) {
	log := model.EmptyLog(sampleDate(), time.UTC)
	log, err := log.Append(openSession(t, "work", at(9, 0)))
	if err != nil {
		t.Fatal(err)
	}

	_, err = log.Append(openSession(t, "more", at(10, 0)))
	if !errors.Is(err, model.ErrSessionAlreadyActive) {
		t.Errorf("Append over active session: err = %v, want ErrSessionAlreadyActive", err)
	}

	// The original log is unchanged.
	if log.Len() != 1 {
		t.Errorf("Len = %d after failed append, want 1", log.Len())
	}
}

func TestAppendRejectsOverlap(t *testing.T) {
	log := model.EmptyLog(sampleDate(), time.UTC)
	log, err := log.Append(closedSession(t, "work", at(9, 0), at(10, 0)))
	if err != nil {
		t.Fatal(err)
	}

	_, err = log.Append(openSession(t, "early", at(9, 30)))
	if !errors.Is(err, model.ErrSessionOverlap) {
		t.Errorf("overlapping append: err = %v, want ErrSessionOverlap", err)
	}

	// Starting exactly when the previous session ended is fine.
	if _, err := log.Append(openSession(t, "boundary", at(10, 0))); err != nil {
		t.Errorf("boundary append: %v", err)
	}
}

func TestStopActive(t *testing.T) {
	log := model.EmptyLog(sampleDate(), time.UTC)

	if _, err := log.StopActive(at(10, 0)); !errors.Is(err, model.ErrNoActiveSession) {
		t.Errorf("stop on empty log: err = %v, want ErrNoActiveSession", err)
	}

	log, err := log.Append(openSession(t, "work", at(9, 0)))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := log.StopActive(at(8, 59)); !errors.Is(err, model.ErrInvalidStopTime) {
		t.Errorf("stop before start: err = %v, want ErrInvalidStopTime", err)
	}

	// Stopping at exactly the start yields a zero-duration session.
	stopped, err := log.StopActive(at(9, 0))
	if err != nil {
		t.Fatal(err)
	}
	s := stopped.Timeline()[0]
	d, err := s.Duration()
	if err != nil || d != 0 {
		t.Errorf("Duration = %v, %v, want 0, nil", d, err)
	}
	if !stopped.IsClosed() {
		t.Error("log still open after stop")
	}

	// All closed: nothing to stop.
	if _, err := stopped.StopActive(at(10, 0)); !errors.Is(err, model.ErrNoActiveSession) {
		t.Errorf("stop on closed log: err = %v, want ErrNoActiveSession", err)
	}
}

func TestTotalRecordedTimeCountsClosedOnly(t *testing.T) {
	log := model.EmptyLog(sampleDate(), time.UTC)
	log, err := log.Append(closedSession(t, "work", at(9, 0), at(10, 0)))
	if err != nil {
		t.Fatal(err)
	}
	log, err = log.Append(openSession(t, "more", at(10, 30)))
	if err != nil {
		t.Fatal(err)
	}

	if got := log.TotalRecordedTime(); got != time.Hour {
		t.Errorf("TotalRecordedTime = %v, want exactly 1h (active session excluded)", got)
	}
}

func TestActiveSession(t *testing.T) {
	log := model.EmptyLog(sampleDate(), time.UTC)
	if _, ok := log.ActiveSession(); ok {
		t.Error("empty log reports an active session")
	}

	log, _ = log.Append(closedSession(t, "work", at(9, 0), at(10, 0)))
	if _, ok := log.ActiveSession(); ok {
		t.Error("closed log reports an active session")
	}

	log, _ = log.Append(openSession(t, "more", at(10, 0)))
	active, ok := log.ActiveSession()
	if !ok {
		t.Fatal("open session not reported")
	}
	if active.Intent.String() != "more" {
		t.Errorf("active intent = %q", active.Intent.String())
	}
}

func TestNewLogRevalidates(t *testing.T) {
	open := openSession(t, "open", at(9, 0))
	closed := closedSession(t, "closed", at(10, 0), at(11, 0))

	if _, err := model.NewLog(sampleDate(), time.UTC, []model.Session{open, closed}); !errors.Is(err, model.ErrSessionAlreadyActive) {
		t.Errorf("open session not last: err = %v, want ErrSessionAlreadyActive", err)
	}

	a := closedSession(t, "a", at(9, 0), at(10, 0))
	b := closedSession(t, "b", at(9, 30), at(10, 30))
	if _, err := model.NewLog(sampleDate(), time.UTC, []model.Session{a, b}); !errors.Is(err, model.ErrSessionOverlap) {
		t.Errorf("overlapping timeline: err = %v, want ErrSessionOverlap", err)
	}
}

func TestSessionEndBeforeStart(t *testing.T) {
	end := at(8, 0)
	if _, err := model.NewSession(sampleIntent("work"), at(9, 0), &end, nil); !errors.Is(err, model.ErrInvalidEndTime) {
		t.Errorf("NewSession with end < start: err = %v, want ErrInvalidEndTime", err)
	}
}

func TestSessionEqualComparesOffsets(t *testing.T) {
	startUTC := at(9, 0)

	// The same moment with the same offset compares equal even when the
	// zone names differ (named zone vs fixed offset).
	startFixed := startUTC.In(timeutil.OffsetZone(0))
	a, _ := model.NewSession(sampleIntent("work"), startUTC, nil, nil)
	b, _ := model.NewSession(sampleIntent("work"), startFixed, nil, nil)
	if !a.Equal(b) {
		t.Error("same moment and offset under different zone names not equal")
	}

	// The same moment under a different offset renders differently in the
	// canonical form, so it is a different session.
	startBST := startUTC.In(timeutil.OffsetZone(3600))
	c, _ := model.NewSession(sampleIntent("work"), startBST, nil, nil)
	if a.Equal(c) {
		t.Error("same moment under different offsets compared equal")
	}
}
