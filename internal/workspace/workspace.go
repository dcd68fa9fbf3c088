// Package workspace ties the pieces together: configuration, clock,
// stores and the core model. Every CLI command goes through a Workspace;
// it owns the read-modify-write cycle on the current day's log.
package workspace

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/faffage/faff/internal/clock"
	"github.com/faffage/faff/internal/config"
	"github.com/faffage/faff/internal/identity"
	"github.com/faffage/faff/internal/model"
	"github.com/faffage/faff/internal/plan"
	"github.com/faffage/faff/internal/storage"
	"github.com/faffage/faff/internal/timeutil"
)

// Workspace is the operational root of a faff data directory.
type Workspace struct {
	base   string
	cfg    config.Config
	loc    *time.Location
	clk    clock.Clock
	logger *slog.Logger

	identities *identity.Store
	plans      *plan.Store

	// mu serializes log mutations so concurrent commands cannot lose
	// updates in the read-modify-write cycle.
	mu sync.Mutex
}

// New builds a Workspace over base with the given clock and logger.
func New(base string, clk clock.Clock, logger *slog.Logger) (*Workspace, error) {
	cfg, err := config.Load(base)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &Workspace{
		base:       base,
		cfg:        cfg,
		loc:        loc,
		clk:        clk,
		logger:     logger,
		identities: identity.NewStore(storage.IdentityDir(base)),
		plans:      plan.NewStore(storage.PlanDir(base)),
	}, nil
}

// Open builds a Workspace over the default data directory with the system
// clock.
func Open(logger *slog.Logger) (*Workspace, error) {
	base, err := storage.BaseDir()
	if err != nil {
		return nil, err
	}
	return New(base, clock.Real{}, logger)
}

// Base returns the data directory.
func (w *Workspace) Base() string { return w.base }

// Config returns the loaded configuration.
func (w *Workspace) Config() config.Config { return w.cfg }

// Location returns the workspace timezone.
func (w *Workspace) Location() *time.Location { return w.loc }

// Identities returns the identity store.
func (w *Workspace) Identities() *identity.Store { return w.identities }

// Plans returns the plan store.
func (w *Workspace) Plans() *plan.Store { return w.plans }

// Now returns the current instant in the workspace timezone, truncated
// to whole seconds. Stored instants carry second precision at most, so
// anything finer entering the model would be lost on the next reload.
func (w *Workspace) Now() time.Time {
	return w.clk.Now().In(w.loc).Truncate(time.Second)
}

// Today returns the current calendar date in the workspace timezone.
func (w *Workspace) Today() timeutil.Date {
	return timeutil.DateOf(w.Now())
}

// Log returns the log for date, or an empty one when no file exists.
func (w *Workspace) Log(date timeutil.Date) (model.Log, error) {
	log, ok, err := storage.LoadLog(w.base, date)
	if err != nil {
		return model.Log{}, err
	}
	if !ok {
		return model.EmptyLog(date, w.loc), nil
	}
	return log, nil
}

// StartIntent opens a new session with intent at the current time in
// today's log. Any tracker the intent names must exist in a plan valid
// today. Fails with ErrSessionAlreadyActive while a session is open.
func (w *Workspace) StartIntent(intent model.Intent, note *string) (model.Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.Now()
	today := timeutil.DateOf(now)

	trackers, err := w.plans.Trackers(today)
	if err != nil {
		return model.Session{}, err
	}
	for _, id := range intent.Trackers {
		if _, ok := trackers[id]; !ok {
			return model.Session{}, fmt.Errorf("tracker %q not found in today's plans", id)
		}
	}

	log, err := w.Log(today)
	if err != nil {
		return model.Session{}, err
	}
	session, err := model.NewSession(intent, now, nil, note)
	if err != nil {
		return model.Session{}, err
	}
	updated, err := log.Append(session)
	if err != nil {
		return model.Session{}, err
	}
	if err := storage.SaveLog(w.base, updated, trackers); err != nil {
		return model.Session{}, err
	}
	w.logger.Debug("session started", "date", today.String(), "intent", intent.String())
	return session, nil
}

// Stop closes the active session in today's log at the current time and
// returns it. A non-nil note is appended to the session's note. Fails
// with ErrNoActiveSession when nothing is running.
func (w *Workspace) Stop(note *string) (model.Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.Now()
	today := timeutil.DateOf(now)

	log, err := w.Log(today)
	if err != nil {
		return model.Session{}, err
	}
	updated, err := log.StopActive(now)
	if err != nil {
		return model.Session{}, err
	}
	if note != nil && *note != "" {
		timeline := updated.Timeline()
		last := &timeline[len(timeline)-1]
		if last.Note != nil && *last.Note != "" {
			merged := *last.Note + "\n" + *note
			last.Note = &merged
		} else {
			last.Note = note
		}
		updated, err = model.NewLog(updated.Date(), updated.Timezone(), timeline)
		if err != nil {
			return model.Session{}, err
		}
	}
	trackers, err := w.plans.Trackers(today)
	if err != nil {
		return model.Session{}, err
	}
	if err := storage.SaveLog(w.base, updated, trackers); err != nil {
		return model.Session{}, err
	}
	stopped := updated.Timeline()[updated.Len()-1]
	w.logger.Debug("session stopped", "date", today.String(), "duration", stopped.End.Sub(stopped.Start).String())
	return stopped, nil
}

// Compile builds and stores a timesheet over date's log for audienceID.
// Every session must be closed; an open session fails the compile with
// ErrIncompleteSession.
func (w *Workspace) Compile(audienceID string, date timeutil.Date) (model.Timesheet, error) {
	if _, ok := w.cfg.Audience(audienceID); !ok {
		return model.Timesheet{}, fmt.Errorf("audience %q not found in config", audienceID)
	}
	log, err := w.Log(date)
	if err != nil {
		return model.Timesheet{}, err
	}
	ts, err := model.Compile(w.cfg.Actor, date, w.clk.Now().In(w.loc), log.Timezone(),
		log.Timeline(), model.Meta{AudienceID: audienceID})
	if err != nil {
		return model.Timesheet{}, err
	}
	if err := storage.SaveTimesheet(w.base, ts); err != nil {
		return model.Timesheet{}, err
	}
	w.logger.Debug("timesheet compiled", "audience", audienceID, "date", date.String(), "sessions", len(ts.Timeline()))
	return ts, nil
}

// Timesheet loads the stored timesheet for audienceID and date.
func (w *Workspace) Timesheet(audienceID string, date timeutil.Date) (model.Timesheet, error) {
	ts, ok, err := storage.LoadTimesheet(w.base, audienceID, date)
	if err != nil {
		return model.Timesheet{}, err
	}
	if !ok {
		return model.Timesheet{}, fmt.Errorf("no timesheet for audience %q on %s", audienceID, date)
	}
	return ts, nil
}

// SignTimesheet signs the stored timesheet with the named identity and
// stores the result. An empty identityName uses the configured default.
// Signing again with the same identity replaces its signature.
func (w *Workspace) SignTimesheet(audienceID string, date timeutil.Date, identityName string) (model.Timesheet, error) {
	if identityName == "" {
		identityName = w.cfg.DefaultIdentity
	}
	ts, err := w.Timesheet(audienceID, date)
	if err != nil {
		return model.Timesheet{}, err
	}
	id, err := w.identities.Load(identityName)
	if err != nil {
		return model.Timesheet{}, err
	}
	signed, err := ts.Sign(identityName, id.Key)
	if err != nil {
		return model.Timesheet{}, err
	}
	if err := storage.SaveTimesheet(w.base, signed); err != nil {
		return model.Timesheet{}, err
	}
	w.logger.Debug("timesheet signed", "audience", audienceID, "date", date.String(), "identity", identityName)
	return signed, nil
}

// VerifyTimesheet checks the stored timesheet's signature for signerID
// against the stored public key. An empty signerID uses the configured
// default identity.
func (w *Workspace) VerifyTimesheet(audienceID string, date timeutil.Date, signerID string) error {
	if signerID == "" {
		signerID = w.cfg.DefaultIdentity
	}
	ts, err := w.Timesheet(audienceID, date)
	if err != nil {
		return err
	}
	pub, err := w.identities.LoadPublic(signerID)
	if err != nil {
		return err
	}
	return ts.Verify(signerID, pub)
}

// MarkSubmitted records when and by whom the timesheet was submitted.
// The signed payload is untouched, so existing signatures stay valid.
func (w *Workspace) MarkSubmitted(audienceID string, date timeutil.Date, submittedBy string) (model.Timesheet, error) {
	ts, err := w.Timesheet(audienceID, date)
	if err != nil {
		return model.Timesheet{}, err
	}
	at := w.clk.Now().In(w.loc)
	meta := ts.Meta()
	meta.SubmittedAt = &at
	meta.SubmittedBy = &submittedBy
	updated := ts.UpdateMeta(meta)
	if err := storage.SaveTimesheet(w.base, updated); err != nil {
		return model.Timesheet{}, err
	}
	return updated, nil
}
