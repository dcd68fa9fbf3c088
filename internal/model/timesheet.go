package model

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/faffage/faff/internal/codec"
	"github.com/faffage/faff/internal/timeutil"
)

// AlgorithmEd25519 is the only signature algorithm in use. The tag is
// stored alongside each signature so a future algorithm change cannot be
// confused with a corrupt signature.
const AlgorithmEd25519 = "ed25519"

// Signature is one signer's signature record on a timesheet.
type Signature struct {
	Algorithm string
	Bytes     []byte
}

// Meta is submission bookkeeping for a timesheet. It is excluded from the
// canonical form, so it can change after signing without invalidating
// signatures.
type Meta struct {
	AudienceID  string
	SubmittedAt *time.Time
	SubmittedBy *string
}

// Timesheet is a frozen snapshot of completed sessions plus actor identity
// and compilation metadata. It is self-contained: it does not reference the
// logs it was compiled from.
type Timesheet struct {
	actor      map[string]string
	date       timeutil.Date
	compiled   time.Time
	timezone   *time.Location
	timeline   []Session
	signatures map[string]Signature
	meta       Meta
}

// NewTimesheet builds a Timesheet. Every session in the timeline must be
// closed; a timesheet is a snapshot of completed work only
// (ErrIncompleteSession otherwise). The timeline is re-checked against the
// log invariants so an invalid timesheet can never be observed.
func NewTimesheet(actor map[string]string, date timeutil.Date, compiled time.Time,
	timezone *time.Location, timeline []Session, signatures map[string]Signature, meta Meta) (Timesheet, error) {

	for i, s := range timeline {
		if s.End == nil {
			return Timesheet{}, fmt.Errorf("session %d: %w", i, ErrIncompleteSession)
		}
	}
	if err := validateTimeline(timeline); err != nil {
		return Timesheet{}, err
	}

	return Timesheet{
		actor:      copyStringMap(actor),
		date:       date,
		compiled:   compiled,
		timezone:   timezone,
		timeline:   append([]Session(nil), timeline...),
		signatures: copySignatures(signatures),
		meta:       meta,
	}, nil
}

// Compile builds an unsigned Timesheet.
func Compile(actor map[string]string, date timeutil.Date, compiled time.Time,
	timezone *time.Location, timeline []Session, meta Meta) (Timesheet, error) {
	return NewTimesheet(actor, date, compiled, timezone, timeline, nil, meta)
}

// Actor returns a copy of the actor identity attributes.
func (t Timesheet) Actor() map[string]string { return copyStringMap(t.actor) }

// Date returns the timesheet's calendar date.
func (t Timesheet) Date() timeutil.Date { return t.date }

// Compiled returns the instant of compilation.
func (t Timesheet) Compiled() time.Time { return t.compiled }

// Timezone returns the location the timesheet's log was kept in.
func (t Timesheet) Timezone() *time.Location { return t.timezone }

// Timeline returns a copy of the session timeline.
func (t Timesheet) Timeline() []Session { return append([]Session(nil), t.timeline...) }

// Signatures returns a copy of the signature map.
func (t Timesheet) Signatures() map[string]Signature { return copySignatures(t.signatures) }

// Meta returns the submission bookkeeping.
func (t Timesheet) Meta() Meta { return t.meta }

// Submittable is the projection of a Timesheet used as the cryptographic
// payload: the same fields minus signatures and meta.
type Submittable struct {
	actor    map[string]string
	date     timeutil.Date
	compiled time.Time
	timezone *time.Location
	timeline []Session
}

// Submittable returns the signable projection.
func (t Timesheet) Submittable() Submittable {
	return Submittable{
		actor:    copyStringMap(t.actor),
		date:     t.date,
		compiled: t.compiled,
		timezone: t.timezone,
		timeline: append([]Session(nil), t.timeline...),
	}
}

// Canonical encoding. The payload is a positional CBOR array in field
// declaration order — actor, date, compiled, timezone, timeline — so the
// byte layout can never drift with map iteration order. The actor map is
// key-sorted by the deterministic encoder. Absent optional fields encode
// as CBOR null, never by omission, so adding a field later cannot silently
// change the meaning of old encodings. Instants are RFC 3339 strings with
// a numeric offset (never a bare zone name), so encodings survive future
// zone-database changes.
type canonicalIntent struct {
	_         struct{} `cbor:",toarray"`
	Alias     *string
	Role      *string
	Objective *string
	Action    *string
	Subject   *string
	Trackers  []string
}

type canonicalSession struct {
	_      struct{} `cbor:",toarray"`
	Intent canonicalIntent
	Start  string
	End    *string
	Note   *string
}

type canonicalPayload struct {
	_        struct{} `cbor:",toarray"`
	Actor    map[string]string
	Date     string
	Compiled string
	Timezone string
	Timeline []canonicalSession
}

// CanonicalForm returns the deterministic byte encoding of the payload.
// Equal field values always produce byte-identical output, across runs and
// across implementations; this is the contract signature verification
// depends on.
func (s Submittable) CanonicalForm() ([]byte, error) {
	payload := canonicalPayload{
		Actor:    s.actor,
		Date:     s.date.String(),
		Compiled: timeutil.FormatInstant(s.compiled),
		Timezone: s.timezone.String(),
		Timeline: make([]canonicalSession, 0, len(s.timeline)),
	}
	if payload.Actor == nil {
		payload.Actor = map[string]string{}
	}
	for _, sess := range s.timeline {
		cs := canonicalSession{
			Intent: canonicalIntent{
				Alias:     sess.Intent.Alias,
				Role:      sess.Intent.Role,
				Objective: sess.Intent.Objective,
				Action:    sess.Intent.Action,
				Subject:   sess.Intent.Subject,
				Trackers:  sess.Intent.Trackers,
			},
			Start: timeutil.FormatInstant(sess.Start),
			Note:  sess.Note,
		}
		if cs.Intent.Trackers == nil {
			cs.Intent.Trackers = []string{}
		}
		if sess.End != nil {
			end := timeutil.FormatInstant(*sess.End)
			cs.End = &end
		}
		payload.Timeline = append(payload.Timeline, cs)
	}
	data, err := codec.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding canonical form: %w", err)
	}
	return data, nil
}

// CanonicalForm is shorthand for Submittable().CanonicalForm().
func (t Timesheet) CanonicalForm() ([]byte, error) {
	return t.Submittable().CanonicalForm()
}

// Sign computes an Ed25519 signature over the canonical form and returns a
// new Timesheet with the signer's entry set. Signing again with the same
// id overwrites the previous entry; signing with another id leaves it
// untouched.
func (t Timesheet) Sign(signerID string, key ed25519.PrivateKey) (Timesheet, error) {
	payload, err := t.CanonicalForm()
	if err != nil {
		return Timesheet{}, err
	}
	out := t
	out.signatures = copySignatures(t.signatures)
	if out.signatures == nil {
		out.signatures = map[string]Signature{}
	}
	out.signatures[signerID] = Signature{
		Algorithm: AlgorithmEd25519,
		Bytes:     ed25519.Sign(key, payload),
	}
	return out, nil
}

// Verify recomputes the canonical form and checks the stored signature for
// signerID against the given public key.
func (t Timesheet) Verify(signerID string, pub ed25519.PublicKey) error {
	sig, ok := t.signatures[signerID]
	if !ok {
		return fmt.Errorf("%q: %w", signerID, ErrUnknownSigner)
	}
	if sig.Algorithm != AlgorithmEd25519 {
		return fmt.Errorf("%q signed with unsupported algorithm %q: %w", signerID, sig.Algorithm, ErrSignatureInvalid)
	}
	payload, err := t.CanonicalForm()
	if err != nil {
		return err
	}
	if !ed25519.Verify(pub, payload, sig.Bytes) {
		return fmt.Errorf("%q: %w", signerID, ErrSignatureInvalid)
	}
	return nil
}

// UpdateMeta returns a new Timesheet with meta replaced. Signatures and
// the signed payload are untouched; meta is outside the canonical form
// precisely so it can change after signing.
func (t Timesheet) UpdateMeta(meta Meta) Timesheet {
	out := t
	out.meta = meta
	return out
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copySignatures(m map[string]Signature) map[string]Signature {
	if m == nil {
		return nil
	}
	out := make(map[string]Signature, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
