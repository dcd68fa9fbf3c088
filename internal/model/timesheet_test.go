package model_test

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"testing"
	"time"

	"github.com/faffage/faff/internal/model"
)

func testKey(seed byte) ed25519.PrivateKey {
	s := make([]byte, ed25519.SeedSize)
	for i := range s {
		s[i] = seed
	}
	return ed25519.NewKeyFromSeed(s)
}

func sampleActor() map[string]string {
	return map[string]string{"name": "Ada Lovelace", "email": "ada@example.com"}
}

func compiledAt() time.Time {
	return time.Date(2025, 3, 15, 18, 0, 0, 0, time.UTC)
}

func sampleTimesheet(t *testing.T) model.Timesheet {
	t.Helper()
	timeline := []model.Session{
		closedSession(t, "work", at(9, 0), at(10, 30)),
		closedSession(t, "review", at(11, 0), at(12, 0)),
	}
	ts, err := model.Compile(sampleActor(), sampleDate(), compiledAt(), time.UTC,
		timeline, model.Meta{AudienceID: "acme"})
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestCompileRejectsOpenSession(t *testing.T) {
	timeline := []model.Session{openSession(t, "work", at(9, 0))}
	_, err := model.Compile(sampleActor(), sampleDate(), compiledAt(), time.UTC,
		timeline, model.Meta{AudienceID: "acme"})
	if !errors.Is(err, model.ErrIncompleteSession) {
		t.Errorf("Compile with open session: err = %v, want ErrIncompleteSession", err)
	}
}

func TestCanonicalFormDeterministic(t *testing.T) {
	a := sampleTimesheet(t)

	// Build the second timesheet with the actor map populated in a
	// different insertion order.
	actor := map[string]string{}
	actor["email"] = "ada@example.com"
	actor["name"] = "Ada Lovelace"
	b, err := model.Compile(actor, sampleDate(), compiledAt(), time.UTC,
		a.Timeline(), model.Meta{AudienceID: "acme"})
	if err != nil {
		t.Fatal(err)
	}

	ba, err := a.CanonicalForm()
	if err != nil {
		t.Fatal(err)
	}
	bb, err := b.CanonicalForm()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ba, bb) {
		t.Error("equal timesheets produced different canonical bytes")
	}

	// Repeated encoding of one value is stable too.
	again, _ := a.CanonicalForm()
	if !bytes.Equal(ba, again) {
		t.Error("canonical encoding varies across calls")
	}
}

func TestCanonicalFormSensitive(t *testing.T) {
	a := sampleTimesheet(t)
	ba, _ := a.CanonicalForm()

	// Changing any payload field changes the bytes.
	timeline := a.Timeline()
	note := "tweaked"
	timeline[0].Note = &note
	b, err := model.Compile(a.Actor(), a.Date(), a.Compiled(), a.Timezone(), timeline, a.Meta())
	if err != nil {
		t.Fatal(err)
	}
	bb, _ := b.CanonicalForm()
	if bytes.Equal(ba, bb) {
		t.Error("note change did not change canonical bytes")
	}

	// A nil field and an empty-string field are distinct.
	timeline = a.Timeline()
	empty := ""
	timeline[0].Note = &empty
	c, err := model.Compile(a.Actor(), a.Date(), a.Compiled(), a.Timezone(), timeline, a.Meta())
	if err != nil {
		t.Fatal(err)
	}
	bc, _ := c.CanonicalForm()
	if bytes.Equal(ba, bc) {
		t.Error("absent note and empty note encode identically")
	}
}

func TestSignAndVerify(t *testing.T) {
	ts := sampleTimesheet(t)
	key := testKey(1)

	signed, err := ts.Sign("alice", key)
	if err != nil {
		t.Fatal(err)
	}
	if len(ts.Signatures()) != 0 {
		t.Error("Sign mutated the receiver")
	}

	pub := key.Public().(ed25519.PublicKey)
	if err := signed.Verify("alice", pub); err != nil {
		t.Errorf("Verify: %v", err)
	}

	otherPub := testKey(2).Public().(ed25519.PublicKey)
	if err := signed.Verify("alice", otherPub); !errors.Is(err, model.ErrSignatureInvalid) {
		t.Errorf("Verify with wrong key: err = %v, want ErrSignatureInvalid", err)
	}

	if err := signed.Verify("bob", pub); !errors.Is(err, model.ErrUnknownSigner) {
		t.Errorf("Verify unknown signer: err = %v, want ErrUnknownSigner", err)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	ts := sampleTimesheet(t)
	key := testKey(1)
	signed, err := ts.Sign("alice", key)
	if err != nil {
		t.Fatal(err)
	}

	// Rebuild the timesheet with a different date but the original
	// signatures, as a tampered file would decode.
	tampered, err := model.NewTimesheet(signed.Actor(), signed.Date().AddDays(1), signed.Compiled(),
		signed.Timezone(), signed.Timeline(), signed.Signatures(), signed.Meta())
	if err != nil {
		t.Fatal(err)
	}

	pub := key.Public().(ed25519.PublicKey)
	if err := tampered.Verify("alice", pub); !errors.Is(err, model.ErrSignatureInvalid) {
		t.Errorf("Verify after tampering: err = %v, want ErrSignatureInvalid", err)
	}
}

func TestResignOverwrites(t *testing.T) {
	ts := sampleTimesheet(t)
	alice, bob := testKey(1), testKey(2)

	signed, err := ts.Sign("alice", alice)
	if err != nil {
		t.Fatal(err)
	}
	signed, err = signed.Sign("bob", bob)
	if err != nil {
		t.Fatal(err)
	}
	if len(signed.Signatures()) != 2 {
		t.Fatalf("signatures = %d, want 2", len(signed.Signatures()))
	}

	// Re-signing as alice replaces her entry and leaves bob's intact.
	signed, err = signed.Sign("alice", alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(signed.Signatures()) != 2 {
		t.Fatalf("signatures after re-sign = %d, want 2", len(signed.Signatures()))
	}
	if err := signed.Verify("alice", alice.Public().(ed25519.PublicKey)); err != nil {
		t.Errorf("alice after re-sign: %v", err)
	}
	if err := signed.Verify("bob", bob.Public().(ed25519.PublicKey)); err != nil {
		t.Errorf("bob after re-sign: %v", err)
	}
}

func TestMetaOutsideCanonicalForm(t *testing.T) {
	ts := sampleTimesheet(t)
	key := testKey(1)
	signed, err := ts.Sign("alice", key)
	if err != nil {
		t.Fatal(err)
	}
	before, _ := signed.CanonicalForm()

	when := time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC)
	by := "alice"
	updated := signed.UpdateMeta(model.Meta{AudienceID: "acme", SubmittedAt: &when, SubmittedBy: &by})

	after, _ := updated.CanonicalForm()
	if !bytes.Equal(before, after) {
		t.Error("meta change altered the canonical form")
	}
	if err := updated.Verify("alice", key.Public().(ed25519.PublicKey)); err != nil {
		t.Errorf("signature invalid after meta update: %v", err)
	}
}
