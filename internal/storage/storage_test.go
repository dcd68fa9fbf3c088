package storage_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/faffage/faff/internal/model"
	"github.com/faffage/faff/internal/storage"
)

func TestBaseDirHonorsFaffHome(t *testing.T) {
	t.Setenv("FAFF_HOME", "/tmp/faff-test-home")
	base, err := storage.BaseDir()
	if err != nil {
		t.Fatal(err)
	}
	if base != "/tmp/faff-test-home" {
		t.Errorf("BaseDir = %s", base)
	}
}

func TestSaveAndLoadLog(t *testing.T) {
	base := t.TempDir()
	date := mustDate(t, "2025-03-15")

	if storage.LogExists(base, date) {
		t.Fatal("log exists before save")
	}
	if _, ok, err := storage.LoadLog(base, date); err != nil || ok {
		t.Fatalf("LoadLog before save: ok=%v err=%v", ok, err)
	}

	log := buildLog(t, date, time.UTC,
		model.SessionRecord{Alias: model.StrPtr("work"), Start: "09:00", End: model.StrPtr("10:00")})
	if err := storage.SaveLog(base, log, nil); err != nil {
		t.Fatal(err)
	}

	if !storage.LogExists(base, date) {
		t.Error("log missing after save")
	}
	back, ok, err := storage.LoadLog(base, date)
	if err != nil || !ok {
		t.Fatalf("LoadLog: ok=%v err=%v", ok, err)
	}
	if !log.Equal(back) {
		t.Error("loaded log differs from saved log")
	}

	// No temp file left behind.
	if _, err := os.Stat(storage.LogPath(base, date) + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left after atomic write")
	}
}

func TestLoadLogBacksUpCorruptFile(t *testing.T) {
	base := t.TempDir()
	date := mustDate(t, "2025-03-15")

	path := storage.LogPath(base, date)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not [ valid toml"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := storage.LoadLog(base, date); err == nil {
		t.Fatal("corrupt log loaded without error")
	}
	if _, err := os.Stat(path + ".corrupt"); err != nil {
		t.Errorf("corrupt file not backed up: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt file left in place")
	}
}

func TestListLogDates(t *testing.T) {
	base := t.TempDir()

	if dates, err := storage.ListLogDates(base); err != nil || len(dates) != 0 {
		t.Fatalf("empty dir: dates=%v err=%v", dates, err)
	}

	for _, s := range []string{"2025-03-16", "2025-03-14", "2025-03-15"} {
		d := mustDate(t, s)
		if err := storage.SaveLog(base, model.EmptyLog(d, time.UTC), nil); err != nil {
			t.Fatal(err)
		}
	}

	dates, err := storage.ListLogDates(base)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, len(dates))
	for i, d := range dates {
		got[i] = d.String()
	}
	want := []string{"2025-03-14", "2025-03-15", "2025-03-16"}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("dates = %v, want %v", got, want)
		}
	}
}

func TestSaveAndLoadTimesheet(t *testing.T) {
	base := t.TempDir()
	date := mustDate(t, "2025-03-15")

	log := buildLog(t, date, time.UTC,
		model.SessionRecord{Alias: model.StrPtr("work"), Start: "09:00", End: model.StrPtr("10:30")})
	ts, err := model.Compile(map[string]string{"name": "Ada"}, date,
		time.Date(2025, 3, 15, 18, 0, 0, 0, time.UTC), time.UTC,
		log.Timeline(), model.Meta{AudienceID: "acme"})
	if err != nil {
		t.Fatal(err)
	}

	if err := storage.SaveTimesheet(base, ts); err != nil {
		t.Fatal(err)
	}
	back, ok, err := storage.LoadTimesheet(base, "acme", date)
	if err != nil || !ok {
		t.Fatalf("LoadTimesheet: ok=%v err=%v", ok, err)
	}

	origBytes, _ := ts.CanonicalForm()
	backBytes, _ := back.CanonicalForm()
	if string(origBytes) != string(backBytes) {
		t.Error("canonical form changed across save/load")
	}

	if _, ok, _ := storage.LoadTimesheet(base, "other", date); ok {
		t.Error("loaded a timesheet for the wrong audience")
	}
}

func TestListTimesheets(t *testing.T) {
	base := t.TempDir()

	mk := func(audience, dateStr string) {
		t.Helper()
		date := mustDate(t, dateStr)
		ts, err := model.Compile(nil, date, time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC),
			time.UTC, nil, model.Meta{AudienceID: audience})
		if err != nil {
			t.Fatal(err)
		}
		if err := storage.SaveTimesheet(base, ts); err != nil {
			t.Fatal(err)
		}
	}
	mk("acme", "2025-03-16")
	mk("acme", "2025-03-15")
	mk("globex", "2025-03-15")

	refs, err := storage.ListTimesheets(base)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 3 {
		t.Fatalf("refs = %d, want 3", len(refs))
	}
	if refs[0].AudienceID != "acme" || refs[0].Date.String() != "2025-03-15" {
		t.Errorf("refs[0] = %+v", refs[0])
	}
	if refs[1].AudienceID != "globex" || refs[1].Date.String() != "2025-03-15" {
		t.Errorf("refs[1] = %+v", refs[1])
	}
	if refs[2].AudienceID != "acme" || refs[2].Date.String() != "2025-03-16" {
		t.Errorf("refs[2] = %+v", refs[2])
	}
}
