// Package storage is the filesystem layer: the ~/.faff directory layout,
// the Faff log file format, and CBOR timesheet files.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/faffage/faff/internal/codec"
	"github.com/faffage/faff/internal/model"
	"github.com/faffage/faff/internal/timeutil"
)

// BaseDir returns the root data directory: $FAFF_HOME when set, otherwise
// ~/.faff.
func BaseDir() (string, error) {
	if dir := os.Getenv("FAFF_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".faff"), nil
}

// LogDir returns the log directory inside base.
func LogDir(base string) string { return filepath.Join(base, "logs") }

// PlanDir returns the plan directory inside base.
func PlanDir(base string) string { return filepath.Join(base, "plans") }

// IdentityDir returns the identity directory inside base.
func IdentityDir(base string) string { return filepath.Join(base, "identities") }

// TimesheetDir returns the timesheet directory inside base.
func TimesheetDir(base string) string { return filepath.Join(base, "timesheets") }

// LogPath returns the log file path for date.
func LogPath(base string, date timeutil.Date) string {
	return filepath.Join(LogDir(base), date.String()+".toml")
}

// writeFileAtomic writes data to path via a temp file and rename, creating
// parent directories as needed.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// LogExists reports whether a log file exists for date.
func LogExists(base string, date timeutil.Date) bool {
	_, err := os.Stat(LogPath(base, date))
	return err == nil
}

// LoadLog reads and parses the log for date. The second return is false
// when no log file exists.
func LoadLog(base string, date timeutil.Date) (model.Log, bool, error) {
	path := LogPath(base, date)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return model.Log{}, false, nil
	}
	if err != nil {
		return model.Log{}, false, fmt.Errorf("storage error reading %s: %w", path, err)
	}
	log, err := DecodeLogFile(data)
	if errors.Is(err, model.ErrDeserialization) {
		// Unreadable file: back it up and abort. Semantic errors (an
		// ambiguous time, an overlap) keep the file in place for the user
		// to fix.
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return model.Log{}, false, fmt.Errorf("corrupt log file %s (backed up to %s): %w", path, backupPath, err)
	}
	if err != nil {
		return model.Log{}, false, fmt.Errorf("parsing log file %s: %w", path, err)
	}
	return log, true, nil
}

// SaveLog atomically writes the log for its date. trackers maps tracker
// ids to human-readable names used in comments.
func SaveLog(base string, log model.Log, trackers map[string]string) error {
	return writeFileAtomic(LogPath(base, log.Date()), EncodeLogFile(log, trackers))
}

// ListLogDates returns the dates of all stored logs, ascending.
func ListLogDates(base string) ([]timeutil.Date, error) {
	entries, err := os.ReadDir(LogDir(base))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing logs: %w", err)
	}
	var dates []timeutil.Date
	for _, e := range entries {
		name := e.Name()
		if filepath.Ext(name) != ".toml" {
			continue
		}
		d, err := timeutil.ParseDate(name[:len(name)-len(".toml")])
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// TimesheetPath returns the timesheet file path for audienceID and date.
func TimesheetPath(base, audienceID string, date timeutil.Date) string {
	return filepath.Join(TimesheetDir(base), fmt.Sprintf("%s.%s.cbor", audienceID, date))
}

// SaveTimesheet atomically writes the timesheet record, signatures and
// meta included, as a single CBOR file.
func SaveTimesheet(base string, ts model.Timesheet) error {
	data, err := codec.Marshal(ts.Record())
	if err != nil {
		return fmt.Errorf("encoding timesheet: %w", err)
	}
	return writeFileAtomic(TimesheetPath(base, ts.Meta().AudienceID, ts.Date()), data)
}

// LoadTimesheet reads the timesheet for audienceID and date. The second
// return is false when no timesheet file exists.
func LoadTimesheet(base, audienceID string, date timeutil.Date) (model.Timesheet, bool, error) {
	path := TimesheetPath(base, audienceID, date)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return model.Timesheet{}, false, nil
	}
	if err != nil {
		return model.Timesheet{}, false, fmt.Errorf("storage error reading %s: %w", path, err)
	}
	var rec model.TimesheetRecord
	if err := codec.Unmarshal(data, &rec); err != nil {
		return model.Timesheet{}, false, fmt.Errorf("decoding timesheet %s: %w", path, err)
	}
	ts, err := model.TimesheetFromRecord(rec)
	if err != nil {
		return model.Timesheet{}, false, fmt.Errorf("timesheet %s: %w", path, err)
	}
	return ts, true, nil
}

// TimesheetRef identifies one stored timesheet.
type TimesheetRef struct {
	AudienceID string
	Date       timeutil.Date
}

var timesheetFilename = regexp.MustCompile(`^(.+)\.(\d{4}-\d{2}-\d{2})\.cbor$`)

// ListTimesheets returns references to all stored timesheets, sorted by
// date then audience.
func ListTimesheets(base string) ([]TimesheetRef, error) {
	entries, err := os.ReadDir(TimesheetDir(base))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing timesheets: %w", err)
	}
	var refs []TimesheetRef
	for _, e := range entries {
		m := timesheetFilename.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		d, err := timeutil.ParseDate(m[2])
		if err != nil {
			continue
		}
		refs = append(refs, TimesheetRef{AudienceID: m[1], Date: d})
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Date != refs[j].Date {
			return refs[i].Date.Before(refs[j].Date)
		}
		return refs[i].AudienceID < refs[j].AudienceID
	})
	return refs, nil
}
