package storage

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/faffage/faff/internal/model"
	"github.com/faffage/faff/internal/timeutil"
)

// Log files are TOML with a human-friendly surface: header comments, a
// commented duration under each closed session, tracker names as inline
// comments, and aligned equals signs. Derived values are emitted with a
// "--" prefix and rewritten to comments, so edits to them are never read
// back.

// logFileVersion is written into every log file.
const logFileVersion = "1.1"

var derivedValueLine = regexp.MustCompile(`(?m)^--([a-zA-Z_-][a-zA-Z0-9_-]*\s*=\s*.+)$`)

// EncodeLogFile renders the log in Faff log file format. trackers maps
// tracker ids to human-readable names for comments.
func EncodeLogFile(log model.Log, trackers map[string]string) []byte {
	withOffset := timeutil.DateHasDSTEvent(log.Date(), log.Timezone())
	dateFormat := "HH:mm"
	if withOffset {
		dateFormat = "HH:mmZ"
	}

	lines := []string{
		"# This is a Faff-format log file - see faffage.com for details.",
		"# It has been generated but can be edited manually.",
		"# Changes to rows starting with '#' will not be saved.",
		fmt.Sprintf("version = %q", logFileVersion),
		fmt.Sprintf("date = %q", log.Date().String()),
		fmt.Sprintf("timezone = %q", log.Timezone().String()),
		fmt.Sprintf("--date_format = %q", dateFormat),
	}

	timeline := log.Timeline()
	if len(timeline) == 0 {
		lines = append(lines, "", "# Timeline is empty.")
	}
	for _, s := range timeline {
		lines = append(lines, "", "[[timeline]]")
		lines = appendSessionLines(lines, s, log, trackers, withOffset)
	}

	out := strings.Join(lines, "\n")
	out = derivedValueLine.ReplaceAllString(out, "# $1")
	return []byte(alignEquals(out) + "\n")
}

func appendSessionLines(lines []string, s model.Session, log model.Log,
	trackers map[string]string, withOffset bool) []string {

	optional := func(key string, v *string) {
		if v != nil {
			lines = append(lines, fmt.Sprintf("%s = %q", key, *v))
		}
	}
	optional("alias", s.Intent.Alias)
	optional("role", s.Intent.Role)
	optional("objective", s.Intent.Objective)
	optional("action", s.Intent.Action)
	optional("subject", s.Intent.Subject)

	switch len(s.Intent.Trackers) {
	case 0:
	case 1:
		id := s.Intent.Trackers[0]
		if name, ok := trackers[id]; ok {
			lines = append(lines, fmt.Sprintf("trackers = %q # %s", id, name))
		} else {
			lines = append(lines, fmt.Sprintf("trackers = %q", id))
		}
	default:
		lines = append(lines, "trackers = [")
		for _, id := range s.Intent.Trackers {
			if name, ok := trackers[id]; ok {
				lines = append(lines, fmt.Sprintf("   %q, # %s", id, name))
			} else {
				lines = append(lines, fmt.Sprintf("   %q,", id))
			}
		}
		lines = append(lines, "]")
	}

	loc := log.Timezone()
	lines = append(lines, fmt.Sprintf("start = %q", timeutil.FormatClock(s.Start.In(loc), withOffset)))
	if s.End != nil {
		lines = append(lines, fmt.Sprintf("end = %q", timeutil.FormatClock(s.End.In(loc), withOffset)))
		lines = append(lines, fmt.Sprintf("--duration = %q", timeutil.FormatDurationWords(s.End.Sub(s.Start))))
	}
	if s.Note != nil && *s.Note != "" {
		lines = append(lines, fmt.Sprintf("note = %q", *s.Note))
	}
	return lines
}

// alignEquals pads keys so the equals signs line up. Comment lines keep
// their own layout.
func alignEquals(s string) string {
	lines := strings.Split(s, "\n")

	maxKey := 0
	for _, line := range lines {
		if !strings.Contains(line, "=") || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		key := strings.TrimSpace(strings.SplitN(line, "=", 2)[0])
		if len(key) > maxKey {
			maxKey = len(key)
		}
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.Contains(line, "=") && !strings.HasPrefix(strings.TrimSpace(line), "#") {
			parts := strings.SplitN(line, "=", 2)
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			out = append(out, key+strings.Repeat(" ", maxKey-len(key))+" = "+value)
		} else {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// DecodeLogFile parses a Faff-format log file and re-checks the timeline
// invariants.
func DecodeLogFile(data []byte) (model.Log, error) {
	var rec model.LogRecord
	if err := toml.Unmarshal(data, &rec); err != nil {
		return model.Log{}, fmt.Errorf("%v: %w", err, model.ErrDeserialization)
	}
	return model.LogFromRecord(rec)
}
