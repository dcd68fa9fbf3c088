// Package plan loads work plans: TOML files describing the vocabulary of
// intents (roles, actions, objectives, subjects, trackers) available on a
// given date. Plan files are named <source>.<YYYYMMDD>.toml; for each
// source the most recent file at or before the target date applies.
package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/faffage/faff/internal/model"
	"github.com/faffage/faff/internal/timeutil"
)

// LocalSource is the source name of the plan maintained by faff itself.
const LocalSource = "local"

// Plan is one source's plan: its validity window, vocabulary lists, known
// trackers and pre-built intents.
type Plan struct {
	Source     string            `toml:"source"`
	ValidFrom  string            `toml:"valid_from"`
	ValidUntil string            `toml:"valid_until,omitempty"`
	Roles      []string          `toml:"roles,omitempty"`
	Actions    []string          `toml:"actions,omitempty"`
	Objectives []string          `toml:"objectives,omitempty"`
	Subjects   []string          `toml:"subjects,omitempty"`
	Trackers   map[string]string `toml:"trackers,omitempty"`
	Intents    []IntentEntry     `toml:"intents,omitempty"`
}

// IntentEntry is a pre-built intent inside a plan file.
type IntentEntry struct {
	Alias     *string          `toml:"alias,omitempty"`
	Role      *string          `toml:"role,omitempty"`
	Objective *string          `toml:"objective,omitempty"`
	Action    *string          `toml:"action,omitempty"`
	Subject   *string          `toml:"subject,omitempty"`
	Trackers  model.StringList `toml:"trackers,omitempty"`
}

// Intent converts the entry to a model intent.
func (e IntentEntry) Intent() model.Intent {
	return model.NewIntent(e.Alias, e.Role, e.Objective, e.Action, e.Subject, e.Trackers)
}

// ID returns the plan's identifier, a slug of its source.
func (p Plan) ID() string {
	return Slugify(p.Source)
}

// ValidOn reports whether the plan applies on date.
func (p Plan) ValidOn(date timeutil.Date) (bool, error) {
	from, err := timeutil.ParseDate(p.ValidFrom)
	if err != nil {
		return false, fmt.Errorf("plan %q valid_from: %w", p.Source, err)
	}
	if date.Before(from) {
		return false, nil
	}
	if p.ValidUntil != "" {
		until, err := timeutil.ParseDate(p.ValidUntil)
		if err != nil {
			return false, fmt.Errorf("plan %q valid_until: %w", p.Source, err)
		}
		if date.After(until) {
			return false, nil
		}
	}
	return true, nil
}

// AddIntent returns a copy of the plan with intent appended, unless an
// equal intent is already present.
func (p Plan) AddIntent(intent model.Intent) Plan {
	for _, e := range p.Intents {
		if e.Intent().Equal(intent) {
			return p
		}
	}
	out := p
	out.Intents = append(append([]IntentEntry(nil), p.Intents...), IntentEntry{
		Alias:     intent.Alias,
		Role:      intent.Role,
		Objective: intent.Objective,
		Action:    intent.Action,
		Subject:   intent.Subject,
		Trackers:  model.StringList(intent.Trackers),
	})
	return out
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and replaces every run of non-alphanumeric
// characters with a single hyphen.
func Slugify(s string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

var planFilename = regexp.MustCompile(`^(.+?)\.(\d{8})\.toml$`)

// Store reads and writes plan files under one directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// PlansFor returns the plans valid on date, keyed by source. For each
// source only the most recent file dated at or before date is read, and
// plans outside their validity window are dropped.
func (s *Store) PlansFor(date timeutil.Date) (map[string]Plan, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return map[string]Plan{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}

	type candidate struct {
		date timeutil.Date
		path string
	}
	candidates := map[string]candidate{}
	for _, e := range entries {
		m := planFilename.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		source := m[1]
		fileDate, err := timeutil.ParseDate(m[2][:4] + "-" + m[2][4:6] + "-" + m[2][6:])
		if err != nil || date.Before(fileDate) {
			continue
		}
		if cur, ok := candidates[source]; !ok || cur.date.Before(fileDate) {
			candidates[source] = candidate{date: fileDate, path: filepath.Join(s.dir, e.Name())}
		}
	}

	plans := make(map[string]Plan, len(candidates))
	for source, c := range candidates {
		p, err := s.load(c.path)
		if err != nil {
			return nil, err
		}
		valid, err := p.ValidOn(date)
		if err != nil {
			return nil, err
		}
		if valid {
			plans[source] = p
		}
	}
	return plans, nil
}

func (s *Store) load(path string) (Plan, error) {
	var p Plan
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Plan{}, fmt.Errorf("parsing plan file %s: %w", path, err)
	}
	return p, nil
}

// LocalPlan returns the local plan valid on date, or an empty one rooted
// at date if none exists.
func (s *Store) LocalPlan(date timeutil.Date) (Plan, error) {
	plans, err := s.PlansFor(date)
	if err != nil {
		return Plan{}, err
	}
	if p, ok := plans[LocalSource]; ok {
		return p, nil
	}
	return Plan{Source: LocalSource, ValidFrom: date.String()}, nil
}

// Save writes the plan to <source>.<YYYYMMDD>.toml.
func (s *Store) Save(p Plan) error {
	from, err := timeutil.ParseDate(p.ValidFrom)
	if err != nil {
		return fmt.Errorf("plan %q valid_from: %w", p.Source, err)
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating plan directory: %w", err)
	}
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return fmt.Errorf("encoding plan %q: %w", p.Source, err)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("%s.%s.toml", p.Source, from.Compact()))
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(buf.String()), 0o600); err != nil {
		return fmt.Errorf("writing plan file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving plan file: %w", err)
	}
	return nil
}

// Intents returns every intent from plans valid on date, deduplicated,
// in a stable order.
func (s *Store) Intents(date timeutil.Date) ([]model.Intent, error) {
	plans, err := s.PlansFor(date)
	if err != nil {
		return nil, err
	}
	var intents []model.Intent
	for _, source := range sortedSources(plans) {
		for _, e := range plans[source].Intents {
			intent := e.Intent()
			dup := false
			for _, seen := range intents {
				if seen.Equal(intent) {
					dup = true
					break
				}
			}
			if !dup {
				intents = append(intents, intent)
			}
		}
	}
	return intents, nil
}

// Trackers returns every tracker from plans valid on date, keyed by
// source-prefixed id ("source:id") with the human-readable name as value.
func (s *Store) Trackers(date timeutil.Date) (map[string]string, error) {
	plans, err := s.PlansFor(date)
	if err != nil {
		return nil, err
	}
	trackers := map[string]string{}
	for source, p := range plans {
		for id, name := range p.Trackers {
			trackers[source+":"+id] = name
		}
	}
	return trackers, nil
}

func sortedSources(plans map[string]Plan) []string {
	sources := make([]string, 0, len(plans))
	for s := range plans {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	return sources
}
