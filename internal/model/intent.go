package model

// Intent identifies what a session of work represents. It is a plain
// immutable value; equality is structural.
type Intent struct {
	Alias     *string
	Role      *string
	Objective *string
	Action    *string
	Subject   *string
	Trackers  []string
}

// NewIntent builds an Intent. Trackers are de-duplicated preserving first
// occurrence. When no alias is given one is derived from the other fields
// so every intent has a human-readable handle.
func NewIntent(alias, role, objective, action, subject *string, trackers []string) Intent {
	var deduped []string
	seen := map[string]bool{}
	for _, tr := range trackers {
		if !seen[tr] {
			seen[tr] = true
			deduped = append(deduped, tr)
		}
	}

	if alias == nil {
		derived := deref(role) + ": " + deref(action) + " to " + deref(objective) + " for " + deref(subject)
		alias = &derived
	}

	return Intent{
		Alias:     alias,
		Role:      role,
		Objective: objective,
		Action:    action,
		Subject:   subject,
		Trackers:  deduped,
	}
}

// Equal reports structural equality of all fields.
func (i Intent) Equal(o Intent) bool {
	if !strPtrEqual(i.Alias, o.Alias) ||
		!strPtrEqual(i.Role, o.Role) ||
		!strPtrEqual(i.Objective, o.Objective) ||
		!strPtrEqual(i.Action, o.Action) ||
		!strPtrEqual(i.Subject, o.Subject) {
		return false
	}
	if len(i.Trackers) != len(o.Trackers) {
		return false
	}
	for n, tr := range i.Trackers {
		if o.Trackers[n] != tr {
			return false
		}
	}
	return true
}

// String returns the alias, or an empty string for the zero Intent.
func (i Intent) String() string {
	return deref(i.Alias)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// StrPtr returns a pointer to s. Convenience for building intents and
// notes from literals.
func StrPtr(s string) *string {
	return &s
}
