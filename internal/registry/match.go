package registry

import (
	"strings"

	"github.com/opforge/ies4ctl/internal/model"
)

// Matcher is the identity heuristic used by upsert and remove. The file
// format has no stable per-entity key, so identity is decided by three
// redundant signals: a substring of the id, membership in a list of known
// name variants, or an exact identifier value. This can both false-positive
// (unrelated entities with similar names) and false-negative (a real
// duplicate under an unknown designation); callers construct a Matcher
// explicitly so the signals in play are always visible.
type Matcher struct {
	// IDSubstrings match case-insensitively anywhere in the entity id.
	IDSubstrings []string `yaml:"idSubstrings" json:"idSubstrings"`
	// Names match a names[].value either exactly or as a substring,
	// case-insensitively.
	Names []string `yaml:"names" json:"names"`
	// Identifiers match an identifiers[].value exactly, case-insensitively.
	Identifiers []string `yaml:"identifiers" json:"identifiers"`
}

// Empty reports whether the matcher carries no signals at all. An empty
// matcher matches nothing.
func (m Matcher) Empty() bool {
	return len(m.IDSubstrings) == 0 && len(m.Names) == 0 && len(m.Identifiers) == 0
}

// Matches reports whether any signal identifies e.
func (m Matcher) Matches(e model.Entity) bool {
	id := strings.ToLower(e.ID)
	for _, sub := range m.IDSubstrings {
		if sub != "" && strings.Contains(id, strings.ToLower(sub)) {
			return true
		}
	}
	for _, want := range m.Names {
		if want == "" {
			continue
		}
		lw := strings.ToLower(want)
		for _, n := range e.Names {
			val := strings.ToLower(n.Value)
			if val == lw || strings.Contains(val, lw) {
				return true
			}
		}
	}
	for _, want := range m.Identifiers {
		if want == "" {
			continue
		}
		for _, ident := range e.Identifiers {
			if strings.EqualFold(ident.Value, want) {
				return true
			}
		}
	}
	return false
}

// MatcherForEntity derives a matcher from a candidate record: its id, every
// name value, and every identifier value. Used when a payload supplies no
// explicit match block.
func MatcherForEntity(e model.Entity) Matcher {
	m := Matcher{}
	if e.ID != "" {
		m.IDSubstrings = append(m.IDSubstrings, e.ID)
	}
	for _, n := range e.Names {
		if n.Value != "" {
			m.Names = append(m.Names, n.Value)
		}
	}
	for _, ident := range e.Identifiers {
		if ident.Value != "" {
			m.Identifiers = append(m.Identifiers, ident.Value)
		}
	}
	return m
}
