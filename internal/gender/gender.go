// Package gender guesses the grammatical agreement to apply to a first
// name. The guess only ever selects an agreement instruction for the
// generator; it never alters the anonymization placeholder and is never
// sent alongside the real name.
package gender

import "strings"

// Agreement is the grammatical agreement hint.
type Agreement int

const (
	Indeterminate Agreement = iota
	Feminine
	Masculine
)

// String returns the French agreement token.
func (a Agreement) String() string {
	switch a {
	case Feminine:
		return "féminin"
	case Masculine:
		return "masculin"
	}
	return "indeterminate"
}

// Names that defeat suffix rules. Epicene names stay indeterminate so the
// assembler falls back to impersonal phrasing instead of guessing.
var (
	epicene = set("camille", "dominique", "claude", "sacha", "charlie", "alix",
		"eden", "lou", "noa", "andrea", "ange")

	feminineNames = set("anne", "emma", "jade", "louise", "alice", "chloé", "lina",
		"léa", "rose", "anna", "inès", "ambre", "julia", "mila", "léna",
		"manon", "juliette", "zoé", "agathe", "margaux", "maryam", "fatou")

	masculineNames = set("lucas", "hugo", "léo", "jules", "gabriel", "louis",
		"arthur", "raphaël", "adam", "nathan", "tom", "noah", "liam", "ethan",
		"mathis", "enzo", "timéo", "karim", "mehdi", "rayan", "côme", "elie",
		"antoine", "maxime", "jérôme", "jean")
)

// Suffix tables, longest match first.
var (
	feminineSuffixes = []string{"ette", "elle", "enne", "anne", "ine", "ia",
		"ya", "ie", "ée", "a"}
	masculineSuffixes = []string{"eau", "ien", "ier", "ois", "an", "in", "on",
		"er", "o", "us"}
)

// Detect maps a first name to an agreement hint. Deterministic and pure:
// dictionary lookups first, then suffix heuristics, indeterminate otherwise.
func Detect(firstName string) Agreement {
	name := strings.ToLower(strings.TrimSpace(firstName))
	if name == "" {
		return Indeterminate
	}
	// Compound names agree on their first element (Jean-Marie, Anne-Sophie).
	if i := strings.IndexByte(name, '-'); i > 0 {
		name = name[:i]
	}

	if epicene[name] {
		return Indeterminate
	}
	if feminineNames[name] {
		return Feminine
	}
	if masculineNames[name] {
		return Masculine
	}

	for _, suffix := range feminineSuffixes {
		if len(name) > len(suffix) && strings.HasSuffix(name, suffix) {
			return Feminine
		}
	}
	for _, suffix := range masculineSuffixes {
		if len(name) > len(suffix) && strings.HasSuffix(name, suffix) {
			return Masculine
		}
	}
	return Indeterminate
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
