// Package period defines the canonical ordered reporting periods and the
// window selector that keeps future-period data out of prompt assembly.
package period

import (
	"errors"
	"fmt"
)

// ID is an opaque period token ("T1", "S2", ...). Ordering is positional in
// the canonical sequence, never lexical.
type ID string

// ErrUnknownPeriod is returned when a period is not part of the canonical
// ordered sequence it is being resolved against.
var ErrUnknownPeriod = errors.New("unknown period")

// Canonical sequences. A class runs on exactly one of these.
var (
	Trimesters = []ID{"T1", "T2", "T3"}
	Semesters  = []ID{"S1", "S2"}
)

// Sequence resolves a scheme name to its canonical sequence.
// Unknown schemes default to trimesters.
func Sequence(scheme string) []ID {
	if scheme == "semestres" {
		return Semesters
	}
	return Trimesters
}

// IndexOf returns the position of p in seq, or -1 if absent.
func IndexOf(seq []ID, p ID) int {
	for i, candidate := range seq {
		if candidate == p {
			return i
		}
	}
	return -1
}

// WindowUpTo returns the prefix of seq up to and including current.
// This is the single enforcement point against future-period leakage:
// everything rendered into an outgoing prompt must come from this window.
func WindowUpTo(seq []ID, current ID) ([]ID, error) {
	idx := IndexOf(seq, current)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPeriod, current)
	}
	window := make([]ID, idx+1)
	copy(window, seq[:idx+1])
	return window, nil
}

// Contains reports whether p is inside the window.
func Contains(window []ID, p ID) bool {
	return IndexOf(window, p) >= 0
}
