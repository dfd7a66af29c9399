// Package evolution classifies grade movement between consecutive periods
// against a configurable threshold policy.
package evolution

import (
	"fmt"
	"math"

	"github.com/scolaris/plume/internal/period"
	"github.com/scolaris/plume/internal/record"
)

// Policy holds the four cut-points that partition a grade delta into five
// categories. Invariant: VeryPositive > Positive > 0 > Negative > VeryNegative.
type Policy struct {
	VeryPositive float64
	Positive     float64
	Negative     float64
	VeryNegative float64
}

// DefaultPolicy returns the shipped cut-points: ±0.5 around stable,
// ±2.0 for the strong categories.
func DefaultPolicy() Policy {
	return Policy{
		VeryPositive: 2.0,
		Positive:     0.5,
		Negative:     -0.5,
		VeryNegative: -2.0,
	}
}

// Validate rejects policies that would make classification meaningless.
func (p Policy) Validate() error {
	if !(p.VeryPositive > p.Positive && p.Positive > 0 && 0 > p.Negative && p.Negative > p.VeryNegative) {
		return fmt.Errorf("threshold policy must satisfy veryPositive > positive > 0 > negative > veryNegative, got %+v", p)
	}
	return nil
}

// Category is the classified trend between two graded periods.
type Category int

const (
	VeryNegative Category = iota
	Negative
	Stable
	Positive
	VeryPositive
)

// String returns the wire/display token for the category.
func (c Category) String() string {
	switch c {
	case VeryPositive:
		return "very-positive"
	case Positive:
		return "positive"
	case Stable:
		return "stable"
	case Negative:
		return "negative"
	case VeryNegative:
		return "very-negative"
	}
	return "stable"
}

// Label returns the human-readable French label rendered into prompts.
func (c Category) Label() string {
	switch c {
	case VeryPositive:
		return "Forte progression"
	case Positive:
		return "Progression"
	case Stable:
		return "Stabilité"
	case Negative:
		return "Baisse"
	case VeryNegative:
		return "Forte baisse"
	}
	return "Stabilité"
}

// Evolution is the classified delta between two consecutive graded periods.
type Evolution struct {
	From     period.ID `json:"from"`
	To       period.ID `json:"to"`
	Delta    float64   `json:"delta"`
	Category Category  `json:"-"`
}

// Classify walks the ordered period sequence and emits one Evolution per
// adjacent pair where both periods carry a grade. Pairs with a missing grade
// on either side are skipped: absence is not stability. The first period
// never produces an evolution.
func Classify(seq []period.ID, records map[period.ID]record.PeriodRecord, policy Policy) ([]Evolution, error) {
	var out []Evolution
	for i := 1; i < len(seq); i++ {
		prev, prevOK := records[seq[i-1]]
		cur, curOK := records[seq[i]]
		if !prevOK || !curOK || !prev.Grade.Present() || !cur.Grade.Present() {
			continue
		}
		delta := roundTenth(cur.Grade.Value() - prev.Grade.Value())
		if math.IsNaN(delta) || math.IsInf(delta, 0) {
			return nil, fmt.Errorf("%w: delta %s->%s is not finite", record.ErrInvalidGrade, seq[i-1], seq[i])
		}
		out = append(out, Evolution{
			From:     seq[i-1],
			To:       seq[i],
			Delta:    delta,
			Category: policy.classify(delta),
		})
	}
	return out, nil
}

func (p Policy) classify(delta float64) Category {
	switch {
	case delta >= p.VeryPositive:
		return VeryPositive
	case delta >= p.Positive:
		return Positive
	case delta > p.Negative:
		return Stable
	case delta > p.VeryNegative:
		return Negative
	default:
		return VeryNegative
	}
}

// roundTenth rounds to the one-decimal display precision used everywhere a
// delta is shown, so classification and rendering agree on the same number.
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
