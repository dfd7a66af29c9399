// Package record holds the student data model consumed by the synthesis
// pipeline. Everything here is plain immutable data: the record store
// produces it, the pipeline reads it, nothing mutates it in place.
package record

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/scolaris/plume/internal/period"
)

// ErrInvalidGrade is returned for grades outside [0,20] or non-finite values.
var ErrInvalidGrade = errors.New("invalid grade")

// Grade is a possibly-absent mark out of 20. The zero value is Absent.
type Grade struct {
	value   float64
	present bool
}

// NewGrade validates and wraps a grade value.
func NewGrade(v float64) (Grade, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Grade{}, fmt.Errorf("%w: non-finite value", ErrInvalidGrade)
	}
	if v < 0 || v > 20 {
		return Grade{}, fmt.Errorf("%w: %.2f out of [0,20]", ErrInvalidGrade, v)
	}
	return Grade{value: v, present: true}, nil
}

// MustGrade is NewGrade for literals whose validity is known. Panics on
// invalid input; reserved for tests and fixtures.
func MustGrade(v float64) Grade {
	g, err := NewGrade(v)
	if err != nil {
		panic(err)
	}
	return g
}

// AbsentGrade returns the explicit no-grade value.
func AbsentGrade() Grade {
	return Grade{}
}

// Present reports whether a grade was recorded.
func (g Grade) Present() bool {
	return g.present
}

// Value returns the grade. Only meaningful when Present() is true.
func (g Grade) Value() float64 {
	return g.value
}

// PeriodRecord is one period's slice of a student record.
type PeriodRecord struct {
	Grade           Grade
	Appreciation    string
	Context         string
	EvaluationCount int // 0 when unknown
}

// StudentRecord is the full per-student input to the pipeline.
type StudentRecord struct {
	ID            uuid.UUID
	FirstName     string
	LastName      string
	Statuses      []string // e.g. PAP, PAI, ULIS; empty for most students
	Periods       map[period.ID]PeriodRecord
	CurrentPeriod period.ID
}
