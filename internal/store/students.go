package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scolaris/plume/internal/period"
	"github.com/scolaris/plume/internal/record"
)

// ErrStudentNotFound is returned when an id resolves to no student.
var ErrStudentNotFound = errors.New("student not found")

// GetStudent loads the full student record, periods included.
func (s *Store) GetStudent(ctx context.Context, id uuid.UUID) (record.StudentRecord, error) {
	rec := record.StudentRecord{ID: id, Periods: make(map[period.ID]record.PeriodRecord)}

	var current string
	err := s.pool.QueryRow(ctx, `
		SELECT first_name, last_name, statuses, current_period
		FROM students WHERE id = $1`,
		id,
	).Scan(&rec.FirstName, &rec.LastName, &rec.Statuses, &current)
	if errors.Is(err, pgx.ErrNoRows) {
		return record.StudentRecord{}, fmt.Errorf("%w: %s", ErrStudentNotFound, id)
	}
	if err != nil {
		return record.StudentRecord{}, fmt.Errorf("load student: %w", err)
	}
	rec.CurrentPeriod = period.ID(current)

	rows, err := s.pool.Query(ctx, `
		SELECT period, grade, appreciation, context, evaluation_count
		FROM period_records WHERE student_id = $1`,
		id,
	)
	if err != nil {
		return record.StudentRecord{}, fmt.Errorf("load periods: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p       string
			grade   *float64
			pr      record.PeriodRecord
			context *string
			count   *int
		)
		if err := rows.Scan(&p, &grade, &pr.Appreciation, &context, &count); err != nil {
			return record.StudentRecord{}, fmt.Errorf("scan period row: %w", err)
		}
		if grade != nil {
			g, err := record.NewGrade(*grade)
			if err != nil {
				return record.StudentRecord{}, fmt.Errorf("period %s: %w", p, err)
			}
			pr.Grade = g
		}
		if context != nil {
			pr.Context = *context
		}
		if count != nil {
			pr.EvaluationCount = *count
		}
		rec.Periods[period.ID(p)] = pr
	}
	if err := rows.Err(); err != nil {
		return record.StudentRecord{}, fmt.Errorf("iterate period rows: %w", err)
	}

	return rec, nil
}

// ClassID returns the class a student belongs to, for settings resolution.
func (s *Store) ClassID(ctx context.Context, studentID uuid.UUID) (uuid.UUID, error) {
	var classID uuid.UUID
	err := s.pool.QueryRow(ctx, `SELECT class_id FROM students WHERE id = $1`, studentID).Scan(&classID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("load class id: %w", err)
	}
	return classID, nil
}

// SavePeriodAppreciation stores a generated appreciation into the period
// record, so later windows render it as past material.
func (s *Store) SavePeriodAppreciation(ctx context.Context, studentID uuid.UUID, p period.ID, text string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO period_records (student_id, period, appreciation)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, period)
		DO UPDATE SET appreciation = $3, updated_at = now()`,
		studentID, string(p), text,
	)
	if err != nil {
		return fmt.Errorf("save appreciation: %w", err)
	}
	return nil
}
