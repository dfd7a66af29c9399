package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/scolaris/plume/internal/journal"
	"github.com/scolaris/plume/internal/period"
)

// InsertObservation persists a logged observation entry.
func (s *Store) InsertObservation(ctx context.Context, studentID uuid.UUID, e journal.Entry) error {
	tags := make([]string, len(e.Tags))
	for i, t := range e.Tags {
		tags[i] = string(t)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO observations (id, student_id, period, note, tags, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, studentID, string(e.Period), e.Note, tags, e.Date,
	)
	if err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

// ListObservations returns all entries for one student and period, oldest
// first. The significance filter handles ordering for synthesis itself.
func (s *Store) ListObservations(ctx context.Context, studentID uuid.UUID, p period.ID) ([]journal.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, period, note, tags, observed_at
		FROM observations
		WHERE student_id = $1 AND period = $2
		ORDER BY observed_at ASC`,
		studentID, string(p),
	)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var entries []journal.Entry
	for rows.Next() {
		var (
			e      journal.Entry
			pp     string
			tags   []string
		)
		if err := rows.Scan(&e.ID, &pp, &e.Note, &tags, &e.Date); err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}
		e.Period = period.ID(pp)
		e.Tags = make([]journal.TagID, len(tags))
		for i, t := range tags {
			e.Tags[i] = journal.TagID(t)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observation rows: %w", err)
	}
	return entries, nil
}
