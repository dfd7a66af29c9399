package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/scolaris/plume/internal/period"
)

// AppreciationRecord is one row of generation history: every text the
// service produced, with the operation and model that produced it.
type AppreciationRecord struct {
	ID        uuid.UUID
	StudentID uuid.UUID
	Period    period.ID
	Operation string
	Model     string
	Content   string
}

// InsertAppreciation appends to the generation history.
func (s *Store) InsertAppreciation(ctx context.Context, rec AppreciationRecord) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO appreciations (id, student_id, period, operation, model, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		id, rec.StudentID, string(rec.Period), rec.Operation, rec.Model, rec.Content,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert appreciation: %w", err)
	}
	return id, nil
}
