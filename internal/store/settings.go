package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scolaris/plume/internal/journal"
	"github.com/scolaris/plume/internal/prompt"
)

// ClassSettings is the per-class configuration teachers can override.
type ClassSettings struct {
	Significance int
	Style        prompt.StyleConfig
}

// GetClassSettings loads a class's settings, falling back to the defaults
// when the class has never been configured.
func (s *Store) GetClassSettings(ctx context.Context, classID uuid.UUID) (ClassSettings, error) {
	settings := ClassSettings{
		Significance: s.defaultSignificance,
		Style:        prompt.DefaultStyle(),
	}

	var voice string
	err := s.pool.QueryRow(ctx, `
		SELECT significance, length_words, tone, voice, instructions, instructions_enabled, discipline
		FROM class_settings WHERE class_id = $1`,
		classID,
	).Scan(
		&settings.Significance,
		&settings.Style.LengthWords,
		&settings.Style.Tone,
		&voice,
		&settings.Style.Instructions,
		&settings.Style.InstructionsEnabled,
		&settings.Style.Discipline,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return settings, nil
	}
	if err != nil {
		return ClassSettings{}, fmt.Errorf("load class settings: %w", err)
	}

	settings.Style.Voice = prompt.ParseVoice(voice)
	settings.Significance = journal.ClampSignificance(settings.Significance)
	return settings, nil
}

// UpsertClassSettings stores a class's settings.
func (s *Store) UpsertClassSettings(ctx context.Context, classID uuid.UUID, settings ClassSettings) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO class_settings (class_id, significance, length_words, tone, voice, instructions, instructions_enabled, discipline, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (class_id)
		DO UPDATE SET
			significance = $2,
			length_words = $3,
			tone = $4,
			voice = $5,
			instructions = $6,
			instructions_enabled = $7,
			discipline = $8,
			updated_at = now()`,
		classID,
		journal.ClampSignificance(settings.Significance),
		settings.Style.LengthWords,
		settings.Style.Tone,
		settings.Style.Voice.String(),
		settings.Style.Instructions,
		settings.Style.InstructionsEnabled,
		settings.Style.Discipline,
	)
	if err != nil {
		return fmt.Errorf("upsert class settings: %w", err)
	}
	return nil
}
