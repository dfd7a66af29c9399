// Package journal maintains the observation tag catalog and the significance
// filter that keeps one-off remarks out of generated appreciations.
package journal

import (
	"time"

	"github.com/google/uuid"

	"github.com/scolaris/plume/internal/period"
)

// TagID identifies a catalog tag.
type TagID string

// TagCategory partitions tags by valence.
type TagCategory int

const (
	TagPositive TagCategory = iota
	TagNegative
	TagNeutral
)

// Tag is an immutable catalog entry. The catalog is closed: teachers pick
// from it, they do not extend it.
type Tag struct {
	ID       TagID
	Label    string
	Category TagCategory
}

// Catalog order is load-bearing: significance ties are broken by declaration
// position.
var catalog = []Tag{
	{ID: "participation", Label: "Participation orale", Category: TagPositive},
	{ID: "entraide", Label: "Entraide", Category: TagPositive},
	{ID: "autonomie", Label: "Autonomie", Category: TagPositive},
	{ID: "serieux", Label: "Sérieux", Category: TagPositive},
	{ID: "progres", Label: "Progrès visible", Category: TagPositive},
	{ID: "bavardage", Label: "Bavardage", Category: TagNegative},
	{ID: "inattention", Label: "Inattention", Category: TagNegative},
	{ID: "travail-non-fait", Label: "Travail non fait", Category: TagNegative},
	{ID: "retard", Label: "Retards", Category: TagNegative},
	{ID: "materiel", Label: "Matériel oublié", Category: TagNeutral},
	{ID: "remarque", Label: "Remarque", Category: TagNeutral},
}

// Catalog returns the full fixed tag catalog in declaration order.
func Catalog() []Tag {
	out := make([]Tag, len(catalog))
	copy(out, catalog)
	return out
}

// LookupTag resolves a tag id against the catalog.
func LookupTag(id TagID) (Tag, bool) {
	for _, t := range catalog {
		if t.ID == id {
			return t, true
		}
	}
	return Tag{}, false
}

// catalogRank returns the declaration position used for tie-breaking.
// Unknown tags sort last.
func catalogRank(id TagID) int {
	for i, t := range catalog {
		if t.ID == id {
			return i
		}
	}
	return len(catalog)
}

// Entry is a single logged observation. Tags may be empty when the teacher
// only wrote a note; such entries never contribute to tag counts and their
// note is never eligible for synthesis.
type Entry struct {
	ID     uuid.UUID
	Date   time.Time
	Tags   []TagID
	Note   string // free text, capped at MaxNoteLen by the store
	Period period.ID
}

// MaxNoteLen bounds observation notes.
const MaxNoteLen = 280
