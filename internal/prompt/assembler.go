// Package prompt deterministically assembles the anonymized generation
// prompts sent to the text-generation provider. Everything in this package
// is a pure function of its inputs: same record, same style, same prompt.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scolaris/plume/internal/evolution"
	"github.com/scolaris/plume/internal/gender"
	"github.com/scolaris/plume/internal/period"
	"github.com/scolaris/plume/internal/record"
)

// Placeholder is the fixed anonymization token substituted for the
// student's name in every outgoing text. The generator client substitutes
// the real first name back into the provider's response; the last name
// never travels in either direction.
const Placeholder = "[ELEVE]"

// ErrMissingCurrentPeriod is returned when the record carries no entry at
// all for the active period. There must always be at least an empty record.
var ErrMissingCurrentPeriod = errors.New("no record for current period")

// Bundle is the set of prompts produced for one student and period.
type Bundle struct {
	Appreciation        string
	StrengthsWeaknesses string
	NextSteps           string
}

// Build assembles the full prompt bundle for the student's current period.
// All rendering rules are order-sensitive; see the section builders below.
func Build(rec record.StudentRecord, seq []period.ID, style StyleConfig, synthesis string, policy evolution.Policy) (Bundle, error) {
	if _, ok := rec.Periods[rec.CurrentPeriod]; !ok {
		return Bundle{}, fmt.Errorf("%w: %s", ErrMissingCurrentPeriod, rec.CurrentPeriod)
	}

	window, err := period.WindowUpTo(seq, rec.CurrentPeriod)
	if err != nil {
		return Bundle{}, err
	}

	// The classifier is window-agnostic; the filter below is what keeps
	// future-period movement out of the prompt.
	evols, err := evolution.Classify(seq, rec.Periods, policy)
	if err != nil {
		return Bundle{}, err
	}
	var windowed []evolution.Evolution
	for _, e := range evols {
		if period.Contains(window, e.To) {
			windowed = append(windowed, e)
		}
	}

	bundle := Bundle{
		Appreciation:        buildAppreciation(rec, window, windowed, style, synthesis),
		StrengthsWeaknesses: buildAuxiliary(rec, window, windowed, style, synthesis, auxStrengths),
		NextSteps:           buildAuxiliary(rec, window, windowed, style, synthesis, auxNextSteps),
	}

	bundle.Appreciation = anonymize(bundle.Appreciation, rec)
	bundle.StrengthsWeaknesses = anonymize(bundle.StrengthsWeaknesses, rec)
	bundle.NextSteps = anonymize(bundle.NextSteps, rec)
	return bundle, nil
}

func buildAppreciation(rec record.StudentRecord, window []period.ID, evols []evolution.Evolution, style StyleConfig, synthesis string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Rédige l'appréciation du bulletin de %s pour la période %s", Placeholder, rec.CurrentPeriod)
	if style.Discipline != "" {
		fmt.Fprintf(&sb, " en %s", style.Discipline)
	}
	sb.WriteString(".\n")
	sb.WriteString(agreementInstruction(rec.FirstName))
	sb.WriteString("\n")

	writeResults(&sb, rec, window, true)
	writeEvolutions(&sb, evols)
	writeContext(&sb, rec, synthesis)
	writeStyle(&sb, style)

	sb.WriteString("Réponds uniquement avec le texte de l'appréciation, en texte brut, sans préambule.")
	return sb.String()
}

type auxKind int

const (
	auxStrengths auxKind = iota
	auxNextSteps
)

// buildAuxiliary renders the strengths/weaknesses and next-steps prompts.
// Unlike the generation prompt these reference the stored current-period
// appreciation: the calling flow only offers them once a text exists.
func buildAuxiliary(rec record.StudentRecord, window []period.ID, evols []evolution.Evolution, style StyleConfig, synthesis string, kind auxKind) string {
	var sb strings.Builder

	switch kind {
	case auxStrengths:
		fmt.Fprintf(&sb, "À partir du dossier de %s, liste ses points forts puis ses points faibles pour la période %s, en deux listes courtes.\n", Placeholder, rec.CurrentPeriod)
	case auxNextSteps:
		fmt.Fprintf(&sb, "À partir du dossier de %s, propose 2 à 3 axes de progression concrets pour la suite de la période %s.\n", Placeholder, rec.CurrentPeriod)
	}
	sb.WriteString(agreementInstruction(rec.FirstName))
	sb.WriteString("\n")

	writeResults(&sb, rec, window, false)
	writeEvolutions(&sb, evols)
	writeContext(&sb, rec, synthesis)

	sb.WriteString("Réponds uniquement en texte brut, sans préambule.")
	return sb.String()
}

// writeResults renders one line per window period. When maskCurrent is set
// the current period's stored appreciation is replaced with an explicit
// "to be generated" marker so the generator cannot anchor on stale text.
func writeResults(sb *strings.Builder, rec record.StudentRecord, window []period.ID, maskCurrent bool) {
	sb.WriteString("Résultats :\n")
	for _, p := range window {
		pr, ok := rec.Periods[p]
		if !ok {
			continue
		}
		isCurrent := p == rec.CurrentPeriod

		parts := make([]string, 0, 2)
		if pr.Grade.Present() {
			parts = append(parts, formatGrade(pr.Grade.Value()))
		}
		switch {
		case isCurrent && maskCurrent:
			parts = append(parts, "appréciation : à rédiger")
		case pr.Appreciation != "":
			parts = append(parts, fmt.Sprintf("appréciation : %q", pr.Appreciation))
		}
		if len(parts) == 0 {
			continue
		}
		fmt.Fprintf(sb, "- %s : %s\n", p, strings.Join(parts, ", "))
	}
}

func writeEvolutions(sb *strings.Builder, evols []evolution.Evolution) {
	for _, e := range evols {
		fmt.Fprintf(sb, "Évolution %s->%s : %s (%+.1f pts)\n", e.From, e.To, e.Category.Label(), e.Delta)
	}
}

// writeContext appends the conditional lines: statuses, period context and
// journal synthesis are omitted entirely when empty, never rendered blank.
func writeContext(sb *strings.Builder, rec record.StudentRecord, synthesis string) {
	if len(rec.Statuses) > 0 {
		fmt.Fprintf(sb, "Statuts de l'élève : %s\n", strings.Join(rec.Statuses, ", "))
	}
	if pr, ok := rec.Periods[rec.CurrentPeriod]; ok && strings.TrimSpace(pr.Context) != "" {
		fmt.Fprintf(sb, "Contexte : %s\n", strings.TrimSpace(pr.Context))
	}
	if synthesis != "" {
		sb.WriteString(synthesis)
		sb.WriteString("\n")
	}
}

// writeStyle renders the style section. Each line is conditional: no length
// target when zero, no voice line for the default voice, free instructions
// only when present and explicitly enabled.
func writeStyle(sb *strings.Builder, style StyleConfig) {
	if style.LengthWords > 0 {
		fmt.Fprintf(sb, "Longueur cible : environ %d mots.\n", style.LengthWords)
	}
	sb.WriteString(toneInstruction(style.Tone))
	sb.WriteString("\n")
	switch style.Voice {
	case VoiceJe:
		sb.WriteString("Rédige à la première personne du singulier (je).\n")
	case VoiceNous:
		sb.WriteString("Rédige à la première personne du pluriel (nous).\n")
	}
	if style.InstructionsEnabled && strings.TrimSpace(style.Instructions) != "" {
		fmt.Fprintf(sb, "Consignes de style : %s\n", strings.TrimSpace(style.Instructions))
	}
}

func agreementInstruction(firstName string) string {
	switch gender.Detect(firstName) {
	case gender.Feminine:
		return "Accorde le texte au féminin."
	case gender.Masculine:
		return "Accorde le texte au masculin."
	default:
		return "Utilise des tournures impersonnelles, sans accord genré."
	}
}

// formatGrade renders a grade with the French comma decimal separator.
func formatGrade(v float64) string {
	return strings.Replace(fmt.Sprintf("%.1f", v), ".", ",", 1) + "/20"
}

// anonymize strips the student's identity from an assembled prompt. Stored
// appreciations and contexts sometimes quote the student by name; this is
// the last gate before text leaves the process.
func anonymize(text string, rec record.StudentRecord) string {
	if rec.LastName != "" {
		text = strings.ReplaceAll(text, rec.LastName, Placeholder)
	}
	if rec.FirstName != "" {
		text = strings.ReplaceAll(text, rec.FirstName, Placeholder)
	}
	return text
}
