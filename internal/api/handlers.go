package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/scolaris/plume/internal/evolution"
	"github.com/scolaris/plume/internal/generator"
	"github.com/scolaris/plume/internal/journal"
	"github.com/scolaris/plume/internal/period"
	"github.com/scolaris/plume/internal/prompt"
	"github.com/scolaris/plume/internal/record"
	"github.com/scolaris/plume/internal/store"
)

// evolutionView is the classifier output shape handed to the statistics UI.
type evolutionView struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Delta    float64 `json:"delta"`
	Category string  `json:"category"`
	Label    string  `json:"label"`
}

// getEvolutions serves the classified evolutions for a student. With
// ?window=1 the list is cut at the current period, matching what prompt
// assembly would see.
func (s *Server) getEvolutions(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadStudent(w, r)
	if !ok {
		return
	}

	evols, err := evolution.Classify(s.seq, rec.Periods, s.policy)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if r.URL.Query().Get("window") == "1" {
		window, err := period.WindowUpTo(s.seq, rec.CurrentPeriod)
		if err != nil {
			s.writeError(w, err)
			return
		}
		var filtered []evolution.Evolution
		for _, e := range evols {
			if period.Contains(window, e.To) {
				filtered = append(filtered, e)
			}
		}
		evols = filtered
	}

	views := make([]evolutionView, len(evols))
	for i, e := range evols {
		views[i] = evolutionView{
			From:     string(e.From),
			To:       string(e.To),
			Delta:    e.Delta,
			Category: e.Category.String(),
			Label:    e.Category.Label(),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"evolutions": views, "count": len(views)})
}

// getJournal previews the observation synthesis a prompt would embed.
func (s *Server) getJournal(w http.ResponseWriter, r *http.Request) {
	studentID, ok := s.parseStudentID(w, r)
	if !ok {
		return
	}

	p := period.ID(r.URL.Query().Get("period"))
	if p == "" {
		rec, ok := s.loadStudent(w, r)
		if !ok {
			return
		}
		p = rec.CurrentPeriod
	}
	if period.IndexOf(s.seq, p) < 0 {
		s.writeError(w, fmt.Errorf("%w: %s", period.ErrUnknownPeriod, p))
		return
	}

	significance, entries, err := s.journalInputs(r, studentID, p)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"period":       string(p),
		"significance": significance,
		"synthesis":    journal.Synthesize(entries, significance),
		"entries":      len(entries),
	})
}

type observationRequest struct {
	Period string   `json:"period"`
	Note   string   `json:"note"`
	Tags   []string `json:"tags"`
}

func (s *Server) postObservation(w http.ResponseWriter, r *http.Request) {
	studentID, ok := s.parseStudentID(w, r)
	if !ok {
		return
	}

	var req observationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	p := period.ID(req.Period)
	if period.IndexOf(s.seq, p) < 0 {
		s.writeError(w, fmt.Errorf("%w: %s", period.ErrUnknownPeriod, p))
		return
	}
	if len(req.Note) > journal.MaxNoteLen {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": fmt.Sprintf("note exceeds %d characters", journal.MaxNoteLen),
		})
		return
	}
	if len(req.Tags) == 0 && strings.TrimSpace(req.Note) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "observation needs at least one tag or a note",
		})
		return
	}

	tags := make([]journal.TagID, 0, len(req.Tags))
	for _, t := range req.Tags {
		id := journal.TagID(t)
		if _, ok := journal.LookupTag(id); !ok {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": fmt.Sprintf("unknown tag %q", t),
			})
			return
		}
		tags = append(tags, id)
	}

	entry := journal.Entry{
		ID:     uuid.New(),
		Date:   time.Now().UTC(),
		Tags:   tags,
		Note:   req.Note,
		Period: p,
	}
	if err := s.records.InsertObservation(r.Context(), studentID, entry); err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": entry.ID.String()})
}

type appreciationRequest struct {
	// Kind selects the prompt: appreciation (default), strengths-weaknesses
	// or next-steps.
	Kind string `json:"kind,omitempty"`
	// Optional per-request style overrides on top of the class settings.
	LengthWords *int    `json:"length_words,omitempty"`
	Tone        *int    `json:"tone,omitempty"`
	Voice       *string `json:"voice,omitempty"`
}

func (s *Server) postAppreciation(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadStudent(w, r)
	if !ok {
		return
	}

	var req appreciationRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
	}

	significance, entries, err := s.journalInputs(r, rec.ID, rec.CurrentPeriod)
	if err != nil {
		s.writeError(w, err)
		return
	}
	synthesis := journal.Synthesize(entries, significance)

	classID, err := s.records.ClassID(r.Context(), rec.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	settings, err := s.records.GetClassSettings(r.Context(), classID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	style := applyOverrides(settings.Style, req)

	var (
		result    generator.Result
		operation string
		genErr    error
	)
	switch req.Kind {
	case "", "appreciation":
		operation = "generate"
		result, genErr = s.gen.Generate(r.Context(), rec, s.seq, style, synthesis, s.policy)
	case "strengths-weaknesses":
		operation = "strengths-weaknesses"
		result, genErr = s.gen.StrengthsWeaknesses(r.Context(), rec, s.seq, style, synthesis, s.policy)
	case "next-steps":
		operation = "next-steps"
		result, genErr = s.gen.NextSteps(r.Context(), rec, s.seq, style, synthesis, s.policy)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown kind %q", req.Kind)})
		return
	}
	if genErr != nil {
		s.writeError(w, genErr)
		return
	}

	historyID, err := s.records.InsertAppreciation(r.Context(), store.AppreciationRecord{
		StudentID: rec.ID,
		Period:    rec.CurrentPeriod,
		Operation: operation,
		Model:     result.Model,
		Content:   result.Text,
	})
	if err != nil {
		s.logger.Error("failed to record generation history", "student_id", rec.ID, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"text":       result.Text,
		"prompt":     result.Prompt,
		"model":      result.Model,
		"history_id": historyID.String(),
	})
}

type saveAppreciationRequest struct {
	Text string `json:"text"`
}

// putAppreciation stores a reviewed text into the period record. Generation
// never writes the period record on its own; the teacher saves explicitly.
func (s *Server) putAppreciation(w http.ResponseWriter, r *http.Request) {
	studentID, ok := s.parseStudentID(w, r)
	if !ok {
		return
	}
	p := period.ID(chi.URLParam(r, "period"))
	if period.IndexOf(s.seq, p) < 0 {
		s.writeError(w, fmt.Errorf("%w: %s", period.ErrUnknownPeriod, p))
		return
	}

	var req saveAppreciationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	if err := s.records.SavePeriodAppreciation(r.Context(), studentID, p, req.Text); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

type refineRequest struct {
	Operation      string  `json:"operation"`
	Original       string  `json:"original"`
	Context        string  `json:"context,omitempty"`
	DetailedFactor float64 `json:"detailed_factor,omitempty"`
}

func (s *Server) postRefine(w http.ResponseWriter, r *http.Request) {
	var req refineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Original) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "original text is required"})
		return
	}

	result, err := s.gen.Refine(r.Context(), prompt.RefineRequest{
		Op:             prompt.ParseOp(req.Operation),
		Original:       req.Original,
		Context:        req.Context,
		DetailedFactor: req.DetailedFactor,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"text":  result.Text,
		"model": result.Model,
	})
}

// journalInputs loads the significance threshold and observation entries
// for one student/period pair.
func (s *Server) journalInputs(r *http.Request, studentID uuid.UUID, p period.ID) (int, []journal.Entry, error) {
	classID, err := s.records.ClassID(r.Context(), studentID)
	if err != nil {
		return 0, nil, err
	}
	settings, err := s.records.GetClassSettings(r.Context(), classID)
	if err != nil {
		return 0, nil, err
	}
	entries, err := s.records.ListObservations(r.Context(), studentID, p)
	if err != nil {
		return 0, nil, err
	}
	return settings.Significance, entries, nil
}

func (s *Server) parseStudentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid student id"})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) loadStudent(w http.ResponseWriter, r *http.Request) (record.StudentRecord, bool) {
	id, ok := s.parseStudentID(w, r)
	if !ok {
		return record.StudentRecord{}, false
	}
	rec, err := s.records.GetStudent(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return record.StudentRecord{}, false
	}
	return rec, true
}

// writeError maps the domain error taxonomy onto HTTP statuses: data the
// teacher can fix gets a 422 with a pointed message, missing students get
// 404, everything else is a 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrStudentNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "student not found"})
	case errors.Is(err, prompt.ErrMissingCurrentPeriod):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "no record exists for the current period; create the period before generating",
		})
	case errors.Is(err, period.ErrUnknownPeriod):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "period is not part of the class's reporting sequence",
		})
	case errors.Is(err, record.ErrInvalidGrade):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "a stored grade is out of range; fix the record before generating",
		})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func applyOverrides(style prompt.StyleConfig, req appreciationRequest) prompt.StyleConfig {
	if req.LengthWords != nil && *req.LengthWords >= 0 {
		style.LengthWords = *req.LengthWords
	}
	if req.Tone != nil && *req.Tone >= 1 && *req.Tone <= 5 {
		style.Tone = *req.Tone
	}
	if req.Voice != nil {
		style.Voice = prompt.ParseVoice(*req.Voice)
	}
	return style
}
