package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/scolaris/plume/internal/evolution"
	"github.com/scolaris/plume/internal/generator"
	"github.com/scolaris/plume/internal/journal"
	"github.com/scolaris/plume/internal/period"
	"github.com/scolaris/plume/internal/prompt"
	"github.com/scolaris/plume/internal/record"
	"github.com/scolaris/plume/internal/store"
)

type fakeRecords struct {
	students     map[uuid.UUID]record.StudentRecord
	observations map[uuid.UUID][]journal.Entry
	saved        map[string]string
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		students:     make(map[uuid.UUID]record.StudentRecord),
		observations: make(map[uuid.UUID][]journal.Entry),
		saved:        make(map[string]string),
	}
}

func (f *fakeRecords) GetStudent(_ context.Context, id uuid.UUID) (record.StudentRecord, error) {
	rec, ok := f.students[id]
	if !ok {
		return record.StudentRecord{}, fmt.Errorf("student %s: %w", id, store.ErrStudentNotFound)
	}
	return rec, nil
}

func (f *fakeRecords) ClassID(_ context.Context, studentID uuid.UUID) (uuid.UUID, error) {
	if _, ok := f.students[studentID]; !ok {
		return uuid.Nil, fmt.Errorf("student %s: %w", studentID, store.ErrStudentNotFound)
	}
	return uuid.Nil, nil
}

func (f *fakeRecords) GetClassSettings(_ context.Context, _ uuid.UUID) (store.ClassSettings, error) {
	return store.ClassSettings{Significance: journal.DefaultSignificance, Style: prompt.DefaultStyle()}, nil
}

func (f *fakeRecords) ListObservations(_ context.Context, studentID uuid.UUID, p period.ID) ([]journal.Entry, error) {
	var out []journal.Entry
	for _, e := range f.observations[studentID] {
		if e.Period == p {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRecords) InsertObservation(_ context.Context, studentID uuid.UUID, e journal.Entry) error {
	f.observations[studentID] = append(f.observations[studentID], e)
	return nil
}

func (f *fakeRecords) InsertAppreciation(_ context.Context, _ store.AppreciationRecord) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (f *fakeRecords) SavePeriodAppreciation(_ context.Context, studentID uuid.UUID, p period.ID, text string) error {
	f.saved[studentID.String()+"/"+string(p)] = text
	return nil
}

type fakeGenerator struct {
	result generator.Result
	err    error
}

func (f *fakeGenerator) Generate(_ context.Context, rec record.StudentRecord, seq []period.ID, style prompt.StyleConfig, synthesis string, policy evolution.Policy) (generator.Result, error) {
	if f.err != nil {
		return generator.Result{}, f.err
	}
	// The real service runs prompt assembly; keep the error contract.
	if _, err := prompt.Build(rec, seq, style, synthesis, policy); err != nil {
		return generator.Result{}, err
	}
	return f.result, nil
}

func (f *fakeGenerator) StrengthsWeaknesses(ctx context.Context, rec record.StudentRecord, seq []period.ID, style prompt.StyleConfig, synthesis string, policy evolution.Policy) (generator.Result, error) {
	return f.Generate(ctx, rec, seq, style, synthesis, policy)
}

func (f *fakeGenerator) NextSteps(ctx context.Context, rec record.StudentRecord, seq []period.ID, style prompt.StyleConfig, synthesis string, policy evolution.Policy) (generator.Result, error) {
	return f.Generate(ctx, rec, seq, style, synthesis, policy)
}

func (f *fakeGenerator) Refine(_ context.Context, _ prompt.RefineRequest) (generator.Result, error) {
	return f.result, f.err
}

func testServer(records Records, gen Generator, apiToken string) *Server {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewServer(8760, apiToken, records, gen, period.Trimesters, evolution.DefaultPolicy(), logger)
}

func seedStudent(f *fakeRecords) uuid.UUID {
	id := uuid.New()
	f.students[id] = record.StudentRecord{
		ID:        id,
		FirstName: "Emma",
		LastName:  "Durand",
		Periods: map[period.ID]record.PeriodRecord{
			"T1": {Grade: record.MustGrade(11.0), Appreciation: "Bon début."},
			"T2": {Grade: record.MustGrade(11.7)},
		},
		CurrentPeriod: "T2",
	}
	return id
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(newFakeRecords(), &fakeGenerator{}, "")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := testServer(newFakeRecords(), &fakeGenerator{}, "")

	req := httptest.NewRequest("GET", "/api/v1/plume/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["service"] != "plume" {
		t.Errorf("expected service plume, got %q", body["service"])
	}
}

func TestBearerAuth(t *testing.T) {
	records := newFakeRecords()
	id := seedStudent(records)
	srv := testServer(records, &fakeGenerator{}, "secret")

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/students/"+id.String()+"/evolutions", nil)
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/students/"+id.String()+"/evolutions", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/students/"+id.String()+"/evolutions", nil)
		req.Header.Set("Authorization", "Bearer secret")
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})
}

func TestGetEvolutions(t *testing.T) {
	records := newFakeRecords()
	id := seedStudent(records)
	srv := testServer(records, &fakeGenerator{}, "")

	req := httptest.NewRequest("GET", "/api/v1/students/"+id.String()+"/evolutions", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Evolutions []struct {
			From     string  `json:"from"`
			To       string  `json:"to"`
			Delta    float64 `json:"delta"`
			Category string  `json:"category"`
		} `json:"evolutions"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Evolutions) != 1 {
		t.Fatalf("expected 1 evolution, got %d", len(body.Evolutions))
	}
	e := body.Evolutions[0]
	if e.From != "T1" || e.To != "T2" || e.Category != "positive" {
		t.Errorf("unexpected evolution %+v", e)
	}
}

func TestGetEvolutions_UnknownStudent(t *testing.T) {
	srv := testServer(newFakeRecords(), &fakeGenerator{}, "")

	req := httptest.NewRequest("GET", "/api/v1/students/"+uuid.NewString()+"/evolutions", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestPostObservation(t *testing.T) {
	records := newFakeRecords()
	id := seedStudent(records)
	srv := testServer(records, &fakeGenerator{}, "")

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/v1/students/"+id.String()+"/observations", bytes.NewBufferString(body))
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		return w
	}

	t.Run("valid", func(t *testing.T) {
		w := post(`{"period":"T2","tags":["bavardage"],"note":"Bavarde avec sa voisine."}`)
		if w.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		if len(records.observations[id]) != 1 {
			t.Errorf("expected 1 stored observation, got %d", len(records.observations[id]))
		}
	})

	t.Run("unknown tag", func(t *testing.T) {
		w := post(`{"period":"T2","tags":["invente"]}`)
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", w.Code)
		}
	})

	t.Run("unknown period", func(t *testing.T) {
		w := post(`{"period":"S1","tags":["bavardage"]}`)
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", w.Code)
		}
	})

	t.Run("empty observation", func(t *testing.T) {
		w := post(`{"period":"T2"}`)
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", w.Code)
		}
	})
}

func TestPostAppreciation(t *testing.T) {
	records := newFakeRecords()
	id := seedStudent(records)
	gen := &fakeGenerator{result: generator.Result{
		Text:   "Emma progresse nettement ce trimestre.",
		Prompt: "prompt envoyé",
		Model:  "test-model",
	}}
	srv := testServer(records, gen, "")

	req := httptest.NewRequest("POST", "/api/v1/students/"+id.String()+"/appreciation", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["text"] != "Emma progresse nettement ce trimestre." {
		t.Errorf("unexpected text %q", body["text"])
	}
	if body["prompt"] != "prompt envoyé" {
		t.Errorf("unexpected prompt %q", body["prompt"])
	}
}

func TestPostAppreciation_MissingCurrentPeriod(t *testing.T) {
	records := newFakeRecords()
	id := seedStudent(records)
	rec := records.students[id]
	rec.CurrentPeriod = "T3" // no record stored for T3
	records.students[id] = rec
	srv := testServer(records, &fakeGenerator{}, "")

	req := httptest.NewRequest("POST", "/api/v1/students/"+id.String()+"/appreciation", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPutAppreciation(t *testing.T) {
	records := newFakeRecords()
	id := seedStudent(records)
	srv := testServer(records, &fakeGenerator{}, "")

	req := httptest.NewRequest("PUT", "/api/v1/students/"+id.String()+"/periods/T2/appreciation",
		bytes.NewBufferString(`{"text":"Trimestre satisfaisant."}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if records.saved[id.String()+"/T2"] != "Trimestre satisfaisant." {
		t.Error("appreciation was not saved")
	}
}

func TestPutAppreciation_UnknownPeriod(t *testing.T) {
	records := newFakeRecords()
	id := seedStudent(records)
	srv := testServer(records, &fakeGenerator{}, "")

	req := httptest.NewRequest("PUT", "/api/v1/students/"+id.String()+"/periods/T9/appreciation",
		bytes.NewBufferString(`{"text":"x"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
}

func TestPostRefine(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{Text: "Texte raccourci.", Model: "test-model"}}
	srv := testServer(newFakeRecords(), gen, "")

	req := httptest.NewRequest("POST", "/api/v1/appreciations/refine",
		bytes.NewBufferString(`{"operation":"concise","original":"Un texte un peu long à raccourcir."}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["text"] != "Texte raccourci." {
		t.Errorf("unexpected text %q", body["text"])
	}
}

func TestPostRefine_EmptyOriginal(t *testing.T) {
	srv := testServer(newFakeRecords(), &fakeGenerator{}, "")

	req := httptest.NewRequest("POST", "/api/v1/appreciations/refine",
		bytes.NewBufferString(`{"operation":"concise","original":"  "}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
}

func TestGetJournal(t *testing.T) {
	records := newFakeRecords()
	id := seedStudent(records)
	for i := 0; i < 2; i++ {
		_ = records.InsertObservation(context.Background(), id, journal.Entry{
			ID:     uuid.New(),
			Tags:   []journal.TagID{"bavardage"},
			Period: "T2",
		})
	}
	srv := testServer(records, &fakeGenerator{}, "")

	req := httptest.NewRequest("GET", "/api/v1/students/"+id.String()+"/journal?period=T2", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Synthesis string `json:"synthesis"`
		Entries   int    `json:"entries"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Synthesis != "Observations: Bavardage" {
		t.Errorf("unexpected synthesis %q", body.Synthesis)
	}
	if body.Entries != 2 {
		t.Errorf("expected 2 entries, got %d", body.Entries)
	}
}
