package generator

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/scolaris/plume/internal/anthropic"
	"github.com/scolaris/plume/internal/evolution"
	"github.com/scolaris/plume/internal/period"
	"github.com/scolaris/plume/internal/prompt"
	"github.com/scolaris/plume/internal/record"
)

func testService(t *testing.T, reply string, capture *string) *Service {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if capture != nil && len(req.Messages) > 0 {
			*capture = req.Messages[0].Content
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"content":     []map[string]string{{"type": "text", "text": reply}},
			"stop_reason": "end_turn",
		})
	}))
	t.Cleanup(server.Close)

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)
	return New(llm, nil, slog.New(slog.NewTextHandler(testWriter{t}, nil)))
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

func genFixture() record.StudentRecord {
	return record.StudentRecord{
		ID:        uuid.New(),
		FirstName: "Emma",
		LastName:  "Durand",
		Periods: map[period.ID]record.PeriodRecord{
			"T1": {Grade: record.MustGrade(11.0), Appreciation: "Bon début."},
			"T2": {Grade: record.MustGrade(11.7)},
		},
		CurrentPeriod: "T2",
	}
}

func TestGenerate_RestoresFirstName(t *testing.T) {
	var sent string
	svc := testService(t, "[ELEVE] a fourni un travail régulier ce trimestre.", &sent)

	res, err := svc.Generate(context.Background(), genFixture(), period.Trimesters, prompt.DefaultStyle(), "", evolution.DefaultPolicy())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if res.Text != "Emma a fourni un travail régulier ce trimestre." {
		t.Errorf("placeholder not restored: %q", res.Text)
	}
	if strings.Contains(sent, "Emma") || strings.Contains(sent, "Durand") {
		t.Errorf("outgoing prompt carries the student's name:\n%s", sent)
	}
	if res.Model != "test-model" {
		t.Errorf("Result.Model = %q, want test-model", res.Model)
	}
	if res.Prompt != sent {
		t.Error("Result.Prompt differs from the prompt actually sent")
	}
}

func TestGenerate_MissingCurrentPeriod(t *testing.T) {
	svc := testService(t, "inutile", nil)
	rec := genFixture()
	rec.CurrentPeriod = "T3"

	_, err := svc.Generate(context.Background(), rec, period.Trimesters, prompt.DefaultStyle(), "", evolution.DefaultPolicy())
	if err == nil {
		t.Fatal("expected error for missing current period record")
	}
}

func TestRefine_BuildsRefinementPrompt(t *testing.T) {
	var sent string
	svc := testService(t, "Texte raccourci.", &sent)

	res, err := svc.Refine(context.Background(), prompt.RefineRequest{
		Op:       prompt.OpConcise,
		Original: "Élève sérieuse et appliquée, qui participe volontiers en classe.",
	})
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	if res.Text != "Texte raccourci." {
		t.Errorf("Refine text = %q", res.Text)
	}
	if !strings.Contains(sent, "Raccourcis cette appréciation") {
		t.Errorf("refine prompt missing the concise instruction:\n%s", sent)
	}
}

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Bon trimestre.", "Bon trimestre."},
		{"surrounding whitespace", "  Bon trimestre. \n", "Bon trimestre."},
		{"framing quotes", `"Bon trimestre."`, "Bon trimestre."},
		{"code fence", "```\nBon trimestre.\n```", "Bon trimestre."},
		{"fence with language", "```text\nBon trimestre.\n```", "Bon trimestre."},
		{"inner quotes preserved", `Il dit "bonjour" souvent.`, `Il dit "bonjour" souvent.`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanResponse(tt.in); got != tt.want {
				t.Errorf("cleanResponse(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMaxTokensFor(t *testing.T) {
	tests := []struct {
		name  string
		words int
		want  int
	}{
		{"floor", 10, 512},
		{"mid range", 300, 900},
		{"ceiling", 5000, 2048},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maxTokensFor(tt.words); got != tt.want {
				t.Errorf("maxTokensFor(%d) = %d, want %d", tt.words, got, tt.want)
			}
		})
	}
}
