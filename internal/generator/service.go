// Package generator is the generation client collaborator: it takes the
// deterministic prompt bundle, performs the provider call, and restores the
// student's first name in the returned text. Identity flows back in only at
// this boundary.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/scolaris/plume/internal/anthropic"
	"github.com/scolaris/plume/internal/bus"
	"github.com/scolaris/plume/internal/evolution"
	"github.com/scolaris/plume/internal/period"
	"github.com/scolaris/plume/internal/prompt"
	"github.com/scolaris/plume/internal/record"
)

type Service struct {
	llm    *anthropic.Client
	bus    *bus.Client // nil when no bus is configured
	logger *slog.Logger
}

func New(llm *anthropic.Client, b *bus.Client, logger *slog.Logger) *Service {
	return &Service{llm: llm, bus: b, logger: logger}
}

// Result is one generated text plus the audit trail of how it was asked for.
type Result struct {
	Text   string
	Prompt string // the anonymized prompt actually sent
	Model  string
}

// Generate produces the appreciation for the student's current period.
func (s *Service) Generate(ctx context.Context, rec record.StudentRecord, seq []period.ID, style prompt.StyleConfig, synthesis string, policy evolution.Policy) (Result, error) {
	bundle, err := prompt.Build(rec, seq, style, synthesis, policy)
	if err != nil {
		return Result{}, err
	}
	return s.complete(ctx, rec, "generate", bundle.Appreciation, style.LengthWords)
}

// StrengthsWeaknesses produces the strengths/weaknesses companion text.
func (s *Service) StrengthsWeaknesses(ctx context.Context, rec record.StudentRecord, seq []period.ID, style prompt.StyleConfig, synthesis string, policy evolution.Policy) (Result, error) {
	bundle, err := prompt.Build(rec, seq, style, synthesis, policy)
	if err != nil {
		return Result{}, err
	}
	return s.complete(ctx, rec, "strengths-weaknesses", bundle.StrengthsWeaknesses, style.LengthWords)
}

// NextSteps produces the next-steps companion text.
func (s *Service) NextSteps(ctx context.Context, rec record.StudentRecord, seq []period.ID, style prompt.StyleConfig, synthesis string, policy evolution.Policy) (Result, error) {
	bundle, err := prompt.Build(rec, seq, style, synthesis, policy)
	if err != nil {
		return Result{}, err
	}
	return s.complete(ctx, rec, "next-steps", bundle.NextSteps, style.LengthWords)
}

// Refine rewrites an existing appreciation. The original text arrives from
// the caller, not from the record store, so there is no identity to strip
// or restore: the caller owns what it sent.
func (s *Service) Refine(ctx context.Context, req prompt.RefineRequest) (Result, error) {
	p := prompt.BuildRefinement(req)
	target := prompt.TargetWords(req)

	start := time.Now()
	raw, err := s.llm.Complete(ctx, systemPrompt, []anthropic.Message{{Role: "user", Content: p}}, maxTokensFor(target))
	if err != nil {
		return Result{}, fmt.Errorf("refine %s: %w", req.Op, err)
	}
	text := cleanResponse(raw)

	s.logger.Info("appreciation refined",
		"operation", req.Op.String(),
		"target_words", target,
		"words", prompt.WordCount(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	s.publish(bus.SubjectRefined, bus.GenerationEvent{
		Operation:  req.Op.String(),
		Model:      s.llm.Model(),
		Words:      prompt.WordCount(text),
		DurationMS: time.Since(start).Milliseconds(),
	})

	return Result{Text: text, Prompt: p, Model: s.llm.Model()}, nil
}

func (s *Service) complete(ctx context.Context, rec record.StudentRecord, operation, p string, targetWords int) (Result, error) {
	start := time.Now()
	raw, err := s.llm.Complete(ctx, systemPrompt, []anthropic.Message{{Role: "user", Content: p}}, maxTokensFor(targetWords))
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", operation, err)
	}

	text := cleanResponse(raw)
	// The provider only ever saw the placeholder; the real first name comes
	// back in here and nowhere else.
	text = strings.ReplaceAll(text, prompt.Placeholder, rec.FirstName)

	s.logger.Info("appreciation generated",
		"operation", operation,
		"student_id", rec.ID.String(),
		"period", string(rec.CurrentPeriod),
		"words", prompt.WordCount(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	s.publish(bus.SubjectGenerated, bus.GenerationEvent{
		StudentID:  rec.ID.String(),
		Period:     string(rec.CurrentPeriod),
		Operation:  operation,
		Model:      s.llm.Model(),
		Words:      prompt.WordCount(text),
		DurationMS: time.Since(start).Milliseconds(),
	})

	return Result{Text: text, Prompt: p, Model: s.llm.Model()}, nil
}

func (s *Service) publish(subject string, evt bus.GenerationEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(subject, evt); err != nil {
		s.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

// maxTokensFor sizes the completion budget from the word target. French
// runs around two tokens per word; the floor keeps short targets usable.
func maxTokensFor(targetWords int) int {
	tokens := targetWords * 3
	if tokens < 512 {
		return 512
	}
	if tokens > 2048 {
		return 2048
	}
	return tokens
}

// cleanResponse strips the provider artifacts that survive despite the
// plain-text contract: code fences and framing quotes.
func cleanResponse(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	text = strings.TrimSpace(text)
	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		text = text[1 : len(text)-1]
	}
	return strings.TrimSpace(text)
}
