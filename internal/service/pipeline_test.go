package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lexgraph/lexgraph/internal/domain"
	"github.com/lexgraph/lexgraph/internal/llm"
	"go.uber.org/zap"
)

func newTestPipeline(t *testing.T, client domain.GenerationClient) (*Pipeline, *PipelineStats) {
	t.Helper()
	logger := zap.NewNop()
	idx := testIndex(t)
	stats := &PipelineStats{}

	p := NewPipeline(
		NewIntentService(logger),
		NewRetrievalService(idx, DefaultScenarioRouting(), logger),
		NewAssemblerService(idx, 0, logger),
		NewConfidenceScorer(logger),
		NewValidatorService(idx, DefaultValidationPolicy(), logger),
		client,
		0,
		stats,
		logger,
	)
	return p, stats
}

func TestProcess_Success(t *testing.T) {
	mock := llm.NewMockClient()
	p, stats := newTestPipeline(t, mock)

	result, err := p.Process(context.Background(), "What is a defect?", domain.AudienceCitizen)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if result.Fallback {
		t.Fatalf("unexpected fallback, validation: %+v", result.Validation)
	}
	if result.Answer != mock.GenerateResponse.Text {
		t.Errorf("answer = %q, want the generated text", result.Answer)
	}
	if result.Intent.Category != domain.CategoryDefinitionLookup {
		t.Errorf("category = %s, want definition_lookup", result.Intent.Category)
	}
	if len(result.Citations) == 0 {
		t.Error("no citations returned")
	}
	if result.Validation == nil {
		t.Fatal("validation missing for generated answer")
	}
	if !result.Validation.IsValid {
		t.Errorf("mock answer failed validation: %+v", result.Validation.Issues)
	}
	if !strings.Contains(result.Explanation, string(domain.CategoryDefinitionLookup)) {
		t.Errorf("explanation missing classification: %q", result.Explanation)
	}
	if len(mock.GenerateCalls) != 1 {
		t.Fatalf("generate called %d times, want 1", len(mock.GenerateCalls))
	}
	if !strings.Contains(mock.GenerateCalls[0].Prompt, "What is a defect?") {
		t.Error("user prompt missing the query")
	}
	if got := stats.Queries.Load(); got != 1 {
		t.Errorf("queries counter = %d, want 1", got)
	}
	if got := stats.Fallbacks.Load(); got != 0 {
		t.Errorf("fallbacks counter = %d, want 0", got)
	}
}

func TestProcess_GenerationErrorFallsBack(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateError = errors.New("provider unavailable")
	p, stats := newTestPipeline(t, mock)

	result, err := p.Process(context.Background(), "What is a defect?", domain.AudienceCitizen)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if !result.Fallback {
		t.Fatal("generation failure did not fall back")
	}
	if result.Validation != nil {
		t.Error("graph-only answer must not be validated")
	}
	if !strings.Contains(result.Answer, "educational purposes only") {
		t.Errorf("fallback answer missing disclaimer: %q", result.Answer)
	}
	if !strings.Contains(result.Answer, "fault, imperfection or shortcoming") {
		t.Errorf("fallback answer missing retrieved provision: %q", result.Answer)
	}
	if got := stats.Fallbacks.Load(); got != 1 {
		t.Errorf("fallbacks counter = %d, want 1", got)
	}
}

func TestProcess_EmptyGenerationFallsBack(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateResponse = &domain.GenerationResult{Text: "   "}
	p, _ := newTestPipeline(t, mock)

	result, err := p.Process(context.Background(), "What is a defect?", domain.AudienceCitizen)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !result.Fallback {
		t.Error("blank generation did not fall back")
	}
}

func TestProcess_BlockedAnswerReplaced(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateResponse = &domain.GenerationResult{
		Text: "You will win the case, the judge will rule in your favour.",
	}
	p, stats := newTestPipeline(t, mock)

	result, err := p.Process(context.Background(), "What is a defect?", domain.AudienceCitizen)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if result.Answer == mock.GenerateResponse.Text {
		t.Fatal("blocked answer served verbatim")
	}
	if !result.Fallback {
		t.Error("blocked answer not marked as fallback")
	}
	if result.Validation == nil || result.Validation.IsValid {
		t.Errorf("validation should have failed: %+v", result.Validation)
	}
	if !strings.Contains(result.Answer, "educational purposes only") {
		t.Errorf("replacement answer missing disclaimer: %q", result.Answer)
	}
	if got := stats.Blocked.Load(); got != 1 {
		t.Errorf("blocked counter = %d, want 1", got)
	}
}

func TestProcess_InputValidation(t *testing.T) {
	p, stats := newTestPipeline(t, llm.NewMockClient())
	ctx := context.Background()

	if _, err := p.Process(ctx, "   ", domain.AudienceCitizen); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("empty query error = %v, want ErrEmptyQuery", err)
	}
	long := strings.Repeat("a", maxQueryLength+1)
	if _, err := p.Process(ctx, long, domain.AudienceCitizen); !errors.Is(err, ErrQueryTooLong) {
		t.Errorf("long query error = %v, want ErrQueryTooLong", err)
	}
	if _, err := p.Process(ctx, "What is a defect?", domain.Audience("alien")); !errors.Is(err, ErrInvalidAudience) {
		t.Errorf("bad audience error = %v, want ErrInvalidAudience", err)
	}
	if got := stats.Queries.Load(); got != 0 {
		t.Errorf("rejected input counted as queries: %d", got)
	}
}
