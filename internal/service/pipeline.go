package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lexgraph/lexgraph/internal/domain"
	"github.com/lexgraph/lexgraph/internal/llm"
	"go.uber.org/zap"
)

var (
	ErrEmptyQuery      = errors.New("query must not be empty")
	ErrQueryTooLong    = errors.New("query exceeds maximum length")
	ErrInvalidAudience = errors.New("invalid audience")
)

const maxQueryLength = 2000

// PipelineStats accumulates counters across requests. Owned by the caller
// so multiple pipelines can share one accumulator.
type PipelineStats struct {
	Queries       atomic.Int64
	Fallbacks     atomic.Int64
	Blocked       atomic.Int64
	TotalDuration atomic.Int64 // nanoseconds
}

// QueryResult is the full outcome of one pipeline run.
type QueryResult struct {
	Answer      string                   `json:"answer"`
	Intent      domain.QueryIntent       `json:"intent"`
	Complexity  domain.Complexity        `json:"complexity"`
	Citations   map[string]string        `json:"citations"`
	Confidence  domain.ConfidenceScore   `json:"confidence"`
	Validation  *domain.ValidationResult `json:"validation,omitempty"`
	Explanation string                   `json:"explanation"`
	Fallback    bool                     `json:"fallback"`
	Usage       domain.GenerationUsage   `json:"usage"`
	Duration    time.Duration            `json:"-"`
}

// Pipeline runs the full query path: parse, retrieve, assemble, generate,
// score, validate. Generation failures degrade to a deterministic
// graph-only answer instead of an error.
type Pipeline struct {
	intents    *IntentService
	retrieval  *RetrievalService
	assembler  *AssemblerService
	scorer     *ConfidenceScorer
	validator  *ValidatorService
	client     domain.GenerationClient
	genTimeout time.Duration
	stats      *PipelineStats
	logger     *zap.Logger
}

func NewPipeline(intents *IntentService, retrieval *RetrievalService, assembler *AssemblerService,
	scorer *ConfidenceScorer, validator *ValidatorService, client domain.GenerationClient,
	genTimeout time.Duration, stats *PipelineStats, logger *zap.Logger) *Pipeline {

	if genTimeout <= 0 {
		genTimeout = 30 * time.Second
	}
	return &Pipeline{
		intents:    intents,
		retrieval:  retrieval,
		assembler:  assembler,
		scorer:     scorer,
		validator:  validator,
		client:     client,
		genTimeout: genTimeout,
		stats:      stats,
		logger:     logger,
	}
}

// Process answers one query for one audience.
func (p *Pipeline) Process(ctx context.Context, query string, audience domain.Audience) (*QueryResult, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if len(query) > maxQueryLength {
		return nil, ErrQueryTooLong
	}
	if !domain.ValidAudience(string(audience)) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAudience, audience)
	}

	intent := p.intents.Parse(query)
	gc := p.retrieval.Retrieve(intent)
	ac := p.assembler.Assemble(gc, intent)
	ac = p.assembler.FormatForAudience(ac, audience)

	result := &QueryResult{
		Intent:     intent,
		Complexity: p.intents.Complexity(intent),
		Citations:  ac.Citations,
	}

	answer, usage, genErr := p.generate(ctx, query, ac, intent, audience)
	if genErr != nil {
		p.logger.Warn("generation failed, falling back to graph-only answer",
			zap.Error(genErr),
			zap.String("provider", p.client.Name()))
		answer = graphOnlyAnswer(gc, ac)
		result.Fallback = true
		p.stats.Fallbacks.Add(1)
	}
	result.Answer = answer
	result.Usage = usage

	result.Confidence = p.scorer.Score(intent, gc, ac, answer, audience)

	// The validator only ever sees model output. The fallback text is
	// assembled verbatim from the graph and needs no hallucination gate.
	if !result.Fallback {
		validation := p.validator.Validate(answer, ac, gc)
		result.Validation = &validation

		if validation.ShouldBlockResponse() {
			if validation.CorrectedResponse != "" {
				result.Answer = validation.CorrectedResponse
			} else {
				p.stats.Blocked.Add(1)
				result.Answer = graphOnlyAnswer(gc, ac)
				result.Fallback = true
			}
		}
	}

	result.Explanation = buildExplanation(intent, gc, ac, result)

	result.Duration = time.Since(start)
	p.stats.Queries.Add(1)
	p.stats.TotalDuration.Add(int64(result.Duration))

	p.logger.Info("processed query",
		zap.String("category", string(intent.Category)),
		zap.String("audience", string(audience)),
		zap.Float64("confidence", result.Confidence.Overall),
		zap.Bool("fallback", result.Fallback),
		zap.Duration("duration", result.Duration))

	return result, nil
}

func (p *Pipeline) generate(ctx context.Context, query string, ac domain.AssembledContext,
	intent domain.QueryIntent, audience domain.Audience) (string, domain.GenerationUsage, error) {

	genCtx, cancel := context.WithTimeout(ctx, p.genTimeout)
	defer cancel()

	req := domain.GenerationRequest{
		System: llm.BuildSystemPrompt(audience, intent.Category),
		Prompt: llm.BuildUserPrompt(query, ac, intent.Category),
	}

	res, err := p.client.Generate(genCtx, req)
	if err != nil {
		return "", domain.GenerationUsage{}, err
	}
	if strings.TrimSpace(res.Text) == "" {
		return "", res.Usage, errors.New("empty generation result")
	}
	return res.Text, res.Usage, nil
}

// graphOnlyAnswer builds a deterministic answer from retrieved provisions
// when generation is unavailable or blocked.
func graphOnlyAnswer(gc domain.GraphContext, ac domain.AssembledContext) string {
	var sb strings.Builder
	sb.WriteString("The generated answer is unavailable. The following provisions were retrieved for your query:\n\n")

	primary := gc.PrimaryNodes()
	if len(primary) == 0 {
		sb.WriteString("Information not available in current knowledge base.\n")
	}
	for _, n := range primary {
		fmt.Fprintf(&sb, "%s\n%s\n\n", n.Citation(), n.Text())
	}

	sb.WriteString("This information is for educational purposes only and does not constitute legal advice.")
	return sb.String()
}

// buildExplanation summarizes how the answer was produced: classification,
// traversal and verification outcome.
func buildExplanation(intent domain.QueryIntent, gc domain.GraphContext,
	ac domain.AssembledContext, result *QueryResult) string {

	var sb strings.Builder
	fmt.Fprintf(&sb, "Query classified as %s (confidence %.2f).", intent.Category, intent.Confidence)
	if len(intent.SectionNumbers) > 0 {
		fmt.Fprintf(&sb, " Section references: %s.", strings.Join(intent.SectionNumbers, ", "))
	}
	if len(intent.LegalTerms) > 0 {
		fmt.Fprintf(&sb, " Legal terms: %s.", strings.Join(intent.LegalTerms, ", "))
	}
	fmt.Fprintf(&sb, " Retrieved %d provisions over %d relations.", len(gc.Nodes), len(gc.Edges))
	if len(gc.TraversalPath) > 0 {
		fmt.Fprintf(&sb, " Traversal path: %s.", strings.Join(gc.TraversalPath, " -> "))
	}
	fmt.Fprintf(&sb, " Assembled %d citations.", ac.CitationCount())
	if result.Fallback {
		sb.WriteString(" Answer assembled directly from the knowledge graph.")
	} else if result.Validation != nil {
		fmt.Fprintf(&sb, " Validation: valid=%t with %d findings.", result.Validation.IsValid, len(result.Validation.Issues))
	}
	return sb.String()
}
