package service

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/lexgraph/lexgraph/internal/domain"
	"go.uber.org/zap"
)

// CitationTarget is the per-audience citation requirement: at least
// MinCitations, and no more than ClaimsPerCitation legal claims per
// citation.
type CitationTarget struct {
	MinCitations      int `json:"min_citations"`
	ClaimsPerCitation int `json:"claims_per_citation"`
}

// Thresholds are the lower bounds of the four highest confidence levels.
// Everything below Low is very_low.
type Thresholds struct {
	VeryHigh float64 `json:"very_high"`
	High     float64 `json:"high"`
	Medium   float64 `json:"medium"`
	Low      float64 `json:"low"`
}

// Calibration is the runtime-tunable part of the scorer.
type Calibration struct {
	Thresholds      Thresholds                                  `json:"thresholds"`
	AudienceWeights map[domain.Audience]domain.ComponentWeights `json:"audience_weights"`
	CitationTargets map[domain.Audience]CitationTarget          `json:"citation_targets"`
}

// DefaultCalibration returns the empirically calibrated starting point.
func DefaultCalibration() Calibration {
	return Calibration{
		Thresholds: Thresholds{VeryHigh: 0.9, High: 0.8, Medium: 0.7, Low: 0.5},
		AudienceWeights: map[domain.Audience]domain.ComponentWeights{
			domain.AudienceCitizen: {
				GraphCoverage:           0.25,
				CitationDensity:         0.20,
				ReasoningChain:          0.15,
				ResponseQuality:         0.25,
				TemporalValidity:        0.10,
				AudienceAppropriateness: 0.05,
			},
			domain.AudienceLawyer: {
				GraphCoverage:           0.30,
				CitationDensity:         0.30,
				ReasoningChain:          0.20,
				ResponseQuality:         0.15,
				TemporalValidity:        0.05,
				AudienceAppropriateness: 0.00,
			},
			domain.AudienceJudge: {
				GraphCoverage:           0.35,
				CitationDensity:         0.35,
				ReasoningChain:          0.25,
				ResponseQuality:         0.05,
				TemporalValidity:        0.00,
				AudienceAppropriateness: 0.00,
			},
		},
		CitationTargets: map[domain.Audience]CitationTarget{
			domain.AudienceCitizen: {MinCitations: 1, ClaimsPerCitation: 3},
			domain.AudienceLawyer:  {MinCitations: 2, ClaimsPerCitation: 2},
			domain.AudienceJudge:   {MinCitations: 3, ClaimsPerCitation: 1},
		},
	}
}

// Validate checks a calibration before it is installed.
func (c Calibration) Validate() error {
	t := c.Thresholds
	for _, v := range []float64{t.VeryHigh, t.High, t.Medium, t.Low} {
		if v < 0 || v > 1 {
			return fmt.Errorf("threshold %v out of range [0,1]", v)
		}
	}
	if !(t.VeryHigh >= t.High && t.High >= t.Medium && t.Medium >= t.Low) {
		return fmt.Errorf("thresholds must be non-increasing: %+v", t)
	}
	for aud, w := range c.AudienceWeights {
		if !domain.ValidAudience(string(aud)) {
			return fmt.Errorf("unknown audience %q in weights", aud)
		}
		if math.Abs(w.Sum()-1.0) > 0.01 {
			return fmt.Errorf("weights for %s sum to %.3f, want 1.0", aud, w.Sum())
		}
	}
	for aud, target := range c.CitationTargets {
		if !domain.ValidAudience(string(aud)) {
			return fmt.Errorf("unknown audience %q in citation targets", aud)
		}
		if target.MinCitations < 0 || target.ClaimsPerCitation < 1 {
			return fmt.Errorf("invalid citation target for %s: %+v", aud, target)
		}
	}
	return nil
}

var (
	citationTokenRe   = regexp.MustCompile(`(?i)\[Citation-\d+\]`)
	sectionCitationRe = regexp.MustCompile(`(?i)\(Section\s+\d+[^)]*\)`)

	legalClaimPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bsection\s+\d+\s+(?:states|provides|requires|prohibits|defines|establishes)`),
		regexp.MustCompile(`(?i)\bthe\s+(?:consumer protection\s+)?act\s+(?:states|provides|requires|establishes)`),
		regexp.MustCompile(`(?i)\bconsumers?\s+(?:have the right|are entitled|can|must|shall)`),
		regexp.MustCompile(`(?i)\b(?:according to|under|pursuant to|as per)\s+(?:section|clause|the act)`),
		regexp.MustCompile(`(?i)\b(?:unfair trade practice|consumer right|complaint procedure)\s+(?:is|means|includes)`),
		regexp.MustCompile(`(?i)\b(?:the law|statute|provision)\s+(?:states|requires|provides|prohibits)`),
	}

	crossRefRe = regexp.MustCompile(`(?i)\b(?:see also|refer to|as per|according to)\b`)

	logicalStructurePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:therefore|thus|consequently|as a result)\b`),
		regexp.MustCompile(`(?i)\b(?:because|since|due to|given that)\b`),
		regexp.MustCompile(`(?i)\b(?:however|but|although|while)\b`),
		regexp.MustCompile(`(?i)\b(?:first|second|third|finally)\b`),
	}

	contradictionPairs = []struct{ a, b *regexp.Regexp }{
		{regexp.MustCompile(`(?i)\ballowed\b`), regexp.MustCompile(`(?i)\bprohibited\b`)},
		{regexp.MustCompile(`(?i)\brequired\b`), regexp.MustCompile(`(?i)\boptional\b`)},
		{regexp.MustCompile(`(?i)\bmust\b`), regexp.MustCompile(`(?i)\bmay\b`)},
	}

	listStructureRe = regexp.MustCompile(`(?m)(?:^|\n)(?:\d+\.|\*|\-)\s+`)
	headerRe        = regexp.MustCompile(`(?:^|\n)(?:\*\*|##).*(?:\*\*|##)`)
	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

	technicalTermPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bpursuant to\b`),
		regexp.MustCompile(`(?i)\bwhereas\b`),
		regexp.MustCompile(`(?i)\bnotwithstanding\b`),
		regexp.MustCompile(`(?i)\bhereinafter\b`),
		regexp.MustCompile(`(?i)\baforesaid\b`),
		regexp.MustCompile(`(?i)\bthereof\b`),
		regexp.MustCompile(`(?i)\binter alia\b`),
	}

	plainPhrasePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bin simple terms\b`),
		regexp.MustCompile(`(?i)\bthis means\b`),
		regexp.MustCompile(`(?i)\bfor example\b`),
		regexp.MustCompile(`(?i)\bin other words\b`),
		regexp.MustCompile(`(?i)\bto put it simply\b`),
	}

	completenessPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bin conclusion\b`),
		regexp.MustCompile(`(?i)\bto summarize\b`),
		regexp.MustCompile(`(?i)\btherefore\b`),
		regexp.MustCompile(`(?i)\bdisclaimer\b`),
	}
)

// ConfidenceScorer computes the audience-weighted confidence score for a
// generated response. Calibration is guarded so it can be tuned while
// requests are in flight.
type ConfidenceScorer struct {
	mu     sync.RWMutex
	cal    Calibration
	logger *zap.Logger
}

func NewConfidenceScorer(logger *zap.Logger) *ConfidenceScorer {
	return &ConfidenceScorer{cal: DefaultCalibration(), logger: logger}
}

// Score computes the confidence breakdown for one response.
func (s *ConfidenceScorer) Score(intent domain.QueryIntent, gc domain.GraphContext,
	ac domain.AssembledContext, response string, audience domain.Audience) domain.ConfidenceScore {

	s.mu.RLock()
	cal := s.cal
	s.mu.RUnlock()

	components := domain.ConfidenceComponents{
		GraphCoverage:           graphCoverage(intent, gc),
		CitationDensity:         citationDensity(response, audience, cal),
		ReasoningChain:          reasoningChain(intent, gc, response),
		ResponseQuality:         responseQuality(response, audience),
		TemporalValidity:        temporalValidity(gc),
		AudienceAppropriateness: audienceAppropriateness(response, audience),
	}

	weights, ok := cal.AudienceWeights[audience]
	if !ok {
		weights = cal.AudienceWeights[domain.AudienceCitizen]
	}

	overall := components.WeightedAverage(weights)
	level := cal.levelFor(overall)
	requiresReview, reasons := reviewCheck(overall, components, audience, intent, cal)

	score := domain.ConfidenceScore{
		Overall:        overall,
		Level:          level,
		Components:     components,
		RequiresReview: requiresReview,
		ReviewReasons:  reasons,
		Metadata: map[string]any{
			"audience":        string(audience),
			"intent_category": string(intent.Category),
			"graph_nodes":     len(gc.Nodes),
			"citation_count":  countCitations(response),
			"response_length": len(response),
		},
	}

	s.logger.Info("scored response",
		zap.Float64("overall", overall),
		zap.String("level", string(level)),
		zap.String("audience", string(audience)),
		zap.Bool("requires_review", requiresReview))

	return score
}

// UpdateCalibration swaps in a validated calibration.
func (s *ConfidenceScorer) UpdateCalibration(cal Calibration) error {
	if err := cal.Validate(); err != nil {
		return fmt.Errorf("calibration rejected: %w", err)
	}
	s.mu.Lock()
	s.cal = cal
	s.mu.Unlock()
	s.logger.Info("confidence calibration updated")
	return nil
}

// CurrentCalibration returns a copy of the active calibration.
func (s *ConfidenceScorer) CurrentCalibration() Calibration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cal
}

func (c Calibration) levelFor(overall float64) domain.ConfidenceLevel {
	switch {
	case overall >= c.Thresholds.VeryHigh:
		return domain.ConfidenceVeryHigh
	case overall >= c.Thresholds.High:
		return domain.ConfidenceHigh
	case overall >= c.Thresholds.Medium:
		return domain.ConfidenceMedium
	case overall >= c.Thresholds.Low:
		return domain.ConfidenceLow
	}
	return domain.ConfidenceVeryLow
}

// graphCoverage measures how well the retrieved nodes cover the entities
// named in the query. With no named entities it falls back to the
// retrieval confidence.
func graphCoverage(intent domain.QueryIntent, gc domain.GraphContext) float64 {
	if len(gc.Nodes) == 0 {
		return 0
	}

	totalEntities := len(intent.LegalTerms) + len(intent.SectionNumbers)
	if totalEntities == 0 {
		return gc.Confidence
	}

	found := 0
	for _, term := range intent.LegalTerms {
		termLower := strings.ToLower(term)
		for _, n := range gc.Nodes {
			if n.Kind == domain.NodeDefinition {
				if strings.Contains(strings.ToLower(n.Definition.Term), termLower) {
					found++
					break
				}
			} else if strings.Contains(strings.ToLower(n.Text()), termLower) {
				found++
				break
			}
		}
	}
	for _, number := range intent.SectionNumbers {
		for _, n := range gc.Nodes {
			if n.Kind == domain.NodeSection && n.Section.Number == number {
				found++
				break
			}
		}
	}

	coverage := float64(found) / float64(totalEntities)
	boost := math.Min(float64(len(gc.Nodes))/10.0, 0.3)
	return math.Min(1.0, coverage+boost)
}

func citationDensity(response string, audience domain.Audience, cal Calibration) float64 {
	citations := countCitations(response)
	claims := countLegalClaims(response)

	if claims == 0 {
		if citations == 0 {
			return 1.0
		}
		return 0.9
	}
	if citations == 0 {
		return 0.1
	}

	target, ok := cal.CitationTargets[audience]
	if !ok {
		target = cal.CitationTargets[domain.AudienceCitizen]
	}

	claimsPerCitation := float64(claims) / float64(citations)
	score := 1.0
	if claimsPerCitation > float64(target.ClaimsPerCitation) {
		score = math.Max(0.2, float64(target.ClaimsPerCitation)/claimsPerCitation)
	}
	if citations < target.MinCitations {
		score *= float64(citations) / float64(target.MinCitations)
	}
	return math.Min(1.0, score)
}

func reasoningChain(intent domain.QueryIntent, gc domain.GraphContext, response string) float64 {
	score := 0.7

	switch intent.Category {
	case domain.CategoryScenarioAnalysis:
		score += 0.1
	case domain.CategoryRightsQuery:
		score += 0.05
	}

	if len(gc.Nodes) > 3 {
		score += math.Min(float64(len(gc.Nodes)-3)*0.05, 0.2)
	}

	if n := len(crossRefRe.FindAllString(response, -1)); n > 0 {
		score += math.Min(float64(n)*0.03, 0.1)
	}

	structural := 0
	for _, p := range logicalStructurePatterns {
		structural += len(p.FindAllString(response, -1))
	}
	if structural > 0 {
		score += math.Min(float64(structural)*0.02, 0.1)
	}

	for _, pair := range contradictionPairs {
		if pair.a.MatchString(response) && pair.b.MatchString(response) {
			score -= 0.2
			break
		}
	}

	return clamp01(score)
}

func responseQuality(response string, audience domain.Audience) float64 {
	score := 0.8
	length := len(response)

	switch audience {
	case domain.AudienceCitizen:
		switch {
		case length >= 150 && length <= 1500:
			score += 0.1
		case length < 100:
			score -= 0.3
		case length > 2500:
			score -= 0.2
		}
	case domain.AudienceLawyer:
		switch {
		case length >= 300 && length <= 3000:
			score += 0.1
		case length < 200:
			score -= 0.2
		}
	case domain.AudienceJudge:
		switch {
		case length >= 400 && length <= 4000:
			score += 0.1
		case length < 300:
			score -= 0.2
		}
	}

	if (listStructureRe.MatchString(response) || headerRe.MatchString(response)) && length > 300 {
		score += 0.1
	}

	var sentences []string
	for _, s := range sentenceSplitRe.Split(response, -1) {
		if s = strings.TrimSpace(s); len(s) > 5 {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) > 0 {
		avgLen := float64(len(strings.Fields(response))) / float64(len(sentences))
		switch audience {
		case domain.AudienceCitizen:
			if avgLen <= 20 {
				score += 0.05
			} else if avgLen > 30 {
				score -= 0.1
			}
		case domain.AudienceLawyer, domain.AudienceJudge:
			if avgLen >= 15 && avgLen <= 35 {
				score += 0.05
			}
		}
	}

	complete := 0
	for _, p := range completenessPatterns {
		if p.MatchString(response) {
			complete++
		}
	}
	if complete > 0 {
		score += math.Min(float64(complete)*0.03, 0.1)
	}

	if len(sentences) > 3 {
		unique := make(map[string]bool, len(sentences))
		for _, s := range sentences {
			unique[strings.ToLower(s)] = true
		}
		repetition := 1 - float64(len(unique))/float64(len(sentences))
		if repetition > 0.3 {
			score -= 0.2
		}
	}

	return clamp01(score)
}

// temporalValidity checks that retrieved sections belong to the supported
// instrument. Amendment tracking would refine this.
func temporalValidity(gc domain.GraphContext) float64 {
	if len(gc.Nodes) == 0 {
		return 0.5
	}
	for _, n := range gc.Nodes {
		if n.Kind == domain.NodeSection && strings.Contains(n.Section.Act, domain.SupportedAct) {
			return 1.0
		}
	}
	return 0.8
}

func audienceAppropriateness(response string, audience domain.Audience) float64 {
	score := 0.8

	technical := 0
	for _, p := range technicalTermPatterns {
		technical += len(p.FindAllString(response, -1))
	}
	plain := 0
	for _, p := range plainPhrasePatterns {
		plain += len(p.FindAllString(response, -1))
	}

	switch audience {
	case domain.AudienceCitizen:
		if technical > 3 {
			score -= 0.3
		}
		if plain > 0 {
			score += 0.2
		}
	case domain.AudienceLawyer:
		if technical > 0 {
			score += 0.1
		}
		if technical > 10 {
			score -= 0.1
		}
	case domain.AudienceJudge:
		if technical > 0 {
			score += 0.2
		}
	}

	return clamp01(score)
}

func countCitations(response string) int {
	return len(citationTokenRe.FindAllString(response, -1)) +
		len(sectionCitationRe.FindAllString(response, -1))
}

func countLegalClaims(response string) int {
	total := 0
	for _, p := range legalClaimPatterns {
		total += len(p.FindAllString(response, -1))
	}
	return total
}

func reviewCheck(overall float64, c domain.ConfidenceComponents, audience domain.Audience,
	intent domain.QueryIntent, cal Calibration) (bool, []string) {

	var reasons []string

	if overall < cal.Thresholds.High {
		reasons = append(reasons, fmt.Sprintf("overall confidence %.2f below threshold %.2f", overall, cal.Thresholds.High))
	}
	if audience == domain.AudienceJudge && overall < cal.Thresholds.VeryHigh {
		reasons = append(reasons, "judge audience requires very high confidence")
	}
	if c.GraphCoverage < 0.3 {
		reasons = append(reasons, fmt.Sprintf("low graph coverage: %.2f", c.GraphCoverage))
	}
	if c.CitationDensity < 0.4 {
		reasons = append(reasons, fmt.Sprintf("low citation density: %.2f", c.CitationDensity))
	}
	if intent.Category == domain.CategoryScenarioAnalysis && c.ReasoningChain < 0.6 {
		reasons = append(reasons, "scenario analysis with low reasoning score")
	}
	if c.ResponseQuality < 0.5 {
		reasons = append(reasons, fmt.Sprintf("low response quality: %.2f", c.ResponseQuality))
	}

	return len(reasons) > 0, reasons
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
