package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lexgraph/lexgraph/internal/domain"
	"github.com/lexgraph/lexgraph/internal/graph"
	"go.uber.org/zap"
)

const (
	validityFloor       = 0.5
	claimContextWindow  = 75
	disclaimerAppendix  = "\n\nDisclaimer: This information is provided for educational purposes only and does not constitute legal advice. For legal advice specific to your situation, please consult a qualified lawyer."
	citationBonusPerHit = 0.05
	citationBonusCap    = 0.2
)

// ValidationPolicy controls how strictly uncited claims are handled.
type ValidationPolicy struct {
	RequireAllClaims     bool
	MaxUnsupportedClaims int
}

func DefaultValidationPolicy() ValidationPolicy {
	return ValidationPolicy{RequireAllClaims: false, MaxUnsupportedClaims: 3}
}

var (
	responseCitationRe = regexp.MustCompile(`\[(Citation-\d+)\]`)

	sectionRefPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bsection\s+(\d+(?:\([^)]+\))?)`),
		regexp.MustCompile(`(?i)\bsec\.\s*(\d+(?:\([^)]+\))?)`),
		regexp.MustCompile(`§\s*(\d+(?:\([^)]+\))?)`),
	}
	subsectionRe = regexp.MustCompile(`\([^)]+\)`)

	claimPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bsection\s+\d+\s+(?:states|provides|requires|prohibits|defines|establishes)`),
		regexp.MustCompile(`(?i)\bthe\s+(?:consumer protection\s+)?act\s+(?:states|provides|requires|establishes)`),
		regexp.MustCompile(`(?i)\bconsumers?\s+(?:have the right|are entitled|must|shall)`),
		regexp.MustCompile(`(?i)\b(?:according to|under|pursuant to|as per)\s+(?:section|clause|the act)`),
		regexp.MustCompile(`(?i)\b(?:unfair trade practice|consumer right|complaint procedure)\s+(?:is|means|includes)`),
		regexp.MustCompile(`(?i)\b(?:the law|statute|provision)\s+(?:states|requires|provides|prohibits)`),
	}

	predictivePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bi\s+(?:predict|believe|think|assume|guess)`),
		regexp.MustCompile(`(?i)\bin\s+my\s+opinion`),
		regexp.MustCompile(`(?i)\b(?:probably|likely|presumably)\s+(?:the\s+)?(?:court|judge|outcome)`),
		regexp.MustCompile(`(?i)\b(?:case\s+will\s+be\s+decided|judge\s+will\s+rule|court\s+will\s+find)`),
		regexp.MustCompile(`(?i)\b(?:you\s+will\s+win|you\s+will\s+lose|outcome\s+will\s+be)`),
		regexp.MustCompile(`(?i)\b(?:chances\s+are|odds\s+are|it's\s+likely\s+that)`),
	}

	disclaimerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bnot\s+legal\s+advice\b`),
		regexp.MustCompile(`(?i)\binformation\s+only\b`),
		regexp.MustCompile(`(?i)\bconsult.*(?:lawyer|attorney|legal\s+professional)\b`),
		regexp.MustCompile(`(?i)\bdisclaimer\b`),
		regexp.MustCompile(`(?i)\beducational\s+purposes?\b`),
		regexp.MustCompile(`(?i)\bnon-binding\b`),
	}

	// wrongActRe captures the act name after "section N of"; anything other
	// than the supported act counts as hallucinated.
	wrongActRe = regexp.MustCompile(`(?i)\bsection\s+\d+\s+of\s+(?:the\s+)?([a-z][a-z ,]{2,60})`)

	hallucinationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:supreme\s+court|high\s+court)\s+(?:ruled|decided|held)\b`),
		regexp.MustCompile(`(?i)\b(?:landmark|precedent)\s+(?:case|decision|judgment)\b`),
		regexp.MustCompile(`(?i)\b(?:amendment|notification|gazette)\s+(?:dated|published)\b`),
		regexp.MustCompile(`(?i)\bunder\s+(?:article|section)\s+\d+\s+of\s+(?:the\s+)?(?:constitution|ipc|crpc)\b`),
	}

	sectionClaimRe = regexp.MustCompile(`(?i)section\s+(\d+)\s+(?:states|provides|defines)\s+([^.]+)`)
	wordRe         = regexp.MustCompile(`\b\w{4,}\b`)
)

// ValidatorService is the post-generation hallucination gate. It checks a
// generated response against the citation map it was given and against the
// full graph, never against the model's own claims.
type ValidatorService struct {
	idx    *graph.Index
	policy ValidationPolicy
	logger *zap.Logger
}

func NewValidatorService(idx *graph.Index, policy ValidationPolicy, logger *zap.Logger) *ValidatorService {
	return &ValidatorService{idx: idx, policy: policy, logger: logger}
}

// Validate runs every check over the generated response and returns the
// combined result.
func (s *ValidatorService) Validate(response string, ac domain.AssembledContext, gc domain.GraphContext) domain.ValidationResult {
	var issues []domain.Issue

	issues = append(issues, s.checkCitations(response, ac)...)
	fabricated, fabIssues := s.checkFabricatedSections(response)
	issues = append(issues, fabIssues...)
	unsupported, claimIssues := s.checkUncitedClaims(response)
	issues = append(issues, claimIssues...)
	issues = append(issues, checkPredictiveLanguage(response)...)
	issues = append(issues, checkHallucinations(response)...)
	issues = append(issues, checkDisclaimer(response)...)
	issues = append(issues, checkContentMismatch(response, gc)...)

	citationCount := len(responseCitationRe.FindAllString(response, -1))
	confidence := validationConfidence(issues, citationCount)

	isValid := s.determineValidity(issues, confidence, fabricated, unsupported)
	if s.policy.RequireAllClaims && len(unsupported) > 0 {
		isValid = false
		issues = append(issues, domain.Issue{
			Severity:         domain.SeverityError,
			Kind:             domain.IssueUnsupportedClaims,
			Message:          fmt.Sprintf("found %d unsupported legal claims", len(unsupported)),
			Suggestion:       "ensure all legal claims have supporting citations",
			ConfidenceImpact: -0.4,
		})
	}

	corrected := ""
	if !isValid && canAutoCorrect(issues) {
		corrected = response + disclaimerAppendix
	}

	result := domain.ValidationResult{
		IsValid:              isValid,
		Confidence:           confidence,
		Issues:               issues,
		CitationCount:        citationCount,
		UnsupportedClaims:    unsupported,
		FabricatedReferences: fabricated,
		CorrectedResponse:    corrected,
		RequiresHumanReview:  requiresHumanReview(confidence, issues),
	}

	s.logger.Info("validated response",
		zap.Bool("is_valid", result.IsValid),
		zap.Float64("confidence", result.Confidence),
		zap.Int("issues", len(result.Issues)),
		zap.Int("citations", result.CitationCount),
		zap.Int("fabricated", len(result.FabricatedReferences)))

	return result
}

// checkCitations verifies that every citation token in the response keys
// into the citation map the model was given.
func (s *ValidatorService) checkCitations(response string, ac domain.AssembledContext) []domain.Issue {
	var issues []domain.Issue
	for _, m := range responseCitationRe.FindAllStringSubmatch(response, -1) {
		key := m[1]
		if _, ok := ac.Citations[key]; !ok {
			issues = append(issues, domain.Issue{
				Severity:         domain.SeverityError,
				Kind:             domain.IssueInvalidCitation,
				Message:          fmt.Sprintf("citation %q not found in provided context", key),
				Location:         m[0],
				Suggestion:       "use only citation keys provided in the context",
				ConfidenceImpact: -0.3,
			})
		}
	}
	return issues
}

// checkFabricatedSections flags any section reference in the response that
// does not exist anywhere in the graph, in any surface form.
func (s *ValidatorService) checkFabricatedSections(response string) ([]string, []domain.Issue) {
	var fabricated []string
	var issues []domain.Issue
	seen := make(map[string]bool)

	for _, p := range sectionRefPatterns {
		for _, m := range p.FindAllStringSubmatch(response, -1) {
			ref := m[1]
			base := subsectionRe.ReplaceAllString(ref, "")
			if s.idx.HasSectionNumber(ref) || s.idx.HasSectionNumber(base) {
				continue
			}
			if seen[m[0]] {
				continue
			}
			seen[m[0]] = true
			fabricated = append(fabricated, m[0])
			issues = append(issues, domain.Issue{
				Severity:         domain.SeverityError,
				Kind:             domain.IssueFabricatedSection,
				Message:          fmt.Sprintf("response mentions %q which does not exist in the knowledge base", m[0]),
				Suggestion:       "only reference sections present in the knowledge base",
				ConfidenceImpact: -0.4,
			})
		}
	}
	return fabricated, issues
}

// checkUncitedClaims finds legal claims without a citation token within the
// surrounding window.
func (s *ValidatorService) checkUncitedClaims(response string) ([]string, []domain.Issue) {
	var unsupported []string
	var issues []domain.Issue

	for _, p := range claimPatterns {
		for _, loc := range p.FindAllStringIndex(response, -1) {
			start := loc[0] - claimContextWindow
			if start < 0 {
				start = 0
			}
			end := loc[1] + claimContextWindow
			if end > len(response) {
				end = len(response)
			}
			if responseCitationRe.MatchString(response[start:end]) {
				continue
			}
			claim := strings.TrimSpace(response[loc[0]:loc[1]])
			unsupported = append(unsupported, claim)
			issues = append(issues, domain.Issue{
				Severity:         domain.SeverityWarning,
				Kind:             domain.IssueUncitedClaim,
				Message:          fmt.Sprintf("legal claim %q may need a citation", claim),
				Location:         fmt.Sprintf("offset %d-%d", loc[0], loc[1]),
				Suggestion:       "add a citation for legal claims",
				ConfidenceImpact: -0.1,
			})
		}
	}
	return unsupported, issues
}

func checkPredictiveLanguage(response string) []domain.Issue {
	var issues []domain.Issue
	for _, p := range predictivePatterns {
		for _, loc := range p.FindAllStringIndex(response, -1) {
			issues = append(issues, domain.Issue{
				Severity:         domain.SeverityError,
				Kind:             domain.IssuePredictiveLanguage,
				Message:          fmt.Sprintf("response contains prohibited predictive language: %q", response[loc[0]:loc[1]]),
				Location:         fmt.Sprintf("offset %d-%d", loc[0], loc[1]),
				Suggestion:       "remove predictions and state only factual legal information",
				ConfidenceImpact: -0.4,
			})
		}
	}
	return issues
}

func checkHallucinations(response string) []domain.Issue {
	var issues []domain.Issue

	for _, m := range wrongActRe.FindAllStringSubmatchIndex(response, -1) {
		act := strings.ToLower(strings.TrimSpace(response[m[2]:m[3]]))
		if supportedActReference(act) {
			continue
		}
		issues = append(issues, domain.Issue{
			Severity:         domain.SeverityError,
			Kind:             domain.IssueHallucinatedContent,
			Message:          fmt.Sprintf("response references material outside the knowledge base: %q", response[m[0]:m[1]]),
			Location:         fmt.Sprintf("offset %d-%d", m[0], m[1]),
			Suggestion:       "only reference provisions available in the knowledge base",
			ConfidenceImpact: -0.5,
		})
	}

	for _, p := range hallucinationPatterns {
		for _, loc := range p.FindAllStringIndex(response, -1) {
			issues = append(issues, domain.Issue{
				Severity:         domain.SeverityError,
				Kind:             domain.IssueHallucinatedContent,
				Message:          fmt.Sprintf("response references material outside the knowledge base: %q", response[loc[0]:loc[1]]),
				Location:         fmt.Sprintf("offset %d-%d", loc[0], loc[1]),
				Suggestion:       "only reference provisions available in the knowledge base",
				ConfidenceImpact: -0.5,
			})
		}
	}
	return issues
}

// supportedActReference reports whether a captured act name refers to the
// supported act. Bare "the Act" and "this Act" are self-references to it,
// not citations of other statutes. The capture is greedy, so allowed forms
// are matched as prefixes up to a word boundary.
func supportedActReference(act string) bool {
	if strings.HasPrefix(act, "consumer protection act") {
		return true
	}
	for _, self := range []string{"act", "this act"} {
		if act == self || strings.HasPrefix(act, self+" ") || strings.HasPrefix(act, self+",") {
			return true
		}
	}
	return false
}

func checkDisclaimer(response string) []domain.Issue {
	for _, p := range disclaimerPatterns {
		if p.MatchString(response) {
			return nil
		}
	}
	return []domain.Issue{{
		Severity:         domain.SeverityWarning,
		Kind:             domain.IssueMissingDisclaimer,
		Message:          "response should include a disclaimer about its non-binding nature",
		Suggestion:       "add: 'This information is for educational purposes only and does not constitute legal advice'",
		ConfidenceImpact: -0.1,
	}}
}

// checkContentMismatch compares "Section N states X" claims against the
// retrieved section text. A miss is only a warning: the overlap heuristic
// is too coarse to block on.
func checkContentMismatch(response string, gc domain.GraphContext) []domain.Issue {
	sectionTexts := make(map[string]string)
	for _, n := range gc.Nodes {
		if n.Kind == domain.NodeSection {
			sectionTexts[n.Section.Number] = strings.ToLower(n.Section.Text)
		}
	}

	var issues []domain.Issue
	for _, m := range sectionClaimRe.FindAllStringSubmatch(response, -1) {
		number, claimed := m[1], strings.ToLower(m[2])
		actual, ok := sectionTexts[number]
		if !ok {
			continue
		}
		words := wordRe.FindAllString(claimed, -1)
		if len(words) > 5 {
			words = words[:5]
		}
		supported := false
		for _, w := range words {
			if strings.Contains(actual, w) {
				supported = true
				break
			}
		}
		if !supported {
			issues = append(issues, domain.Issue{
				Severity:   domain.SeverityWarning,
				Kind:       domain.IssueContentMismatch,
				Message:    fmt.Sprintf("claimed content for Section %s may not match the actual text", number),
				Suggestion: "verify the claim against the source text",
			})
		}
	}
	return issues
}

func validationConfidence(issues []domain.Issue, citationCount int) float64 {
	score := 1.0
	for _, issue := range issues {
		if issue.ConfidenceImpact != 0 {
			score += issue.ConfidenceImpact
			continue
		}
		switch issue.Severity {
		case domain.SeverityError:
			score -= 0.3
		case domain.SeverityWarning:
			score -= 0.1
		}
	}
	if citationCount > 0 {
		bonus := float64(citationCount) * citationBonusPerHit
		if bonus > citationBonusCap {
			bonus = citationBonusCap
		}
		score += bonus
	}
	return clamp01(score)
}

func (s *ValidatorService) determineValidity(issues []domain.Issue, confidence float64,
	fabricated, unsupported []string) bool {

	if len(fabricated) > 0 {
		return false
	}
	for _, issue := range issues {
		if issue.Severity == domain.SeverityError && domain.BlockingKinds[issue.Kind] {
			return false
		}
	}
	if confidence < validityFloor {
		return false
	}
	if len(unsupported) > s.policy.MaxUnsupportedClaims {
		return false
	}
	return true
}

// canAutoCorrect reports whether the only blocking problems are ones a
// mechanical fix can address. Appending a disclaimer is the single
// correction currently applied.
func canAutoCorrect(issues []domain.Issue) bool {
	hasMissingDisclaimer := false
	for _, issue := range issues {
		if issue.Kind == domain.IssueMissingDisclaimer {
			hasMissingDisclaimer = true
			continue
		}
		if issue.Severity == domain.SeverityError {
			return false
		}
	}
	return hasMissingDisclaimer
}

func requiresHumanReview(confidence float64, issues []domain.Issue) bool {
	if confidence < 0.7 {
		return true
	}
	for _, issue := range issues {
		switch issue.Kind {
		case domain.IssueContentMismatch, domain.IssueHallucinatedContent, domain.IssueFabricatedSection:
			return true
		}
	}
	return false
}
