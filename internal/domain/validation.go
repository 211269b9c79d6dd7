package domain

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

type IssueKind string

const (
	IssueInvalidCitation     IssueKind = "invalid_citation"
	IssueFabricatedSection   IssueKind = "fabricated_section"
	IssueUncitedClaim        IssueKind = "uncited_claim"
	IssuePredictiveLanguage  IssueKind = "predictive_language"
	IssueHallucinatedContent IssueKind = "hallucinated_content"
	IssueMissingDisclaimer   IssueKind = "missing_disclaimer"
	IssueContentMismatch     IssueKind = "content_mismatch"
	IssueUnsupportedClaims   IssueKind = "unsupported_claims"
)

// BlockingKinds are the issue kinds that force is_valid=false on their own.
var BlockingKinds = map[IssueKind]bool{
	IssueFabricatedSection:   true,
	IssueHallucinatedContent: true,
	IssuePredictiveLanguage:  true,
}

// Issue is one finding from response validation. ConfidenceImpact is the
// delta applied to the validator's confidence estimate, in [-1,0].
type Issue struct {
	Severity         Severity  `json:"severity"`
	Kind             IssueKind `json:"kind"`
	Message          string    `json:"message"`
	Location         string    `json:"location,omitempty"`
	Suggestion       string    `json:"suggestion,omitempty"`
	ConfidenceImpact float64   `json:"confidence_impact,omitempty"`
}

// ValidationResult is the outcome of the hallucination gate.
type ValidationResult struct {
	IsValid              bool     `json:"is_valid"`
	Confidence           float64  `json:"confidence"`
	Issues               []Issue  `json:"issues"`
	CitationCount        int      `json:"citation_count"`
	UnsupportedClaims    []string `json:"unsupported_claims,omitempty"`
	FabricatedReferences []string `json:"fabricated_references,omitempty"`
	CorrectedResponse    string   `json:"corrected_response,omitempty"`
	RequiresHumanReview  bool     `json:"requires_human_review"`
}

func (r ValidationResult) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (r ValidationResult) IssuesOfKind(kind IssueKind) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			out = append(out, issue)
		}
	}
	return out
}

// ShouldBlockResponse reports whether the generated text must not be shown
// and the caller has to fall back to a graph-only excerpt.
func (r ValidationResult) ShouldBlockResponse() bool {
	return !r.IsValid || len(r.FabricatedReferences) > 0
}
