package domain

type ConfidenceLevel string

const (
	ConfidenceVeryHigh ConfidenceLevel = "very_high"
	ConfidenceHigh     ConfidenceLevel = "high"
	ConfidenceMedium   ConfidenceLevel = "medium"
	ConfidenceLow      ConfidenceLevel = "low"
	ConfidenceVeryLow  ConfidenceLevel = "very_low"
)

// ConfidenceComponents is the six-way breakdown behind an overall score.
// Each component is in [0,1].
type ConfidenceComponents struct {
	GraphCoverage           float64 `json:"graph_coverage"`
	CitationDensity         float64 `json:"citation_density"`
	ReasoningChain          float64 `json:"reasoning_chain"`
	ResponseQuality         float64 `json:"response_quality"`
	TemporalValidity        float64 `json:"temporal_validity"`
	AudienceAppropriateness float64 `json:"audience_appropriateness"`
}

// ComponentWeights is an audience-specific weight vector over the six
// components. Vectors sum to 1.
type ComponentWeights struct {
	GraphCoverage           float64 `json:"graph_coverage"`
	CitationDensity         float64 `json:"citation_density"`
	ReasoningChain          float64 `json:"reasoning_chain"`
	ResponseQuality         float64 `json:"response_quality"`
	TemporalValidity        float64 `json:"temporal_validity"`
	AudienceAppropriateness float64 `json:"audience_appropriateness"`
}

func (w ComponentWeights) Sum() float64 {
	return w.GraphCoverage + w.CitationDensity + w.ReasoningChain +
		w.ResponseQuality + w.TemporalValidity + w.AudienceAppropriateness
}

// WeightedAverage combines the components under the given weight vector.
func (c ConfidenceComponents) WeightedAverage(w ComponentWeights) float64 {
	total := w.Sum()
	if total == 0 {
		return 0
	}
	sum := c.GraphCoverage*w.GraphCoverage +
		c.CitationDensity*w.CitationDensity +
		c.ReasoningChain*w.ReasoningChain +
		c.ResponseQuality*w.ResponseQuality +
		c.TemporalValidity*w.TemporalValidity +
		c.AudienceAppropriateness*w.AudienceAppropriateness
	return sum / total
}

// ConfidenceScore is the calibrated confidence for one response.
type ConfidenceScore struct {
	Overall        float64              `json:"overall"`
	Level          ConfidenceLevel      `json:"level"`
	Components     ConfidenceComponents `json:"components"`
	RequiresReview bool                 `json:"requires_review"`
	ReviewReasons  []string             `json:"review_reasons,omitempty"`
	Metadata       map[string]any       `json:"metadata,omitempty"`
}

// ShouldBlockDisplay reports whether the response must not be shown at all.
func (s ConfidenceScore) ShouldBlockDisplay() bool {
	return s.Level == ConfidenceVeryLow
}

// DisplayMessage returns the user-facing confidence notice.
func (s ConfidenceScore) DisplayMessage() string {
	switch s.Level {
	case ConfidenceVeryHigh:
		return "High confidence response based on comprehensive legal sources."
	case ConfidenceHigh:
		return "Response based on available legal sources with good coverage."
	case ConfidenceMedium:
		return "Response based on limited legal sources. Please verify independently."
	case ConfidenceLow:
		return "Limited confidence due to incomplete information. Expert review recommended."
	default:
		return "Very limited confidence. This response requires expert validation."
	}
}
