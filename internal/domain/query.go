package domain

type Category string

const (
	CategoryDefinitionLookup Category = "definition_lookup"
	CategorySectionRetrieval Category = "section_retrieval"
	CategoryRightsQuery      Category = "rights_query"
	CategoryScenarioAnalysis Category = "scenario_analysis"
)

func ValidCategory(c string) bool {
	switch Category(c) {
	case CategoryDefinitionLookup, CategorySectionRetrieval, CategoryRightsQuery, CategoryScenarioAnalysis:
		return true
	}
	return false
}

type Audience string

const (
	AudienceCitizen Audience = "citizen"
	AudienceLawyer  Audience = "lawyer"
	AudienceJudge   Audience = "judge"
)

func ValidAudience(a string) bool {
	switch Audience(a) {
	case AudienceCitizen, AudienceLawyer, AudienceJudge:
		return true
	}
	return false
}

type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// QueryIntent is the parsed classification of a raw query. Parsing never
// fails; unmatched input falls through to scenario_analysis with low
// confidence.
type QueryIntent struct {
	Category       Category `json:"category"`
	Entities       []string `json:"entities"`
	SectionNumbers []string `json:"section_numbers"`
	LegalTerms     []string `json:"legal_terms"`
	Confidence     float64  `json:"confidence"`
	OriginalQuery  string   `json:"original_query"`
	// Temporal is "current" or a year when the query carries a temporal
	// qualifier. Parsed but not consumed by retrieval yet.
	Temporal string `json:"temporal,omitempty"`
}

// GraphContext is the bundle of provisions retrieved for one intent.
// TraversalPath records retrieval provenance in order; the first nodes on
// the path are the primary match for the query.
type GraphContext struct {
	Nodes         []Node   `json:"nodes"`
	Edges         []Edge   `json:"edges"`
	Citations     []string `json:"citations"`
	Confidence    float64  `json:"confidence"`
	TraversalPath []string `json:"traversal_path"`
}

const primaryPathLen = 3

// PrimaryNodes returns the nodes that directly matched the query.
func (g GraphContext) PrimaryNodes() []Node {
	head := g.TraversalPath
	if len(head) > primaryPathLen {
		head = head[:primaryPathLen]
	}
	primary := make(map[string]bool, len(head))
	for _, id := range head {
		primary[id] = true
	}
	var nodes []Node
	for _, n := range g.Nodes {
		if primary[n.ID] {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// RelatedNodes returns the nodes reached through edges rather than direct
// match.
func (g GraphContext) RelatedNodes() []Node {
	primary := make(map[string]bool)
	for _, n := range g.PrimaryNodes() {
		primary[n.ID] = true
	}
	var nodes []Node
	for _, n := range g.Nodes {
		if !primary[n.ID] {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// AssembledContext is the citation-tagged text handed to generation.
// Every citation token embedded in FormattedText has a matching key in
// Citations.
type AssembledContext struct {
	FormattedText       string            `json:"formatted_text"`
	Citations           map[string]string `json:"citations"`
	PrimaryProvisions   []string          `json:"primary_provisions"`
	RelatedProvisions   []string          `json:"related_provisions"`
	Definitions         []string          `json:"definitions"`
	HierarchicalContext []string          `json:"hierarchical_context"`
	SectionCounts       map[string]int    `json:"section_counts"`
	Audience            Audience          `json:"audience,omitempty"`
	Truncated           bool              `json:"truncated"`
}

func (a AssembledContext) TotalLength() int {
	return len(a.FormattedText)
}

func (a AssembledContext) CitationCount() int {
	return len(a.Citations)
}
