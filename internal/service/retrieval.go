package service

import (
	"strings"

	"github.com/lexgraph/lexgraph/internal/domain"
	"github.com/lexgraph/lexgraph/internal/graph"
	"go.uber.org/zap"
)

const (
	// Confidence adjustment: capped bonuses for retrieval success, applied
	// on top of the intent confidence and clamped to [0,1].
	nodeBonusDivisor = 5.0
	nodeBonusCap     = 0.3
	edgeBonusDivisor = 10.0
	edgeBonusCap     = 0.2
	emptyPenalty     = 0.5

	keywordSearchLimit = 5
	exactPhraseScore   = 2.0
)

// consumerRightType is the right_type carried by the fundamental rights in
// the graph; scenario handlers pick relevant rights from this bucket.
const consumerRightType = "consumer_right"

// ScenarioRouting holds the act-specific section numbers the curated
// scenario handlers reach for. Kept as configuration so a different
// instrument can supply its own table.
type ScenarioRouting struct {
	ComplaintSection   string   // how to file a complaint
	RemedySection      string   // remedies available
	AdvertisingBody    string   // regulator powers over advertisements
	AdvertisingPenalty string   // penalties for misleading advertisements
	GenericSections    []string // consumer-actionable fallback bundle
	MaxScenarioRights  int
}

// DefaultScenarioRouting covers the Consumer Protection Act, 2019.
func DefaultScenarioRouting() ScenarioRouting {
	return ScenarioRouting{
		ComplaintSection:   "35",
		RemedySection:      "39",
		AdvertisingBody:    "18",
		AdvertisingPenalty: "21",
		GenericSections:    []string{"35", "39", "2"},
		MaxScenarioRights:  2,
	}
}

// scenarioTriggers routes scenario queries to a curated handler by keyword.
// Order matters: the first matching bucket wins.
var scenarioTriggers = []struct {
	name     string
	keywords []string
}{
	{"defective_goods", []string{"defective", "faulty", "damaged", "broken", "defect"}},
	{"misleading_ad", []string{"misleading", "false", "advertisement", "advertise"}},
	{"overcharging", []string{"overcharg", "excess", "extra", "price", "refund"}},
	{"service_deficiency", []string{"service", "deficiency", "poor service", "bad service"}},
}

// RetrievalService executes intent-specific retrieval strategies over the
// read-only graph index. Absence of results is valid state, never an
// error.
type RetrievalService struct {
	idx     *graph.Index
	routing ScenarioRouting
	logger  *zap.Logger
}

func NewRetrievalService(idx *graph.Index, routing ScenarioRouting, logger *zap.Logger) *RetrievalService {
	return &RetrievalService{idx: idx, routing: routing, logger: logger}
}

// collector accumulates retrieval results while keeping node order and the
// traversal path aligned.
type collector struct {
	nodes []domain.Node
	edges []domain.Edge
	path  []string
	seen  map[string]bool
}

func newCollector() *collector {
	return &collector{seen: make(map[string]bool)}
}

// addPrimary records a node as a direct match on the traversal path.
func (c *collector) addPrimary(n domain.Node) {
	if c.seen[n.ID] {
		return
	}
	c.seen[n.ID] = true
	c.nodes = append(c.nodes, n)
	c.path = append(c.path, n.ID)
}

// addRelated records a node reached through an edge, without extending the
// primary path.
func (c *collector) addRelated(n domain.Node) {
	if c.seen[n.ID] {
		return
	}
	c.seen[n.ID] = true
	c.nodes = append(c.nodes, n)
}

func (c *collector) addEdge(e domain.Edge) {
	c.edges = append(c.edges, e)
}

// Retrieve dispatches on the intent category and returns the graph context
// for generation. For a fixed graph snapshot the same intent always yields
// the same nodes, edges and traversal path.
func (s *RetrievalService) Retrieve(intent domain.QueryIntent) domain.GraphContext {
	col := newCollector()

	switch intent.Category {
	case domain.CategoryDefinitionLookup:
		s.definitionLookup(intent, col)
	case domain.CategorySectionRetrieval:
		s.sectionRetrieval(intent, col)
	case domain.CategoryRightsQuery:
		s.rightsQuery(col)
	case domain.CategoryScenarioAnalysis:
		s.scenarioAnalysis(intent, col)
	}

	citations := make([]string, 0, len(col.nodes))
	for _, n := range col.nodes {
		citations = append(citations, n.Citation())
	}

	ctx := domain.GraphContext{
		Nodes:         col.nodes,
		Edges:         col.edges,
		Citations:     citations,
		Confidence:    adjustConfidence(intent.Confidence, len(col.nodes), len(col.edges)),
		TraversalPath: col.path,
	}

	s.logger.Debug("retrieved graph context",
		zap.String("category", string(intent.Category)),
		zap.Int("nodes", len(ctx.Nodes)),
		zap.Int("edges", len(ctx.Edges)),
		zap.Float64("confidence", ctx.Confidence))

	return ctx
}

func (s *RetrievalService) definitionLookup(intent domain.QueryIntent, col *collector) {
	for _, term := range intent.LegalTerms {
		defNode, ok := s.idx.DefinitionByTerm(term)
		if !ok {
			continue
		}
		col.addPrimary(defNode)

		// Attach the section that defines this term.
		if secNode, ok := s.idx.NodeByID(defNode.Definition.DefinedIn); ok {
			col.addRelated(secNode)
			col.addEdge(domain.Edge{
				From:     secNode.ID,
				To:       defNode.ID,
				Relation: domain.RelationDefines,
			})
		}
	}

	// No exact term hit: fall back to ranked keyword search.
	if len(col.nodes) == 0 {
		s.keywordSearch(intent.LegalTerms, col)
	}
}

func (s *RetrievalService) sectionRetrieval(intent domain.QueryIntent, col *collector) {
	for _, number := range intent.SectionNumbers {
		secNode, ok := s.idx.SectionByNumber(number)
		if !ok {
			continue
		}
		col.addPrimary(secNode)

		for _, clauseNode := range s.idx.ClausesOf(secNode.ID) {
			col.addRelated(clauseNode)
			col.addEdge(domain.Edge{
				From:     secNode.ID,
				To:       clauseNode.ID,
				Relation: domain.RelationContains,
			})
		}
	}
}

// rightsQuery enumerates the closed consumer-right catalog with granting
// sections, then any procedurally-derived rights reachable via
// grants_right edges from those sections.
func (s *RetrievalService) rightsQuery(col *collector) {
	var grantingSections []domain.Node
	grantingSeen := make(map[string]bool)

	for _, rightNode := range s.idx.RightsOfType(consumerRightType) {
		col.addPrimary(rightNode)

		if secNode, ok := s.idx.NodeByID(rightNode.Right.GrantedBy); ok {
			if !grantingSeen[secNode.ID] {
				grantingSeen[secNode.ID] = true
				grantingSections = append(grantingSections, secNode)
			}
			col.addRelated(secNode)
			col.addEdge(domain.Edge{
				From:     secNode.ID,
				To:       rightNode.ID,
				Relation: domain.RelationGrantsRight,
			})
		}
	}

	for _, secNode := range grantingSections {
		for _, e := range s.idx.EdgesFrom(secNode.ID) {
			if e.Relation != domain.RelationGrantsRight || col.seen[e.To] {
				continue
			}
			if derived, ok := s.idx.NodeByID(e.To); ok && derived.Kind == domain.NodeRight {
				col.addRelated(derived)
				col.addEdge(e)
			}
		}
	}
}

func (s *RetrievalService) scenarioAnalysis(intent domain.QueryIntent, col *collector) {
	lower := strings.ToLower(intent.OriginalQuery)

	scenario := ""
	for _, t := range scenarioTriggers {
		for _, kw := range t.keywords {
			if strings.Contains(lower, kw) {
				scenario = t.name
				break
			}
		}
		if scenario != "" {
			break
		}
	}

	switch scenario {
	case "defective_goods":
		s.addDefinition("defect", col)
		s.addSectionByNumber(s.routing.ComplaintSection, col)
		s.addSectionByNumber(s.routing.RemedySection, col)
		s.addMatchingRights([]string{"quality", "defect", "redressal"}, col)
	case "misleading_ad":
		s.addDefinition("misleading advertisement", col)
		s.addDefinition("advertisement", col)
		s.addSectionByNumber(s.routing.AdvertisingBody, col)
		s.addSectionByNumber(s.routing.AdvertisingPenalty, col)
		s.addSectionByNumber(s.routing.ComplaintSection, col)
	case "overcharging":
		s.addSectionByNumber(s.routing.ComplaintSection, col)
		s.addSectionByNumber(s.routing.RemedySection, col)
	case "service_deficiency":
		s.addDefinition("deficiency", col)
		s.addSectionByNumber(s.routing.ComplaintSection, col)
		s.addSectionByNumber(s.routing.RemedySection, col)
	default:
		// Generic scenario: consumer-actionable bundle plus top rights.
		for _, number := range s.routing.GenericSections {
			s.addSectionByNumber(number, col)
		}
		count := 0
		for _, rightNode := range s.idx.RightsOfType(consumerRightType) {
			if count >= s.routing.MaxScenarioRights {
				break
			}
			col.addPrimary(rightNode)
			count++
		}
	}
}

func (s *RetrievalService) addDefinition(term string, col *collector) {
	if node, ok := s.idx.DefinitionByTerm(term); ok {
		col.addPrimary(node)
	}
}

func (s *RetrievalService) addSectionByNumber(number string, col *collector) {
	if node, ok := s.idx.SectionByNumber(number); ok {
		col.addPrimary(node)
	}
}

// addMatchingRights adds up to MaxScenarioRights consumer rights whose
// description mentions one of the given terms.
func (s *RetrievalService) addMatchingRights(terms []string, col *collector) {
	count := 0
	for _, rightNode := range s.idx.RightsOfType(consumerRightType) {
		if count >= s.routing.MaxScenarioRights {
			break
		}
		desc := strings.ToLower(rightNode.Right.Description)
		for _, term := range terms {
			if strings.Contains(desc, term) {
				col.addPrimary(rightNode)
				count++
				break
			}
		}
	}
}

type scoredNode struct {
	score float64
	node  domain.Node
}

// keywordSearch is the generic fallback: score every candidate text field
// against the query terms and keep the top matches. An exact phrase match
// scores exactPhraseScore; otherwise each term earns fractional credit per
// matching sub-word. Scores are averaged over terms.
func (s *RetrievalService) keywordSearch(terms []string, col *collector) {
	if len(terms) == 0 {
		return
	}

	var matches []scoredNode
	scan := func(nodes []domain.Node) {
		for _, n := range nodes {
			if score := textMatchScore(n.Text(), terms); score > 0 {
				matches = append(matches, scoredNode{score, n})
			}
		}
	}
	scan(s.idx.Sections())
	scan(s.idx.Definitions())
	scan(s.idx.Rights())

	// Stable by construction: sort by score, ties keep scan order.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].score > matches[j-1].score; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}

	for i, m := range matches {
		if i >= keywordSearchLimit {
			break
		}
		col.addPrimary(m.node)
	}
}

func textMatchScore(text string, terms []string) float64 {
	if text == "" || len(terms) == 0 {
		return 0
	}
	textLower := strings.ToLower(text)

	score := 0.0
	for _, term := range terms {
		termLower := strings.ToLower(term)
		if strings.Contains(textLower, termLower) {
			score += exactPhraseScore
			continue
		}
		words := strings.Fields(termLower)
		matched := 0
		for _, w := range words {
			if strings.Contains(textLower, w) {
				matched++
			}
		}
		if len(words) > 0 {
			score += float64(matched) / float64(len(words))
		}
	}
	return score / float64(len(terms))
}

// MultiHop exposes the bounded breadth-first traversal primitive for
// complex queries.
func (s *RetrievalService) MultiHop(start string, relations []domain.Relation, maxDepth int) []domain.Node {
	return s.idx.Traverse(start, relations, maxDepth)
}

// Hierarchy returns chapter-mates for a retrieved section, feeding the
// assembler's hierarchical context block.
func (s *RetrievalService) Hierarchy(sectionID string, limit int) []domain.Node {
	return s.idx.SectionHierarchy(sectionID, limit)
}

func adjustConfidence(base float64, nodeCount, edgeCount int) float64 {
	conf := base
	if nodeCount > 0 {
		bonus := float64(nodeCount) / nodeBonusDivisor
		if bonus > nodeBonusCap {
			bonus = nodeBonusCap
		}
		conf += bonus
	}
	if edgeCount > 0 {
		bonus := float64(edgeCount) / edgeBonusDivisor
		if bonus > edgeBonusCap {
			bonus = edgeBonusCap
		}
		conf += bonus
	}
	if nodeCount == 0 {
		conf *= emptyPenalty
	}
	if conf > 1.0 {
		conf = 1.0
	}
	if conf < 0 {
		conf = 0
	}
	return conf
}
