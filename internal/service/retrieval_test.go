package service

import (
	"reflect"
	"testing"

	"github.com/lexgraph/lexgraph/internal/domain"
	"go.uber.org/zap"
)

func newTestRetrieval(t *testing.T) *RetrievalService {
	t.Helper()
	return NewRetrievalService(testIndex(t), DefaultScenarioRouting(), zap.NewNop())
}

func TestRetrieve_DefinitionLookup(t *testing.T) {
	svc := newTestRetrieval(t)

	gc := svc.Retrieve(domain.QueryIntent{
		Category:   domain.CategoryDefinitionLookup,
		LegalTerms: []string{"defect"},
		Confidence: 0.5,
	})

	if !containsID(gc.Nodes, "DEF_defect") {
		t.Fatalf("nodes %v missing DEF_defect", nodeIDs(gc.Nodes))
	}
	if !containsID(gc.Nodes, "SEC_2") {
		t.Errorf("defining section not attached: %v", nodeIDs(gc.Nodes))
	}
	if len(gc.Edges) != 1 || gc.Edges[0].Relation != domain.RelationDefines {
		t.Errorf("edges = %v, want one defines edge", gc.Edges)
	}
	if !reflect.DeepEqual(gc.TraversalPath, []string{"DEF_defect"}) {
		t.Errorf("traversal path = %v, want [DEF_defect]", gc.TraversalPath)
	}
	if len(gc.Citations) != len(gc.Nodes) {
		t.Errorf("got %d citations for %d nodes", len(gc.Citations), len(gc.Nodes))
	}
	if gc.Confidence <= 0.5 {
		t.Errorf("confidence %v not boosted above base", gc.Confidence)
	}
}

func TestRetrieve_DefinitionKeywordFallback(t *testing.T) {
	svc := newTestRetrieval(t)

	// Not a defined term, but it appears in section and right texts.
	gc := svc.Retrieve(domain.QueryIntent{
		Category:   domain.CategoryDefinitionLookup,
		LegalTerms: []string{"district commission"},
		Confidence: 0.4,
	})

	if len(gc.Nodes) == 0 {
		t.Fatal("keyword fallback returned no nodes")
	}
	if !containsID(gc.Nodes, "SEC_35") {
		t.Errorf("nodes %v missing SEC_35", nodeIDs(gc.Nodes))
	}
	if len(gc.Nodes) > keywordSearchLimit {
		t.Errorf("keyword fallback returned %d nodes, limit is %d", len(gc.Nodes), keywordSearchLimit)
	}
}

func TestRetrieve_SectionRetrieval(t *testing.T) {
	svc := newTestRetrieval(t)

	gc := svc.Retrieve(domain.QueryIntent{
		Category:       domain.CategorySectionRetrieval,
		SectionNumbers: []string{"35"},
		Confidence:     0.6,
	})

	if !reflect.DeepEqual(gc.TraversalPath, []string{"SEC_35"}) {
		t.Errorf("traversal path = %v, want [SEC_35]", gc.TraversalPath)
	}
	if !containsID(gc.Nodes, "CL_35_1") {
		t.Errorf("clause not included: %v", nodeIDs(gc.Nodes))
	}
	if len(gc.Edges) != 1 || gc.Edges[0].Relation != domain.RelationContains {
		t.Errorf("edges = %v, want one contains edge", gc.Edges)
	}
}

func TestRetrieve_SectionRetrieval_UnknownSection(t *testing.T) {
	svc := newTestRetrieval(t)

	gc := svc.Retrieve(domain.QueryIntent{
		Category:       domain.CategorySectionRetrieval,
		SectionNumbers: []string{"404"},
		Confidence:     0.6,
	})

	if len(gc.Nodes) != 0 {
		t.Errorf("unknown section returned nodes: %v", nodeIDs(gc.Nodes))
	}
	// Empty retrieval halves the base confidence.
	if gc.Confidence != 0.3 {
		t.Errorf("confidence = %v, want 0.3", gc.Confidence)
	}
}

func TestRetrieve_RightsQuery(t *testing.T) {
	svc := newTestRetrieval(t)

	gc := svc.Retrieve(domain.QueryIntent{
		Category:   domain.CategoryRightsQuery,
		Confidence: 0.5,
	})

	// Six fundamental rights on the path, granting section and the
	// procedurally derived right attached through edges.
	if len(gc.TraversalPath) != 6 {
		t.Fatalf("traversal path %v, want the six fundamental rights", gc.TraversalPath)
	}
	if !containsID(gc.Nodes, "SEC_2") {
		t.Errorf("granting section missing: %v", nodeIDs(gc.Nodes))
	}
	if !containsID(gc.Nodes, "R_FILE") {
		t.Errorf("derived procedural right missing: %v", nodeIDs(gc.Nodes))
	}
	if len(gc.Nodes) != 8 {
		t.Errorf("got %d nodes, want 8", len(gc.Nodes))
	}
	if len(gc.Edges) != 7 {
		t.Errorf("got %d grants edges, want 7", len(gc.Edges))
	}
	for _, e := range gc.Edges {
		if e.Relation != domain.RelationGrantsRight {
			t.Errorf("unexpected edge relation %s", e.Relation)
		}
	}
}

func TestRetrieve_ScenarioDefectiveGoods(t *testing.T) {
	svc := newTestRetrieval(t)

	gc := svc.Retrieve(domain.QueryIntent{
		Category:      domain.CategoryScenarioAnalysis,
		OriginalQuery: "I bought a defective product, can I file a complaint?",
		Confidence:    0.5,
	})

	for _, id := range []string{"DEF_defect", "SEC_35", "SEC_39"} {
		if !containsID(gc.Nodes, id) {
			t.Errorf("nodes %v missing %s", nodeIDs(gc.Nodes), id)
		}
	}
	// The matching-rights pass picks the quality and redressal rights.
	if !containsID(gc.Nodes, "R_INFORMED") || !containsID(gc.Nodes, "R_REDRESSAL") {
		t.Errorf("matching rights not selected: %v", nodeIDs(gc.Nodes))
	}
	if containsID(gc.Nodes, "R_SAFETY") {
		t.Errorf("non-matching right selected: %v", nodeIDs(gc.Nodes))
	}
}

func TestRetrieve_ScenarioMisleadingAd(t *testing.T) {
	svc := newTestRetrieval(t)

	gc := svc.Retrieve(domain.QueryIntent{
		Category:      domain.CategoryScenarioAnalysis,
		OriginalQuery: "The company ran a misleading advertisement, what can be done?",
		Confidence:    0.5,
	})

	for _, id := range []string{"DEF_misleading advertisement", "DEF_advertisement", "SEC_18", "SEC_21", "SEC_35"} {
		if !containsID(gc.Nodes, id) {
			t.Errorf("nodes %v missing %s", nodeIDs(gc.Nodes), id)
		}
	}
}

func TestRetrieve_ScenarioGenericBundle(t *testing.T) {
	svc := newTestRetrieval(t)

	gc := svc.Retrieve(domain.QueryIntent{
		Category:      domain.CategoryScenarioAnalysis,
		OriginalQuery: "Something went wrong with my purchase",
		Confidence:    0.3,
	})

	for _, id := range []string{"SEC_35", "SEC_39", "SEC_2"} {
		if !containsID(gc.Nodes, id) {
			t.Errorf("generic bundle missing %s: %v", id, nodeIDs(gc.Nodes))
		}
	}
	// Top two rights in load order round out the bundle.
	if !containsID(gc.Nodes, "R_SAFETY") || !containsID(gc.Nodes, "R_INFORMED") {
		t.Errorf("top rights missing: %v", nodeIDs(gc.Nodes))
	}
	if len(gc.Nodes) != 5 {
		t.Errorf("got %d nodes, want 5", len(gc.Nodes))
	}
}

func TestRetrieve_Deterministic(t *testing.T) {
	svc := newTestRetrieval(t)

	intent := domain.QueryIntent{
		Category:   domain.CategoryRightsQuery,
		Confidence: 0.5,
	}
	first := svc.Retrieve(intent)
	for i := 0; i < 5; i++ {
		if got := svc.Retrieve(intent); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs from first:\n%v\nvs\n%v", i, got, first)
		}
	}
}

func TestAdjustConfidence(t *testing.T) {
	cases := []struct {
		base  float64
		nodes int
		edges int
		want  float64
	}{
		{0.5, 0, 0, 0.25},  // empty retrieval halves
		{0.5, 1, 1, 0.8},   // 0.5 + 0.2 + 0.1
		{0.8, 10, 10, 1.0}, // capped bonuses, clamped
	}
	for _, tc := range cases {
		got := adjustConfidence(tc.base, tc.nodes, tc.edges)
		if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("adjustConfidence(%v, %d, %d) = %v, want %v", tc.base, tc.nodes, tc.edges, got, tc.want)
		}
	}
}
