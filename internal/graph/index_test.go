package graph

import (
	"strings"
	"testing"

	"github.com/lexgraph/lexgraph/internal/domain"
)

func testGraphData() *domain.GraphData {
	return &domain.GraphData{
		Sections: []domain.Section{
			{ID: "SEC_2", Number: "2", Title: "Definitions", Text: "In this Act, unless the context otherwise requires...", Chapter: "I", ChapterTitle: "Preliminary", Act: domain.SupportedAct},
			{ID: "SEC_35", Number: "35", Title: "Manner in which complaint shall be made", Text: "A complaint may be filed with a District Commission...", Chapter: "IV", ChapterTitle: "Consumer Disputes Redressal Commission", Act: domain.SupportedAct},
			{ID: "SEC_39", Number: "39", Title: "Findings of the District Commission", Text: "The District Commission may order to remove the defect, replace the goods or return the price...", Chapter: "IV", ChapterTitle: "Consumer Disputes Redressal Commission", Act: domain.SupportedAct},
		},
		Clauses: []domain.Clause{
			{ID: "CL_35_1", ParentSection: "SEC_35", Label: "(1)", Text: "A complaint may be filed in electronic form."},
		},
		Definitions: []domain.Definition{
			{Term: "defect", Definition: "any fault, imperfection or shortcoming in the quality of goods", DefinedIn: "SEC_2"},
		},
		Rights: []domain.Right{
			{ID: "R_redressal", Description: "Right to seek redressal against unfair trade practices", GrantedBy: "SEC_2", RightType: "consumer_right"},
		},
		Edges: []domain.Edge{
			{From: "SEC_35", To: "CL_35_1", Relation: domain.RelationContains},
			{From: "SEC_2", To: "DEF_defect", Relation: domain.RelationDefines},
			{From: "SEC_2", To: "R_redressal", Relation: domain.RelationGrantsRight},
			{From: "SEC_39", To: "SEC_35", Relation: domain.RelationReferences},
		},
	}
}

func TestNewIndex_Lookups(t *testing.T) {
	idx, err := NewIndex(testGraphData())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := idx.SectionByNumber("35"); !ok {
		t.Error("expected section 35 to be indexed")
	}
	if idx.HasSectionNumber("99") {
		t.Error("section 99 should not exist")
	}

	def, ok := idx.DefinitionByTerm("Defect")
	if !ok {
		t.Fatal("expected definition lookup to be case-insensitive")
	}
	if def.ID != "DEF_defect" {
		t.Errorf("definition node id = %q, want DEF_defect", def.ID)
	}

	clauses := idx.ClausesOf("SEC_35")
	if len(clauses) != 1 || clauses[0].ID != "CL_35_1" {
		t.Errorf("ClausesOf(SEC_35) = %v, want [CL_35_1]", clauses)
	}

	rights := idx.RightsOfType("consumer_right")
	if len(rights) != 1 {
		t.Errorf("RightsOfType(consumer_right) returned %d rights, want 1", len(rights))
	}

	stats := idx.Stats()
	if stats.Sections != 3 || stats.Clauses != 1 || stats.Definitions != 1 || stats.Rights != 1 || stats.Edges != 4 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestNewIndex_DanglingEdge(t *testing.T) {
	data := testGraphData()
	data.Edges = append(data.Edges, domain.Edge{From: "SEC_2", To: "SEC_404", Relation: domain.RelationReferences})

	_, err := NewIndex(data)
	if err == nil {
		t.Fatal("expected error for dangling edge")
	}
	if !strings.Contains(err.Error(), "SEC_404") {
		t.Errorf("error should name the missing node, got: %v", err)
	}
}

func TestNewIndex_InvalidRelation(t *testing.T) {
	data := testGraphData()
	data.Edges = append(data.Edges, domain.Edge{From: "SEC_2", To: "SEC_35", Relation: "amends"})

	if _, err := NewIndex(data); err == nil {
		t.Fatal("expected error for unknown relation")
	}
}

func TestTraverse_Deterministic(t *testing.T) {
	idx, err := NewIndex(testGraphData())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	relations := []domain.Relation{domain.RelationReferences, domain.RelationContains, domain.RelationDefines}
	first := idx.Traverse("SEC_39", relations, DefaultTraversalDepth)
	if len(first) < 3 {
		t.Fatalf("expected SEC_39 traversal to reach SEC_35 and its clause, got %d nodes", len(first))
	}
	for i := 0; i < 10; i++ {
		again := idx.Traverse("SEC_39", relations, DefaultTraversalDepth)
		if len(again) != len(first) {
			t.Fatalf("traversal length changed between runs: %d vs %d", len(again), len(first))
		}
		for j := range again {
			if again[j].ID != first[j].ID {
				t.Fatalf("traversal order changed at %d: %q vs %q", j, again[j].ID, first[j].ID)
			}
		}
	}
}

func TestTraverse_CycleSafe(t *testing.T) {
	data := testGraphData()
	// SEC_39 -> SEC_35 already exists; close the loop.
	data.Edges = append(data.Edges, domain.Edge{From: "SEC_35", To: "SEC_39", Relation: domain.RelationReferences})

	idx, err := NewIndex(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nodes := idx.Traverse("SEC_39", []domain.Relation{domain.RelationReferences}, 10)
	seen := make(map[string]int)
	for _, n := range nodes {
		seen[n.ID]++
		if seen[n.ID] > 1 {
			t.Fatalf("node %q visited more than once", n.ID)
		}
	}
}

func TestTraverse_RelationFilter(t *testing.T) {
	idx, err := NewIndex(testGraphData())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nodes := idx.Traverse("SEC_35", []domain.Relation{domain.RelationContains}, 2)
	for _, n := range nodes {
		if n.ID == "SEC_39" {
			t.Error("references edge should have been filtered out")
		}
	}
}

func TestSectionHierarchy(t *testing.T) {
	idx, err := NewIndex(testGraphData())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	siblings := idx.SectionHierarchy("SEC_35", 5)
	if len(siblings) != 1 || siblings[0].ID != "SEC_39" {
		t.Errorf("SectionHierarchy(SEC_35) = %v, want [SEC_39]", siblings)
	}
}
