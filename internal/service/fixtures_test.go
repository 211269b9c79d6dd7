package service

import (
	"testing"

	"github.com/lexgraph/lexgraph/internal/domain"
	"github.com/lexgraph/lexgraph/internal/graph"
)

// testIndex builds a small but structurally complete graph: definition
// sections, complaint and remedy sections, clauses, the six consumer
// rights plus a procedural right and all four relation types.
func testIndex(t *testing.T) *graph.Index {
	t.Helper()

	data := &domain.GraphData{
		Sections: []domain.Section{
			{
				ID:      "SEC_2",
				Number:  "2",
				Title:   "Definitions",
				Text:    "In this Act, unless the context otherwise requires, the expressions defined below have the meanings assigned to them.",
				Chapter: "I",
				Act:     domain.SupportedAct,
			},
			{
				ID:      "SEC_18",
				Number:  "18",
				Title:   "Powers of Central Authority",
				Text:    "The Central Authority may issue directions against false or misleading advertisements and order their discontinuation.",
				Chapter: "III",
				Act:     domain.SupportedAct,
			},
			{
				ID:      "SEC_21",
				Number:  "21",
				Title:   "Penalty for misleading advertisement",
				Text:    "The Central Authority may impose a penalty on a manufacturer or endorser for a false or misleading advertisement.",
				Chapter: "III",
				Act:     domain.SupportedAct,
			},
			{
				ID:      "SEC_35",
				Number:  "35",
				Title:   "Manner of filing complaint",
				Text:    "A complaint in relation to any goods sold or services provided may be filed with the District Commission by the consumer.",
				Chapter: "IV",
				Act:     domain.SupportedAct,
			},
			{
				ID:      "SEC_39",
				Number:  "39",
				Title:   "Findings of District Commission",
				Text:    "Where the District Commission is satisfied that the complaint is proved, it may order removal of defects, replacement of goods or refund of the price paid.",
				Chapter: "IV",
				Act:     domain.SupportedAct,
			},
		},
		Clauses: []domain.Clause{
			{ID: "CL_35_1", ParentSection: "SEC_35", Label: "(1)", Text: "A complaint may be filed electronically in the prescribed form."},
		},
		Definitions: []domain.Definition{
			{Term: "defect", Definition: "Any fault, imperfection or shortcoming in the quality, quantity, potency, purity or standard of goods.", DefinedIn: "SEC_2"},
			{Term: "deficiency", Definition: "Any fault, imperfection, shortcoming or inadequacy in the quality or manner of performance of a service.", DefinedIn: "SEC_2"},
			{Term: "misleading advertisement", Definition: "An advertisement which falsely describes a product or service or gives a false guarantee.", DefinedIn: "SEC_2"},
			{Term: "advertisement", Definition: "Any audio or visual publicity, representation, endorsement or pronouncement.", DefinedIn: "SEC_2"},
		},
		Rights: []domain.Right{
			{ID: "R_SAFETY", Description: "Protection against the marketing of goods and services which are hazardous to life and property", GrantedBy: "SEC_2", RightType: "consumer_right"},
			{ID: "R_INFORMED", Description: "To be informed about the quality, quantity, potency, purity, standard and price of goods or services", GrantedBy: "SEC_2", RightType: "consumer_right"},
			{ID: "R_CHOOSE", Description: "To be assured of access to a variety of goods and services at competitive prices", GrantedBy: "SEC_2", RightType: "consumer_right"},
			{ID: "R_HEARD", Description: "To be heard and assured that consumer interests receive due consideration at appropriate forums", GrantedBy: "SEC_2", RightType: "consumer_right"},
			{ID: "R_REDRESSAL", Description: "To seek redressal against unfair trade practices or unscrupulous exploitation of consumers", GrantedBy: "SEC_2", RightType: "consumer_right"},
			{ID: "R_EDUCATION", Description: "To consumer awareness and education about rights and remedies", GrantedBy: "SEC_2", RightType: "consumer_right"},
			{ID: "R_FILE", Description: "To file a complaint with the District Commission in respect of defective goods or deficient services", GrantedBy: "SEC_2", RightType: "procedural_right"},
		},
		Edges: []domain.Edge{
			{From: "SEC_2", To: "DEF_defect", Relation: domain.RelationDefines},
			{From: "SEC_2", To: "DEF_deficiency", Relation: domain.RelationDefines},
			{From: "SEC_2", To: "DEF_misleading advertisement", Relation: domain.RelationDefines},
			{From: "SEC_2", To: "DEF_advertisement", Relation: domain.RelationDefines},
			{From: "SEC_35", To: "CL_35_1", Relation: domain.RelationContains},
			{From: "SEC_2", To: "R_SAFETY", Relation: domain.RelationGrantsRight},
			{From: "SEC_2", To: "R_INFORMED", Relation: domain.RelationGrantsRight},
			{From: "SEC_2", To: "R_CHOOSE", Relation: domain.RelationGrantsRight},
			{From: "SEC_2", To: "R_HEARD", Relation: domain.RelationGrantsRight},
			{From: "SEC_2", To: "R_REDRESSAL", Relation: domain.RelationGrantsRight},
			{From: "SEC_2", To: "R_EDUCATION", Relation: domain.RelationGrantsRight},
			{From: "SEC_2", To: "R_FILE", Relation: domain.RelationGrantsRight},
			{From: "SEC_39", To: "SEC_35", Relation: domain.RelationReferences},
		},
	}

	idx, err := graph.NewIndex(data)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return idx
}

func nodeIDs(nodes []domain.Node) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func containsID(nodes []domain.Node, id string) bool {
	for _, n := range nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}
