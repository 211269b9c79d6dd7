package domain

import "fmt"

type NodeKind string

const (
	NodeSection    NodeKind = "section"
	NodeClause     NodeKind = "clause"
	NodeDefinition NodeKind = "definition"
	NodeRight      NodeKind = "right"
)

func ValidNodeKind(k string) bool {
	switch NodeKind(k) {
	case NodeSection, NodeClause, NodeDefinition, NodeRight:
		return true
	}
	return false
}

type Relation string

const (
	RelationContains    Relation = "contains"
	RelationReferences  Relation = "references"
	RelationDefines     Relation = "defines"
	RelationGrantsRight Relation = "grants_right"
)

func ValidRelation(r string) bool {
	switch Relation(r) {
	case RelationContains, RelationReferences, RelationDefines, RelationGrantsRight:
		return true
	}
	return false
}

type Section struct {
	ID           string `json:"section_id"`
	Number       string `json:"section_number"`
	Title        string `json:"title"`
	Text         string `json:"text"`
	Chapter      string `json:"chapter,omitempty"`
	ChapterTitle string `json:"chapter_title,omitempty"`
	Act          string `json:"act"`
}

type Clause struct {
	ID            string `json:"clause_id"`
	ParentSection string `json:"parent_section"`
	Label         string `json:"label"`
	Text          string `json:"text"`
}

type Definition struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	DefinedIn  string `json:"defined_in"`
}

// NodeID returns the synthetic graph id for a definition node.
func (d Definition) NodeID() string {
	return "DEF_" + d.Term
}

type Right struct {
	ID          string `json:"right_id"`
	Description string `json:"description"`
	GrantedBy   string `json:"granted_by"`
	RightType   string `json:"right_type"`
	Scope       string `json:"scope,omitempty"`
	Enforcement string `json:"enforcement_mechanism,omitempty"`
}

// Node is a tagged union over the four provision variants. Exactly one of
// the variant pointers is non-nil, matching Kind.
type Node struct {
	ID         string      `json:"id"`
	Kind       NodeKind    `json:"kind"`
	Section    *Section    `json:"section,omitempty"`
	Clause     *Clause     `json:"clause,omitempty"`
	Definition *Definition `json:"definition,omitempty"`
	Right      *Right      `json:"right,omitempty"`
}

// Text returns the main text content of the node.
func (n Node) Text() string {
	switch n.Kind {
	case NodeSection:
		return n.Section.Text
	case NodeClause:
		return n.Clause.Text
	case NodeDefinition:
		return n.Definition.Definition
	case NodeRight:
		return n.Right.Description
	}
	return ""
}

// Citation returns the formatted legal citation for the node.
func (n Node) Citation() string {
	switch n.Kind {
	case NodeSection:
		return fmt.Sprintf("Section %s, %s", n.Section.Number, n.Section.Act)
	case NodeClause:
		return fmt.Sprintf("%s, Clause %s", n.Clause.ParentSection, n.Clause.Label)
	case NodeDefinition:
		return fmt.Sprintf("Definition of %q in %s", n.Definition.Term, n.Definition.DefinedIn)
	case NodeRight:
		return fmt.Sprintf("Right granted by %s", n.Right.GrantedBy)
	}
	return n.ID
}

// Edge is a typed, directed relation between two nodes.
type Edge struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Relation Relation `json:"relation"`
	Context  string   `json:"context,omitempty"`
}

// FundamentalRight is one entry of the closed six-right catalog attached to
// a specific legal instrument.
type FundamentalRight struct {
	Title       string
	Description string
	Provision   string
	Key         string
}

// SupportedAct is the single legal instrument the graph currently covers.
// Temporal validity scoring checks retrieved sections against it.
const SupportedAct = "Consumer Protection Act, 2019"

// FundamentalRights is the closed catalog of the six fundamental consumer
// rights, keyed by instrument. Rights queries always enumerate the full
// catalog for the supported act; they are never similarity-matched.
var FundamentalRights = map[string][]FundamentalRight{
	SupportedAct: {
		{
			Title:       "Right to Safety",
			Description: "Protection against goods and services which are hazardous to life and property",
			Provision:   "Section 2(9)(a)",
			Key:         "safety",
		},
		{
			Title:       "Right to be Informed",
			Description: "Right to be informed about the quality, quantity, potency, purity, standard and price of goods or services",
			Provision:   "Section 2(9)(b)",
			Key:         "informed",
		},
		{
			Title:       "Right to Choose",
			Description: "Right to be assured of access to a variety of goods and services at competitive prices",
			Provision:   "Section 2(9)(c)",
			Key:         "choose",
		},
		{
			Title:       "Right to be Heard",
			Description: "Right to be heard and to be assured that consumer interests will receive due consideration",
			Provision:   "Section 2(9)(d)",
			Key:         "heard",
		},
		{
			Title:       "Right to Seek Redressal",
			Description: "Right to seek redressal against unfair trade practices or restrictive trade practices or unscrupulous exploitation of consumers",
			Provision:   "Section 2(9)(e)",
			Key:         "redressal",
		},
		{
			Title:       "Right to Consumer Education",
			Description: "Right to consumer education and to be informed about consumer rights and remedies",
			Provision:   "Section 2(9)(f)",
			Key:         "education",
		},
	},
}
