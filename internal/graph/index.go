// Package graph holds the in-memory indices over the legal knowledge
// graph. An Index is built once at process start and is strictly read-only
// afterwards, so it is safe to share across request workers without
// locking.
package graph

import (
	"fmt"
	"strings"

	"github.com/lexgraph/lexgraph/internal/domain"
)

// Stats summarizes the loaded graph.
type Stats struct {
	Sections    int `json:"sections"`
	Clauses     int `json:"clauses"`
	Definitions int `json:"definitions"`
	Rights      int `json:"rights"`
	Edges       int `json:"edges"`
}

// Index is the read-only lookup structure over a loaded graph. Node slices
// preserve load order so that retrieval over them is deterministic.
type Index struct {
	sections    []domain.Node
	clauses     []domain.Node
	definitions []domain.Node
	rights      []domain.Node

	byID             map[string]domain.Node
	sectionByNumber  map[string]domain.Node
	definitionByTerm map[string]domain.Node
	clausesBySection map[string][]domain.Node
	rightsByType     map[string][]domain.Node
	edgesFrom        map[string][]domain.Edge
	edges            []domain.Edge
}

// NewIndex builds all lookup indices in a single pass and verifies
// referential integrity: every edge endpoint must resolve to a loaded
// node. A dangling edge is a load error; the process must not start with a
// broken graph.
func NewIndex(data *domain.GraphData) (*Index, error) {
	idx := &Index{
		byID:             make(map[string]domain.Node),
		sectionByNumber:  make(map[string]domain.Node),
		definitionByTerm: make(map[string]domain.Node),
		clausesBySection: make(map[string][]domain.Node),
		rightsByType:     make(map[string][]domain.Node),
		edgesFrom:        make(map[string][]domain.Edge),
	}

	for i := range data.Sections {
		s := &data.Sections[i]
		node := domain.Node{ID: s.ID, Kind: domain.NodeSection, Section: s}
		idx.sections = append(idx.sections, node)
		idx.byID[s.ID] = node
		idx.sectionByNumber[s.Number] = node
	}
	for i := range data.Clauses {
		c := &data.Clauses[i]
		node := domain.Node{ID: c.ID, Kind: domain.NodeClause, Clause: c}
		idx.clauses = append(idx.clauses, node)
		idx.byID[c.ID] = node
		idx.clausesBySection[c.ParentSection] = append(idx.clausesBySection[c.ParentSection], node)
	}
	for i := range data.Definitions {
		d := &data.Definitions[i]
		node := domain.Node{ID: d.NodeID(), Kind: domain.NodeDefinition, Definition: d}
		idx.definitions = append(idx.definitions, node)
		idx.byID[node.ID] = node
		idx.definitionByTerm[strings.ToLower(d.Term)] = node
	}
	for i := range data.Rights {
		r := &data.Rights[i]
		node := domain.Node{ID: r.ID, Kind: domain.NodeRight, Right: r}
		idx.rights = append(idx.rights, node)
		idx.byID[r.ID] = node
		idx.rightsByType[r.RightType] = append(idx.rightsByType[r.RightType], node)
	}

	for _, e := range data.Edges {
		if !domain.ValidRelation(string(e.Relation)) {
			return nil, fmt.Errorf("graph: edge %s -> %s has unknown relation %q", e.From, e.To, e.Relation)
		}
		if _, ok := idx.byID[e.From]; !ok {
			return nil, fmt.Errorf("graph: dangling edge: %s node %q does not exist (edge to %q)", e.Relation, e.From, e.To)
		}
		if _, ok := idx.byID[e.To]; !ok {
			return nil, fmt.Errorf("graph: dangling edge: %s node %q does not exist (edge from %q)", e.Relation, e.To, e.From)
		}
		idx.edges = append(idx.edges, e)
		idx.edgesFrom[e.From] = append(idx.edgesFrom[e.From], e)
	}

	return idx, nil
}

func (idx *Index) NodeByID(id string) (domain.Node, bool) {
	n, ok := idx.byID[id]
	return n, ok
}

func (idx *Index) SectionByNumber(number string) (domain.Node, bool) {
	n, ok := idx.sectionByNumber[number]
	return n, ok
}

func (idx *Index) HasSectionNumber(number string) bool {
	_, ok := idx.sectionByNumber[number]
	return ok
}

func (idx *Index) DefinitionByTerm(term string) (domain.Node, bool) {
	n, ok := idx.definitionByTerm[strings.ToLower(term)]
	return n, ok
}

// ClausesOf returns the child clauses of a section in load order.
func (idx *Index) ClausesOf(sectionID string) []domain.Node {
	return idx.clausesBySection[sectionID]
}

func (idx *Index) RightsOfType(rightType string) []domain.Node {
	return idx.rightsByType[rightType]
}

func (idx *Index) EdgesFrom(nodeID string) []domain.Edge {
	return idx.edgesFrom[nodeID]
}

// Sections, Definitions and Rights expose load-ordered node slices for
// keyword scans.
func (idx *Index) Sections() []domain.Node    { return idx.sections }
func (idx *Index) Definitions() []domain.Node { return idx.definitions }
func (idx *Index) Rights() []domain.Node      { return idx.rights }

func (idx *Index) Stats() Stats {
	return Stats{
		Sections:    len(idx.sections),
		Clauses:     len(idx.clauses),
		Definitions: len(idx.definitions),
		Rights:      len(idx.rights),
		Edges:       len(idx.edges),
	}
}

// DefaultTraversalDepth bounds multi-hop traversal.
const DefaultTraversalDepth = 3

// Traverse walks the graph breadth-first from start, following only the
// allowed relation types, up to maxDepth hops. The visited set guarantees
// termination on cyclic edges. Returns nodes in visit order, including the
// start node when it exists.
func (idx *Index) Traverse(start string, relations []domain.Relation, maxDepth int) []domain.Node {
	if maxDepth <= 0 {
		maxDepth = DefaultTraversalDepth
	}
	allowed := make(map[domain.Relation]bool, len(relations))
	for _, r := range relations {
		allowed[r] = true
	}

	type hop struct {
		id    string
		depth int
	}
	visited := make(map[string]bool)
	var result []domain.Node
	queue := []hop{{start, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if visited[cur.id] || cur.depth > maxDepth {
			continue
		}
		visited[cur.id] = true

		if node, ok := idx.byID[cur.id]; ok {
			result = append(result, node)
		}
		for _, e := range idx.edgesFrom[cur.id] {
			if allowed[e.Relation] && !visited[e.To] {
				queue = append(queue, hop{e.To, cur.depth + 1})
			}
		}
	}
	return result
}

// SectionHierarchy returns up to limit sibling sections from the same
// chapter, for hierarchical context.
func (idx *Index) SectionHierarchy(sectionID string, limit int) []domain.Node {
	node, ok := idx.byID[sectionID]
	if !ok || node.Kind != domain.NodeSection || node.Section.Chapter == "" {
		return nil
	}
	var siblings []domain.Node
	for _, s := range idx.sections {
		if s.ID == sectionID {
			continue
		}
		if s.Section.Chapter == node.Section.Chapter {
			siblings = append(siblings, s)
			if len(siblings) >= limit {
				break
			}
		}
	}
	return siblings
}
