package domain

import "context"

// GraphData is the raw knowledge graph as supplied by a source: four node
// collections and the typed edge collections. Loaded once at startup.
type GraphData struct {
	Sections    []Section
	Clauses     []Clause
	Definitions []Definition
	Rights      []Right
	Edges       []Edge
}

// GraphSource supplies the knowledge graph from a storage location. The
// graph is built offline; sources only read.
type GraphSource interface {
	Load(ctx context.Context) (*GraphData, error)
}
