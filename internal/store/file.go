package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lexgraph/lexgraph/internal/domain"
)

// FileGraphSource reads the knowledge graph from the JSON directory layout
// produced by the offline ingestion pipeline:
//
//	nodes/sections.data.json   edges/contains.data.json
//	nodes/clauses.data.json    edges/references.data.json
//	nodes/definitions.data.json edges/defines.data.json
//	nodes/rights.data.json     edges/grants_right.data.json (optional)
//
// Missing node or edge files load as empty collections; a malformed file is
// a load error, and a missing directory reports ErrNotFound.
type FileGraphSource struct {
	dir string
}

func NewFileGraphSource(dir string) *FileGraphSource {
	return &FileGraphSource{dir: dir}
}

type containsEdge struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

type referenceEdge struct {
	From          string `json:"from"`
	To            string `json:"to"`
	ReferenceType string `json:"reference_type,omitempty"`
	Context       string `json:"context,omitempty"`
}

type definesEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type grantsEdge struct {
	Section string `json:"section"`
	Right   string `json:"right"`
}

func (s *FileGraphSource) Load(ctx context.Context) (*domain.GraphData, error) {
	// A missing data file is an empty collection, but a missing directory
	// is a misconfigured GRAPH_PATH.
	if _, err := os.Stat(s.dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("graph directory %s: %w", s.dir, ErrNotFound)
		}
		return nil, fmt.Errorf("graph directory %s: %w", s.dir, err)
	}

	data := &domain.GraphData{}

	if err := s.loadJSON("nodes/sections.data.json", &data.Sections); err != nil {
		return nil, err
	}
	if err := s.loadJSON("nodes/clauses.data.json", &data.Clauses); err != nil {
		return nil, err
	}
	if err := s.loadJSON("nodes/definitions.data.json", &data.Definitions); err != nil {
		return nil, err
	}
	if err := s.loadJSON("nodes/rights.data.json", &data.Rights); err != nil {
		return nil, err
	}

	var contains []containsEdge
	if err := s.loadJSON("edges/contains.data.json", &contains); err != nil {
		return nil, err
	}
	for _, e := range contains {
		data.Edges = append(data.Edges, domain.Edge{
			From: e.Parent, To: e.Child, Relation: domain.RelationContains,
		})
	}

	var references []referenceEdge
	if err := s.loadJSON("edges/references.data.json", &references); err != nil {
		return nil, err
	}
	for _, e := range references {
		data.Edges = append(data.Edges, domain.Edge{
			From: e.From, To: e.To, Relation: domain.RelationReferences, Context: e.Context,
		})
	}

	var defines []definesEdge
	if err := s.loadJSON("edges/defines.data.json", &defines); err != nil {
		return nil, err
	}
	for _, e := range defines {
		data.Edges = append(data.Edges, domain.Edge{
			From: e.Source, To: e.Target, Relation: domain.RelationDefines,
		})
	}

	var grants []grantsEdge
	if err := s.loadJSON("edges/grants_right.data.json", &grants); err != nil {
		return nil, err
	}
	for _, e := range grants {
		data.Edges = append(data.Edges, domain.Edge{
			From: e.Section, To: e.Right, Relation: domain.RelationGrantsRight,
		})
	}

	return data, nil
}

func (s *FileGraphSource) loadJSON(relPath string, out any) error {
	path := filepath.Join(s.dir, filepath.FromSlash(relPath))
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", relPath, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", relPath, err)
	}
	return nil
}
