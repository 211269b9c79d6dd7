package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lexgraph/lexgraph/internal/domain"
)

// PostgresGraphSource reads the knowledge graph from the tables written by
// the offline ingestion pipeline. It is read-only: the graph is never
// written during request processing.
type PostgresGraphSource struct {
	db *pgxpool.Pool
}

func NewPostgresGraphSource(db *pgxpool.Pool) *PostgresGraphSource {
	return &PostgresGraphSource{db: db}
}

func (s *PostgresGraphSource) Load(ctx context.Context) (*domain.GraphData, error) {
	data := &domain.GraphData{}

	rows, err := s.db.Query(ctx,
		`SELECT section_id, section_number, title, text,
		        COALESCE(chapter, ''), COALESCE(chapter_title, ''), act
		 FROM kg_sections ORDER BY section_id`)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	for rows.Next() {
		var sec domain.Section
		if err := rows.Scan(&sec.ID, &sec.Number, &sec.Title, &sec.Text,
			&sec.Chapter, &sec.ChapterTitle, &sec.Act); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan section: %w", err)
		}
		data.Sections = append(data.Sections, sec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}

	rows, err = s.db.Query(ctx,
		`SELECT clause_id, parent_section, label, text
		 FROM kg_clauses ORDER BY clause_id`)
	if err != nil {
		return nil, fmt.Errorf("load clauses: %w", err)
	}
	for rows.Next() {
		var c domain.Clause
		if err := rows.Scan(&c.ID, &c.ParentSection, &c.Label, &c.Text); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan clause: %w", err)
		}
		data.Clauses = append(data.Clauses, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load clauses: %w", err)
	}

	rows, err = s.db.Query(ctx,
		`SELECT term, definition, defined_in FROM kg_definitions ORDER BY term`)
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}
	for rows.Next() {
		var d domain.Definition
		if err := rows.Scan(&d.Term, &d.Definition, &d.DefinedIn); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		data.Definitions = append(data.Definitions, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}

	rows, err = s.db.Query(ctx,
		`SELECT right_id, description, granted_by, right_type,
		        COALESCE(scope, ''), COALESCE(enforcement_mechanism, '')
		 FROM kg_rights ORDER BY right_id`)
	if err != nil {
		return nil, fmt.Errorf("load rights: %w", err)
	}
	for rows.Next() {
		var r domain.Right
		if err := rows.Scan(&r.ID, &r.Description, &r.GrantedBy, &r.RightType,
			&r.Scope, &r.Enforcement); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan right: %w", err)
		}
		data.Rights = append(data.Rights, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load rights: %w", err)
	}

	rows, err = s.db.Query(ctx,
		`SELECT from_node, to_node, relation, COALESCE(context, '')
		 FROM kg_edges ORDER BY from_node, to_node, relation`)
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}
	for rows.Next() {
		var e domain.Edge
		var relation string
		if err := rows.Scan(&e.From, &e.To, &relation, &e.Context); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		e.Relation = domain.Relation(relation)
		data.Edges = append(data.Edges, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}

	return data, nil
}
