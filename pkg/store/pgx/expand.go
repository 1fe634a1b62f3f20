package pgx

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vedasage/sage/pkg/store"
)

type relationshipRow struct {
	PublicID string
	Type     string
	SourceID int64
	Source   store.GraphNode
	TargetID int64
	Target   store.GraphNode
}

// ExpandEntity walks up to hops relationship edges outward from the entity,
// breadth first, collecting at most maxPaths relationship paths. With hops=0
// only the entity node itself is returned.
func (s *GraphDBStorage) ExpandEntity(
	ctx context.Context,
	entityID int64,
	hops int,
	maxPaths int,
) (store.Expansion, error) {
	self, err := s.entityNode(ctx, entityID)
	if err != nil {
		return store.Expansion{}, err
	}

	expansion := store.Expansion{Nodes: []store.GraphNode{self}}
	if hops <= 0 || maxPaths <= 0 {
		return expansion, nil
	}

	seenNodes := map[string]bool{self.PublicID: true}
	seenRels := map[string]bool{}
	frontier := []int64{entityID}
	visited := map[int64]bool{entityID: true}
	paths := 0

	for hop := 0; hop < hops && len(frontier) > 0 && paths < maxPaths; hop++ {
		rels, err := s.neighborRelationships(ctx, frontier, maxPaths-paths)
		if err != nil {
			return store.Expansion{}, err
		}

		next := make([]int64, 0, len(rels))
		for _, r := range rels {
			if seenRels[r.PublicID] {
				continue
			}
			seenRels[r.PublicID] = true
			paths++

			expansion.Relationships = append(expansion.Relationships, store.GraphRelationship{
				PublicID: r.PublicID,
				Type:     r.Type,
				Source:   r.Source,
				Target:   r.Target,
			})
			for _, pair := range []struct {
				id   int64
				node store.GraphNode
			}{{r.SourceID, r.Source}, {r.TargetID, r.Target}} {
				if !seenNodes[pair.node.PublicID] {
					seenNodes[pair.node.PublicID] = true
					expansion.Nodes = append(expansion.Nodes, pair.node)
				}
				if !visited[pair.id] {
					visited[pair.id] = true
					next = append(next, pair.id)
				}
			}
			if paths == maxPaths {
				break
			}
		}
		frontier = next
	}

	return expansion, nil
}

func (s *GraphDBStorage) entityNode(ctx context.Context, entityID int64) (store.GraphNode, error) {
	var node store.GraphNode
	err := s.conn.QueryRow(ctx, `
		SELECT public_id, name, type, COALESCE(description, '')
		FROM entities
		WHERE id = $1`,
		entityID,
	).Scan(&node.PublicID, &node.Name, &node.Type, &node.Description)
	if err != nil {
		return store.GraphNode{}, fmt.Errorf("entity %d: %w", entityID, err)
	}
	return node, nil
}

func (s *GraphDBStorage) neighborRelationships(
	ctx context.Context,
	entityIDs []int64,
	limit int,
) ([]relationshipRow, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT r.public_id, r.rel_type,
		       src.id, src.public_id, src.name, src.type, COALESCE(src.description, ''),
		       tgt.id, tgt.public_id, tgt.name, tgt.type, COALESCE(tgt.description, '')
		FROM relationships r
		JOIN entities src ON src.id = r.source_id
		JOIN entities tgt ON tgt.id = r.target_id
		WHERE r.source_id = ANY($1) OR r.target_id = ANY($1)
		ORDER BY r.id
		LIMIT $2`,
		entityIDs, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("neighbor relationships: %w", err)
	}
	defer rows.Close()

	rels, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (relationshipRow, error) {
		var r relationshipRow
		err := row.Scan(
			&r.PublicID, &r.Type,
			&r.SourceID, &r.Source.PublicID, &r.Source.Name, &r.Source.Type, &r.Source.Description,
			&r.TargetID, &r.Target.PublicID, &r.Target.Name, &r.Target.Type, &r.Target.Description,
		)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("neighbor relationships scan: %w", err)
	}
	return rels, nil
}
