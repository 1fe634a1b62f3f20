package pgx

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/vedasage/sage/pkg/store"
)

// SimilaritySearch runs a cosine similarity lookup against the chunk index.
// The underlying query fetches TopK*EffectiveSearchRatio nearest rows for
// recall, then filters by the score threshold and truncates to TopK.
func (s *GraphDBStorage) SimilaritySearch(
	ctx context.Context,
	embedding []float32,
	opts store.SimilaritySearchOptions,
) ([]store.ChunkMatch, error) {
	if opts.TopK <= 0 {
		return nil, fmt.Errorf("similarity search: TopK must be positive, got %d", opts.TopK)
	}
	ratio := opts.EffectiveSearchRatio
	if ratio < 1 {
		ratio = 1
	}

	query := `
		SELECT c.public_id, c.document_id, d.file_name, COALESCE(d.url, ''), c.text,
		       1 - (c.embedding <=> $1) AS score
		FROM chunks c
		JOIN documents d ON d.id = c.document_id`
	args := []any{pgvector.NewVector(embedding)}

	if len(opts.DocumentNames) > 0 {
		query += `
		WHERE d.file_name = ANY($2)
		ORDER BY c.embedding <=> $1
		LIMIT $3`
		args = append(args, opts.DocumentNames, opts.TopK*ratio)
	} else {
		query += `
		ORDER BY c.embedding <=> $1
		LIMIT $2`
		args = append(args, opts.TopK*ratio)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	matches := make([]store.ChunkMatch, 0, opts.TopK)
	for rows.Next() {
		var m store.ChunkMatch
		if err := rows.Scan(&m.ID, &m.DocumentID, &m.FileName, &m.URL, &m.Text, &m.Score); err != nil {
			return nil, fmt.Errorf("similarity search scan: %w", err)
		}
		if m.Score < opts.ScoreThreshold {
			continue
		}
		matches = append(matches, m)
		if len(matches) == opts.TopK {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("similarity search rows: %w", err)
	}

	return matches, nil
}

// TopEntities returns the entities most frequently referenced by the given
// chunks, with each entity's cosine similarity to the query embedding.
// Entities without an embedding carry a nil similarity.
func (s *GraphDBStorage) TopEntities(
	ctx context.Context,
	chunkIDs []string,
	queryEmbedding []float32,
	limit int,
) ([]store.EntityCandidate, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT e.id, e.public_id, e.name, e.type, COALESCE(e.description, ''),
		       CASE WHEN e.embedding IS NULL THEN NULL
		            ELSE 1 - (e.embedding <=> $2) END AS similarity,
		       count(*) AS chunk_refs
		FROM chunk_entities ce
		JOIN chunks c ON c.id = ce.chunk_id
		JOIN entities e ON e.id = ce.entity_id
		WHERE c.public_id = ANY($1)
		GROUP BY e.id, e.public_id, e.name, e.type, e.description, similarity
		ORDER BY chunk_refs DESC, e.name
		LIMIT $3`,
		chunkIDs, pgvector.NewVector(queryEmbedding), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top entities: %w", err)
	}
	defer rows.Close()

	entities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.EntityCandidate, error) {
		var e store.EntityCandidate
		err := row.Scan(&e.ID, &e.PublicID, &e.Name, &e.Type, &e.Description, &e.Similarity, &e.ChunkRefs)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("top entities scan: %w", err)
	}
	return entities, nil
}

// ChunkCommunities returns community metadata attached to the given chunks,
// first occurrence per community id.
func (s *GraphDBStorage) ChunkCommunities(
	ctx context.Context,
	chunkIDs []string,
) ([]store.CommunityDetail, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT DISTINCT ON (co.public_id) co.public_id, co.title, COALESCE(co.summary, '')
		FROM chunk_communities cc
		JOIN chunks c ON c.id = cc.chunk_id
		JOIN communities co ON co.id = cc.community_id
		WHERE c.public_id = ANY($1)
		ORDER BY co.public_id`,
		chunkIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("chunk communities: %w", err)
	}
	defer rows.Close()

	communities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.CommunityDetail, error) {
		var cd store.CommunityDetail
		err := row.Scan(&cd.ID, &cd.Title, &cd.Summary)
		return cd, err
	})
	if err != nil {
		return nil, fmt.Errorf("chunk communities scan: %w", err)
	}
	return communities, nil
}
