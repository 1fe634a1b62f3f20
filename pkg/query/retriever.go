package query

import (
	"context"
	"fmt"

	"github.com/vedasage/sage/internal/util"
	"github.com/vedasage/sage/pkg/ai"
	"github.com/vedasage/sage/pkg/logger"
	"github.com/vedasage/sage/pkg/store"
)

// Retriever runs the hybrid similarity+graph retrieval: chunk similarity
// search, per-document grouping, tiered entity expansion, cross-chunk
// deduplication and rendering into one RetrievedChunk per source document.
type Retriever struct {
	aiClient ai.SageAIClient
	store    store.GraphStore
	config   Config
}

func NewRetriever(aiClient ai.SageAIClient, graphStore store.GraphStore, config Config) *Retriever {
	return &Retriever{
		aiClient: aiClient,
		store:    graphStore,
		config:   config.Normalize(),
	}
}

type documentGroup struct {
	documentID int64
	fileName   string
	url        string
	chunks     []store.ChunkMatch
}

// Retrieve maps a search string to retrieved context grouped by source
// document. A query matching nothing returns an empty slice and nil error;
// "no documents" is an expected outcome, not a failure.
func (r *Retriever) Retrieve(
	ctx context.Context,
	search string,
	documentNames []string,
) ([]RetrievedChunk, []float32, error) {
	embedding, err := util.RetryWithContext(ctx, r.config.MaxRetries, func(ctx context.Context) ([]float32, error) {
		return r.aiClient.GenerateEmbedding(ctx, []byte(search))
	})
	if err != nil {
		return nil, nil, wrapErr(KindRetrieval, fmt.Errorf("embed search query: %w", err))
	}

	matches, err := r.store.SimilaritySearch(ctx, embedding, store.SimilaritySearchOptions{
		TopK:                 r.config.SearchK,
		ScoreThreshold:       r.config.ScoreThreshold,
		EffectiveSearchRatio: r.config.EffectiveSearchRatio,
		DocumentNames:        documentNames,
	})
	if err != nil {
		return nil, nil, wrapErr(KindRetrieval, err)
	}
	if len(matches) == 0 {
		return nil, embedding, nil
	}

	chunks := make([]RetrievedChunk, 0)
	for _, group := range groupByDocument(matches) {
		chunk, err := r.retrieveDocument(ctx, group, embedding)
		if err != nil {
			return nil, nil, wrapErr(KindRetrieval, err)
		}
		chunks = append(chunks, chunk)
	}

	return chunks, embedding, nil
}

// groupByDocument buckets similarity matches by their parent document,
// preserving the order in which documents first appear in the ranked match
// list.
func groupByDocument(matches []store.ChunkMatch) []documentGroup {
	index := make(map[int64]int)
	groups := make([]documentGroup, 0)
	for _, m := range matches {
		i, ok := index[m.DocumentID]
		if !ok {
			i = len(groups)
			index[m.DocumentID] = i
			groups = append(groups, documentGroup{
				documentID: m.DocumentID,
				fileName:   m.FileName,
				url:        m.URL,
			})
		}
		groups[i].chunks = append(groups[i].chunks, m)
	}
	return groups
}

func (r *Retriever) retrieveDocument(
	ctx context.Context,
	group documentGroup,
	queryEmbedding []float32,
) (RetrievedChunk, error) {
	chunkIDs := make([]string, 0, len(group.chunks))
	details := make([]ChunkDetail, 0, len(group.chunks))
	var scoreSum float64
	for _, c := range group.chunks {
		chunkIDs = append(chunkIDs, c.ID)
		details = append(details, ChunkDetail{ID: c.ID, Score: c.Score})
		scoreSum += c.Score
	}
	avgScore := scoreSum / float64(len(group.chunks))

	entities, err := r.store.TopEntities(ctx, chunkIDs, queryEmbedding, r.config.EntityLimit)
	if err != nil {
		return RetrievedChunk{}, err
	}

	nodes, relationships, err := r.expandEntities(ctx, entities)
	if err != nil {
		return RetrievedChunk{}, err
	}

	communities, err := r.store.ChunkCommunities(ctx, chunkIDs)
	if err != nil {
		return RetrievedChunk{}, err
	}

	entityIDs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		entityIDs = append(entityIDs, n.PublicID)
	}
	relationshipIDs := make([]string, 0, len(relationships))
	for _, rel := range relationships {
		relationshipIDs = append(relationshipIDs, rel.PublicID)
	}

	return RetrievedChunk{
		Text:            renderDocumentText(group.chunks, nodes, relationships),
		Score:           avgScore,
		Source:          documentSource(group.url, group.fileName),
		ChunkDetails:    details,
		EntityIDs:       entityIDs,
		RelationshipIDs: relationshipIDs,
		Communities:     communities,
	}, nil
}

// expandEntities walks the graph around each candidate entity using the
// similarity-band tiering, then deduplicates nodes and relationships across
// the whole document group.
func (r *Retriever) expandEntities(
	ctx context.Context,
	entities []store.EntityCandidate,
) ([]store.GraphNode, []store.GraphRelationship, error) {
	seenNodes := make(map[string]bool)
	seenRels := make(map[string]bool)
	nodes := make([]store.GraphNode, 0, len(entities))
	relationships := make([]store.GraphRelationship, 0)

	for _, e := range entities {
		hops, maxPaths := r.expansionTier(e.Similarity)

		expansion, err := r.store.ExpandEntity(ctx, e.ID, hops, maxPaths)
		if err != nil {
			return nil, nil, fmt.Errorf("expand entity %s: %w", e.PublicID, err)
		}

		for _, n := range expansion.Nodes {
			if seenNodes[n.PublicID] {
				continue
			}
			seenNodes[n.PublicID] = true
			nodes = append(nodes, n)
		}
		for _, rel := range expansion.Relationships {
			if seenRels[rel.PublicID] {
				continue
			}
			seenRels[rel.PublicID] = true
			relationships = append(relationships, rel)
		}
	}

	logger.Debug("Expanded entity neighborhood",
		"entities", len(entities),
		"nodes", len(nodes),
		"relationships", len(relationships),
	)

	return nodes, relationships, nil
}

// expansionTier classifies an entity by its query similarity:
//
//   - no embedding, or similarity within [min, max]: 1 hop, mid-band cap
//   - similarity above max: 2 hops, high-band cap
//   - otherwise (below min): the entity node only, no expansion
func (r *Retriever) expansionTier(similarity *float64) (hops int, maxPaths int) {
	switch {
	case similarity == nil:
		return 1, r.config.PathLimitMidBand
	case *similarity > r.config.EmbeddingMaxMatch:
		return 2, r.config.PathLimitHighBand
	case *similarity >= r.config.EmbeddingMinMatch:
		return 1, r.config.PathLimitMidBand
	default:
		return 0, 0
	}
}
