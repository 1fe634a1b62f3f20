package store

import (
	"context"
)

// ChunkMatch is one similarity hit from the chunk index, joined with its
// parent document.
type ChunkMatch struct {
	ID         string // public chunk id
	DocumentID int64
	FileName   string
	URL        string
	Text       string
	Score      float64 // cosine similarity in [0,1]
}

// EntityCandidate is an entity referenced by one or more matched chunks.
// Similarity is the cosine similarity of the entity embedding to the query
// embedding; nil when the entity has no embedding.
type EntityCandidate struct {
	ID          int64
	PublicID    string
	Name        string
	Type        string
	Description string
	Similarity  *float64
	ChunkRefs   int
}

// GraphNode is an entity node reached during expansion.
type GraphNode struct {
	PublicID    string
	Name        string
	Type        string
	Description string
}

// GraphRelationship is a typed edge between two entity nodes.
type GraphRelationship struct {
	PublicID string
	Type     string
	Source   GraphNode
	Target   GraphNode
}

// Expansion is the neighborhood collected around one entity.
type Expansion struct {
	Nodes         []GraphNode
	Relationships []GraphRelationship
}

// CommunityDetail is precomputed cluster metadata attached to chunks.
type CommunityDetail struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// SimilaritySearchOptions tune the chunk similarity lookup.
type SimilaritySearchOptions struct {
	TopK           int
	ScoreThreshold float64
	// EffectiveSearchRatio widens the candidate pool considered before the
	// threshold filter: the index is asked for TopK*ratio rows.
	EffectiveSearchRatio int
	// DocumentNames optionally restricts matches to the named source files.
	DocumentNames []string
}

// GraphStore is the storage contract the retrieval pipeline depends on:
// vector similarity over chunks plus tiered traversal of the entity graph.
type GraphStore interface {
	SimilaritySearch(ctx context.Context, embedding []float32, opts SimilaritySearchOptions) ([]ChunkMatch, error)

	// TopEntities returns up to limit entities referenced by the given
	// chunks, most-referenced first, each carrying its query similarity.
	TopEntities(ctx context.Context, chunkIDs []string, queryEmbedding []float32, limit int) ([]EntityCandidate, error)

	// ExpandEntity walks up to hops relationship edges outward from the
	// entity, returning at most maxPaths paths flattened into nodes and
	// relationships. hops=0 returns just the entity node.
	ExpandEntity(ctx context.Context, entityID int64, hops int, maxPaths int) (Expansion, error)

	// ChunkCommunities returns community metadata linked from the chunks,
	// deduplicated by community id.
	ChunkCommunities(ctx context.Context, chunkIDs []string) ([]CommunityDetail, error)
}
