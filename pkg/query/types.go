package query

import (
	"github.com/vedasage/sage/pkg/store"
)

// ChunkDetail identifies one raw chunk that contributed to a retrieved
// document, with its individual similarity score.
type ChunkDetail struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// RetrievedChunk is one unit of retrieved context: all matched chunks of a
// single source document merged with their expanded graph neighborhood.
// Produced fresh per query and never mutated afterwards.
type RetrievedChunk struct {
	Text            string
	Score           float64
	Source          string
	ChunkDetails    []ChunkDetail
	EntityIDs       []string
	RelationshipIDs []string
	Communities     []store.CommunityDetail
}

// EntityDetails is the deduplicated union of graph identifiers across the
// chunks admitted into the assembled context.
type EntityDetails struct {
	EntityIDs       []string `json:"entityids"`
	RelationshipIDs []string `json:"relationshipids"`
}

// AssembledContext is the output of the context assembler: the rendered
// context block plus provenance metadata.
type AssembledContext struct {
	Text        string
	Sources     []string
	Entities    EntityDetails
	Communities []store.CommunityDetail
}

// Response is the outcome of one full Ask round trip.
type Response struct {
	Message      string
	Sources      []string
	ChunkDetails []ChunkDetail
	Entities     EntityDetails
	Communities  []store.CommunityDetail
	TotalTokens  int
	Model        string
}
