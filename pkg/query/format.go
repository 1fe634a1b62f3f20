package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vedasage/sage/pkg/ai"
	"github.com/vedasage/sage/pkg/logger"
	"github.com/vedasage/sage/pkg/store"
)

// FormatDocuments assembles the final context block for a model family.
//
// Chunks are ranked by score descending (stable, so equal scores keep their
// input order), truncated to the family's chunk cutoff, and rendered as
// delimited document blocks. Entity ids, relationship ids and community
// details are unioned across the retained chunks with first occurrence
// winning, so no identifier appears twice. The budget is a chunk count, not
// a true token count.
//
// A chunk that fails to format is skipped; the rest of the assembly
// continues.
func FormatDocuments(chunks []RetrievedChunk, model string) AssembledContext {
	profile := ai.ResolveProfile(model)

	ranked := make([]RetrievedChunk, len(chunks))
	copy(ranked, chunks)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > profile.TokenCutoff {
		ranked = ranked[:profile.TokenCutoff]
	}

	assembled := AssembledContext{
		Sources:     make([]string, 0, len(ranked)),
		Entities:    EntityDetails{EntityIDs: []string{}, RelationshipIDs: []string{}},
		Communities: []store.CommunityDetail{},
	}

	seenSources := make(map[string]bool)
	seenEntities := make(map[string]bool)
	seenRelationships := make(map[string]bool)
	seenCommunities := make(map[string]bool)

	blocks := make([]string, 0, len(ranked))
	for _, chunk := range ranked {
		block, err := formatDocument(chunk)
		if err != nil {
			logger.Error("Skipping unformattable document", "source", chunk.Source, "err", err)
			continue
		}
		blocks = append(blocks, block)

		if !seenSources[chunk.Source] {
			seenSources[chunk.Source] = true
			assembled.Sources = append(assembled.Sources, chunk.Source)
		}
		for _, id := range chunk.EntityIDs {
			if !seenEntities[id] {
				seenEntities[id] = true
				assembled.Entities.EntityIDs = append(assembled.Entities.EntityIDs, id)
			}
		}
		for _, id := range chunk.RelationshipIDs {
			if !seenRelationships[id] {
				seenRelationships[id] = true
				assembled.Entities.RelationshipIDs = append(assembled.Entities.RelationshipIDs, id)
			}
		}
		for _, community := range chunk.Communities {
			if !seenCommunities[community.ID] {
				seenCommunities[community.ID] = true
				assembled.Communities = append(assembled.Communities, community)
			}
		}
	}

	assembled.Text = strings.Join(blocks, "\n\n")
	return assembled
}

func formatDocument(chunk RetrievedChunk) (string, error) {
	if strings.TrimSpace(chunk.Text) == "" {
		return "", fmt.Errorf("empty document content")
	}
	source := chunk.Source
	if source == "" {
		source = "unknown"
	}
	return fmt.Sprintf(
		"Document start\nThis Document belongs to the source %s\nContent: %s\nDocument end\n",
		source, chunk.Text,
	), nil
}

// SourcesAndChunks projects the per-chunk provenance of the documents whose
// source made it into the assembled context, deduplicated by (id, score).
func SourcesAndChunks(sources []string, chunks []RetrievedChunk) []ChunkDetail {
	used := make(map[string]bool, len(sources))
	for _, s := range sources {
		used[s] = true
	}

	type idScore struct {
		id    string
		score float64
	}
	seen := make(map[idScore]bool)
	details := make([]ChunkDetail, 0)
	for _, chunk := range chunks {
		if !used[chunk.Source] {
			continue
		}
		for _, d := range chunk.ChunkDetails {
			rounded := float64(int(d.Score*10000+0.5)) / 10000
			key := idScore{id: d.ID, score: rounded}
			if seen[key] {
				continue
			}
			seen[key] = true
			details = append(details, ChunkDetail{ID: d.ID, Score: rounded})
		}
	}
	return details
}
