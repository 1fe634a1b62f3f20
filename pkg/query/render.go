package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vedasage/sage/pkg/store"
)

const chunkSeparator = "\n----\n"

// renderDocumentText merges a document group's chunk texts with its expanded
// graph neighborhood into one labeled text block:
//
//	Text Content:
//	<chunk texts joined by separators>
//	----
//	Entities:
//	<sorted "type:name (description)" lines>
//	----
//	Relationships:
//	<sorted "type:name REL_TYPE type:name" lines>
func renderDocumentText(
	chunks []store.ChunkMatch,
	nodes []store.GraphNode,
	relationships []store.GraphRelationship,
) string {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}

	nodeTexts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		nodeTexts = append(nodeTexts, renderNode(n))
	}
	sort.Strings(nodeTexts)

	relTexts := make([]string, 0, len(relationships))
	for _, r := range relationships {
		relTexts = append(relTexts, renderRelationship(r))
	}
	sort.Strings(relTexts)

	var b strings.Builder
	b.WriteString("Text Content:\n")
	b.WriteString(strings.Join(texts, chunkSeparator))
	b.WriteString(chunkSeparator)
	b.WriteString("Entities:\n")
	b.WriteString(strings.Join(nodeTexts, "\n"))
	b.WriteString(chunkSeparator)
	b.WriteString("Relationships:\n")
	b.WriteString(strings.Join(relTexts, "\n"))
	return b.String()
}

func renderNode(n store.GraphNode) string {
	text := fmt.Sprintf("%s:%s", n.Type, nodeLabel(n))
	if n.Description != "" {
		text += fmt.Sprintf(" (%s)", n.Description)
	}
	return text
}

func renderRelationship(r store.GraphRelationship) string {
	return fmt.Sprintf("%s:%s %s %s:%s",
		r.Source.Type, nodeLabel(r.Source),
		r.Type,
		r.Target.Type, nodeLabel(r.Target),
	)
}

func nodeLabel(n store.GraphNode) string {
	if n.Name != "" {
		return n.Name
	}
	return n.PublicID
}

// documentSource prefers a real external URL over the stored file name. The
// ingestion pipeline writes the literal "None" into url for local uploads,
// which counts as a placeholder.
func documentSource(url, fileName string) string {
	if url != "" && !strings.Contains(url, "None") {
		return url
	}
	if fileName != "" {
		return fileName
	}
	return "unknown"
}
