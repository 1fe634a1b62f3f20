package query

import (
	"context"
	"fmt"
	"math"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/errgroup"

	"github.com/vedasage/sage/internal/util"
	"github.com/vedasage/sage/pkg/ai"
	"github.com/vedasage/sage/pkg/logger"
)

const compressorEncoding = "cl100k_base"

// Compressor re-filters retrieved chunks at sub-chunk granularity. Graph
// expansion can inflate a chunk's text well past what is worth sending to
// the model, so each chunk is split into token windows and every window is
// re-scored against the query embedding; windows below the similarity floor
// are dropped. Relative order of survivors is preserved.
type Compressor struct {
	aiClient ai.SageAIClient
	config   Config
}

func NewCompressor(aiClient ai.SageAIClient, config Config) *Compressor {
	return &Compressor{
		aiClient: aiClient,
		config:   config.Normalize(),
	}
}

// Compress splits each chunk into token windows, embeds them concurrently
// and keeps only windows whose similarity to the query embedding reaches the
// floor. Each surviving window becomes its own RetrievedChunk carrying the
// parent's metadata.
func (c *Compressor) Compress(
	ctx context.Context,
	chunks []RetrievedChunk,
	queryEmbedding []float32,
) ([]RetrievedChunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}

	enc, err := tiktoken.GetEncoding(compressorEncoding)
	if err != nil {
		return nil, wrapErr(KindRetrieval, fmt.Errorf("load %s encoding: %w", compressorEncoding, err))
	}

	type subChunk struct {
		parent int
		text   string
	}
	subChunks := make([]subChunk, 0, len(chunks))
	for i, chunk := range chunks {
		for _, window := range splitTokenWindows(enc, chunk.Text, c.config.SubChunkTokens, c.config.SubChunkOverlap) {
			subChunks = append(subChunks, subChunk{parent: i, text: window})
		}
	}

	similarities := make([]float64, len(subChunks))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(c.config.EmbedConcurrency)
	for i := range subChunks {
		idx := i
		eg.Go(func() error {
			return util.RetryErrWithContext(ectx, c.config.MaxRetries, func(ctx context.Context) error {
				embedding, err := c.aiClient.GenerateEmbedding(ctx, []byte(subChunks[idx].text))
				if err != nil {
					return fmt.Errorf("embed sub-chunk: %w", err)
				}
				similarities[idx] = CosineSimilarity(queryEmbedding, embedding)
				return nil
			})
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, wrapErr(KindRetrieval, err)
	}

	kept := make([]RetrievedChunk, 0, len(subChunks))
	for i, sc := range subChunks {
		if similarities[i] < c.config.SimilarityFloor {
			continue
		}
		chunk := chunks[sc.parent]
		chunk.Text = sc.text
		kept = append(kept, chunk)
	}

	logger.Debug("Compressed retrieved context",
		"chunks", len(chunks),
		"sub_chunks", len(subChunks),
		"kept", len(kept),
	)

	return kept, nil
}

// splitTokenWindows cuts text into windows of at most size tokens with the
// given overlap between consecutive windows.
func splitTokenWindows(enc *tiktoken.Tiktoken, text string, size, overlap int) []string {
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= size {
		return []string{text}
	}
	if overlap >= size {
		overlap = size - 1
	}

	step := size - overlap
	windows := make([]string, 0, (len(tokens)+step-1)/step)
	for start := 0; start < len(tokens); start += step {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		windows = append(windows, enc.Decode(tokens[start:end]))
		if end == len(tokens) {
			break
		}
	}
	return windows
}

// CosineSimilarity returns the cosine of the angle between two vectors, or 0
// when either vector is empty or zero-length in magnitude.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
