package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/vedasage/sage/pkg/ai"
)

// GenerateEmbedding creates a vector embedding for the given input text using
// the configured embedding model on Ollama.
func (c *SageOllamaClient) GenerateEmbedding(
	ctx context.Context,
	input []byte,
) ([]float32, error) {
	text := strings.TrimSpace(string(input))
	if text == "" {
		return nil, fmt.Errorf("empty embedding input")
	}

	res, err := c.Client.Embed(ctx, &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: text,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Embeddings) == 0 {
		return nil, fmt.Errorf("embed response contained no embeddings")
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens: res.PromptEvalCount,
		TotalTokens: res.PromptEvalCount,
		DurationMs:  res.TotalDuration.Milliseconds(),
	})

	return res.Embeddings[0], nil
}
