package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/vedasage/sage/pkg/ai"
)

// TransformResult carries the search string chosen for retrieval and whether
// the LLM rewrote it, so callers can log the transformation without touching
// the message history.
type TransformResult struct {
	SearchQuery string
	Rewritten   bool
}

// TransformQuestion produces a single standalone search string for the
// current turn. On the first turn the newest question passes through
// verbatim with no LLM call; on later turns the LLM condenses the whole
// conversation into one query.
//
// A failed LLM call propagates: retrieval for this turn is treated as failed
// rather than silently searching with an empty string.
func TransformQuestion(
	ctx context.Context,
	aiClient ai.SageAIClient,
	messages []ai.ChatMessage,
	opts ...ai.GenerateOption,
) (TransformResult, error) {
	if len(messages) == 0 {
		return TransformResult{}, fmt.Errorf("transform question: empty message history")
	}

	if len(messages) == 1 {
		return TransformResult{SearchQuery: messages[0].Message}, nil
	}

	genOpts := append([]ai.GenerateOption{
		ai.WithSystemPrompts(ai.QuestionTransformTemplate),
	}, opts...)

	rewritten, err := aiClient.GenerateChat(ctx, messages, genOpts...)
	if err != nil {
		return TransformResult{}, fmt.Errorf("transform question: %w", err)
	}

	query := strings.TrimSpace(rewritten)
	if query == "" {
		return TransformResult{}, fmt.Errorf("transform question: model returned an empty query")
	}

	return TransformResult{SearchQuery: query, Rewritten: true}, nil
}
