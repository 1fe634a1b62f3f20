package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/vedasage/sage/pkg/ai"
)

// GenerateAnswer invokes the chat model once with the grounding system
// prompt, the prior conversation (without the current question, which is
// passed separately) and the assembled context. It returns the answer text
// and the token usage extracted per the model family's reporter; unknown
// families report zero rather than erroring.
func GenerateAnswer(
	ctx context.Context,
	aiClient ai.SageAIClient,
	model string,
	contextText string,
	history []ai.ChatMessage,
	question string,
) (string, int, error) {
	systemPrompt := fmt.Sprintf(ai.ChatSystemTemplate, contextText)

	messages := make([]ai.ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, ai.ChatMessage{
		Role:    "user",
		Message: fmt.Sprintf("User question: %s", question),
	})

	// Usage is captured per call: the client-wide accumulator is shared
	// with concurrent requests and background summarization, so reading it
	// here would attribute their tokens to this request.
	var usage ai.ModelMetrics
	answer, err := aiClient.GenerateChat(ctx, messages,
		ai.WithSystemPrompts(systemPrompt),
		ai.WithModel(model),
		ai.WithUsage(&usage),
	)
	if err != nil {
		return "", 0, wrapErr(KindGeneration, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", 0, wrapErr(KindGeneration, fmt.Errorf("model returned an empty answer"))
	}

	profile := ai.ResolveProfile(model)
	totalTokens := profile.Usage.TotalTokens(usage)

	return answer, totalTokens, nil
}
