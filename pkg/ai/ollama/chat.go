package ollama

import (
	"context"
	"fmt"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"

	"github.com/vedasage/sage/pkg/ai"
)

const defaultContextTokens = 4096

// GenerateCompletion sends a single-turn prompt and returns assistant text.
func (c *SageOllamaClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0,
	}
	for _, o := range opts {
		o(&options)
	}

	msgs := make([]api.Message, 0, len(options.SystemPrompts)+1)
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sp})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})

	return c.chat(ctx, msgs, options)
}

// GenerateChat sends a multi-turn conversation and returns assistant text.
func (c *SageOllamaClient) GenerateChat(
	ctx context.Context,
	messages []ai.ChatMessage,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0,
	}
	for _, o := range opts {
		o(&options)
	}

	msgs := make([]api.Message, 0, len(options.SystemPrompts)+len(messages))
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sp})
	}
	for _, message := range messages {
		switch message.Role {
		case "user", "assistant":
			msgs = append(msgs, api.Message{Role: message.Role, Content: message.Message})
		}
	}

	return c.chat(ctx, msgs, options)
}

func (c *SageOllamaClient) chat(
	ctx context.Context,
	msgs []api.Message,
	options ai.GenerateOptions,
) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	// Widen the context window when the prompt alone would overflow the
	// default. Counted with tiktoken since Ollama has no dry-run tokenizer.
	if tokens, err := countPromptTokens(msgs); err == nil && tokens > defaultContextTokens {
		req.Options["num_ctx"] = tokens
	}

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return "", err
	}
	if !final.Done {
		return "", fmt.Errorf("ollama chat response incomplete")
	}

	call := ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	}
	c.modifyMetrics(call)
	if options.Usage != nil {
		*options.Usage = call
	}

	return final.Message.Content, nil
}

func countPromptTokens(msgs []api.Message) (int, error) {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return 0, err
	}
	tokens := 200
	for _, m := range msgs {
		tokens += len(enc.Encode(m.Content, nil, nil))
	}
	return tokens, nil
}

// GenerateSpeech is not supported on the Ollama backend.
func (c *SageOllamaClient) GenerateSpeech(
	ctx context.Context,
	text string,
	opts ...ai.GenerateOption,
) ([]byte, error) {
	return nil, fmt.Errorf("speech synthesis not supported by the ollama backend")
}
