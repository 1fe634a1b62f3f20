package ai

import (
	"context"
)

// ChatMessage represents a single message in a chat conversation.
//
// Role must be one of:
//   - "user"      → a user-provided message
//   - "assistant" → a message from the AI assistant
type ChatMessage struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// GenerateOptions holds configuration for AI generation requests.
type GenerateOptions struct {
	Model         string   // Model identifier to use for generation
	SystemPrompts []string // System prompts prepended to the request
	Temperature   float64  // Sampling temperature (0.0-2.0)
	Voice         string   // Voice identifier for speech synthesis

	// Usage, when non-nil, receives the metrics of exactly this call. The
	// client-wide accumulator is shared across concurrent callers, so
	// anything that reports per-request numbers must read them here.
	Usage *ModelMetrics
}

// GenerateOption is a functional option for configuring AI generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that sets the model to use for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts returns a GenerateOption that sets the system prompts
// to prepend to the generation request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns a GenerateOption that sets the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithVoice returns a GenerateOption that selects the voice used for speech
// synthesis.
func WithVoice(voice string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Voice = voice
	}
}

// WithUsage returns a GenerateOption that captures the token usage of this
// one call into usage, independent of the shared metrics accumulator.
func WithUsage(usage *ModelMetrics) GenerateOption {
	return func(o *GenerateOptions) {
		o.Usage = usage
	}
}

// ModelMetrics contains token usage and timing metrics accumulated across AI
// calls since the last reset. The fields a given provider actually populates
// differ per family; UsageReporter implementations pick the right ones.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// SageAIClient defines the AI operations the retrieval and chat pipeline
// depends on. Implementations exist for OpenAI-compatible APIs and Ollama.
type SageAIClient interface {
	GenerateCompletion(
		ctx context.Context,
		prompt string,
		opts ...GenerateOption,
	) (string, error)

	GenerateChat(
		ctx context.Context,
		messages []ChatMessage,
		opts ...GenerateOption,
	) (string, error)

	// GenerateEmbedding must use the same embedding model the chunk index was
	// built with; mismatched embedding spaces are a caller error.
	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)

	// GenerateSpeech renders text to audio bytes (mp3). Providers without a
	// speech endpoint return an error.
	GenerateSpeech(ctx context.Context, text string, opts ...GenerateOption) ([]byte, error)

	ResetMetrics()
	GetMetrics() ModelMetrics
}
