package openai

import (
	"math"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/vedasage/sage/pkg/ai"
)

// SageOpenAIClient talks to OpenAI-compatible APIs for the chat, embedding
// and speech operations the retrieval pipeline needs. Separate clients are
// kept for chat and embeddings so they can point at different endpoints.
//
// A SageOpenAIClient should be created using NewSageOpenAIClient.
type SageOpenAIClient struct {
	chatModel      string
	embeddingModel string
	speechModel    string
	speechVoice    string

	chatURL      string
	embeddingURL string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewSageOpenAIClientParams configures a new client. URLs are optional; when
// empty the official OpenAI endpoint is used.
type NewSageOpenAIClientParams struct {
	ChatModel      string
	EmbeddingModel string
	SpeechModel    string
	SpeechVoice    string

	ChatURL      string
	ChatKey      string
	EmbeddingURL string
	EmbeddingKey string
}

// NewSageOpenAIClient creates a client for chat, embeddings and speech against
// OpenAI-compatible endpoints.
func NewSageOpenAIClient(params NewSageOpenAIClientParams) *SageOpenAIClient {
	chatOpts := []option.RequestOption{option.WithAPIKey(params.ChatKey)}
	if params.ChatURL != "" {
		chatOpts = append(chatOpts, option.WithBaseURL(params.ChatURL))
	}
	chatClient := openai.NewClient(chatOpts...)

	embedOpts := []option.RequestOption{option.WithAPIKey(params.EmbeddingKey)}
	if params.EmbeddingURL != "" {
		embedOpts = append(embedOpts, option.WithBaseURL(params.EmbeddingURL))
	}
	embeddingClient := openai.NewClient(embedOpts...)

	return &SageOpenAIClient{
		chatModel:       params.ChatModel,
		embeddingModel:  params.EmbeddingModel,
		speechModel:     params.SpeechModel,
		speechVoice:     params.SpeechVoice,
		chatURL:         params.ChatURL,
		embeddingURL:    params.EmbeddingURL,
		ChatClient:      &chatClient,
		EmbeddingClient: &embeddingClient,
	}
}

// ResetMetrics clears all accumulated token and timing metrics to zero.
func (c *SageOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	c.metrics = ai.ModelMetrics{}
	c.metricsLock.Unlock()
}

// GetMetrics returns the accumulated token usage and timing metrics since the
// last reset.
func (c *SageOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *SageOpenAIClient) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs

	if c.metrics.DurationMs > 0 {
		tokensPerSecond := (float64(c.metrics.TotalTokens) * 1000.0) / float64(c.metrics.DurationMs)
		c.metrics.TokenPerSecond = float32(math.Round(tokensPerSecond*100) / 100)
	}
}
