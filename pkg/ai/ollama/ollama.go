package ollama

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sync"

	"github.com/ollama/ollama/api"

	"github.com/vedasage/sage/pkg/ai"
)

// SageOllamaClient implements ai.SageAIClient against a locally-hosted Ollama
// server. Speech synthesis is not available on this backend.
type SageOllamaClient struct {
	chatModel      string
	embeddingModel string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	Client *api.Client
}

type NewSageOllamaClientParams struct {
	ChatModel      string
	EmbeddingModel string

	BaseURL string
}

// NewSageOllamaClient connects to the Ollama server at BaseURL (or the
// default local endpoint when empty).
func NewSageOllamaClient(params NewSageOllamaClientParams) (*SageOllamaClient, error) {
	var client *api.Client
	if params.BaseURL == "" {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, err
		}
	} else {
		base, err := url.Parse(params.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama base url: %w", err)
		}
		client = api.NewClient(base, http.DefaultClient)
	}

	return &SageOllamaClient{
		chatModel:      params.ChatModel,
		embeddingModel: params.EmbeddingModel,
		Client:         client,
	}, nil
}

// ResetMetrics clears all accumulated token and timing metrics to zero.
func (c *SageOllamaClient) ResetMetrics() {
	c.metricsLock.Lock()
	c.metrics = ai.ModelMetrics{}
	c.metricsLock.Unlock()
}

// GetMetrics returns the accumulated token usage and timing metrics since the
// last reset.
func (c *SageOllamaClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *SageOllamaClient) modifyMetrics(m ai.ModelMetrics) {
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
