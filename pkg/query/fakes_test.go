package query

import (
	"context"
	"fmt"
	"sync"

	"github.com/vedasage/sage/pkg/ai"
	"github.com/vedasage/sage/pkg/store"
)

// fakeAIClient satisfies ai.SageAIClient with per-call hooks and counters so
// tests can assert exactly how the pipeline talks to the model.
type fakeAIClient struct {
	mu sync.Mutex

	chatCalls      int
	embedCalls     int
	lastChatOpts   ai.GenerateOptions
	lastChatInput  []ai.ChatMessage
	lastEmbedInput string

	chatFn  func(messages []ai.ChatMessage, opts ai.GenerateOptions) (string, error)
	embedFn func(input string) ([]float32, error)

	metrics ai.ModelMetrics
}

func (f *fakeAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return f.GenerateChat(ctx, []ai.ChatMessage{{Role: "user", Message: prompt}}, opts...)
}

func (f *fakeAIClient) GenerateChat(ctx context.Context, messages []ai.ChatMessage, opts ...ai.GenerateOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	options := ai.GenerateOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	f.chatCalls++
	f.lastChatOpts = options
	f.lastChatInput = messages

	if f.chatFn == nil {
		return "fake answer", nil
	}
	return f.chatFn(messages, options)
}

func (f *fakeAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.embedCalls++
	f.lastEmbedInput = string(input)

	if f.embedFn == nil {
		return []float32{1, 0}, nil
	}
	return f.embedFn(string(input))
}

func (f *fakeAIClient) GenerateSpeech(ctx context.Context, text string, opts ...ai.GenerateOption) ([]byte, error) {
	return nil, fmt.Errorf("speech not supported in tests")
}

func (f *fakeAIClient) ResetMetrics() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metrics = ai.ModelMetrics{}
}

func (f *fakeAIClient) GetMetrics() ai.ModelMetrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metrics
}

// fakeGraphStore returns canned data keyed off the fixtures a test installs.
type fakeGraphStore struct {
	matches     []store.ChunkMatch
	entities    map[string][]store.EntityCandidate // chunk id -> candidates
	expansions  map[int64]store.Expansion
	communities map[string][]store.CommunityDetail // chunk id -> communities

	searchErr error

	expandCalls []expandCall
}

type expandCall struct {
	entityID int64
	hops     int
	maxPaths int
}

func (f *fakeGraphStore) SimilaritySearch(ctx context.Context, embedding []float32, opts store.SimilaritySearchOptions) ([]store.ChunkMatch, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.matches, nil
}

func (f *fakeGraphStore) TopEntities(ctx context.Context, chunkIDs []string, queryEmbedding []float32, limit int) ([]store.EntityCandidate, error) {
	seen := make(map[string]bool)
	out := make([]store.EntityCandidate, 0)
	for _, id := range chunkIDs {
		for _, e := range f.entities[id] {
			if seen[e.PublicID] {
				continue
			}
			seen[e.PublicID] = true
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeGraphStore) ExpandEntity(ctx context.Context, entityID int64, hops int, maxPaths int) (store.Expansion, error) {
	f.expandCalls = append(f.expandCalls, expandCall{entityID: entityID, hops: hops, maxPaths: maxPaths})
	return f.expansions[entityID], nil
}

func (f *fakeGraphStore) ChunkCommunities(ctx context.Context, chunkIDs []string) ([]store.CommunityDetail, error) {
	seen := make(map[string]bool)
	out := make([]store.CommunityDetail, 0)
	for _, id := range chunkIDs {
		for _, c := range f.communities[id] {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
		}
	}
	return out, nil
}
