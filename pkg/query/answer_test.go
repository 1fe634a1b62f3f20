package query

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/vedasage/sage/pkg/ai"
)

func TestGenerateAnswerUsesPerCallUsage(t *testing.T) {
	t.Parallel()

	// The shared accumulator is polluted mid-flight, the way a concurrent
	// request or a background summarization would. Only the per-call sink
	// reflects what this request actually consumed.
	client := &fakeAIClient{
		chatFn: func(messages []ai.ChatMessage, opts ai.GenerateOptions) (string, error) {
			if opts.Usage != nil {
				*opts.Usage = ai.ModelMetrics{InputTokens: 60, OutputTokens: 40, TotalTokens: 100}
			}
			return "Bhima killed Ghatotkacha's killer.", nil
		},
		metrics: ai.ModelMetrics{TotalTokens: 50},
	}

	answer, tokens, err := GenerateAnswer(context.Background(), client, "gpt-4o",
		"some context", nil, "Who killed Ghatotakach?")
	if err != nil {
		t.Fatalf("GenerateAnswer failed: %v", err)
	}
	if answer == "" {
		t.Fatal("empty answer")
	}
	if tokens != 100 {
		t.Errorf("reported %d tokens, want this call's 100, not the shared accumulator", tokens)
	}
}

func TestGenerateAnswerConcurrentCallsKeepOwnUsage(t *testing.T) {
	t.Parallel()

	client := &fakeAIClient{
		chatFn: func(messages []ai.ChatMessage, opts ai.GenerateOptions) (string, error) {
			total := 100
			if strings.Contains(messages[len(messages)-1].Message, "Arjuna") {
				total = 40
			}
			if opts.Usage != nil {
				*opts.Usage = ai.ModelMetrics{TotalTokens: total}
			}
			return "an answer", nil
		},
	}

	var wg sync.WaitGroup
	results := make([]int, 2)
	questions := []string{"Who killed Ghatotakach?", "Who taught Arjuna archery?"}
	for i, q := range questions {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			_, tokens, err := GenerateAnswer(context.Background(), client, "gpt-4o",
				"some context", nil, q)
			if err != nil {
				t.Errorf("GenerateAnswer(%q) failed: %v", q, err)
				return
			}
			results[i] = tokens
		}(i, q)
	}
	wg.Wait()

	if results[0] != 100 || results[1] != 40 {
		t.Errorf("per-request usage crossed over: got %v, want [100 40]", results)
	}
}

func TestGenerateAnswerRejectsBlankAnswer(t *testing.T) {
	t.Parallel()

	client := &fakeAIClient{
		chatFn: func([]ai.ChatMessage, ai.GenerateOptions) (string, error) {
			return "   \n", nil
		},
	}

	_, _, err := GenerateAnswer(context.Background(), client, "gpt-4o",
		"some context", nil, "Who killed Ghatotakach?")
	if err == nil {
		t.Fatal("blank answer must be an error")
	}
	if Classify(err) != KindGeneration {
		t.Errorf("blank answer classified as %q, want %q", Classify(err), KindGeneration)
	}
}
