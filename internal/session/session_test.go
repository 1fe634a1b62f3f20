package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vedasage/sage/pkg/ai"
)

type stubAIClient struct {
	mu        sync.Mutex
	chatCalls int
	chatFn    func(messages []ai.ChatMessage) (string, error)
}

func (s *stubAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", fmt.Errorf("not used")
}

func (s *stubAIClient) GenerateChat(ctx context.Context, messages []ai.ChatMessage, opts ...ai.GenerateOption) (string, error) {
	s.mu.Lock()
	s.chatCalls++
	s.mu.Unlock()
	if s.chatFn == nil {
		return "a summary", nil
	}
	return s.chatFn(messages)
}

func (s *stubAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return nil, fmt.Errorf("not used")
}

func (s *stubAIClient) GenerateSpeech(ctx context.Context, text string, opts ...ai.GenerateOption) ([]byte, error) {
	return nil, fmt.Errorf("not used")
}

func (s *stubAIClient) ResetMetrics() {}

func (s *stubAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func (s *stubAIClient) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatCalls
}

// memoryLog is an in-memory MessageLog with the same semantics as the
// Postgres-backed one: Replace swaps the whole history atomically.
type memoryLog struct {
	mu       sync.Mutex
	history  map[string][]ai.ChatMessage
	replaces int
}

func newMemoryLog() *memoryLog {
	return &memoryLog{history: make(map[string][]ai.ChatMessage)}
}

func (l *memoryLog) Append(ctx context.Context, sessionID string, message ai.ChatMessage) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history[sessionID] = append(l.history[sessionID], message)
	return nil
}

func (l *memoryLog) Replace(ctx context.Context, sessionID string, messages []ai.ChatMessage) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.replaces++
	l.history[sessionID] = append([]ai.ChatMessage(nil), messages...)
	return nil
}

func (l *memoryLog) Clear(ctx context.Context, sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.history, sessionID)
	return nil
}

func (l *memoryLog) Load(ctx context.Context, sessionID string) ([]ai.ChatMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ai.ChatMessage(nil), l.history[sessionID]...), nil
}

func (l *memoryLog) rows(sessionID string) []ai.ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ai.ChatMessage(nil), l.history[sessionID]...)
}

func (l *memoryLog) replaceCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.replaces
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestGetOrCreate(t *testing.T) {
	t.Parallel()

	manager := NewManager(ManagerParams{AIClient: &stubAIClient{}})

	created := manager.GetOrCreate(context.Background(), "")
	if created.ID == "" {
		t.Fatal("new session has no id")
	}

	same := manager.GetOrCreate(context.Background(), created.ID)
	if same != created {
		t.Error("known id must return the tracked session")
	}

	other := manager.GetOrCreate(context.Background(), "not-a-tracked-id")
	if other.ID == "not-a-tracked-id" {
		t.Error("unknown ids must not be adopted verbatim")
	}
	if other == created {
		t.Error("unknown id must allocate a fresh session")
	}
}

func TestAppendOrdering(t *testing.T) {
	t.Parallel()

	manager := NewManager(ManagerParams{AIClient: &stubAIClient{}})
	s := manager.GetOrCreate(context.Background(), "")

	for i := 0; i < 5; i++ {
		manager.Append(context.Background(), s, ai.ChatMessage{
			Role:    "user",
			Message: fmt.Sprintf("message %d", i),
		})
	}

	messages := manager.Messages(s)
	if len(messages) != 5 {
		t.Fatalf("got %d messages, want 5", len(messages))
	}
	for i, m := range messages {
		if want := fmt.Sprintf("message %d", i); m.Message != want {
			t.Errorf("messages[%d] = %q, want %q", i, m.Message, want)
		}
	}
}

func TestSummarizationCollapsesHistory(t *testing.T) {
	t.Parallel()

	client := &stubAIClient{}
	manager := NewManager(ManagerParams{AIClient: client, Threshold: 4})
	s := manager.GetOrCreate(context.Background(), "")

	for i := 0; i < 5; i++ {
		manager.Append(context.Background(), s, ai.ChatMessage{Role: "user", Message: fmt.Sprintf("m%d", i)})
	}

	waitFor(t, func() bool { return len(manager.Messages(s)) == 2 })

	messages := manager.Messages(s)
	if messages[0].Role != "user" || messages[0].Message != "Our current conversation summary till now" {
		t.Errorf("collapsed history starts with %+v, want the summary stub", messages[0])
	}
	if messages[1].Role != "assistant" || messages[1].Message != "a summary" {
		t.Errorf("collapsed history ends with %+v, want the generated summary", messages[1])
	}
	if client.calls() != 1 {
		t.Errorf("summarization made %d LLM calls, want exactly 1", client.calls())
	}
}

func TestSummarizationFailureKeepsHistory(t *testing.T) {
	t.Parallel()

	client := &stubAIClient{
		chatFn: func([]ai.ChatMessage) (string, error) {
			return "", fmt.Errorf("model unavailable")
		},
	}
	manager := NewManager(ManagerParams{AIClient: client, Threshold: 4})
	s := manager.GetOrCreate(context.Background(), "")

	for i := 0; i < 5; i++ {
		manager.Append(context.Background(), s, ai.ChatMessage{Role: "user", Message: fmt.Sprintf("m%d", i)})
	}

	// A failed summarization is retried once before giving up.
	waitFor(t, func() bool { return client.calls() == 2 })

	// Give a wrong collapse a moment to happen, then confirm it did not.
	time.Sleep(20 * time.Millisecond)
	if got := len(manager.Messages(s)); got != 5 {
		t.Errorf("history has %d messages after failed summarization, want 5 untouched", got)
	}
}

func TestSummarizationPreservesConcurrentAppends(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	client := &stubAIClient{
		chatFn: func([]ai.ChatMessage) (string, error) {
			close(started)
			<-release
			return "a summary", nil
		},
	}
	manager := NewManager(ManagerParams{AIClient: client, Threshold: 4})
	s := manager.GetOrCreate(context.Background(), "")

	for i := 0; i < 5; i++ {
		manager.Append(context.Background(), s, ai.ChatMessage{Role: "user", Message: fmt.Sprintf("m%d", i)})
	}

	<-started
	manager.Append(context.Background(), s, ai.ChatMessage{Role: "assistant", Message: "late answer"})
	close(release)

	waitFor(t, func() bool { return len(manager.Messages(s)) == 3 })

	messages := manager.Messages(s)
	if messages[2].Message != "late answer" {
		t.Errorf("turn appended during summarization lost: %+v", messages)
	}
	if client.calls() != 1 {
		t.Errorf("concurrent appends dispatched %d summarizations, want 1", client.calls())
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	manager := NewManager(ManagerParams{AIClient: &stubAIClient{}})
	s := manager.GetOrCreate(context.Background(), "")
	manager.Append(context.Background(), s, ai.ChatMessage{Role: "user", Message: "hello"})

	if !manager.Clear(context.Background(), s.ID) {
		t.Error("clearing a tracked session must report true")
	}
	if manager.Clear(context.Background(), s.ID) {
		t.Error("clearing an unknown session must report false")
	}
}

func TestGetOrCreateRestoresFromLog(t *testing.T) {
	t.Parallel()

	log := newMemoryLog()
	before := NewManager(ManagerParams{AIClient: &stubAIClient{}, Log: log})
	s := before.GetOrCreate(context.Background(), "")
	before.Append(context.Background(), s, ai.ChatMessage{Role: "user", Message: "who is Bhima?"})
	before.Append(context.Background(), s, ai.ChatMessage{Role: "assistant", Message: "a Pandava"})

	// A fresh manager stands in for the process after a restart.
	after := NewManager(ManagerParams{AIClient: &stubAIClient{}, Log: log})
	restored := after.GetOrCreate(context.Background(), s.ID)
	if restored.ID != s.ID {
		t.Fatalf("restored session id = %q, want %q", restored.ID, s.ID)
	}

	messages := after.Messages(restored)
	if len(messages) != 2 {
		t.Fatalf("restored history has %d messages, want 2", len(messages))
	}
	if messages[0].Message != "who is Bhima?" || messages[1].Message != "a Pandava" {
		t.Errorf("restored history out of order: %+v", messages)
	}

	// The second lookup must hit the tracked session, not reload.
	if again := after.GetOrCreate(context.Background(), s.ID); again != restored {
		t.Error("restored session must be tracked after the first lookup")
	}
}

func TestClearDuringSummarizationDropsPersistedRows(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	client := &stubAIClient{
		chatFn: func([]ai.ChatMessage) (string, error) {
			close(started)
			<-release
			return "a summary", nil
		},
	}
	log := newMemoryLog()
	manager := NewManager(ManagerParams{AIClient: client, Threshold: 4, Log: log})
	s := manager.GetOrCreate(context.Background(), "")

	for i := 0; i < 5; i++ {
		manager.Append(context.Background(), s, ai.ChatMessage{Role: "user", Message: fmt.Sprintf("m%d", i)})
	}

	<-started
	if !manager.Clear(context.Background(), s.ID) {
		t.Fatal("clearing the tracked session must report true")
	}
	close(release)

	// Let the summarization goroutine drain, then confirm the dropped
	// session's rows did not come back.
	time.Sleep(20 * time.Millisecond)
	if rows := log.rows(s.ID); len(rows) != 0 {
		t.Errorf("cleared session has %d persisted rows, want none: %+v", len(rows), rows)
	}
	if n := log.replaceCount(); n != 0 {
		t.Errorf("summarization replaced history %d times after clear, want 0", n)
	}
	if got := len(manager.Messages(s)); got != 0 {
		t.Errorf("cleared session holds %d messages in memory, want 0", got)
	}
}
