package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vedasage/sage/internal/util"
	"github.com/vedasage/sage/pkg/ai"
	"github.com/vedasage/sage/pkg/logger"
)

// DefaultSummarizeThreshold is the message count past which a session's
// history is collapsed into a summary exchange.
const DefaultSummarizeThreshold = 20

// summaryStub is the synthetic user turn that precedes the generated summary
// after compaction.
const summaryStub = "Our current conversation summary till now"

// summarizeRetries bounds how often a failed summarization call is retried
// before the full history is kept for another turn.
const summarizeRetries = 2

// MessageLog is optional durable storage for session histories. A nil log
// keeps sessions purely in memory. Log failures never fail the chat turn.
type MessageLog interface {
	Append(ctx context.Context, sessionID string, message ai.ChatMessage) error
	Replace(ctx context.Context, sessionID string, messages []ai.ChatMessage) error
	Clear(ctx context.Context, sessionID string) error
	Load(ctx context.Context, sessionID string) ([]ai.ChatMessage, error)
}

// Session is one conversation's mutable state. All access to messages goes
// through mu; summarizing makes the background compaction single-flight.
type Session struct {
	ID string

	mu          sync.Mutex
	messages    []ai.ChatMessage
	summarizing bool
}

// Manager tracks sessions by id. Sessions lock independently, so a slow
// summarization in one conversation never blocks another.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	aiClient  ai.SageAIClient
	model     string
	threshold int
	log       MessageLog
}

type ManagerParams struct {
	AIClient  ai.SageAIClient
	Model     string
	Threshold int
	Log       MessageLog
}

func NewManager(params ManagerParams) *Manager {
	threshold := params.Threshold
	if threshold <= 0 {
		threshold = DefaultSummarizeThreshold
	}
	return &Manager{
		sessions:  make(map[string]*Session),
		aiClient:  params.AIClient,
		model:     params.Model,
		threshold: threshold,
		log:       params.Log,
	}
}

// GetOrCreate returns the tracked session for id. An untracked id with
// persisted history is rehydrated from the message log, so conversations
// survive a restart. An empty or truly unknown id allocates a fresh session
// with a new id.
func (m *Manager) GetOrCreate(ctx context.Context, id string) *Session {
	if id != "" {
		m.mu.RLock()
		s, ok := m.sessions[id]
		m.mu.RUnlock()
		if ok {
			return s
		}
		if s, ok := m.restore(ctx, id); ok {
			return s
		}
	}

	s := &Session{ID: uuid.NewString()}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// restore loads a session's persisted history from the message log. A load
// failure falls through to a fresh session rather than failing the turn.
func (m *Manager) restore(ctx context.Context, id string) (*Session, bool) {
	if m.log == nil {
		return nil, false
	}

	messages, err := m.log.Load(ctx, id)
	if err != nil {
		logger.Error("Failed to load persisted history", "session_id", id, "err", err)
		return nil, false
	}
	if len(messages) == 0 {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id]; ok {
		return existing, true
	}
	s := &Session{ID: id, messages: messages}
	m.sessions[id] = s
	logger.Info("Restored session from message log", "session_id", id, "messages", len(messages))
	return s, true
}

// Append adds a message to the session history in arrival order. Crossing
// the summarization threshold dispatches one background compaction; the
// caller is not blocked on it.
func (m *Manager) Append(ctx context.Context, s *Session, message ai.ChatMessage) {
	s.mu.Lock()
	s.messages = append(s.messages, message)
	count := len(s.messages)
	trigger := count > m.threshold && !s.summarizing
	if trigger {
		s.summarizing = true
	}
	s.mu.Unlock()

	if m.log != nil {
		if err := m.log.Append(ctx, s.ID, message); err != nil {
			logger.Error("Failed to persist chat message", "session_id", s.ID, "err", err)
		}
	}

	if trigger {
		go m.summarize(s)
	}
}

// Messages returns a snapshot of the session history.
func (m *Manager) Messages(s *Session) []ai.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]ai.ChatMessage, len(s.messages))
	copy(snapshot, s.messages)
	return snapshot
}

// Clear drops the session entirely. It reports whether the id was tracked.
func (m *Manager) Clear(ctx context.Context, id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}

	// The persisted clear happens under the session lock too, so an
	// in-flight summarization can never interleave its collapse+replace
	// with the clear and resurrect rows for a dropped session.
	s.mu.Lock()
	s.messages = nil
	if m.log != nil {
		if err := m.log.Clear(ctx, id); err != nil {
			logger.Error("Failed to clear persisted history", "session_id", id, "err", err)
		}
	}
	s.mu.Unlock()
	return true
}

// summarize collapses the history observed at dispatch time into a two
// message exchange: the fixed summary stub plus the model's summary. Turns
// appended while the model call is in flight are preserved after the
// summary. On any failure the history is left exactly as it was.
func (m *Manager) summarize(s *Session) {
	defer func() {
		s.mu.Lock()
		s.summarizing = false
		s.mu.Unlock()
	}()

	s.mu.Lock()
	snapshot := make([]ai.ChatMessage, len(s.messages))
	copy(snapshot, s.messages)
	s.mu.Unlock()

	if len(snapshot) == 0 {
		return
	}

	prompt := append(snapshot, ai.ChatMessage{
		Role:    "user",
		Message: ai.SummarizationInstruction,
	})

	ctx := context.Background()
	summary, err := util.Retry(summarizeRetries, func() (string, error) {
		return m.aiClient.GenerateChat(ctx, prompt, ai.WithModel(m.model))
	})
	if err != nil {
		logger.Error("Conversation summarization failed, keeping full history",
			"session_id", s.ID, "messages", len(snapshot), "err", err)
		return
	}

	collapsed := []ai.ChatMessage{
		{Role: "user", Message: summaryStub},
		{Role: "assistant", Message: summary},
	}

	// Collapse and persist under one lock acquisition: a Clear sliding in
	// between would otherwise see its rows resurrected by the replace.
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) < len(snapshot) {
		// The session was cleared while we were summarizing.
		return
	}
	tail := s.messages[len(snapshot):]
	s.messages = append(collapsed, tail...)
	total := len(s.messages)

	if m.log != nil {
		persisted := make([]ai.ChatMessage, len(s.messages))
		copy(persisted, s.messages)
		if err := m.log.Replace(ctx, s.ID, persisted); err != nil {
			logger.Error("Failed to persist summarized history", "session_id", s.ID, "err", err)
		}
	}

	logger.Info("Collapsed conversation history",
		"session_id", s.ID, "from", len(snapshot), "to", total)
}
