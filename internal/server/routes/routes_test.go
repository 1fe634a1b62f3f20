package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/vedasage/sage/internal/server/middleware"
	"github.com/vedasage/sage/internal/session"
	"github.com/vedasage/sage/pkg/ai"
	"github.com/vedasage/sage/pkg/query"
	"github.com/vedasage/sage/pkg/store"
)

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i any) error {
	return v.validator.Struct(i)
}

type testAIClient struct {
	answer  string
	chatErr error
}

func (t *testAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return t.answer, t.chatErr
}

func (t *testAIClient) GenerateChat(ctx context.Context, messages []ai.ChatMessage, opts ...ai.GenerateOption) (string, error) {
	return t.answer, t.chatErr
}

func (t *testAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (t *testAIClient) GenerateSpeech(ctx context.Context, text string, opts ...ai.GenerateOption) ([]byte, error) {
	return []byte("mp3"), nil
}

func (t *testAIClient) ResetMetrics() {}

func (t *testAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

type testGraphStore struct {
	matches   []store.ChunkMatch
	searchErr error
}

func (t *testGraphStore) SimilaritySearch(ctx context.Context, embedding []float32, opts store.SimilaritySearchOptions) ([]store.ChunkMatch, error) {
	return t.matches, t.searchErr
}

func (t *testGraphStore) TopEntities(ctx context.Context, chunkIDs []string, queryEmbedding []float32, limit int) ([]store.EntityCandidate, error) {
	return nil, nil
}

func (t *testGraphStore) ExpandEntity(ctx context.Context, entityID int64, hops int, maxPaths int) (store.Expansion, error) {
	return store.Expansion{}, nil
}

func (t *testGraphStore) ChunkCommunities(ctx context.Context, chunkIDs []string) ([]store.CommunityDetail, error) {
	return nil, nil
}

func newTestContext(t *testing.T, graphStore store.GraphStore, aiClient ai.SageAIClient, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	engine := query.NewEngine(aiClient, graphStore, query.DefaultConfig(), "gpt-4o")
	app := &middleware.App{
		AiClient: aiClient,
		Engine:   engine,
		Sessions: session.NewManager(session.ManagerParams{AIClient: aiClient, Model: "gpt-4o"}),
	}
	c := e.NewContext(req, rec)
	return &middleware.AppContext{Context: c, App: app}, rec
}

func TestChatHandlerNoDocuments(t *testing.T) {
	t.Parallel()

	c, rec := newTestContext(t, &testGraphStore{}, &testAIClient{answer: "unused"},
		http.MethodPost, "/api/chat", `{"message":"Who was Shakuni?"}`)

	if err := ChatHandler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Message != query.NoDocumentsMessage {
		t.Errorf("message = %q, want the no-documents fallback", body.Message)
	}
	if body.SessionID == "" {
		t.Error("response must allocate a session id")
	}
	if body.Sources == nil || body.ChunkDetails == nil || body.Communities == nil {
		t.Error("fallback response must serialize empty arrays, not null")
	}
}

func TestChatHandlerFailureShape(t *testing.T) {
	t.Parallel()

	graphStore := &testGraphStore{searchErr: fmt.Errorf("connection refused")}
	c, rec := newTestContext(t, graphStore, &testAIClient{answer: "unused"},
		http.MethodPost, "/api/chat", `{"message":"Who was Shakuni?"}`)

	if err := ChatHandler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want the success shape even on failure", rec.Code)
	}

	var body chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Message != errorFallbackMessage {
		t.Errorf("message = %q, want the neutral failure text", body.Message)
	}
	if strings.Contains(body.Message, "connection refused") {
		t.Error("failure detail leaked to the user")
	}
	if len(body.Sources) != 0 || len(body.ChunkDetails) != 0 {
		t.Errorf("failure response carries data: %+v", body)
	}
}

func TestChatHandlerRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	c, rec := newTestContext(t, &testGraphStore{}, &testAIClient{},
		http.MethodPost, "/api/chat", `{"message":""}`)

	if err := ChatHandler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetExamplesHandler(t *testing.T) {
	t.Parallel()

	c, rec := newTestContext(t, &testGraphStore{}, &testAIClient{},
		http.MethodGet, "/api/examples", "")

	if err := GetExamplesHandler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var body map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body["examples"]) != 10 {
		t.Errorf("got %d examples, want 10", len(body["examples"]))
	}
}

func TestClearChatHandlerUnknownSession(t *testing.T) {
	t.Parallel()

	c, rec := newTestContext(t, &testGraphStore{}, &testAIClient{},
		http.MethodDelete, "/api/chat/nope", "")
	c.SetParamNames("session_id")
	c.SetParamValues("nope")

	if err := ClearChatHandler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
