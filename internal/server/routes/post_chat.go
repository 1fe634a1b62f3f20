package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/vedasage/sage/internal/server/middleware"
	"github.com/vedasage/sage/internal/timing"
	"github.com/vedasage/sage/pkg/ai"
	"github.com/vedasage/sage/pkg/logger"
	"github.com/vedasage/sage/pkg/query"
	"github.com/vedasage/sage/pkg/store"
)

// errorFallbackMessage hides the failure detail from the end user; the
// specifics go to the log only.
const errorFallbackMessage = "Something went wrong while answering your question. Please try again."

type chatResponse struct {
	SessionID    string                  `json:"session_id"`
	Message      string                  `json:"message"`
	Sources      []string                `json:"sources"`
	ChunkDetails []query.ChunkDetail     `json:"chunkdetails"`
	Entities     query.EntityDetails     `json:"entities"`
	Communities  []store.CommunityDetail `json:"communities"`
	TotalTokens  int                     `json:"total_tokens"`
	Model        string                  `json:"model"`
	TimeTaken    float64                 `json:"time_taken"`
}

func emptyChatResponse(sessionID, message, model string, timeTaken float64) chatResponse {
	return chatResponse{
		SessionID:    sessionID,
		Message:      message,
		Sources:      []string{},
		ChunkDetails: []query.ChunkDetail{},
		Entities:     query.EntityDetails{EntityIDs: []string{}, RelationshipIDs: []string{}},
		Communities:  []store.CommunityDetail{},
		Model:        model,
		TimeTaken:    timeTaken,
	}
}

func ChatHandler(c echo.Context) error {
	type chatBody struct {
		SessionID     string   `json:"session_id"`
		Message       string   `json:"message" validate:"required"`
		DocumentNames []string `json:"document_names"`
	}

	sw := timing.Start()

	data := new(chatBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	s := app.Sessions.GetOrCreate(ctx, data.SessionID)
	history := app.Sessions.Messages(s)

	userMessage := ai.ChatMessage{Role: "user", Message: data.Message}
	app.Sessions.Append(ctx, s, userMessage)

	messages := append(history, userMessage)
	response, err := app.Engine.Ask(ctx, messages, data.DocumentNames)
	if err != nil {
		logger.Error("Chat request failed",
			"session_id", s.ID,
			"kind", string(query.Classify(err)),
			"err", err,
		)
		return c.JSON(http.StatusOK,
			emptyChatResponse(s.ID, errorFallbackMessage, app.Engine.Model, sw.Seconds()))
	}
	sw.Mark("answer")

	app.Sessions.Append(ctx, s, ai.ChatMessage{Role: "assistant", Message: response.Message})
	sw.Mark("persist")

	for _, phase := range sw.Phases() {
		logger.Debug("Chat phase timing",
			"session_id", s.ID, "phase", phase.Name, "seconds", phase.Duration.Seconds())
	}

	logger.Info("Answered chat request",
		"session_id", s.ID,
		"sources", len(response.Sources),
		"total_tokens", response.TotalTokens,
		"seconds", sw.Seconds(),
	)

	return c.JSON(http.StatusOK, chatResponse{
		SessionID:    s.ID,
		Message:      response.Message,
		Sources:      response.Sources,
		ChunkDetails: response.ChunkDetails,
		Entities:     response.Entities,
		Communities:  response.Communities,
		TotalTokens:  response.TotalTokens,
		Model:        response.Model,
		TimeTaken:    sw.Seconds(),
	})
}
