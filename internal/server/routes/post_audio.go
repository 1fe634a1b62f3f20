package routes

import (
	"fmt"
	"net/http"
	"strings"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/vedasage/sage/internal/server/middleware"
	"github.com/vedasage/sage/pkg/ai"
	"github.com/vedasage/sage/pkg/logger"
)

const defaultAudioLanguage = "Hindi"

// GenerateAudioHandler translates an answer into the requested language and
// renders it as mp3 speech.
func GenerateAudioHandler(c echo.Context) error {
	type audioBody struct {
		Text     string `json:"text" validate:"required"`
		Language string `json:"language"`
	}

	type audioErrorResponse struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}

	data := new(audioBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, audioErrorResponse{Status: "error", Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, audioErrorResponse{Status: "error", Message: "Invalid request body"})
	}

	// Answers may carry a trailing "(Model: …)" annotation added by
	// clients; it is not part of the spoken text.
	text := data.Text
	if i := strings.Index(text, "(Model:"); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	language := data.Language
	if language == "" {
		language = defaultAudioLanguage
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	translated, err := app.AiClient.GenerateCompletion(ctx,
		fmt.Sprintf(ai.TranslationTemplate, language, text))
	if err != nil {
		logger.Error("Failed to translate answer", "language", language, "err", err)
		return c.JSON(http.StatusInternalServerError,
			audioErrorResponse{Status: "error", Message: "Translation failed"})
	}

	audio, err := app.AiClient.GenerateSpeech(ctx, translated)
	if err != nil {
		logger.Error("Failed to synthesize speech", "language", language, "err", err)
		return c.JSON(http.StatusInternalServerError,
			audioErrorResponse{Status: "error", Message: "Speech synthesis failed"})
	}

	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}
