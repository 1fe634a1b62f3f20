package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/vedasage/sage/internal/server/middleware"
)

func ClearChatHandler(c echo.Context) error {
	type clearChatParams struct {
		SessionID string `param:"session_id" validate:"required"`
	}

	type clearChatResponse struct {
		Message string `json:"message"`
	}

	params := new(clearChatParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, clearChatResponse{Message: "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, clearChatResponse{Message: "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	if !app.Sessions.Clear(c.Request().Context(), params.SessionID) {
		return c.JSON(http.StatusNotFound, clearChatResponse{Message: "Session not found"})
	}

	return c.JSON(http.StatusOK, clearChatResponse{Message: "Session cleared successfully"})
}
