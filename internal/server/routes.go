package server

import (
	"github.com/labstack/echo/v4"

	"github.com/vedasage/sage/internal/server/middleware"
	"github.com/vedasage/sage/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Chat routes
	apiRoutes.POST("/chat", routes.ChatHandler)
	apiRoutes.DELETE("/chat/:session_id", routes.ClearChatHandler)
	apiRoutes.GET("/examples", routes.GetExamplesHandler)

	// Audio side feature
	apiRoutes.POST("/audio", routes.GenerateAudioHandler)
}
