package middleware

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/vedasage/sage/internal/session"
	"github.com/vedasage/sage/pkg/ai"
	"github.com/vedasage/sage/pkg/query"
)

// App bundles the process-wide collaborators every handler needs.
type App struct {
	DBConn       *pgxpool.Pool
	AiClient     ai.SageAIClient
	Engine       *query.Engine
	Sessions     *session.Manager
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
