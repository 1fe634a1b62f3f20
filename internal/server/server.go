package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/vedasage/sage/internal/db"
	mid "github.com/vedasage/sage/internal/server/middleware"
	"github.com/vedasage/sage/internal/session"
	"github.com/vedasage/sage/internal/util"
	"github.com/vedasage/sage/pkg/ai"
	oai "github.com/vedasage/sage/pkg/ai/ollama"
	gai "github.com/vedasage/sage/pkg/ai/openai"
	"github.com/vedasage/sage/pkg/logger"
	"github.com/vedasage/sage/pkg/query"
	storepgx "github.com/vedasage/sage/pkg/store/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func newAIClient() ai.SageAIClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oai.NewSageOllamaClient(oai.NewSageOllamaClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			BaseURL:        util.GetEnv("AI_CHAT_URL"),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewSageOpenAIClient(gai.NewSageOpenAIClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			SpeechModel:    util.GetEnvString("AI_SPEECH_MODEL", "tts-1"),
			SpeechVoice:    util.GetEnvString("AI_SPEECH_VOICE", "alloy"),

			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),
			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
		})
	}
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseURL := util.GetEnv("DATABASE_URL")
	if err := db.RunMigrations(databaseURL, util.GetEnvString("MIGRATIONS_PATH", "migrations")); err != nil {
		logger.Fatal("Failed to run migrations", "err", err)
	}

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		logger.Fatal("Failed to parse database url", "err", err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	conn, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	aiClient := newAIClient()
	model := util.GetEnvString("AI_CHAT_MODEL", "gpt-4o")

	engine := query.NewEngine(aiClient, storepgx.NewGraphDBStorage(conn), query.FromEnv(), model)
	sessions := session.NewManager(session.ManagerParams{
		AIClient:  aiClient,
		Model:     model,
		Threshold: util.GetEnvInt("SUMMARIZE_THRESHOLD", session.DefaultSummarizeThreshold),
		Log:       db.NewChatMessageLog(conn),
	})

	app := &mid.App{
		DBConn:       conn,
		AiClient:     aiClient,
		Engine:       engine,
		Sessions:     sessions,
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
