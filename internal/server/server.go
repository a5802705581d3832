package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexguard/backend/internal/queue"
	mid "github.com/lexguard/backend/internal/server/middleware"
	"github.com/lexguard/backend/internal/storage"
	"github.com/lexguard/backend/internal/util"
	"github.com/lexguard/backend/pkg/ai"
	gai "github.com/lexguard/backend/pkg/ai/openai"
	oai "github.com/lexguard/backend/pkg/ai/ollama"
	"github.com/lexguard/backend/pkg/graph"
	"github.com/lexguard/backend/pkg/leaselock"
	"github.com/lexguard/backend/pkg/logger"
	pgxstore "github.com/lexguard/backend/pkg/store/pgx"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
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

func runMigrations() {
	path := util.GetEnvString("MIGRATIONS_PATH", "migrations")
	m, err := migrate.New("file://"+path, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to load migrations", "err", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Failed to apply migrations", "err", err)
	}
}

func newAIClient() ai.GraphAIClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			ExtractionModel: util.GetEnvString("AI_EXTRACT_MODEL", util.GetEnv("AI_MODEL")),
			ReasoningModel:  util.GetEnvString("AI_REASON_MODEL", util.GetEnv("AI_MODEL")),

			BaseURL: util.GetEnv("AI_BASE_URL"),
			ApiKey:  util.GetEnv("AI_API_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 1)),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			ExtractionModel: util.GetEnvString("AI_EXTRACT_MODEL", util.GetEnv("AI_MODEL")),
			ReasoningModel:  util.GetEnvString("AI_REASON_MODEL", util.GetEnv("AI_MODEL")),

			ChatURL: util.GetEnv("AI_BASE_URL"),
			ChatKey: util.GetEnv("AI_API_KEY"),
		})
	}
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runMigrations()

	conn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	storeClient, err := pgxstore.NewGraphDBStorageWithConnection(ctx, conn)
	if err != nil {
		logger.Fatal("Failed to create storage client", "err", err)
	}

	aiClient := newAIClient()

	graphClient, err := graph.NewGraphClient(graph.NewGraphClientParams{
		Locks:           leaselock.New(conn),
		MaxRetries:      int(util.GetEnvNumeric("AI_MAX_RETRIES", 3)),
		MaxPromptTokens: int(util.GetEnvNumeric("AI_MAX_TOKENS", 24000)),
	})
	if err != nil {
		logger.Fatal("Failed to create graph client", "err", err)
	}

	// Events and document archiving are optional; the API works without
	// a broker or an S3 endpoint configured.
	var events *queue.Publisher
	que, err := queue.Init()
	if err != nil {
		logger.Warn("Event queue unavailable, events disabled", "err", err)
	} else {
		defer que.Close()
		ch, err := que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		events, err = queue.NewPublisher(ch)
		if err != nil {
			logger.Fatal("Failed to declare event exchange", "err", err)
		}
	}

	s3 := storage.NewS3Client(ctx)

	e.Use(mid.AppContextMiddleware(&mid.App{
		DBConn:   conn,
		Storage:  storeClient,
		AiClient: aiClient,
		Graph:    graphClient,
		Events:   events,
		S3:       s3,
	}))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("10M"))

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
