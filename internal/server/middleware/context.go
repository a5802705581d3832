package middleware

import (
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/lexguard/backend/internal/queue"
	"github.com/lexguard/backend/pkg/ai"
	"github.com/lexguard/backend/pkg/graph"
	"github.com/lexguard/backend/pkg/store"
)

// App bundles the long-lived dependencies handlers work with. Events and
// S3 may be nil when the respective integrations are not configured.
type App struct {
	DBConn   *pgxpool.Pool
	Storage  store.GraphStorage
	AiClient ai.GraphAIClient
	Graph    *graph.GraphClient
	Events   *queue.Publisher
	S3       *s3.Client
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{c, app})
		}
	}
}
