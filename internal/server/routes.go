package server

import (
	"github.com/lexguard/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Document routes
	apiRoutes.POST("/documents", routes.CreateDocumentHandler)
	apiRoutes.GET("/documents", routes.GetDocumentsHandler)
	apiRoutes.GET("/documents/:id", routes.GetDocumentHandler)
	apiRoutes.DELETE("/documents/:id", routes.DeleteDocumentHandler)
	apiRoutes.POST("/documents/analyze", routes.AnalyzeDocumentsHandler)

	// Entity routes
	apiRoutes.GET("/entities", routes.GetEntitiesHandler)
	apiRoutes.GET("/entities/:id", routes.GetEntityHandler)
	apiRoutes.GET("/entities/:id/conflicts", routes.GetEntityConflictsHandler)

	// Conflict routes
	apiRoutes.GET("/conflicts", routes.GetConflictsHandler)
	apiRoutes.POST("/conflicts/query", routes.QueryConflictsHandler)
	apiRoutes.DELETE("/conflicts/:id", routes.DeleteConflictHandler)
}
