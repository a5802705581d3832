package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lexguard/backend/internal/queue"
	"github.com/lexguard/backend/internal/server/middleware"
	"github.com/lexguard/backend/internal/storage"
	"github.com/lexguard/backend/pkg/logger"
)

// DeleteDocumentHandler removes a document together with its entities.
func DeleteDocumentHandler(c echo.Context) error {
	type deleteDocumentResponse struct {
		Message string `json:"message"`
		Deleted bool   `json:"deleted"`
	}

	id := c.Param("id")
	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	deleted, err := app.Graph.DeleteDocument(ctx, id, app.Storage)
	if err != nil {
		logger.Error("Failed to delete document", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteDocumentResponse{
			Message: "Internal server error",
		})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, deleteDocumentResponse{
			Message: "Document not found",
			Deleted: false,
		})
	}

	if app.S3 != nil {
		if err := storage.DeleteDocumentText(ctx, app.S3, id); err != nil {
			logger.Error("Failed to delete archived document text", "id", id, "err", err)
		}
	}

	app.Events.PublishEvent(queue.TopicDocumentDeleted, map[string]any{
		"document_id": id,
	})

	return c.JSON(http.StatusOK, deleteDocumentResponse{
		Message: "Document deleted successfully",
		Deleted: true,
	})
}
