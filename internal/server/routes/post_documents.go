package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lexguard/backend/internal/queue"
	"github.com/lexguard/backend/internal/server/middleware"
	"github.com/lexguard/backend/internal/storage"
	"github.com/lexguard/backend/pkg/common"
	"github.com/lexguard/backend/pkg/graph"
	"github.com/lexguard/backend/pkg/logger"
)

// CreateDocumentHandler ingests a document: entity extraction runs inline
// and the document is returned with its extracted entity graph.
func CreateDocumentHandler(c echo.Context) error {
	type createDocumentBody struct {
		Name         string `json:"name" validate:"required,max=255"`
		Content      string `json:"content" validate:"required,max=100000"`
		DocumentType string `json:"document_type" validate:"required"`
	}

	type createDocumentResponse struct {
		Message  string           `json:"message"`
		Document *common.Document `json:"document,omitempty"`
	}

	data := new(createDocumentBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createDocumentResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createDocumentResponse{
			Message: "Invalid request body",
		})
	}

	docType, err := common.ParseDocumentType(data.DocumentType)
	if err != nil {
		return c.JSON(http.StatusBadRequest, createDocumentResponse{
			Message: "Invalid document type",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	doc, err := app.Graph.IngestDocument(ctx, graph.IngestDocumentParams{
		Name:         data.Name,
		Content:      data.Content,
		DocumentType: docType,
	}, app.AiClient, app.Storage)
	if err != nil {
		logger.Error("Failed to ingest document", "err", err)
		return c.JSON(http.StatusInternalServerError, createDocumentResponse{
			Message: "Internal server error",
		})
	}

	if app.S3 != nil {
		if _, err := storage.ArchiveDocumentText(ctx, app.S3, doc.ID, doc.Content); err != nil {
			logger.Error("Failed to archive document text", "id", doc.ID, "err", err)
		}
	}

	app.Events.PublishEvent(queue.TopicDocumentIngested, map[string]any{
		"document_id": doc.ID,
		"name":        doc.Name,
		"entities":    len(doc.Entities),
	})

	return c.JSON(http.StatusOK, createDocumentResponse{
		Message:  "Document ingested successfully",
		Document: &doc,
	})
}
