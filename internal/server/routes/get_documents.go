package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lexguard/backend/internal/server/middleware"
	"github.com/lexguard/backend/pkg/common"
	"github.com/lexguard/backend/pkg/logger"
	"github.com/lexguard/backend/pkg/store"
)

// GetDocumentsHandler returns all documents, newest first.
func GetDocumentsHandler(c echo.Context) error {
	type getDocumentsResponse struct {
		Message   string            `json:"message"`
		Documents []common.Document `json:"documents"`
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	docs, err := app.Storage.FindAllDocuments(ctx)
	if err != nil {
		logger.Error("Failed to list documents", "err", err)
		return c.JSON(http.StatusInternalServerError, getDocumentsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getDocumentsResponse{
		Message:   "OK",
		Documents: docs,
	})
}

// GetDocumentHandler returns a single document with its entity graph.
func GetDocumentHandler(c echo.Context) error {
	type getDocumentResponse struct {
		Message  string           `json:"message"`
		Document *common.Document `json:"document,omitempty"`
	}

	id := c.Param("id")
	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	doc, err := app.Storage.FindDocumentByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, getDocumentResponse{
				Message: "Document not found",
			})
		}
		logger.Error("Failed to load document", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, getDocumentResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getDocumentResponse{
		Message:  "OK",
		Document: &doc,
	})
}
