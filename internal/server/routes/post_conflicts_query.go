package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lexguard/backend/internal/server/middleware"
	"github.com/lexguard/backend/pkg/common"
	"github.com/lexguard/backend/pkg/logger"
)

// QueryConflictsHandler returns the distinct conflicts involving entities
// of the given documents.
func QueryConflictsHandler(c echo.Context) error {
	type queryConflictsBody struct {
		DocumentIDs []string `json:"document_ids" validate:"required,min=1,max=10,dive,required"`
	}

	type queryConflictsResponse struct {
		Message   string            `json:"message"`
		Conflicts []common.Conflict `json:"conflicts"`
	}

	data := new(queryConflictsBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryConflictsResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryConflictsResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	conflicts, err := app.Storage.FindConflictsForDocuments(ctx, data.DocumentIDs)
	if err != nil {
		logger.Error("Failed to query conflicts for documents", "err", err)
		return c.JSON(http.StatusInternalServerError, queryConflictsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, queryConflictsResponse{
		Message:   "OK",
		Conflicts: conflicts,
	})
}
