package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lexguard/backend/internal/server/middleware"
	"github.com/lexguard/backend/pkg/common"
	"github.com/lexguard/backend/pkg/logger"
)

// GetConflictsHandler returns all conflicts, optionally filtered by
// severity, newest first.
func GetConflictsHandler(c echo.Context) error {
	type getConflictsResponse struct {
		Message   string            `json:"message"`
		Conflicts []common.Conflict `json:"conflicts"`
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	var (
		conflicts []common.Conflict
		err       error
	)
	if raw := c.QueryParam("severity"); raw != "" {
		severity, parseErr := common.ParseConflictSeverity(raw)
		if parseErr != nil {
			return c.JSON(http.StatusBadRequest, getConflictsResponse{
				Message: "Invalid severity",
			})
		}
		conflicts, err = app.Storage.FindConflictsBySeverity(ctx, severity)
	} else {
		conflicts, err = app.Storage.FindAllConflicts(ctx)
	}
	if err != nil {
		logger.Error("Failed to list conflicts", "err", err)
		return c.JSON(http.StatusInternalServerError, getConflictsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getConflictsResponse{
		Message:   "OK",
		Conflicts: conflicts,
	})
}
