package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lexguard/backend/internal/server/middleware"
	"github.com/lexguard/backend/pkg/logger"
)

// DeleteConflictHandler dismisses a detected conflict.
func DeleteConflictHandler(c echo.Context) error {
	type deleteConflictResponse struct {
		Message string `json:"message"`
		Deleted bool   `json:"deleted"`
	}

	id := c.Param("id")
	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	deleted, err := app.Storage.DeleteConflict(ctx, id)
	if err != nil {
		logger.Error("Failed to delete conflict", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteConflictResponse{
			Message: "Internal server error",
		})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, deleteConflictResponse{
			Message: "Conflict not found",
			Deleted: false,
		})
	}

	return c.JSON(http.StatusOK, deleteConflictResponse{
		Message: "Conflict deleted successfully",
		Deleted: true,
	})
}
