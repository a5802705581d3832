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

// GetEntitiesHandler returns all entities, optionally filtered by type.
func GetEntitiesHandler(c echo.Context) error {
	type getEntitiesResponse struct {
		Message  string          `json:"message"`
		Entities []common.Entity `json:"entities"`
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	var filter *common.EntityType
	if raw := c.QueryParam("type"); raw != "" {
		entityType, err := common.ParseEntityType(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, getEntitiesResponse{
				Message: "Invalid entity type",
			})
		}
		filter = &entityType
	}

	entities, err := app.Storage.FindEntities(ctx, filter)
	if err != nil {
		logger.Error("Failed to list entities", "err", err)
		return c.JSON(http.StatusInternalServerError, getEntitiesResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getEntitiesResponse{
		Message:  "OK",
		Entities: entities,
	})
}

// GetEntityHandler returns a single entity with its relations.
func GetEntityHandler(c echo.Context) error {
	type getEntityResponse struct {
		Message string         `json:"message"`
		Entity  *common.Entity `json:"entity,omitempty"`
	}

	id := c.Param("id")
	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	entity, err := app.Storage.FindEntityByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, getEntityResponse{
				Message: "Entity not found",
			})
		}
		logger.Error("Failed to load entity", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, getEntityResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getEntityResponse{
		Message: "OK",
		Entity:  &entity,
	})
}

// GetEntityConflictsHandler returns the conflicts an entity is involved in.
func GetEntityConflictsHandler(c echo.Context) error {
	type getEntityConflictsResponse struct {
		Message   string            `json:"message"`
		Conflicts []common.Conflict `json:"conflicts"`
	}

	id := c.Param("id")
	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	if _, err := app.Storage.FindEntityByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, getEntityConflictsResponse{
				Message: "Entity not found",
			})
		}
		logger.Error("Failed to load entity", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, getEntityConflictsResponse{
			Message: "Internal server error",
		})
	}

	conflicts, err := app.Storage.FindConflictsInvolvingEntity(ctx, id)
	if err != nil {
		logger.Error("Failed to load entity conflicts", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, getEntityConflictsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getEntityConflictsResponse{
		Message:   "OK",
		Conflicts: conflicts,
	})
}
