package routes

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lexguard/backend/internal/queue"
	"github.com/lexguard/backend/internal/server/middleware"
	"github.com/lexguard/backend/pkg/ai"
	"github.com/lexguard/backend/pkg/common"
	"github.com/lexguard/backend/pkg/logger"
)

// AnalyzeDocumentsHandler runs conflict analysis over a set of documents.
// When the reasoning backend is unreachable the request fails with 503 and
// a Retry-After header instead of a permanent error.
func AnalyzeDocumentsHandler(c echo.Context) error {
	type analyzeDocumentsBody struct {
		DocumentIDs []string `json:"document_ids" validate:"required,min=1,max=10,dive,required"`
	}

	type analyzeDocumentsResponse struct {
		Message    string            `json:"message"`
		Conflicts  []common.Conflict `json:"conflicts"`
		Summary    string            `json:"summary,omitempty"`
		AnalyzedAt *time.Time        `json:"analyzed_at,omitempty"`
	}

	data := new(analyzeDocumentsBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, analyzeDocumentsResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, analyzeDocumentsResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	result, err := app.Graph.AnalyzeConflicts(ctx, data.DocumentIDs, app.AiClient, app.Storage)
	if err != nil {
		var unavailable *ai.UnavailableError
		if errors.As(err, &unavailable) {
			retryAfter := int(unavailable.RetryAfter.Seconds())
			c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
			return c.JSON(http.StatusServiceUnavailable, analyzeDocumentsResponse{
				Message: "Conflict analysis is temporarily unavailable, please retry",
			})
		}
		logger.Error("Failed to analyze documents", "err", err)
		return c.JSON(http.StatusInternalServerError, analyzeDocumentsResponse{
			Message: "Internal server error",
		})
	}

	for _, conflict := range result.Conflicts {
		app.Events.PublishEvent(queue.TopicConflictDetected, map[string]any{
			"conflict_id": conflict.ID,
			"severity":    conflict.Severity,
			"entities":    conflict.EntityIDs(),
		})
	}

	return c.JSON(http.StatusOK, analyzeDocumentsResponse{
		Message:    "Analysis completed",
		Conflicts:  result.Conflicts,
		Summary:    result.Summary,
		AnalyzedAt: &result.AnalyzedAt,
	})
}
