package routes

import (
	"errors"
	"net/http"

	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/queue"
	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/server/middleware"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/store"

	"github.com/labstack/echo/v4"
)

// StudentChangedHandler queues a propagation job after a student's
// declarations were edited.
func StudentChangedHandler(c echo.Context) error {
	type studentChangedParams struct {
		SchoolID  string `param:"id" validate:"required"`
		StudentID string `param:"student_id" validate:"required"`
	}

	type studentChangedResponse struct {
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id,omitempty"`
	}

	params := new(studentChangedParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, studentChangedResponse{Message: "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, studentChangedResponse{Message: "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	if _, err := app.Storage.GetStudent(ctx, params.SchoolID, params.StudentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, studentChangedResponse{Message: "Student not found"})
		}
		logger.Error("[Server] Failed to load student", "student_id", params.StudentID, "err", err)
		return c.JSON(http.StatusInternalServerError, studentChangedResponse{Message: "Internal server error"})
	}

	msg := queue.NewPropagateMsg(params.SchoolID, params.StudentID)
	if err := queue.Publish(app.Queue, queue.PropagateQueue, msg); err != nil {
		logger.Error("[Server] Failed to enqueue propagation", "student_id", params.StudentID, "err", err)
		return c.JSON(http.StatusInternalServerError, studentChangedResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusAccepted, studentChangedResponse{
		Message:       "Propagation queued",
		CorrelationID: msg.CorrelationID,
	})
}
