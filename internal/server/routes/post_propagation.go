package routes

import (
	"net/http"
	"strings"

	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// PropagationHandler returns the relationships one inference pass would add.
// Nothing is persisted; the worker applies results after a student changes.
func PropagationHandler(c echo.Context) error {
	type propagationParams struct {
		SchoolID  string `param:"id" validate:"required"`
		StudentID string `json:"student_id"`
	}

	params := new(propagationParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request params"})
	}
	params.StudentID = strings.TrimSpace(params.StudentID)

	snapshot, err := loadSnapshot(c.Request().Context(), c.(*middleware.AppContext).App, params.SchoolID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
	}

	fam := c.(*middleware.AppContext).App.Family
	if params.StudentID == "" {
		return c.JSON(http.StatusOK, fam.Propagate(snapshot))
	}

	if _, ok := snapshot.Index().Student(params.StudentID); !ok {
		return c.JSON(http.StatusNotFound, messageResponse{Message: "Student not found"})
	}
	return c.JSON(http.StatusOK, fam.PropagateForStudent(snapshot, params.StudentID))
}
