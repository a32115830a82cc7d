package routes

import (
	"net/http"

	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/notes"

	"github.com/labstack/echo/v4"
)

// GetNotesSchemaHandler serves the JSON schema of the student notes blob.
func GetNotesSchemaHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, notes.Schema())
}
