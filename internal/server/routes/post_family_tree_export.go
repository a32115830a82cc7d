package routes

import (
	"net/http"
	"time"

	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/server/middleware"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/graph"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ExportFamilyTreeHandler uploads a JSON snapshot of the school's family tree
// to object storage and returns where to download it.
func ExportFamilyTreeHandler(c echo.Context) error {
	type treeSnapshot struct {
		SchoolID    string       `json:"school_id"`
		GeneratedAt time.Time    `json:"generated_at"`
		Tree        graph.Result `json:"tree"`
	}

	type exportResponse struct {
		Key string `json:"key"`
		URL string `json:"url,omitempty"`
	}

	schoolID, ok := bindSchool(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	if app.Exporter == nil {
		return c.JSON(http.StatusServiceUnavailable, messageResponse{Message: "Export is not configured"})
	}

	snapshot, err := loadSnapshot(c.Request().Context(), app, schoolID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
	}

	payload := treeSnapshot{
		SchoolID:    schoolID,
		GeneratedAt: time.Now().UTC(),
		Tree:        app.Family.BuildTree(snapshot, nil),
	}
	export, err := app.Exporter.ExportTree(c.Request().Context(), schoolID, payload)
	if err != nil {
		logger.Error("[Server] Failed to export family tree", "school_id", schoolID, "err", err)
		return c.JSON(http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusCreated, exportResponse{Key: export.Key, URL: export.URL})
}
