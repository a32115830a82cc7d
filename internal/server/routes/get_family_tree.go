package routes

import (
	"net/http"

	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

func GetFamilyTreeHandler(c echo.Context) error {
	schoolID, ok := bindSchool(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request params"})
	}

	snapshot, err := loadSnapshot(c.Request().Context(), c.(*middleware.AppContext).App, schoolID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
	}

	tree := c.(*middleware.AppContext).App.Family.BuildTree(snapshot, nil)
	return c.JSON(http.StatusOK, tree)
}
