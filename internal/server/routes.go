package server

import (
	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/server/middleware"
	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	apiRoutes.GET("/schemas/notes", routes.GetNotesSchemaHandler)

	// School roster routes
	schoolRoutes := apiRoutes.Group("/schools/:id", middleware.RequireSchoolAccess)
	schoolRoutes.GET("/diagnosis", routes.GetDiagnosisHandler, middleware.RequirePermission("family.view"))
	schoolRoutes.POST("/cleanup", routes.CleanupHandler, middleware.RequirePermission("family.manage"))
	schoolRoutes.POST("/propagation", routes.PropagationHandler, middleware.RequireAnyPermission("family.view", "family.manage"))
	schoolRoutes.POST("/students/:student_id/changed", routes.StudentChangedHandler, middleware.RequirePermission("family.manage"))

	// Family tree routes
	schoolRoutes.GET("/family-tree", routes.GetFamilyTreeHandler, middleware.RequirePermission("family.view"))
	schoolRoutes.POST("/family-tree/export", routes.ExportFamilyTreeHandler, middleware.RequirePermission("family.export"))
}
