package routes

import (
	"context"

	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/server/middleware"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/family"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/store"

	"github.com/labstack/echo/v4"
)

type messageResponse struct {
	Message string `json:"message"`
}

type schoolParams struct {
	SchoolID string `param:"id" validate:"required"`
}

func bindSchool(c echo.Context) (string, bool) {
	params := new(schoolParams)
	if err := c.Bind(params); err != nil {
		return "", false
	}
	if err := c.Validate(params); err != nil {
		return "", false
	}
	return params.SchoolID, true
}

// loadSnapshot reads the whole roster of a school before anything is computed.
// Callers that write notes must call it while holding the school's lease.
func loadSnapshot(ctx context.Context, app *middleware.App, schoolID string) (family.Snapshot, error) {
	snapshot, err := store.LoadSnapshot(ctx, app.Storage, schoolID)
	if err != nil {
		logger.Error("[Server] Failed to load roster", "school_id", schoolID, "err", err)
		return family.Snapshot{}, err
	}
	return snapshot, nil
}
