package routes

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/queue"
	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/server/middleware"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/cleaner"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/leaselock"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CleanupLeaseTTL bounds how long a cleanup may hold the school's notes lock.
var CleanupLeaseTTL = 5 * time.Minute

// CleanupHandler removes relationship entries outside the closed taxonomy
// from every student of a school.
//
// dry_run=true only reports what would change. async=true hands the run to
// the worker and returns immediately.
func CleanupHandler(c echo.Context) error {
	type dryRunEntry struct {
		StudentID string            `json:"studentId"`
		Migration cleaner.Migration `json:"migration"`
	}

	type dryRunResponse struct {
		DryRun     bool          `json:"dryRun"`
		Migrations []dryRunEntry `json:"migrations"`
	}

	type queuedResponse struct {
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id"`
	}

	schoolID, ok := bindSchool(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request params"})
	}
	dryRun, _ := strconv.ParseBool(c.QueryParam("dry_run"))
	async, _ := strconv.ParseBool(c.QueryParam("async"))

	app := c.(*middleware.AppContext).App
	user := c.(*middleware.AppContext).User

	if async && !dryRun {
		msg := queue.NewCleanupMsg(schoolID)
		if err := queue.Publish(app.Queue, queue.CleanupQueue, msg); err != nil {
			logger.Error("[Server] Failed to enqueue cleanup", "school_id", schoolID, "err", err)
			return c.JSON(http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
		}
		return c.JSON(http.StatusAccepted, queuedResponse{Message: "Cleanup queued", CorrelationID: msg.CorrelationID})
	}

	if dryRun {
		snapshot, err := loadSnapshot(c.Request().Context(), app, schoolID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
		}
		students := snapshot.Students
		sort.SliceStable(students, func(i, j int) bool { return students[i].ID < students[j].ID })
		out := dryRunResponse{DryRun: true, Migrations: []dryRunEntry{}}
		for _, st := range students {
			m := cleaner.MigrateInvalidRelationships(st.Notes)
			if m.NeedsMigration {
				out.Migrations = append(out.Migrations, dryRunEntry{StudentID: st.ID, Migration: m})
			}
		}
		return c.JSON(http.StatusOK, out)
	}

	// Cleaned blobs replace the stored ones, so the roster is read under the lease.
	var report cleaner.Report
	key := leaselock.SchoolKey(schoolID, leaselock.KindNotes)
	opts := leaselock.Options{TTL: CleanupLeaseTTL, TokenPrefix: "cleanup/" + user.UserID + "/"}
	err := app.Locks.WithLease(c.Request().Context(), key, opts, func(ctx context.Context) error {
		snapshot, err := loadSnapshot(ctx, app, schoolID)
		if err != nil {
			return err
		}
		report, err = app.Family.Clean(ctx, snapshot)
		return err
	})
	if err != nil {
		if errors.Is(err, leaselock.ErrBusy) {
			return c.JSON(http.StatusConflict, messageResponse{Message: "Another job is updating this school"})
		}
		logger.Error("[Server] Cleanup failed", "school_id", schoolID, "err", err)
		return c.JSON(http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, report)
}
