package middleware

import (
	"context"

	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/queue"
	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/storage"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/family"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/leaselock"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type AppUser struct {
	UserID      string
	Role        string
	Permissions []string
	SchoolIDs   []string
}

// Locker is satisfied by *leaselock.Client.
type Locker interface {
	WithLease(ctx context.Context, key string, opts leaselock.Options, fn func(ctx context.Context) error) error
}

// TreeExporter is satisfied by *storage.Exporter.
type TreeExporter interface {
	ExportTree(ctx context.Context, schoolID string, payload any) (storage.Export, error)
}

// App holds the dependencies shared by every request.
type App struct {
	Storage  store.RosterStorage
	Family   *family.Client
	Locks    Locker
	Queue    queue.Publisher
	Exporter TreeExporter
	Keyfunc  jwt.Keyfunc

	MasterAPIKey   string
	MasterUserID   string
	MasterUserRole string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
