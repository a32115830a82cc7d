package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/db"
	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/queue"
	mid "github.com/projectklase/comunika-nexus-64-78-sub002/internal/server/middleware"
	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/storage"
	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/util"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/family"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/leaselock"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"
	pgdb "github.com/projectklase/comunika-nexus-64-78-sub002/pkg/store/pgx"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewEcho returns an echo instance with the shared middleware and every
// route registered against app.
func NewEcho(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("2M"))

	RegisterRoutes(e)
	return e
}

func Init() {
	databaseURL := util.GetEnv("DATABASE_URL")
	migrationsPath := util.GetEnvString("MIGRATIONS_PATH", db.DefaultMigrationsPath)
	if err := db.Migrate(databaseURL, migrationsPath); err != nil {
		logger.Fatal("Failed to run migrations", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &mid.App{
		MasterAPIKey:   util.GetEnv("MASTER_API_KEY"),
		MasterUserID:   util.GetEnv("MASTER_USER_ID"),
		MasterUserRole: util.GetEnv("MASTER_USER_ROLE"),
	}

	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err := keyfunc.NewDefault([]string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		app.Keyfunc = k.Keyfunc
	} else {
		logger.Warn("AUTH_URL not set, only the master API key is accepted")
	}

	conn, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	que, err := queue.Init()
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()
	if err := queue.SetupQueues(ch, queue.Queues); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	s3Client, err := storage.NewS3Client(ctx)
	if err != nil {
		logger.Fatal("Failed to create S3 client", "err", err)
	}

	rosterStorage := pgdb.NewRosterDBStorage(conn)
	app.Storage = rosterStorage
	app.Locks = leaselock.New(conn)
	app.Queue = ch
	app.Exporter = storage.NewExporter(storage.NewExporterParams{
		API:            s3Client,
		Presign:        s3Client,
		Bucket:         util.GetEnv("AWS_BUCKET"),
		PublicEndpoint: util.GetEnvString("AWS_PUBLIC_ENDPOINT", util.GetEnv("AWS_ENDPOINT")),
	})
	app.Family = family.NewClient(family.NewClientParams{
		Writer:     rosterStorage,
		MaxRetries: int(util.GetEnvNumeric("CLEANUP_RETRIES", 3)),
	})

	e := NewEcho(app)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
