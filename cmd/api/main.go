package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"channelapi/docs"
	"channelapi/internal/auth"
	"channelapi/internal/config"
	"channelapi/internal/database"
	"channelapi/internal/database/migration"
	"channelapi/internal/engine"
	handlers "channelapi/internal/http/handler"
	"channelapi/internal/http/middleware"
	"channelapi/internal/logging"
	"channelapi/internal/metrics"
	"channelapi/internal/otel"
	"channelapi/internal/repository/postgres"
	"channelapi/internal/service"
	"channelapi/internal/storage"
)

// multipart framing on top of the document itself
const uploadOverhead = 64 << 10

// connectDB is replaced in tests.
var connectDB = database.NewPostgres

// @title                      Channel API
// @version                    1.0
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	logger := logging.Init(cfg.Location(), logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg, logger)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// run wires the service and serves until ctx is cancelled or the listener fails. Startup errors
// are logged under their own event and returned after the resources opened so far are released.
func run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	loc := cfg.Location()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		return failed(logger, "tracing_init_failed", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("tracing_shutdown_failed", "error_message", err.Error())
		}
	}()

	db, err := connectDB(ctx, cfg.Database, logger)
	if err != nil {
		return failed(logger, "db_connect_failed", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
		return failed(logger, "db_migration_failed", err)
	}

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		return failed(logger, "storage_init_failed", err)
	}

	absent, err := engine.ParseAbsentPolicy(cfg.Transform.AbsentPolicy)
	if err != nil {
		return failed(logger, "config_invalid", err)
	}

	transformMetrics, err := metrics.NewTransformMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return failed(logger, "metrics_init_failed", err)
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return failed(logger, "metrics_init_failed", err)
	}

	issuer, err := auth.NewIssuer(cfg.Auth)
	if err != nil {
		return failed(logger, "auth_init_failed", err)
	}
	// Repositories and services
	channelRepo := postgres.NewChannelPostgres(db)
	transformRepo := postgres.NewTransformationPostgres(db)
	userRepo := postgres.NewUserPostgres(db)

	svc := handlers.Services{
		Auth: service.NewAuthService(userRepo, issuer, cfg.Auth.BcryptCost),
		Channels: service.NewChannelService(channelRepo, transformRepo, objStore, engine.New(absent),
			service.ChannelServiceConfig{
				MaxDocumentBytes: int64(cfg.Transform.MaxUploadBytes),
				Metrics:          transformMetrics,
				Logger:           logger,
			}),
		Transformations: service.NewTransformationService(channelRepo, transformRepo, objStore,
			service.TransformationServiceConfig{
				Location:      loc,
				PresignExpiry: cfg.MinIO.PresignExpiry(),
			}),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             cfg.Transform.MaxUploadBytes + uploadOverhead,
		DisableStartupMessage: true,
	})

	// Global middleware: tracing first so request logs and metrics run inside the server span
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || c.Path() == "/healthz"
	})))
	app.Use(middleware.RequestID())
	app.Use(middleware.LoggerWithLogger(logger))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, db, svc, middleware.RequireAuth(issuer))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_started", "addr", addr, "absent_policy", string(absent))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return failed(logger, "server_failed", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("server_stopping")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error_message", err.Error())
	}
	logger.Info("server_stopped")
	return nil
}

func failed(logger *slog.Logger, event string, err error) error {
	logger.Error(event, "error_message", err.Error())
	return fmt.Errorf("%s: %w", event, err)
}
