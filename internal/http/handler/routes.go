package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"channelapi/internal/model"
	"channelapi/internal/service"
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Auth            service.AuthService
	Channels        service.ChannelService
	Transformations service.TransformationService
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. requireAuth guards every
// /api route except register and login.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc Services, requireAuth fiber.Handler) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", Register(svc.Auth))
	authGroup.Post("/login", Login(svc.Auth))
	authGroup.Get("/me", requireAuth, Me(svc.Auth))

	channels := api.Group("/channels", requireAuth)
	channels.Get("/", ListChannels(svc.Channels))
	channels.Post("/", CreateChannel(svc.Channels))
	channels.Get("/:id", GetChannel(svc.Channels))
	channels.Delete("/:id", DeleteChannel(svc.Channels))
	channels.Post("/:id/transform", TransformDocument(svc.Channels))
	channels.Get("/:id/transformations", ListTransformations(svc.Transformations))

	transformations := api.Group("/transformations", requireAuth)
	transformations.Get("/:id", GetTransformation(svc.Transformations))
	transformations.Get("/:id/download", DownloadTransformation(svc.Transformations))
	transformations.Get("/:id/artifact", StreamArtifact(svc.Transformations))

	api.Get("/stats", requireAuth, GetStats(svc.Transformations))

	api.Post("/upload", requireAuth, UploadPreview(svc.Channels, model.FormatXML))
	api.Post("/upload/json", requireAuth, UploadPreview(svc.Channels, model.FormatJSON))
}
