package dashsync

import (
	"byov-backend/internal/common/api"
	"byov-backend/internal/config"
	"byov-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SyncApi struct {
	controller *SyncController
	config     *config.Config
}

func NewSyncApi(controller *SyncController, config *config.Config) api.Route {
	return &SyncApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all dashboard sync routes
func (h *SyncApi) Setup(app *fiber.App) {
	group := app.Group("/api/sync", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/enrollments/:id/push", h.controller.Push)
	group.Post("/enrollments/:id/push-inline", h.controller.PushInline)
	group.Post("/enrollments/:id/retry", h.controller.Retry)
	group.Post("/enrollments/:id/update", h.controller.PushUpdate)
	group.Get("/enrollments/:id/report", h.controller.Report)
	group.Get("/enrollments/:id/logs", h.controller.Logs)
	group.Get("/pull", h.controller.Pull)
}
