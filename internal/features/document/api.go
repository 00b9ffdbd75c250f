package document

import (
	"byov-backend/internal/common/api"
	"byov-backend/internal/config"
	"byov-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DocumentApi struct {
	controller *DocumentController
	config     *config.Config
}

func NewDocumentApi(controller *DocumentController, config *config.Config) api.Route {
	return &DocumentApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all document routes
func (h *DocumentApi) Setup(app *fiber.App) {
	group := app.Group("/api/enrollments/:id/documents", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", h.controller.Upload)
	group.Get("/", h.controller.List)
	group.Delete("/:docId", h.controller.Delete)
}
