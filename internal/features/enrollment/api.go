package enrollment

import (
	"byov-backend/internal/common/api"
	"byov-backend/internal/config"
	"byov-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type EnrollmentApi struct {
	controller *EnrollmentController
	config     *config.Config
}

func NewEnrollmentApi(controller *EnrollmentController, config *config.Config) api.Route {
	return &EnrollmentApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all enrollment routes
func (h *EnrollmentApi) Setup(app *fiber.App) {
	group := app.Group("/api/enrollments", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", h.controller.CreateEnrollment)
	group.Get("/", h.controller.ListEnrollments)
	group.Get("/:id", h.controller.GetEnrollment)
	group.Post("/:id/approve", h.controller.ApproveEnrollment)
}
