package enrollment

import (
	"github.com/gofiber/fiber/v2"
)

type EnrollmentController struct {
	Service EnrollmentService
}

func NewEnrollmentController(service EnrollmentService) *EnrollmentController {
	return &EnrollmentController{
		Service: service,
	}
}

func (ctrl *EnrollmentController) CreateEnrollment(c *fiber.Ctx) error {
	var rec Enrollment
	if err := c.BodyParser(&rec); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := ctrl.Service.CreateEnrollment(c.Context(), &rec); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Enrollment created successfully",
		"data":    rec,
	})
}

func (ctrl *EnrollmentController) GetEnrollment(c *fiber.Ctx) error {
	id := c.Params("id")

	rec, err := ctrl.Service.GetEnrollment(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(rec)
}

func (ctrl *EnrollmentController) ListEnrollments(c *fiber.Ctx) error {
	approvedOnly := c.Query("approved") == "true"

	recs, err := ctrl.Service.ListEnrollments(c.Context(), approvedOnly)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": recs,
	})
}

func (ctrl *EnrollmentController) ApproveEnrollment(c *fiber.Ctx) error {
	id := c.Params("id")

	var body struct {
		ApprovedBy string `json:"approved_by"`
	}
	_ = c.BodyParser(&body)

	if err := ctrl.Service.Approve(c.Context(), id, body.ApprovedBy); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Enrollment approved",
	})
}
