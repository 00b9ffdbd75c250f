package dashsync

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type SyncController struct {
	Service SyncService
}

func NewSyncController(service SyncService) *SyncController {
	return &SyncController{
		Service: service,
	}
}

func (ctrl *SyncController) Push(c *fiber.Ctx) error {
	id := c.Params("id")

	result, err := ctrl.Service.Push(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	status := fiber.StatusCreated
	if result.Status == StatusExists {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(result)
}

func (ctrl *SyncController) PushInline(c *fiber.Ctx) error {
	id := c.Params("id")

	result, err := ctrl.Service.PushInline(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	status := fiber.StatusCreated
	switch result.Status {
	case StatusExists:
		status = fiber.StatusOK
	case StatusPartial:
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(result)
}

func (ctrl *SyncController) Retry(c *fiber.Ctx) error {
	id := c.Params("id")

	result, err := ctrl.Service.RetryFailed(c.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotSynced) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(result)
}

func (ctrl *SyncController) PushUpdate(c *fiber.Ctx) error {
	id := c.Params("id")

	result, err := ctrl.Service.PushUpdate(c.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotSynced) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(result)
}

func (ctrl *SyncController) Report(c *fiber.Ctx) error {
	id := c.Params("id")

	report, err := ctrl.Service.LastReport(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if report == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no sync report for this enrollment",
		})
	}

	return c.JSON(report)
}

func (ctrl *SyncController) Logs(c *fiber.Ctx) error {
	id := c.Params("id")

	logs, err := ctrl.Service.Logs(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": logs,
	})
}

func (ctrl *SyncController) Pull(c *fiber.Ctx) error {
	techID := c.Query("techId")

	body, err := ctrl.Service.Pull(c.Context(), techID)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}
