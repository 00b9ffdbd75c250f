package document

import (
	"io"

	"github.com/gofiber/fiber/v2"
)

type DocumentController struct {
	Service DocumentService
}

func NewDocumentController(service DocumentService) *DocumentController {
	return &DocumentController{
		Service: service,
	}
}

func (ctrl *DocumentController) Upload(c *fiber.Ctx) error {
	enrollmentID := c.Params("id")
	docType := c.FormValue("doc_type")

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Error retrieving file",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Error opening file",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error reading file",
		})
	}

	doc, err := ctrl.Service.Attach(c.Context(), enrollmentID, docType, file.Filename, data)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Document uploaded successfully",
		"data":    doc,
	})
}

func (ctrl *DocumentController) List(c *fiber.Ctx) error {
	enrollmentID := c.Params("id")

	docs, err := ctrl.Service.ListForEnrollment(c.Context(), enrollmentID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": docs,
	})
}

func (ctrl *DocumentController) Delete(c *fiber.Ctx) error {
	id := c.Params("docId")

	if err := ctrl.Service.Remove(c.Context(), id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Document deleted",
	})
}
