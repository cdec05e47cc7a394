package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"knowledge": handler.symptoms.KnowledgeVersion(),
	})
}

func (handler *Handler) NotFound(c *fiber.Ctx) error {
	return handler.apiError(c, fiber.StatusNotFound, "not_found")
}

// ErrorHandler is the fiber.Config error handler. It keeps the JSON error
// shape for errors returned by middleware and fiber itself.
func (handler *Handler) ErrorHandler(c *fiber.Ctx, err error) error {
	if fiberErr, ok := err.(*fiber.Error); ok {
		code := strings.ReplaceAll(strings.ToLower(fiberErr.Message), " ", "_")
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": code, "message": fiberErr.Message})
	}
	return handler.serviceError(c, err)
}
