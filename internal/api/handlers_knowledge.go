package api

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
)

func (handler *Handler) GetSymptoms(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"knowledge_version": handler.symptoms.KnowledgeVersion(),
		"symptoms":          handler.symptoms.ListSymptoms(),
	})
}

func (handler *Handler) GetConditions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"knowledge_version": handler.symptoms.KnowledgeVersion(),
		"conditions":        handler.symptoms.ListConditions(),
	})
}

func (handler *Handler) GetCondition(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_input")
	}
	condition, err := handler.symptoms.FindCondition(name)
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(condition)
}

func (handler *Handler) GetFacilities(c *fiber.Ctx) error {
	if handler.facilities == nil {
		return c.JSON(fiber.Map{"facilities": []any{}})
	}
	facilities, err := handler.facilities.Recommend(c.UserContext(), c.Query("city"))
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(fiber.Map{"facilities": facilities})
}
