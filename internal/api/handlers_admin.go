package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func (handler *Handler) ReloadKnowledge(c *fiber.Ctx) error {
	if handler.reloadKnowledge == nil {
		return handler.apiError(c, fiber.StatusServiceUnavailable, "reload_failed")
	}

	previous := handler.symptoms.KnowledgeVersion()
	next, err := handler.reloadKnowledge()
	if err != nil {
		handler.logger.WithError(err).Error("knowledge reload via admin endpoint failed")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "reload_failed",
			"message": handler.i18n.Translate(currentLanguage(c), "error.reload_failed"),
			"detail":  err.Error(),
			"version": previous,
		})
	}

	handler.logger.WithFields(logrus.Fields{
		"previous":   previous,
		"version":    next.Version(),
		"conditions": next.Len(),
	}).Info("knowledge base reloaded via admin endpoint")
	return c.JSON(fiber.Map{
		"ok":         true,
		"previous":   previous,
		"version":    next.Version(),
		"conditions": next.Len(),
	})
}
