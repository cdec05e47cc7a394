package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/medimatch/internal/knowledge"
	"github.com/terraincognita07/medimatch/internal/matcher"
	"github.com/terraincognita07/medimatch/internal/services"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var serviceErrorMappings = []errorMapping{
	{target: services.ErrTooManySymptoms, status: fiber.StatusUnprocessableEntity, code: "too_many_symptoms"},
	{target: services.ErrInvalidPatientName, status: fiber.StatusBadRequest, code: "invalid_name"},
	{target: services.ErrInvalidPatientAge, status: fiber.StatusBadRequest, code: "invalid_age"},
	{target: services.ErrInvalidPatientGender, status: fiber.StatusBadRequest, code: "invalid_gender"},
	{target: services.ErrInvalidPatientEmail, status: fiber.StatusBadRequest, code: "invalid_email"},
	{target: services.ErrInvalidPatientCity, status: fiber.StatusBadRequest, code: "invalid_city"},
	{target: knowledge.ErrConditionNotFound, status: fiber.StatusNotFound, code: "condition_not_found"},
	{target: services.ErrReportNotFound, status: fiber.StatusNotFound, code: "report_not_found"},
	{target: services.ErrReportHasNoEmail, status: fiber.StatusBadRequest, code: "email_missing"},
	{target: services.ErrInvalidEmailAddress, status: fiber.StatusBadRequest, code: "invalid_email"},
	{target: services.ErrMailDisabled, status: fiber.StatusServiceUnavailable, code: "mail_disabled"},
	{target: services.ErrMailRateLimited, status: fiber.StatusTooManyRequests, code: "mail_rate_limited"},
	{target: services.ErrMailUnavailable, status: fiber.StatusServiceUnavailable, code: "mail_unavailable"},
	{target: services.ErrMailFailed, status: fiber.StatusBadGateway, code: "mail_failed"},
}

// apiError writes {"error": code, "message": localized text}.
func (handler *Handler) apiError(c *fiber.Ctx, status int, code string) error {
	message := handler.i18n.Translate(currentLanguage(c), "error."+code)
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

// serviceError maps a service or matcher error onto a status and error code.
// Unknown errors are logged and reported as internal.
func (handler *Handler) serviceError(c *fiber.Ctx, err error) error {
	if matcher.IsInputValidation(err) {
		return handler.apiError(c, fiber.StatusUnprocessableEntity, "insufficient_symptoms")
	}
	for _, mapping := range serviceErrorMappings {
		if errors.Is(err, mapping.target) {
			return handler.apiError(c, mapping.status, mapping.code)
		}
	}

	handler.logger.WithError(err).WithField("path", c.Path()).Error("request failed")
	return handler.apiError(c, fiber.StatusInternalServerError, "internal")
}

func currentLanguage(c *fiber.Ctx) string {
	language, _ := c.Locals(contextLanguageKey).(string)
	return language
}
