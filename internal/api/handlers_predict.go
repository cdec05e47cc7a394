package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/medimatch/internal/models"
	"github.com/terraincognita07/medimatch/internal/services"
)

func (handler *Handler) Predict(c *fiber.Ctx) error {
	input := predictInput{}
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_input")
	}

	prediction, err := handler.predictions.Predict(c.UserContext(), services.PredictionRequest{
		Patient: services.PatientDetails{
			Name:   input.Name,
			Age:    input.Age,
			Gender: input.Gender,
			Email:  input.Email,
			City:   input.City,
		},
		Symptoms: input.Symptoms,
	})
	if err != nil {
		return handler.serviceError(c, err)
	}

	now := handler.now()
	token, err := handler.buildReportToken(prediction.Report.PublicID, now)
	if err != nil {
		return handler.serviceError(c, err)
	}

	previous := handler.readPreviousSymptoms(c)
	handler.setPreviousSymptoms(c, prediction.Input.Tokens)

	return c.JSON(handler.buildPredictionPayload(c, prediction, previous, token))
}

func (handler *Handler) GetPreviousSymptoms(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"symptoms": handler.readPreviousSymptoms(c)})
}

func (handler *Handler) buildPredictionPayload(c *fiber.Ctx, prediction services.Prediction, previous []string, token string) predictionPayload {
	result := prediction.Result
	payload := predictionPayload{
		ReportID:         prediction.Report.PublicID,
		Reference:        prediction.Report.Reference,
		Matched:          result.Matched,
		Score:            result.Score,
		Overlap:          result.Overlap,
		Symptoms:         prediction.Input.Tokens,
		Unrecognized:     prediction.Input.Unrecognized,
		Alternatives:     make([]alternativePayload, 0, len(prediction.Alternatives)),
		Facilities:       prediction.Facilities,
		PreviousSymptoms: previous,
		KnowledgeVersion: prediction.KnowledgeVersion,
		ReportToken:      token,
		ReportTokenTTL:   int64(handler.reportTokenTTL.Seconds()),
	}
	if payload.Facilities == nil {
		payload.Facilities = []models.Facility{}
	}

	if result.Matched {
		payload.Condition = result.Condition.Name
		payload.Explanation = result.Condition.Explanation
		payload.Guidance = result.Condition.Guidance
	} else {
		language := currentLanguage(c)
		payload.Message = handler.i18n.Translate(language, "report.no_match")
		payload.Guidance = handler.i18n.Translate(language, "report.no_match_guidance")
	}

	for _, alternative := range prediction.Alternatives {
		payload.Alternatives = append(payload.Alternatives, alternativePayload{
			Condition: alternative.Condition.Name,
			Score:     alternative.Score,
			Overlap:   alternative.Overlap,
		})
	}
	return payload
}

// readPreviousSymptoms returns the symptoms of the caller's last prediction,
// or an empty list when the cookie is missing or cannot be opened.
func (handler *Handler) readPreviousSymptoms(c *fiber.Ctx) []string {
	raw := strings.TrimSpace(c.Cookies(previousSymptomsCookieName))
	if raw == "" {
		return []string{}
	}

	payload := previousSymptomsPayload{}
	if err := handler.cookies.openJSON(previousSymptomsCookieName, raw, &payload); err != nil {
		handler.clearPreviousSymptoms(c)
		return []string{}
	}
	if payload.Symptoms == nil {
		return []string{}
	}
	return payload.Symptoms
}

func (handler *Handler) setPreviousSymptoms(c *fiber.Ctx, symptoms []string) {
	value, err := handler.cookies.sealJSON(previousSymptomsCookieName, previousSymptomsPayload{
		Symptoms: symptoms,
		SavedAt:  handler.now().UTC(),
	})
	if err != nil {
		handler.logger.WithError(err).Warn("seal previous symptoms cookie")
		return
	}

	c.Cookie(&fiber.Cookie{
		Name:     previousSymptomsCookieName,
		Value:    value,
		Path:     "/api",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  handler.now().AddDate(0, 0, 30),
	})
}

func (handler *Handler) clearPreviousSymptoms(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     previousSymptomsCookieName,
		Value:    "",
		Path:     "/api",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  handler.now().Add(-time.Hour),
	})
	handler.logger.WithFields(logrus.Fields{"ip": c.IP()}).Debug("discarded unreadable previous symptoms cookie")
}
