package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/medimatch/internal/models"
	"github.com/terraincognita07/medimatch/internal/services"
)

func (handler *Handler) loadReport(c *fiber.Ctx) (models.Report, error) {
	publicID, _ := c.Locals(contextReportIDKey).(string)
	return handler.predictions.FindReport(c.UserContext(), publicID)
}

func (handler *Handler) DownloadReportText(c *fiber.Ctx) error {
	report, err := handler.loadReport(c)
	if err != nil {
		return handler.serviceError(c, err)
	}

	text := handler.reports.RenderText(report, currentLanguage(c))
	c.Set(fiber.HeaderContentDisposition, attachmentDisposition(services.ReportFilename(report, "txt")))
	c.Type("txt", "utf-8")
	return c.SendString(text)
}

func (handler *Handler) DownloadReportJSON(c *fiber.Ctx) error {
	report, err := handler.loadReport(c)
	if err != nil {
		return handler.serviceError(c, err)
	}

	c.Set(fiber.HeaderContentDisposition, attachmentDisposition(services.ReportFilename(report, "json")))
	return c.JSON(handler.reports.BuildDocument(report))
}

func (handler *Handler) EmailReport(c *fiber.Ctx) error {
	input := emailReportInput{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return handler.apiError(c, fiber.StatusBadRequest, "invalid_input")
		}
	}

	report, err := handler.loadReport(c)
	if err != nil {
		return handler.serviceError(c, err)
	}
	if handler.notifications == nil {
		return handler.serviceError(c, services.ErrMailDisabled)
	}
	if err := handler.notifications.SendReport(c.UserContext(), report, input.Email, currentLanguage(c)); err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "email_status": models.EmailStatusSent})
}

func (handler *Handler) ExportCSV(c *fiber.Ctx) error {
	limit := exportReportLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return handler.apiError(c, fiber.StatusBadRequest, "invalid_input")
		}
		limit = min(parsed, exportReportLimit)
	}

	reports, err := handler.predictions.RecentReports(c.UserContext(), limit)
	if err != nil {
		return handler.serviceError(c, err)
	}

	var output bytes.Buffer
	writer := csv.NewWriter(&output)
	if err := writer.Write(services.ReportCSVHeaders); err != nil {
		return handler.serviceError(c, err)
	}
	if err := writer.WriteAll(handler.reports.CSVRows(reports)); err != nil {
		return handler.serviceError(c, err)
	}

	filename := fmt.Sprintf("medimatch-history-%s.csv", handler.now().UTC().Format("2006-01-02"))
	c.Set(fiber.HeaderContentDisposition, attachmentDisposition(filename))
	c.Type("csv", "utf-8")
	return c.Send(output.Bytes())
}

func attachmentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
