package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	app.Get("/favicon.ico", sendNoContent)

	api := app.Group("/api")
	api.Get("/symptoms", handler.GetSymptoms)
	api.Get("/conditions", handler.GetConditions)
	api.Get("/conditions/:name", handler.GetCondition)
	api.Get("/facilities", handler.GetFacilities)

	api.Post("/predict", handler.Predict)
	api.Get("/predict/previous", handler.GetPreviousSymptoms)

	reports := api.Group("/reports")
	reports.Get("/:id/text", handler.ReportTokenRequired, handler.DownloadReportText)
	reports.Get("/:id/json", handler.ReportTokenRequired, handler.DownloadReportJSON)
	reports.Post("/:id/email", handler.ReportTokenRequired, handler.EmailReport)

	api.Get("/export/csv", handler.AdminRequired, handler.ExportCSV)

	admin := api.Group("/admin", handler.AdminRequired)
	admin.Post("/knowledge/reload", handler.ReloadKnowledge)
}

func sendNoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}
