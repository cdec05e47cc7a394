package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/terraincognita07/medimatch/internal/models"
)

const reportDateLayout = "2006-01-02 15:04"

var ReportCSVHeaders = []string{
	"Reference",
	"Created",
	"Name",
	"Age",
	"Gender",
	"City",
	"Symptoms",
	"Unrecognized",
	"Matched",
	"Condition",
	"Score",
	"Knowledge version",
	"Email status",
}

type Translator interface {
	Translate(language string, key string) string
}

type ReportService struct {
	translator Translator
	location   *time.Location
}

// ReportDocument is the JSON download of a stored report.
type ReportDocument struct {
	Reference        string   `json:"reference"`
	CreatedAt        string   `json:"created_at"`
	Name             string   `json:"name"`
	Age              int      `json:"age,omitempty"`
	Gender           string   `json:"gender"`
	Email            string   `json:"email"`
	City             string   `json:"city"`
	Symptoms         []string `json:"symptoms"`
	Unrecognized     []string `json:"unrecognized"`
	Matched          bool     `json:"matched"`
	Condition        string   `json:"condition,omitempty"`
	Score            float64  `json:"score"`
	Explanation      string   `json:"explanation"`
	Guidance         string   `json:"guidance"`
	KnowledgeVersion string   `json:"knowledge_version"`
}

func NewReportService(translator Translator, location *time.Location) *ReportService {
	if location == nil {
		location = time.UTC
	}
	return &ReportService{translator: translator, location: location}
}

// RenderText builds the plain-text report offered as a download.
func (service *ReportService) RenderText(report models.Report, language string) string {
	t := func(key string) string {
		return service.translator.Translate(language, key)
	}
	orDefault := func(value string) string {
		if strings.TrimSpace(value) == "" {
			return t("report.not_provided")
		}
		return value
	}

	age := ""
	if report.Age > 0 {
		age = strconv.Itoa(report.Age)
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "%s\n", t("report.title"))
	builder.WriteString(strings.Repeat("=", 40) + "\n")
	fmt.Fprintf(&builder, "%s: %s\n", t("report.reference"), report.Reference)
	fmt.Fprintf(&builder, "%s: %s\n", t("report.name"), orDefault(report.Name))
	fmt.Fprintf(&builder, "%s: %s\n", t("report.age"), orDefault(age))
	fmt.Fprintf(&builder, "%s: %s\n", t("report.gender"), orDefault(report.Gender))
	fmt.Fprintf(&builder, "%s: %s\n", t("report.email"), orDefault(report.Email))
	fmt.Fprintf(&builder, "%s: %s\n", t("report.city"), orDefault(report.City))
	fmt.Fprintf(&builder, "%s: %s\n\n", t("report.date"), report.CreatedAt.In(service.location).Format(reportDateLayout))

	fmt.Fprintf(&builder, "%s: %s\n", t("report.symptoms"), strings.Join(report.Symptoms, ", "))
	if len(report.Unrecognized) > 0 {
		fmt.Fprintf(&builder, "%s: %s\n", t("report.unrecognized"), strings.Join(report.Unrecognized, ", "))
	}
	builder.WriteString("\n")

	if report.Matched {
		fmt.Fprintf(&builder, "%s: %s\n", t("report.predicted"), report.Condition)
		fmt.Fprintf(&builder, "%s: %.2f\n", t("report.score"), report.Score)
		fmt.Fprintf(&builder, "%s: %s\n", t("report.explanation"), report.Explanation)
		fmt.Fprintf(&builder, "%s: %s\n", t("report.tip"), report.Guidance)
	} else {
		fmt.Fprintf(&builder, "%s: %s\n", t("report.predicted"), t("report.no_match"))
		fmt.Fprintf(&builder, "%s: %s\n", t("report.tip"), t("report.no_match_guidance"))
	}

	builder.WriteString("\n" + t("report.disclaimer") + "\n")
	return builder.String()
}

func (service *ReportService) BuildDocument(report models.Report) ReportDocument {
	return ReportDocument{
		Reference:        report.Reference,
		CreatedAt:        report.CreatedAt.In(service.location).Format(time.RFC3339),
		Name:             report.Name,
		Age:              report.Age,
		Gender:           report.Gender,
		Email:            report.Email,
		City:             report.City,
		Symptoms:         nonNilStrings(report.Symptoms),
		Unrecognized:     nonNilStrings(report.Unrecognized),
		Matched:          report.Matched,
		Condition:        report.Condition,
		Score:            report.Score,
		Explanation:      report.Explanation,
		Guidance:         report.Guidance,
		KnowledgeVersion: report.KnowledgeVersion,
	}
}

// CSVRows returns one row per report, aligned with ReportCSVHeaders.
func (service *ReportService) CSVRows(reports []models.Report) [][]string {
	rows := make([][]string, 0, len(reports))
	for _, report := range reports {
		age := ""
		if report.Age > 0 {
			age = strconv.Itoa(report.Age)
		}
		rows = append(rows, []string{
			report.Reference,
			report.CreatedAt.In(service.location).Format(time.RFC3339),
			report.Name,
			age,
			report.Gender,
			report.City,
			strings.Join(report.Symptoms, "; "),
			strings.Join(report.Unrecognized, "; "),
			csvYesNo(report.Matched),
			report.Condition,
			strconv.FormatFloat(report.Score, 'f', 4, 64),
			report.KnowledgeVersion,
			report.EmailStatus,
		})
	}
	return rows
}

func ReportFilename(report models.Report, extension string) string {
	reference := strings.ToLower(strings.TrimSpace(report.Reference))
	if reference == "" {
		reference = "report"
	}
	return fmt.Sprintf("medimatch-report-%s.%s", reference, strings.TrimPrefix(extension, "."))
}

func csvYesNo(value bool) string {
	if value {
		return "Yes"
	}
	return "No"
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
