package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/terraincognita07/medimatch/internal/models"
)

const (
	languageCookieName         = "medimatch_lang"
	previousSymptomsCookieName = "medimatch_prev"
	adminTokenHeader           = "X-Admin-Token"
	reportTokenHeader          = "X-Report-Token"
	contextLanguageKey         = "current_language"

	defaultReportTokenTTL = 24 * time.Hour
	adminAttemptLimit     = 5
	adminAttemptWindow    = 15 * time.Minute
	exportReportLimit     = 10000
)

// symptomList accepts either a JSON array or one delimited string.
type symptomList []string

func (list *symptomList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*list = symptomList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*list = many
	return nil
}

type predictInput struct {
	Name     string      `json:"name" form:"name"`
	Age      int         `json:"age" form:"age"`
	Gender   string      `json:"gender" form:"gender"`
	Email    string      `json:"email" form:"email"`
	City     string      `json:"city" form:"city"`
	Symptoms symptomList `json:"symptoms" form:"symptoms"`
}

type emailReportInput struct {
	Email string `json:"email" form:"email"`
}

type alternativePayload struct {
	Condition string  `json:"condition"`
	Score     float64 `json:"score"`
	Overlap   int     `json:"overlap"`
}

type predictionPayload struct {
	ReportID         string               `json:"report_id"`
	Reference        string               `json:"reference"`
	Matched          bool                 `json:"matched"`
	Condition        string               `json:"condition,omitempty"`
	Score            float64              `json:"score"`
	Overlap          int                  `json:"overlap"`
	Explanation      string               `json:"explanation"`
	Guidance         string               `json:"guidance"`
	Message          string               `json:"message,omitempty"`
	Symptoms         []string             `json:"symptoms"`
	Unrecognized     []string             `json:"unrecognized"`
	Alternatives     []alternativePayload `json:"alternatives"`
	Facilities       []models.Facility    `json:"facilities"`
	PreviousSymptoms []string             `json:"previous_symptoms"`
	KnowledgeVersion string               `json:"knowledge_version"`
	ReportToken      string               `json:"report_token"`
	ReportTokenTTL   int64                `json:"report_token_expires_in"`
}

type previousSymptomsPayload struct {
	Symptoms []string  `json:"symptoms"`
	SavedAt  time.Time `json:"saved_at"`
}

type reportClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}
