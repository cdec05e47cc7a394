package api

import (
	"encoding/csv"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/terraincognita07/medimatch/internal/models"
)

func createPrediction(t *testing.T, env *testApp, body string) predictionPayload {
	t.Helper()
	response := postPredictJSON(t, env, body)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}
	payload := predictionPayload{}
	decodeJSON(t, response.Body, &payload)
	return payload
}

func TestDownloadReportTextRequiresMatchingToken(t *testing.T) {
	env := newTestApp(t)
	first := createPrediction(t, env, `{"name": "Asha", "email": "asha@example.com", "symptoms": ["frequent_urination", "excessive_thirst", "fatigue"]}`)
	second := createPrediction(t, env, `{"symptoms": ["fever", "cough"]}`)

	response := env.do(t, httptest.NewRequest(http.MethodGet, "/api/reports/"+first.ReportID+"/text?token="+first.ReportToken, nil))
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}
	if disposition := response.Header.Get("Content-Disposition"); !strings.Contains(disposition, "medimatch-report-"+strings.ToLower(first.Reference)+".txt") {
		t.Fatalf("unexpected content disposition %q", disposition)
	}
	body, _ := io.ReadAll(response.Body)
	for _, want := range []string{"Name: Asha", "Predicted Disease: Diabetes", "Reference: " + first.Reference} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected report text to contain %q, got:\n%s", want, body)
		}
	}

	for _, path := range []string{
		"/api/reports/" + first.ReportID + "/text",
		"/api/reports/" + first.ReportID + "/text?token=" + second.ReportToken,
		"/api/reports/" + first.ReportID + "/text?token=garbage",
	} {
		response := env.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		if response.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected status 401, got %d", path, response.StatusCode)
		}
		if code, _ := readAPIError(t, response.Body); code != "invalid_report_token" {
			t.Fatalf("%s: expected invalid_report_token, got %q", path, code)
		}
	}
}

func TestDownloadReportJSONWithHeaderToken(t *testing.T) {
	env := newTestApp(t)
	prediction := createPrediction(t, env, `{"symptoms": ["sneezing", "hiccups"]}`)

	request := httptest.NewRequest(http.MethodGet, "/api/reports/"+prediction.ReportID+"/json", nil)
	request.Header.Set(reportTokenHeader, prediction.ReportToken)
	response := env.do(t, request)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}

	document := map[string]any{}
	decodeJSON(t, response.Body, &document)
	if document["matched"] != false || document["reference"] != prediction.Reference {
		t.Fatalf("unexpected document %+v", document)
	}
}

func TestExpiredReportTokenIsRejected(t *testing.T) {
	env := newTestApp(t)
	prediction := createPrediction(t, env, `{"symptoms": ["fever", "cough"]}`)

	env.handler.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	response := env.do(t, httptest.NewRequest(http.MethodGet, "/api/reports/"+prediction.ReportID+"/json?token="+prediction.ReportToken, nil))
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for expired token, got %d", response.StatusCode)
	}
}

func TestEmailReportSendsAndRecordsStatus(t *testing.T) {
	env := newTestApp(t)
	prediction := createPrediction(t, env, `{"email": "asha@example.com", "symptoms": ["fever", "cough", "chest_pain", "breathlessness", "fatigue"]}`)

	request := httptest.NewRequest(http.MethodPost, "/api/reports/"+prediction.ReportID+"/email?token="+prediction.ReportToken, nil)
	response := env.do(t, request)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}

	if len(env.sender.messages) != 1 {
		t.Fatalf("expected one email, got %d", len(env.sender.messages))
	}
	message := env.sender.messages[0]
	if message.To != "asha@example.com" || message.Subject != "Your Healthcare Prediction Report" {
		t.Fatalf("unexpected message %+v", message)
	}
	if !strings.Contains(message.HTMLBody, "<h3>Pneumonia</h3>") {
		t.Fatalf("unexpected body %q", message.HTMLBody)
	}

	stored := models.Report{}
	if err := env.database.Where("public_id = ?", prediction.ReportID).First(&stored).Error; err != nil {
		t.Fatalf("load report: %v", err)
	}
	if stored.EmailStatus != models.EmailStatusSent {
		t.Fatalf("expected sent status, got %q", stored.EmailStatus)
	}
}

func TestEmailReportErrors(t *testing.T) {
	env := newTestApp(t)
	prediction := createPrediction(t, env, `{"symptoms": ["fever", "cough"]}`)

	request := httptest.NewRequest(http.MethodPost, "/api/reports/"+prediction.ReportID+"/email?token="+prediction.ReportToken, nil)
	response := env.do(t, request)
	if response.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400 without address, got %d", response.StatusCode)
	}
	if code, _ := readAPIError(t, response.Body); code != "email_missing" {
		t.Fatalf("expected email_missing, got %q", code)
	}

	disabled := newTestAppWithOptions(t, testAppOptions{withoutMail: true})
	other := createPrediction(t, disabled, `{"email": "asha@example.com", "symptoms": ["fever", "cough"]}`)
	request = httptest.NewRequest(http.MethodPost, "/api/reports/"+other.ReportID+"/email", strings.NewReader(`{"email": "doc@example.org"}`))
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set(reportTokenHeader, other.ReportToken)
	response = disabled.do(t, request)
	if response.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 with mail disabled, got %d", response.StatusCode)
	}
}

func TestExportCSVRequiresAdminToken(t *testing.T) {
	env := newTestApp(t)
	createPrediction(t, env, `{"name": "Asha", "symptoms": ["fever", "cough"]}`)
	createPrediction(t, env, `{"name": "Ravi", "symptoms": ["sneezing", "hiccups"]}`)

	response := env.do(t, httptest.NewRequest(http.MethodGet, "/api/export/csv", nil))
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", response.StatusCode)
	}

	request := httptest.NewRequest(http.MethodGet, "/api/export/csv", nil)
	request.Header.Set(adminTokenHeader, testAdminToken)
	response = env.do(t, request)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}
	if !strings.HasPrefix(response.Header.Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected content type %q", response.Header.Get("Content-Type"))
	}

	records, err := csv.NewReader(response.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 || records[0][0] != "Reference" {
		t.Fatalf("expected header plus two rows, got %v", records)
	}
	if records[1][2] != "Ravi" || records[2][2] != "Asha" {
		t.Fatalf("expected newest report first, got %v", records)
	}
}

func TestAdminTokenFailuresAreLimited(t *testing.T) {
	env := newTestApp(t)

	for attempt := 0; attempt < adminAttemptLimit; attempt++ {
		request := httptest.NewRequest(http.MethodGet, "/api/export/csv", nil)
		request.Header.Set(adminTokenHeader, "wrong")
		if response := env.do(t, request); response.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected status 401, got %d", attempt, response.StatusCode)
		}
	}

	request := httptest.NewRequest(http.MethodGet, "/api/export/csv", nil)
	request.Header.Set(adminTokenHeader, testAdminToken)
	response := env.do(t, request)
	if response.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 after repeated failures, got %d", response.StatusCode)
	}
}

func TestAdminRoutesDisabledWithoutHash(t *testing.T) {
	env := newTestAppWithOptions(t, testAppOptions{disableAdmin: true})

	request := httptest.NewRequest(http.MethodPost, "/api/admin/knowledge/reload", nil)
	request.Header.Set(adminTokenHeader, testAdminToken)
	response := env.do(t, request)
	if response.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", response.StatusCode)
	}
}

func TestReloadKnowledgeSwapsBaseAndRejectsInvalidFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.yaml")
	writeFile := func(content string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write knowledge file: %v", err)
		}
	}
	env := newTestAppWithOptions(t, testAppOptions{knowledgePath: path})
	before := env.store.Current().Version()

	writeFile("conditions:\n  - name: Flu\n    symptoms: [fever, cough, fatigue]\n")
	request := httptest.NewRequest(http.MethodPost, "/api/admin/knowledge/reload", nil)
	request.Header.Set(adminTokenHeader, testAdminToken)
	response := env.do(t, request)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}
	if env.store.Current().Len() != 1 || env.store.Current().Version() == before {
		t.Fatalf("expected reloaded knowledge base")
	}

	prediction := createPrediction(t, env, `{"symptoms": ["fever", "cough", "fatigue"]}`)
	if prediction.Condition != "Flu" || prediction.Score != 1 {
		t.Fatalf("expected predictions to use reloaded knowledge, got %+v", prediction)
	}

	active := env.store.Current().Version()
	writeFile("conditions:\n  - name: Flu\n    symptoms: []\n")
	request = httptest.NewRequest(http.MethodPost, "/api/admin/knowledge/reload", nil)
	request.Header.Set(adminTokenHeader, testAdminToken)
	response = env.do(t, request)
	if response.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 for invalid file, got %d", response.StatusCode)
	}
	if env.store.Current().Version() != active {
		t.Fatal("expected active knowledge base to be kept after a failed reload")
	}
}
