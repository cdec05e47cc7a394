package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/terraincognita07/medimatch/internal/db"
	"github.com/terraincognita07/medimatch/internal/i18n"
	"github.com/terraincognita07/medimatch/internal/knowledge"
	"github.com/terraincognita07/medimatch/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	testSecretKey  = "test-secret-key-with-at-least-32-characters"
	testAdminToken = "admin-token-for-tests"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []services.MailMessage
	err      error
}

func (sender *recordingSender) Send(_ context.Context, message services.MailMessage) error {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	sender.messages = append(sender.messages, message)
	return sender.err
}

type testAppOptions struct {
	adminTokenHash string
	disableAdmin   bool
	knowledgePath  string
	withoutMail    bool
	reportTokenTTL time.Duration
}

type testApp struct {
	app      *fiber.App
	handler  *Handler
	database *gorm.DB
	store    *knowledge.Store
	sender   *recordingSender
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWithOptions(t, testAppOptions{})
}

func newTestAppWithOptions(t *testing.T, options testAppOptions) *testApp {
	t.Helper()

	logger, _ := logrustest.NewNullLogger()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "medimatch-api-test.db"), logger)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	base, err := knowledge.Default()
	if err != nil {
		t.Fatalf("load default knowledge: %v", err)
	}
	store, err := knowledge.NewStore(base)
	if err != nil {
		t.Fatalf("init knowledge store: %v", err)
	}

	i18nManager, err := i18n.NewManager("en", "")
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	repositories := db.NewRepositories(database)
	facilities := services.NewFacilityService(repositories.Facilities)
	predictions, err := services.NewPredictionService(store, repositories.Reports, facilities, 32, logger)
	if err != nil {
		t.Fatalf("init prediction service: %v", err)
	}

	sender := &recordingSender{}
	var mailSender services.MailSender = sender
	if options.withoutMail {
		mailSender = nil
	}
	notifications := services.NewNotificationService(mailSender, repositories.Reports, i18nManager, services.NotificationOptions{RatePerMinute: 100}, logger)

	adminHash := options.adminTokenHash
	if adminHash == "" && !options.disableAdmin {
		hash, err := bcrypt.GenerateFromPassword([]byte(testAdminToken), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash admin token: %v", err)
		}
		adminHash = string(hash)
	}

	knowledgePath := options.knowledgePath
	handler, err := NewHandler(Dependencies{
		Predictions:   predictions,
		Symptoms:      services.NewSymptomService(store),
		Facilities:    facilities,
		Reports:       services.NewReportService(i18nManager, time.UTC),
		Notifications: notifications,
		I18n:          i18nManager,
		Logger:        logger,
		ReloadKnowledge: func() (*knowledge.KnowledgeBase, error) {
			return store.Reload(knowledgePath)
		},
		SecretKey:      testSecretKey,
		ReportTokenTTL: options.reportTokenTTL,
		AdminTokenHash: adminHash,
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
	app.Use(handler.LanguageMiddleware)
	RegisterRoutes(app, handler)
	app.Use(handler.NotFound)

	return &testApp{app: app, handler: handler, database: database, store: store, sender: sender}
}

func (env *testApp) do(t *testing.T, request *http.Request) *http.Response {
	t.Helper()
	response, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("app.Test(%s %s): %v", request.Method, request.URL.Path, err)
	}
	return response
}

func responseCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func decodeJSON(t *testing.T, body io.Reader, target any) {
	t.Helper()
	bytes, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(bytes, target); err != nil {
		t.Fatalf("decode response body %q: %v", string(bytes), err)
	}
}

func readAPIError(t *testing.T, body io.Reader) (string, string) {
	t.Helper()
	payload := map[string]string{}
	decodeJSON(t, body, &payload)
	return payload["error"], payload["message"]
}
