package api

import (
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/medimatch/internal/i18n"
	"github.com/terraincognita07/medimatch/internal/knowledge"
	"github.com/terraincognita07/medimatch/internal/services"
)

// Dependencies are the collaborators a Handler serves requests with.
type Dependencies struct {
	Predictions   *services.PredictionService
	Symptoms      *services.SymptomService
	Facilities    *services.FacilityService
	Reports       *services.ReportService
	Notifications *services.NotificationService
	I18n          *i18n.Manager
	Logger        *logrus.Logger

	// ReloadKnowledge installs a freshly loaded knowledge base.
	ReloadKnowledge func() (*knowledge.KnowledgeBase, error)

	SecretKey      string
	CookieSecure   bool
	ReportTokenTTL time.Duration
	// AdminTokenHash is a bcrypt hash; empty disables admin routes.
	AdminTokenHash string
}

type Handler struct {
	predictions     *services.PredictionService
	symptoms        *services.SymptomService
	facilities      *services.FacilityService
	reports         *services.ReportService
	notifications   *services.NotificationService
	i18n            *i18n.Manager
	logger          *logrus.Logger
	reloadKnowledge func() (*knowledge.KnowledgeBase, error)

	secretKey      []byte
	cookieSecure   bool
	cookies        *secureCookieCodec
	reportTokenTTL time.Duration
	adminTokenHash string
	adminLimiter   *attemptLimiter
	now            func() time.Time
}

func NewHandler(deps Dependencies) (*Handler, error) {
	if deps.Predictions == nil || deps.Symptoms == nil || deps.Reports == nil {
		return nil, errors.New("prediction, symptom and report services are required")
	}
	if deps.I18n == nil {
		return nil, errors.New("i18n manager is required")
	}
	if strings.TrimSpace(deps.SecretKey) == "" {
		return nil, errors.New("secret key is required")
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if deps.ReportTokenTTL <= 0 {
		deps.ReportTokenTTL = defaultReportTokenTTL
	}

	cookies, err := newSecureCookieCodec([]byte(deps.SecretKey))
	if err != nil {
		return nil, err
	}

	return &Handler{
		predictions:     deps.Predictions,
		symptoms:        deps.Symptoms,
		facilities:      deps.Facilities,
		reports:         deps.Reports,
		notifications:   deps.Notifications,
		i18n:            deps.I18n,
		logger:          deps.Logger,
		reloadKnowledge: deps.ReloadKnowledge,
		secretKey:       []byte(deps.SecretKey),
		cookieSecure:    deps.CookieSecure,
		cookies:         cookies,
		reportTokenTTL:  deps.ReportTokenTTL,
		adminTokenHash:  strings.TrimSpace(deps.AdminTokenHash),
		adminLimiter:    newAttemptLimiter(adminAttemptLimit, adminAttemptWindow),
		now:             time.Now,
	}, nil
}
