package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/medimatch/internal/knowledge"
	"github.com/terraincognita07/medimatch/internal/matcher"
	"github.com/terraincognita07/medimatch/internal/models"
	"github.com/terraincognita07/medimatch/internal/security"
)

const maxAlternatives = 3

var (
	ErrReportNotFound     = errors.New("report not found")
	ErrCreateReportFailed = errors.New("create report failed")
)

type KnowledgeSource interface {
	Current() *knowledge.KnowledgeBase
}

type ReportStore interface {
	Create(ctx context.Context, report *models.Report) error
	FindByPublicID(ctx context.Context, publicID string) (models.Report, error)
	UpdateEmailStatus(ctx context.Context, reportID uint, status string, message string) error
	ListRecent(ctx context.Context, limit int) ([]models.Report, error)
}

type PredictionRequest struct {
	Patient  PatientDetails
	Symptoms []string
}

// Evaluation is the outcome of matching one symptom input against one
// knowledge base version.
type Evaluation struct {
	Input            SymptomInput
	Result           matcher.Result
	Alternatives     []matcher.Candidate
	KnowledgeVersion string
}

type Prediction struct {
	Evaluation
	Report     models.Report
	Facilities []models.Facility
}

type cachedEvaluation struct {
	result       matcher.Result
	alternatives []matcher.Candidate
}

type PredictionService struct {
	knowledge  KnowledgeSource
	reports    ReportStore
	facilities *FacilityService
	cache      *lru.Cache[string, cachedEvaluation]
	logger     *logrus.Logger
	now        func() time.Time
}

// NewPredictionService wires the matcher to persistence. cacheSize <= 0
// disables result caching.
func NewPredictionService(source KnowledgeSource, reports ReportStore, facilities *FacilityService, cacheSize int, logger *logrus.Logger) (*PredictionService, error) {
	if source == nil {
		return nil, errors.New("knowledge source is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	service := &PredictionService{
		knowledge:  source,
		reports:    reports,
		facilities: facilities,
		logger:     logger,
		now:        time.Now,
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, cachedEvaluation](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("init prediction cache: %w", err)
		}
		service.cache = cache
	}
	return service, nil
}

// Evaluate normalizes raw symptoms and runs the matcher against the current
// knowledge base. Nothing is persisted.
func (service *PredictionService) Evaluate(rawSymptoms []string) (Evaluation, error) {
	base := service.knowledge.Current()
	input, err := NormalizeSymptomInput(rawSymptoms, base.Vocabulary())
	if err != nil {
		return Evaluation{}, err
	}

	set := matcher.NewSymptomSet(input.Tokens...)
	key := base.Version() + "|" + set.Key()
	if service.cache != nil {
		if cached, ok := service.cache.Get(key); ok {
			return Evaluation{
				Input:            input,
				Result:           cloneResult(cached.result),
				Alternatives:     cloneCandidates(cached.alternatives),
				KnowledgeVersion: base.Version(),
			}, nil
		}
	}

	result, err := matcher.Match(set, base)
	if err != nil {
		return Evaluation{}, err
	}
	alternatives, err := matcher.Rank(set, base, maxAlternatives+1)
	if err != nil {
		return Evaluation{}, err
	}
	if len(alternatives) > 0 {
		alternatives = alternatives[1:]
	}

	if service.cache != nil {
		service.cache.Add(key, cachedEvaluation{
			result:       cloneResult(result),
			alternatives: cloneCandidates(alternatives),
		})
	}

	return Evaluation{
		Input:            input,
		Result:           result,
		Alternatives:     alternatives,
		KnowledgeVersion: base.Version(),
	}, nil
}

// Predict validates the request, evaluates it and stores a report for both
// matched and unmatched outcomes. Input errors are returned before anything
// is written.
func (service *PredictionService) Predict(ctx context.Context, request PredictionRequest) (Prediction, error) {
	patient, err := NormalizePatientDetails(request.Patient)
	if err != nil {
		return Prediction{}, err
	}

	evaluation, err := service.Evaluate(request.Symptoms)
	if err != nil {
		return Prediction{}, err
	}

	report, err := newReport(patient, evaluation, service.now())
	if err != nil {
		return Prediction{}, err
	}
	if err := service.reports.Create(ctx, &report); err != nil {
		return Prediction{}, fmt.Errorf("%w: %v", ErrCreateReportFailed, err)
	}

	prediction := Prediction{
		Evaluation: evaluation,
		Report:     report,
		Facilities: []models.Facility{},
	}
	if evaluation.Result.Matched && service.facilities != nil {
		facilities, err := service.facilities.Recommend(ctx, patient.City)
		if err != nil {
			service.logger.WithError(err).WithField("report", report.PublicID).Warn("facility lookup failed")
		} else {
			prediction.Facilities = facilities
		}
	}

	service.logger.WithFields(logrus.Fields{
		"report":    report.PublicID,
		"matched":   report.Matched,
		"condition": report.Condition,
		"symptoms":  len(evaluation.Input.Tokens),
		"knowledge": evaluation.KnowledgeVersion,
	}).Info("prediction stored")
	return prediction, nil
}

func (service *PredictionService) FindReport(ctx context.Context, publicID string) (models.Report, error) {
	report, err := service.reports.FindByPublicID(ctx, publicID)
	if err != nil {
		return models.Report{}, fmt.Errorf("%w: %v", ErrReportNotFound, err)
	}
	return report, nil
}

func (service *PredictionService) RecentReports(ctx context.Context, limit int) ([]models.Report, error) {
	return service.reports.ListRecent(ctx, limit)
}

func newReport(patient PatientDetails, evaluation Evaluation, now time.Time) (models.Report, error) {
	reference, err := security.ReferenceCode("MM", 2, 4)
	if err != nil {
		return models.Report{}, fmt.Errorf("generate report reference: %w", err)
	}

	report := models.Report{
		PublicID:         uuid.NewString(),
		Reference:        reference,
		Name:             patient.Name,
		Age:              patient.Age,
		Gender:           patient.Gender,
		Email:            patient.Email,
		City:             patient.City,
		Symptoms:         append([]string(nil), evaluation.Input.Tokens...),
		Unrecognized:     append([]string(nil), evaluation.Input.Unrecognized...),
		KnowledgeVersion: evaluation.KnowledgeVersion,
		EmailStatus:      models.EmailStatusNone,
		CreatedAt:        now.UTC(),
	}
	if evaluation.Result.Matched {
		report.Matched = true
		report.Condition = evaluation.Result.Condition.Name
		report.Score = evaluation.Result.Score
		report.Explanation = evaluation.Result.Condition.Explanation
		report.Guidance = evaluation.Result.Condition.Guidance
	}
	return report, nil
}

func cloneResult(result matcher.Result) matcher.Result {
	result.Condition.Symptoms = append([]string(nil), result.Condition.Symptoms...)
	return result
}

func cloneCandidates(candidates []matcher.Candidate) []matcher.Candidate {
	cloned := make([]matcher.Candidate, len(candidates))
	for index, candidate := range candidates {
		candidate.Condition.Symptoms = append([]string(nil), candidate.Condition.Symptoms...)
		cloned[index] = candidate
	}
	return cloned
}
