package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/terraincognita07/medimatch/internal/knowledge"
	"github.com/terraincognita07/medimatch/internal/models"
)

type staticKnowledge struct {
	mu   sync.Mutex
	base *knowledge.KnowledgeBase
}

func (source *staticKnowledge) Current() *knowledge.KnowledgeBase {
	source.mu.Lock()
	defer source.mu.Unlock()
	return source.base
}

func (source *staticKnowledge) set(base *knowledge.KnowledgeBase) {
	source.mu.Lock()
	defer source.mu.Unlock()
	source.base = base
}

func mustKnowledge(t *testing.T, conditions ...knowledge.Condition) *knowledge.KnowledgeBase {
	t.Helper()
	base, err := knowledge.New(conditions, nil)
	if err != nil {
		t.Fatalf("knowledge.New() unexpected error: %v", err)
	}
	return base
}

func respiratoryKnowledge(t *testing.T) *knowledge.KnowledgeBase {
	t.Helper()
	return mustKnowledge(t,
		knowledge.Condition{
			Name:        "Flu",
			Symptoms:    []string{"fever", "cough", "fatigue", "body_ache"},
			Explanation: "Influenza virus infection.",
			Guidance:    "Rest and drink fluids.",
		},
		knowledge.Condition{
			Name:        "Cold",
			Symptoms:    []string{"cough", "sneezing", "sore_throat"},
			Explanation: "Common viral infection of the nose and throat.",
			Guidance:    "Rest and keep warm.",
		},
		knowledge.Condition{
			Name:        "Bronchitis",
			Symptoms:    []string{"cough", "fatigue", "chest_pain", "breathlessness", "wheezing"},
			Explanation: "Inflammation of the bronchial tubes.",
			Guidance:    "Avoid smoke and see a doctor if it persists.",
		},
	)
}

type stubReportStore struct {
	mu        sync.Mutex
	reports   []models.Report
	createErr error
	statuses  map[uint]string
	messages  map[uint]string
}

func (stub *stubReportStore) Create(_ context.Context, report *models.Report) error {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.createErr != nil {
		return stub.createErr
	}
	report.ID = uint(len(stub.reports) + 1)
	stub.reports = append(stub.reports, *report)
	return nil
}

func (stub *stubReportStore) FindByPublicID(_ context.Context, publicID string) (models.Report, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	for _, report := range stub.reports {
		if report.PublicID == publicID {
			return report, nil
		}
	}
	return models.Report{}, errors.New("record not found")
}

func (stub *stubReportStore) UpdateEmailStatus(_ context.Context, reportID uint, status string, message string) error {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.statuses == nil {
		stub.statuses = map[uint]string{}
		stub.messages = map[uint]string{}
	}
	stub.statuses[reportID] = status
	stub.messages[reportID] = message
	return nil
}

func (stub *stubReportStore) ListRecent(_ context.Context, limit int) ([]models.Report, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	result := make([]models.Report, 0, len(stub.reports))
	for index := len(stub.reports) - 1; index >= 0; index-- {
		result = append(result, stub.reports[index])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

type stubFacilityReader struct {
	facilities []models.Facility
	err        error
	allCalls   int
}

func (stub *stubFacilityReader) ListAll(context.Context) ([]models.Facility, error) {
	stub.allCalls++
	if stub.err != nil {
		return nil, stub.err
	}
	return append([]models.Facility(nil), stub.facilities...), nil
}

func (stub *stubFacilityReader) ListByLocationSubstring(_ context.Context, city string) ([]models.Facility, error) {
	if stub.err != nil {
		return nil, stub.err
	}
	result := make([]models.Facility, 0)
	for _, facility := range stub.facilities {
		if strings.Contains(strings.ToLower(facility.Location), strings.ToLower(city)) {
			result = append(result, facility)
		}
	}
	return result, nil
}

func sampleFacilities() []models.Facility {
	return []models.Facility{
		{Name: "Apollo Hospital", Location: "Chennai", Contact: "044-28290200"},
		{Name: "AIIMS", Location: "New Delhi", Contact: "011-26588500"},
		{Name: "Fortis Hospital", Location: "Mumbai", Contact: "022-66214444"},
	}
}

type keyTranslator struct{}

func (keyTranslator) Translate(_ string, key string) string {
	return key
}
