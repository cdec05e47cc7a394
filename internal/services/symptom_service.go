package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/terraincognita07/medimatch/internal/knowledge"
)

// SymptomOption is a selectable symptom with a display label.
type SymptomOption struct {
	Token string `json:"token"`
	Label string `json:"label"`
}

type ConditionSummary struct {
	Name         string `json:"name"`
	SymptomCount int    `json:"symptom_count"`
}

// SymptomService exposes the read side of the active knowledge base.
type SymptomService struct {
	knowledge KnowledgeSource
}

func NewSymptomService(source KnowledgeSource) *SymptomService {
	return &SymptomService{knowledge: source}
}

func (service *SymptomService) KnowledgeVersion() string {
	return service.knowledge.Current().Version()
}

func (service *SymptomService) ListSymptoms() []SymptomOption {
	vocabulary := service.knowledge.Current().Vocabulary()
	options := make([]SymptomOption, 0, len(vocabulary))
	for _, token := range vocabulary {
		options = append(options, SymptomOption{Token: token, Label: SymptomLabel(token)})
	}
	return options
}

func (service *SymptomService) ListConditions() []ConditionSummary {
	conditions := service.knowledge.Current().AllConditions()
	summaries := make([]ConditionSummary, 0, len(conditions))
	for _, condition := range conditions {
		summaries = append(summaries, ConditionSummary{
			Name:         condition.Name,
			SymptomCount: len(condition.Symptoms),
		})
	}
	return summaries
}

func (service *SymptomService) FindCondition(name string) (knowledge.Condition, error) {
	return service.knowledge.Current().Lookup(name)
}

// SymptomLabel turns a token such as high_fever into "High fever".
func SymptomLabel(token string) string {
	label := strings.TrimSpace(strings.ReplaceAll(token, "_", " "))
	if label == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(label)
	return string(unicode.ToUpper(first)) + label[size:]
}
