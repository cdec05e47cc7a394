package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidKnowledgeBase = errors.New("invalid knowledge base")
	ErrConditionNotFound    = errors.New("condition not found")
)

// KnowledgeBase is an immutable, ordered set of conditions. All accessors
// return copies, so callers can never alter the base after construction.
type KnowledgeBase struct {
	conditions []Condition
	index      map[string]int
	vocabulary []string
	version    string
}

// New validates conditions and builds a knowledge base that iterates them in
// the given order. An empty vocabulary is derived from the condition symptoms.
func New(conditions []Condition, vocabulary []string) (*KnowledgeBase, error) {
	if len(conditions) == 0 {
		return nil, fmt.Errorf("%w: no conditions defined", ErrInvalidKnowledgeBase)
	}

	base := &KnowledgeBase{
		conditions: make([]Condition, 0, len(conditions)),
		index:      make(map[string]int, len(conditions)),
	}

	for position, raw := range conditions {
		condition, err := normalizeCondition(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: condition #%d: %v", ErrInvalidKnowledgeBase, position+1, err)
		}

		key := conditionKey(condition.Name)
		if existing, ok := base.index[key]; ok {
			return nil, fmt.Errorf("%w: duplicate condition %q (entries #%d and #%d)",
				ErrInvalidKnowledgeBase, condition.Name, existing+1, position+1)
		}
		base.index[key] = len(base.conditions)
		base.conditions = append(base.conditions, condition)
	}

	normalizedVocabulary, err := normalizeVocabulary(vocabulary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKnowledgeBase, err)
	}
	if len(normalizedVocabulary) == 0 {
		normalizedVocabulary = base.symptomUnion()
	}
	base.vocabulary = normalizedVocabulary
	base.version = base.fingerprint()

	return base, nil
}

// Lookup returns a copy of the named condition. Names compare
// case-insensitively.
func (base *KnowledgeBase) Lookup(name string) (Condition, error) {
	if base == nil {
		return Condition{}, fmt.Errorf("%w: %q", ErrConditionNotFound, strings.TrimSpace(name))
	}
	position, ok := base.index[conditionKey(name)]
	if !ok {
		return Condition{}, fmt.Errorf("%w: %q", ErrConditionNotFound, strings.TrimSpace(name))
	}
	return base.conditions[position].clone(), nil
}

// AllConditions returns the conditions in insertion order. A nil base has
// none.
func (base *KnowledgeBase) AllConditions() []Condition {
	if base == nil {
		return nil
	}
	result := make([]Condition, 0, len(base.conditions))
	for _, condition := range base.conditions {
		result = append(result, condition.clone())
	}
	return result
}

func (base *KnowledgeBase) Vocabulary() []string {
	if base == nil {
		return nil
	}
	result := make([]string, len(base.vocabulary))
	copy(result, base.vocabulary)
	return result
}

func (base *KnowledgeBase) Len() int {
	if base == nil {
		return 0
	}
	return len(base.conditions)
}

// Version fingerprints the base content; two bases with identical conditions
// in identical order share a version.
func (base *KnowledgeBase) Version() string {
	if base == nil {
		return ""
	}
	return base.version
}

func normalizeCondition(raw Condition) (Condition, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return Condition{}, errors.New("name is required")
	}

	seen := make(map[string]struct{}, len(raw.Symptoms))
	symptoms := make([]string, 0, len(raw.Symptoms))
	for _, symptom := range raw.Symptoms {
		token := NormalizeToken(symptom)
		if token == "" {
			return Condition{}, fmt.Errorf("%s: blank symptom token", name)
		}
		if _, duplicate := seen[token]; duplicate {
			continue
		}
		seen[token] = struct{}{}
		symptoms = append(symptoms, token)
	}
	if len(symptoms) == 0 {
		return Condition{}, fmt.Errorf("%s: symptom set is empty", name)
	}

	return Condition{
		Name:        name,
		Symptoms:    symptoms,
		Explanation: strings.TrimSpace(raw.Explanation),
		Guidance:    strings.TrimSpace(raw.Guidance),
	}, nil
}

func normalizeVocabulary(raw []string) ([]string, error) {
	unique := make(map[string]struct{}, len(raw))
	for _, entry := range raw {
		token := NormalizeToken(entry)
		if token == "" {
			return nil, errors.New("vocabulary contains a blank token")
		}
		unique[token] = struct{}{}
	}
	return sortedKeys(unique), nil
}

func (base *KnowledgeBase) symptomUnion() []string {
	unique := make(map[string]struct{})
	for _, condition := range base.conditions {
		for _, symptom := range condition.Symptoms {
			unique[symptom] = struct{}{}
		}
	}
	return sortedKeys(unique)
}

func (base *KnowledgeBase) fingerprint() string {
	hash := sha256.New()
	for _, condition := range base.conditions {
		fmt.Fprintf(hash, "%s\x1f%s\x1f%s\x1f%s\x1e",
			condition.Name,
			strings.Join(condition.Symptoms, ","),
			condition.Explanation,
			condition.Guidance,
		)
	}
	fmt.Fprintf(hash, "%s", strings.Join(base.vocabulary, ","))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

func sortedKeys(values map[string]struct{}) []string {
	result := make([]string, 0, len(values))
	for value := range values {
		result = append(result, value)
	}
	sort.Strings(result)
	return result
}
