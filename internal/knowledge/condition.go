package knowledge

import (
	"strings"
	"unicode"
)

// Condition is a named knowledge-base entry with its associated symptom set.
type Condition struct {
	Name        string   `json:"name"`
	Symptoms    []string `json:"symptoms"`
	Explanation string   `json:"explanation"`
	Guidance    string   `json:"guidance"`
}

// HasSymptom reports whether token is part of the condition's symptom set.
func (condition Condition) HasSymptom(token string) bool {
	for _, symptom := range condition.Symptoms {
		if symptom == token {
			return true
		}
	}
	return false
}

func (condition Condition) clone() Condition {
	symptoms := make([]string, len(condition.Symptoms))
	copy(symptoms, condition.Symptoms)
	condition.Symptoms = symptoms
	return condition
}

// NormalizeToken lowercases a symptom identifier, trims it and joins inner
// whitespace or hyphens with underscores ("Muscle pain" -> "muscle_pain").
func NormalizeToken(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}

	var builder strings.Builder
	builder.Grow(len(trimmed))
	pendingSeparator := false
	for _, char := range trimmed {
		if unicode.IsSpace(char) || char == '-' || char == '_' {
			pendingSeparator = true
			continue
		}
		if pendingSeparator && builder.Len() > 0 {
			builder.WriteByte('_')
		}
		pendingSeparator = false
		builder.WriteRune(char)
	}
	return builder.String()
}

func conditionKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
