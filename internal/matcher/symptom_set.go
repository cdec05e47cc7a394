package matcher

import (
	"sort"
	"strings"
)

// SymptomSet is an unordered, de-duplicated set of symptom tokens. Tokens are
// compared verbatim; normalization is the caller's job.
type SymptomSet struct {
	tokens map[string]struct{}
}

// NewSymptomSet drops blank tokens and duplicates.
func NewSymptomSet(tokens ...string) SymptomSet {
	set := SymptomSet{tokens: make(map[string]struct{}, len(tokens))}
	for _, token := range tokens {
		if strings.TrimSpace(token) == "" {
			continue
		}
		set.tokens[token] = struct{}{}
	}
	return set
}

func (set SymptomSet) Len() int {
	return len(set.tokens)
}

func (set SymptomSet) Contains(token string) bool {
	_, ok := set.tokens[token]
	return ok
}

// Tokens returns the members in sorted order.
func (set SymptomSet) Tokens() []string {
	result := make([]string, 0, len(set.tokens))
	for token := range set.tokens {
		result = append(result, token)
	}
	sort.Strings(result)
	return result
}

// Key is a canonical string form of the set, suitable for cache keys.
func (set SymptomSet) Key() string {
	return strings.Join(set.Tokens(), "\x1f")
}

func (set SymptomSet) overlap(symptoms []string) int {
	shared := 0
	for _, symptom := range symptoms {
		if set.Contains(symptom) {
			shared++
		}
	}
	return shared
}
