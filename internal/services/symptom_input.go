package services

import (
	"strings"

	"github.com/terraincognita07/medimatch/internal/knowledge"
)

const maxSymptomInputTokens = 64

// SymptomInput is user input after normalization.
type SymptomInput struct {
	// Tokens keeps the first-seen order of the user's entries.
	Tokens []string
	// Unrecognized lists tokens outside the vocabulary. They still take part
	// in matching.
	Unrecognized []string
}

// NormalizeSymptomInput splits raw entries on commas, semicolons and new
// lines, normalizes every piece into a symptom token and removes duplicates.
func NormalizeSymptomInput(raw []string, vocabulary []string) (SymptomInput, error) {
	known := make(map[string]struct{}, len(vocabulary))
	for _, token := range vocabulary {
		known[token] = struct{}{}
	}

	result := SymptomInput{
		Tokens:       make([]string, 0, len(raw)),
		Unrecognized: make([]string, 0),
	}
	seen := make(map[string]struct{}, len(raw))
	for _, entry := range raw {
		for _, piece := range strings.FieldsFunc(entry, isSymptomDelimiter) {
			token := knowledge.NormalizeToken(piece)
			if token == "" {
				continue
			}
			if _, duplicate := seen[token]; duplicate {
				continue
			}
			seen[token] = struct{}{}
			result.Tokens = append(result.Tokens, token)
			if _, ok := known[token]; !ok && len(known) > 0 {
				result.Unrecognized = append(result.Unrecognized, token)
			}
		}
	}

	if len(result.Tokens) > maxSymptomInputTokens {
		return SymptomInput{}, ErrTooManySymptoms
	}
	return result, nil
}

func isSymptomDelimiter(char rune) bool {
	switch char {
	case ',', ';', '\n', '\r', '|':
		return true
	default:
		return false
	}
}
