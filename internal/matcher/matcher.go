// Package matcher scores a symptom set against knowledge-base conditions with
// a Dice coefficient and picks the single best condition.
package matcher

import (
	"errors"
	"fmt"
	"sort"

	"github.com/terraincognita07/medimatch/internal/knowledge"
)

const (
	// MinSymptoms is the smallest symptom set the matcher accepts.
	MinSymptoms = 2
	// OverlapFloor is the number of shared symptoms a condition needs to be
	// considered at all.
	OverlapFloor = 2
)

var ErrInsufficientSymptoms = &InputValidationError{Reason: "insufficient symptoms"}

// ErrNoKnowledgeBase is returned when the condition source is missing,
// including a nil *knowledge.KnowledgeBase held in the interface.
var ErrNoKnowledgeBase = errors.New("matcher: knowledge base is required")

// InputValidationError reports input the matcher refuses to score.
type InputValidationError struct {
	Reason string
}

func (err *InputValidationError) Error() string {
	return err.Reason
}

// IsInputValidation reports whether err is (or wraps) an InputValidationError.
func IsInputValidation(err error) bool {
	var target *InputValidationError
	return errors.As(err, &target)
}

// ConditionSource is the read side of a knowledge base the matcher needs.
type ConditionSource interface {
	AllConditions() []knowledge.Condition
}

// Result is either a match (Matched true) or NoMatch.
type Result struct {
	Matched   bool                `json:"matched"`
	Condition knowledge.Condition `json:"condition"`
	Score     float64             `json:"score"`
	Overlap   int                 `json:"overlap"`
}

// NoMatch is the result when no condition clears the overlap floor.
var NoMatch = Result{}

// Candidate is an eligible condition with its score.
type Candidate struct {
	Condition knowledge.Condition `json:"condition"`
	Overlap   int                 `json:"overlap"`
	Score     float64             `json:"score"`
}

// Match returns the best eligible condition for set. Conditions are visited in
// source order and the best is only replaced by a strictly greater score, so
// on a tie the earliest condition wins.
func Match(set SymptomSet, source ConditionSource) (Result, error) {
	if err := validate(set, source); err != nil {
		return Result{}, err
	}

	best := NoMatch
	for _, condition := range source.AllConditions() {
		candidate, eligible := score(set, condition)
		if !eligible {
			continue
		}
		if candidate.Score > best.Score {
			best = Result{
				Matched:   true,
				Condition: candidate.Condition,
				Score:     candidate.Score,
				Overlap:   candidate.Overlap,
			}
		}
	}
	return best, nil
}

// Rank returns every eligible condition, highest score first, ties in source
// order. limit <= 0 returns all of them. The first entry is always the
// condition Match would pick.
func Rank(set SymptomSet, source ConditionSource, limit int) ([]Candidate, error) {
	if err := validate(set, source); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0)
	for _, condition := range source.AllConditions() {
		if candidate, eligible := score(set, condition); eligible {
			candidates = append(candidates, candidate)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// Score computes 2*|K ∩ S| / (|K| + |S|) for a single condition.
func Score(set SymptomSet, condition knowledge.Condition) float64 {
	if len(condition.Symptoms)+set.Len() == 0 {
		return 0
	}
	return float64(2*set.overlap(condition.Symptoms)) / float64(len(condition.Symptoms)+set.Len())
}

func score(set SymptomSet, condition knowledge.Condition) (Candidate, bool) {
	overlap := set.overlap(condition.Symptoms)
	if overlap < OverlapFloor {
		return Candidate{}, false
	}
	return Candidate{
		Condition: condition,
		Overlap:   overlap,
		Score:     float64(2*overlap) / float64(len(condition.Symptoms)+set.Len()),
	}, true
}

func validate(set SymptomSet, source ConditionSource) error {
	if set.Len() < MinSymptoms {
		return fmt.Errorf("%w: got %d, need at least %d", ErrInsufficientSymptoms, set.Len(), MinSymptoms)
	}
	if source == nil {
		return ErrNoKnowledgeBase
	}
	if base, ok := source.(*knowledge.KnowledgeBase); ok && base == nil {
		return ErrNoKnowledgeBase
	}
	return nil
}
