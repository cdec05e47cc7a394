package matcher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraincognita07/medimatch/internal/knowledge"
)

func fluColdBase(t *testing.T) *knowledge.KnowledgeBase {
	t.Helper()

	base, err := knowledge.New([]knowledge.Condition{
		{Name: "Flu", Symptoms: []string{"fever", "cough", "fatigue"}, Explanation: "viral", Guidance: "rest"},
		{Name: "Cold", Symptoms: []string{"cough", "sore_throat"}},
	}, nil)
	require.NoError(t, err)
	return base
}

func TestMatchExactSetScoresOne(t *testing.T) {
	result, err := Match(NewSymptomSet("fever", "cough", "fatigue"), fluColdBase(t))
	require.NoError(t, err)

	require.True(t, result.Matched)
	assert.Equal(t, "Flu", result.Condition.Name)
	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, 3, result.Overlap)
	assert.Equal(t, "viral", result.Condition.Explanation)
	assert.Equal(t, "rest", result.Condition.Guidance)
}

func TestMatchPartialOverlapExcludesBelowFloor(t *testing.T) {
	result, err := Match(NewSymptomSet("fever", "cough"), fluColdBase(t))
	require.NoError(t, err)

	require.True(t, result.Matched)
	assert.Equal(t, "Flu", result.Condition.Name)
	assert.InDelta(t, 0.8, result.Score, 1e-12)
}

func TestMatchNoEligibleConditionIsNoMatch(t *testing.T) {
	result, err := Match(NewSymptomSet("rash", "itching"), fluColdBase(t))
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Equal(t, NoMatch, result)
}

func TestMatchRejectsFewerThanTwoSymptoms(t *testing.T) {
	for _, set := range []SymptomSet{NewSymptomSet(), NewSymptomSet("fever"), NewSymptomSet("rash"), NewSymptomSet("fever", "fever", " ")} {
		_, err := Match(set, fluColdBase(t))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientSymptoms))
		assert.True(t, IsInputValidation(err))
	}
}

func TestMatchInsufficientSymptomsIgnoresKnowledgeBase(t *testing.T) {
	_, err := Match(NewSymptomSet("fever"), nil)
	assert.ErrorIs(t, err, ErrInsufficientSymptoms)
}

func TestMatchRejectsMissingKnowledgeBase(t *testing.T) {
	set := NewSymptomSet("fever", "cough")

	_, err := Match(set, nil)
	assert.ErrorIs(t, err, ErrNoKnowledgeBase)

	var base *knowledge.KnowledgeBase
	require.NotPanics(t, func() {
		_, err = Match(set, base)
	})
	assert.ErrorIs(t, err, ErrNoKnowledgeBase)

	require.NotPanics(t, func() {
		_, err = Rank(set, base, 0)
	})
	assert.ErrorIs(t, err, ErrNoKnowledgeBase)
}

func TestMatchSingleSharedSymptomNeverWins(t *testing.T) {
	base, err := knowledge.New([]knowledge.Condition{
		{Name: "OnlyFever", Symptoms: []string{"fever"}},
		{Name: "FeverRash", Symptoms: []string{"fever", "rash", "itching", "headache"}},
	}, nil)
	require.NoError(t, err)

	result, err := Match(NewSymptomSet("fever", "cough"), base)
	require.NoError(t, err)
	assert.False(t, result.Matched, "a condition sharing one symptom must not match")
}

func TestMatchTieGoesToEarliestCondition(t *testing.T) {
	base, err := knowledge.New([]knowledge.Condition{
		{Name: "First", Symptoms: []string{"fever", "cough", "fatigue"}},
		{Name: "Second", Symptoms: []string{"fever", "cough", "fatigue"}},
		{Name: "Third", Symptoms: []string{"fatigue", "cough", "fever"}},
	}, nil)
	require.NoError(t, err)

	for _, set := range []SymptomSet{
		NewSymptomSet("fever", "cough"),
		NewSymptomSet("fever", "cough", "fatigue"),
		NewSymptomSet("fatigue", "cough", "rash", "nausea"),
	} {
		result, err := Match(set, base)
		require.NoError(t, err)
		require.True(t, result.Matched)
		assert.Equal(t, "First", result.Condition.Name)
	}
}

func TestMatchIsDeterministic(t *testing.T) {
	base, err := knowledge.Default()
	require.NoError(t, err)

	set := NewSymptomSet("fever", "headache", "nausea", "vomiting")
	first, err := Match(set, base)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := Match(NewSymptomSet("vomiting", "nausea", "headache", "fever"), base)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMatchScoreBounds(t *testing.T) {
	base, err := knowledge.Default()
	require.NoError(t, err)

	vocabulary := base.Vocabulary()
	for i := 0; i+3 <= len(vocabulary); i++ {
		set := NewSymptomSet(vocabulary[i : i+3]...)
		result, err := Match(set, base)
		require.NoError(t, err)
		if !result.Matched {
			continue
		}
		assert.Greater(t, result.Score, 0.0)
		assert.LessOrEqual(t, result.Score, 1.0)
		if result.Score == 1.0 {
			assert.ElementsMatch(t, result.Condition.Symptoms, set.Tokens())
		}
	}

	for _, condition := range base.AllConditions() {
		exact, err := Match(NewSymptomSet(condition.Symptoms...), base)
		require.NoError(t, err)
		require.True(t, exact.Matched)
		assert.Equal(t, 1.0, exact.Score)
		assert.Equal(t, condition.Name, exact.Condition.Name)
	}
}

func TestMatchDefaultKnowledgeBaseScenarios(t *testing.T) {
	base, err := knowledge.Default()
	require.NoError(t, err)

	cases := []struct {
		symptoms []string
		want     string
	}{
		{symptoms: []string{"fever", "cough", "chest_pain", "breathlessness"}, want: "Pneumonia"},
		{symptoms: []string{"frequent_urination", "excessive_thirst"}, want: "Diabetes"},
		{symptoms: []string{"headache", "seizures", "memory_loss"}, want: "Brain Tumor"},
		{symptoms: []string{"fever", "chills", "sweating"}, want: "Malaria"},
	}
	for _, tc := range cases {
		result, err := Match(NewSymptomSet(tc.symptoms...), base)
		require.NoError(t, err)
		require.True(t, result.Matched, "%v", tc.symptoms)
		assert.Equal(t, tc.want, result.Condition.Name, "%v", tc.symptoms)
	}
}

func TestMatchResultIsCopiedOut(t *testing.T) {
	base := fluColdBase(t)
	result, err := Match(NewSymptomSet("fever", "cough"), base)
	require.NoError(t, err)

	result.Condition.Symptoms[0] = "mutated"
	flu, err := base.Lookup("Flu")
	require.NoError(t, err)
	assert.Equal(t, "fever", flu.Symptoms[0])
}

func TestRankOrdersEligibleCandidates(t *testing.T) {
	base, err := knowledge.New([]knowledge.Condition{
		{Name: "Wide", Symptoms: []string{"fever", "cough", "fatigue", "rash", "nausea", "chills"}},
		{Name: "Narrow", Symptoms: []string{"fever", "cough"}},
		{Name: "NarrowTwin", Symptoms: []string{"cough", "fever"}},
		{Name: "Unrelated", Symptoms: []string{"fever", "itching"}},
	}, nil)
	require.NoError(t, err)

	set := NewSymptomSet("fever", "cough", "fatigue")
	ranked, err := Rank(set, base, 0)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "Narrow", ranked[0].Condition.Name)
	assert.Equal(t, "NarrowTwin", ranked[1].Condition.Name)
	assert.Equal(t, "Wide", ranked[2].Condition.Name)

	best, err := Match(set, base)
	require.NoError(t, err)
	assert.Equal(t, best.Condition.Name, ranked[0].Condition.Name)
	assert.Equal(t, best.Score, ranked[0].Score)

	limited, err := Rank(set, base, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = Rank(NewSymptomSet("fever"), base, 3)
	assert.ErrorIs(t, err, ErrInsufficientSymptoms)
}

func TestScoreHelper(t *testing.T) {
	set := NewSymptomSet("fever", "cough")
	assert.InDelta(t, 0.8, Score(set, knowledge.Condition{Symptoms: []string{"fever", "cough", "fatigue"}}), 1e-12)
	assert.InDelta(t, 0.5, Score(set, knowledge.Condition{Symptoms: []string{"cough", "sore_throat"}}), 1e-12)
}

func TestSymptomSetBasics(t *testing.T) {
	set := NewSymptomSet("cough", "fever", "cough", "", "  ")
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains("fever"))
	assert.False(t, set.Contains("rash"))
	assert.Equal(t, []string{"cough", "fever"}, set.Tokens())
	assert.Equal(t, NewSymptomSet("fever", "cough").Key(), set.Key())
}
