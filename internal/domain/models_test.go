package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScenario() Scenario {
	return Scenario{
		ID:       1,
		Title:    "Phishing",
		XPReward: 50,
		Steps: []Step{
			{ID: 1, Kind: StepInfo, Info: &InfoContent{Title: "Email", Body: "..."}},
			{ID: 2, Kind: StepQuestion, Question: &Question{
				ID:              2,
				Text:            "Scam?",
				Options:         []Option{{ID: "a", Text: "No"}, {ID: "b", Text: "Yes"}},
				CorrectAnswerID: "b",
			}},
		},
	}
}

func TestScenarioValidate(t *testing.T) {
	require.NoError(t, validScenario().Validate())

	tests := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{"no steps", func(s *Scenario) { s.Steps = nil }},
		{"info only", func(s *Scenario) { s.Steps = s.Steps[:1] }},
		{"correct answer not an option", func(s *Scenario) {
			q := *s.Steps[1].Question
			q.CorrectAnswerID = "z"
			s.Steps[1].Question = &q
		}},
		{"no options", func(s *Scenario) {
			q := *s.Steps[1].Question
			q.Options = nil
			s.Steps[1].Question = &q
		}},
		{"duplicate step id", func(s *Scenario) { s.Steps[1].ID = 1 }},
		{"unknown badge", func(s *Scenario) { s.Badge = BadgeKind(42) }},
		{"threshold above 100", func(s *Scenario) { s.RequiredScoreForBadge = 101 }},
		{"question step without question", func(s *Scenario) { s.Steps[1].Question = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validScenario()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidScenario)
		})
	}
}

func TestScenarioQuestionsSkipsInfoSteps(t *testing.T) {
	qs := validScenario().Questions()
	require.Len(t, qs, 1)
	assert.Equal(t, 2, qs[0].ID)
}

func TestBadgeKindEnumeration(t *testing.T) {
	for _, k := range AllBadgeKinds() {
		assert.True(t, k.Valid())
		assert.NotEmpty(t, k.Icon())
		parsed, err := ParseBadgeKind(int(k))
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	assert.False(t, BadgeNone.Valid())
	_, err := ParseBadgeKind(7)
	assert.Error(t, err)
	assert.Equal(t, IconMail, BadgePhishingExpert.Icon())
	assert.Equal(t, "Financial Guard", BadgeFinancialGuard.Name())
}
