package catalog

import (
	"context"
	"testing"

	"scamslayer-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltInCatalogIsValid(t *testing.T) {
	require.NoError(t, Validate())
}

func TestScenariosOrderedAndComplete(t *testing.T) {
	all := Scenarios()
	require.Len(t, all, 8)
	for i, s := range all {
		assert.Equal(t, i+1, s.ID)
		assert.NotEmpty(t, s.Questions(), "scenario %d", s.ID)
	}
}

func TestPhishingScenarioMatchesOriginalContent(t *testing.T) {
	s, ok := Lookup(PhishingEmail)
	require.True(t, ok)

	assert.Equal(t, 50, s.XPReward)
	assert.Equal(t, domain.BadgePhishingExpert, s.Badge)
	assert.Equal(t, 80, s.RequiredScoreForBadge)
	require.Len(t, s.Steps, 3)
	assert.Equal(t, domain.StepInfo, s.Steps[0].Kind)

	q, ok := s.Question(2)
	require.True(t, ok)
	assert.Equal(t, "b", q.CorrectAnswerID)
	q, ok = s.Question(3)
	require.True(t, ok)
	assert.Equal(t, "c", q.CorrectAnswerID)
}

func TestLoader(t *testing.T) {
	loader := NewLoader()

	s, err := loader.LoadScenario(context.Background(), CreditCardScam)
	require.NoError(t, err)
	assert.Equal(t, domain.BadgeFinancialGuard, s.Badge)

	_, err = loader.LoadScenario(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
}
