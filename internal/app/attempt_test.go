package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamslayer-service/internal/app"
	"scamslayer-service/internal/catalog"
	"scamslayer-service/internal/domain"
)

func phishingAttempt(t *testing.T) *app.Attempt {
	t.Helper()
	scenario, ok := catalog.Lookup(catalog.PhishingEmail)
	require.True(t, ok)
	return app.NewAttempt("attempt-1", "u1", scenario)
}

func TestAttemptWalkThrough(t *testing.T) {
	a := phishingAttempt(t)

	// Info step always allows advancing.
	assert.True(t, a.CanAdvance())
	require.NoError(t, a.Next())

	assert.False(t, a.CanAdvance())
	assert.ErrorIs(t, a.Next(), domain.ErrAnswerRequired)

	require.NoError(t, a.SelectAnswer(2, "a"))
	require.NoError(t, a.SelectAnswer(2, "b"))
	require.NoError(t, a.Next())

	require.NoError(t, a.SelectAnswer(3, "c"))
	require.NoError(t, a.Next())

	view := a.View()
	assert.Equal(t, "reviewing", view.Phase)
	require.NotNil(t, view.Score)
	assert.Equal(t, domain.Score{Correct: 2, Total: 2, Percentage: 100}, *view.Score)
	require.Len(t, view.Review, 2)
	assert.True(t, view.Review[0].Correct)
}

func TestAttemptRejectsUnknownAnswers(t *testing.T) {
	a := phishingAttempt(t)
	assert.ErrorIs(t, a.SelectAnswer(99, "a"), domain.ErrQuestionNotFound)
	assert.ErrorIs(t, a.SelectAnswer(2, "z"), domain.ErrOptionNotFound)
	// The info step is not a question.
	assert.ErrorIs(t, a.SelectAnswer(1, "a"), domain.ErrQuestionNotFound)
}

func TestAttemptPreviousClampsAtStart(t *testing.T) {
	a := phishingAttempt(t)
	require.NoError(t, a.Previous())
	assert.Equal(t, 0, a.View().StepIndex)

	require.NoError(t, a.Next())
	require.NoError(t, a.Previous())
	assert.Equal(t, 0, a.View().StepIndex)
}

func TestAttemptViewHidesAnswerKeyWhileInProgress(t *testing.T) {
	a := phishingAttempt(t)
	require.NoError(t, a.Next())
	view := a.View()
	require.NotNil(t, view.Step)
	require.NotNil(t, view.Step.Question)
	assert.Empty(t, view.Review)
	assert.Nil(t, view.Score)
}

func TestAttemptCompletionLifecycle(t *testing.T) {
	a := finishedAttempt(t)

	_, err := a.BeginCompletion()
	require.NoError(t, err)
	_, err = a.BeginCompletion()
	assert.ErrorIs(t, err, domain.ErrCompletionInFlight)

	a.EndCompletion(domain.ErrPersistenceFailure)
	view := a.View()
	assert.Equal(t, "reviewing", view.Phase)
	assert.True(t, view.Retryable)
	assert.False(t, view.Submitting)

	_, err = a.BeginCompletion()
	require.NoError(t, err)
	a.EndCompletion(nil)
	assert.Equal(t, "finalized", a.View().Phase)

	assert.ErrorIs(t, a.SelectAnswer(2, "a"), domain.ErrAttemptClosed)
	assert.ErrorIs(t, a.Next(), domain.ErrAttemptClosed)
	_, err = a.BeginCompletion()
	assert.ErrorIs(t, err, domain.ErrNotReviewing)
}

func TestBeginCompletionRequiresReview(t *testing.T) {
	_, err := phishingAttempt(t).BeginCompletion()
	assert.ErrorIs(t, err, domain.ErrNotReviewing)
}

func finishedAttempt(t *testing.T) *app.Attempt {
	t.Helper()
	a := phishingAttempt(t)
	require.NoError(t, a.Next())
	require.NoError(t, a.SelectAnswer(2, "b"))
	require.NoError(t, a.Next())
	require.NoError(t, a.SelectAnswer(3, "d"))
	require.NoError(t, a.Next())
	return a
}
