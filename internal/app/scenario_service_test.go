package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scamslayer-service/internal/app"
	"scamslayer-service/internal/catalog"
	"scamslayer-service/internal/domain"
	"scamslayer-service/internal/infra/memory"
)

func newTestService(l app.Ledger) *app.ScenarioService {
	scenarios := memory.NewScenarioRepository(catalog.NewLoader(), 5*time.Minute)
	return app.NewScenarioService(memory.NewAttemptStore(), scenarios, newProgression(l), zap.NewNop())
}

func playPhishing(t *testing.T, svc *app.ScenarioService, userID string, second string) app.AttemptView {
	t.Helper()
	ctx := context.Background()
	view, err := svc.Start(ctx, userID, catalog.PhishingEmail)
	require.NoError(t, err)

	_, err = svc.Next(ctx, view.ID, userID)
	require.NoError(t, err)
	_, err = svc.SelectAnswer(ctx, view.ID, userID, 2, "b")
	require.NoError(t, err)
	_, err = svc.Next(ctx, view.ID, userID)
	require.NoError(t, err)
	_, err = svc.SelectAnswer(ctx, view.ID, userID, 3, second)
	require.NoError(t, err)
	view, err = svc.Next(ctx, view.ID, userID)
	require.NoError(t, err)
	require.Equal(t, "reviewing", view.Phase)
	return view
}

func TestCompleteFinalizesAndAwards(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewLedger())
	view := playPhishing(t, svc, "u1", "c")

	result, err := svc.Complete(ctx, view.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "finalized", result.Attempt.Phase)
	assert.Equal(t, 50, result.Outcome.Profile.XP)
	require.Len(t, result.Outcome.NewBadges, 1)
	assert.Equal(t, domain.BadgePhishingExpert, result.Outcome.NewBadges[0].ID)
}

func TestCompleteNotifyReportsSubmittingView(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewLedger())
	view := playPhishing(t, svc, "u1", "c")

	var seen []app.AttemptView
	result, err := svc.CompleteNotify(ctx, view.ID, "u1", func(v app.AttemptView) { seen = append(seen, v) })
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.True(t, seen[0].Submitting)
	assert.Equal(t, "reviewing", seen[0].Phase)
	assert.False(t, result.Attempt.Submitting)
	assert.Equal(t, "finalized", result.Attempt.Phase)

	// No hook call when the completion never starts.
	seen = nil
	_, err = svc.CompleteNotify(ctx, view.ID, "u1", func(v app.AttemptView) { seen = append(seen, v) })
	require.ErrorIs(t, err, domain.ErrNotReviewing)
	assert.Empty(t, seen)
}

func TestReplayAfterCompletionIsAlreadyCompleted(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewLedger())

	first := playPhishing(t, svc, "u1", "c")
	_, err := svc.Complete(ctx, first.ID, "u1")
	require.NoError(t, err)

	replay := playPhishing(t, svc, "u1", "a")
	result, err := svc.Complete(ctx, replay.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "finalized", result.Attempt.Phase)
	assert.True(t, result.Outcome.AlreadyCompleted)
	assert.Equal(t, 50, result.Outcome.Profile.XP)
}

func TestCompleteWithoutUserKeepsReview(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewLedger())
	view := playPhishing(t, svc, "", "c")

	result, err := svc.Complete(ctx, view.ID, "")
	require.ErrorIs(t, err, domain.ErrAuthenticationRequired)
	assert.Equal(t, "reviewing", result.Attempt.Phase)
	require.NotNil(t, result.Attempt.Score)
	assert.Equal(t, 100, result.Attempt.Score.Percentage)

	// Signing in afterwards lets the anonymous attempt be recorded.
	result, err = svc.Complete(ctx, view.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "finalized", result.Attempt.Phase)
}

func TestCompletePersistenceFailureStaysRetryable(t *testing.T) {
	ctx := context.Background()
	ledger := newFlakyLedger()
	ledger.failCompletion = true
	svc := newTestService(ledger)
	view := playPhishing(t, svc, "u1", "c")

	result, err := svc.Complete(ctx, view.ID, "u1")
	require.ErrorIs(t, err, domain.ErrPersistenceFailure)
	assert.Equal(t, "reviewing", result.Attempt.Phase)
	assert.True(t, result.Attempt.Retryable)

	ledger.failCompletion = false
	result, err = svc.Complete(ctx, view.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "finalized", result.Attempt.Phase)
	assert.False(t, result.Attempt.Retryable)
}

func TestAttemptsAreOwnedByTheirUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewLedger())
	view, err := svc.Start(ctx, "u1", catalog.PhishingEmail)
	require.NoError(t, err)

	_, err = svc.Next(ctx, view.ID, "u2")
	assert.ErrorIs(t, err, domain.ErrAttemptNotFound)
	_, err = svc.Complete(ctx, "missing", "u1")
	assert.ErrorIs(t, err, domain.ErrAttemptNotFound)
}

func TestStartUnknownScenario(t *testing.T) {
	_, err := newTestService(memory.NewLedger()).Start(context.Background(), "u1", 1234)
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
}

func TestScenarioDetailHidesAnswers(t *testing.T) {
	detail, err := newTestService(memory.NewLedger()).Scenario(context.Background(), catalog.PhishingEmail)
	require.NoError(t, err)
	require.Len(t, detail.Steps, 3)
	require.NotNil(t, detail.Steps[1].Question)
	assert.Len(t, detail.Steps[1].Question.Options, 2)
	require.NotNil(t, detail.Badge)
	assert.Equal(t, "Phishing Expert", detail.Badge.Name)
}

func TestAbandonAndSweep(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewLedger())
	view, err := svc.Start(ctx, "u1", catalog.FakeJobOffer)
	require.NoError(t, err)

	svc.Abandon(ctx, view.ID, "u1")
	_, err = svc.Get(ctx, view.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrAttemptNotFound)

	_, err = svc.Start(ctx, "u1", catalog.FakeJobOffer)
	require.NoError(t, err)
	assert.Equal(t, 0, svc.SweepIdle(time.Hour))
	assert.Equal(t, 1, svc.SweepIdle(-time.Second))
}
