package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scamslayer-service/internal/domain"
)

// AttemptRepository abstracts where in-progress attempts live (in-memory, Redis, etc).
type AttemptRepository interface {
	Save(attempt *Attempt)
	Get(attemptID string) (*Attempt, bool)
	Delete(attemptID string)
	// Sweep drops attempts untouched since before cutoff and reports how many were removed.
	Sweep(cutoff time.Time) int
}

// ScenarioRepository loads scenario content (from cache/backing store).
type ScenarioRepository interface {
	GetScenario(ctx context.Context, id int) (domain.Scenario, error)
	ListScenarios(ctx context.Context) ([]domain.Scenario, error)
}

// ScenarioService contains the scenario walk-through use cases.
type ScenarioService struct {
	attempts    AttemptRepository
	scenarios   ScenarioRepository
	progression *ProgressionService
	logger      *zap.Logger
}

func NewScenarioService(attempts AttemptRepository, scenarios ScenarioRepository, progression *ProgressionService, logger *zap.Logger) *ScenarioService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScenarioService{attempts: attempts, scenarios: scenarios, progression: progression, logger: logger}
}

// ScenarioSummary is the catalogue card for a scenario.
type ScenarioSummary struct {
	ID          int               `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Difficulty  domain.Difficulty `json:"difficulty"`
	XPReward    int               `json:"xp"`
	Badge       *domain.BadgeInfo `json:"badge,omitempty"`
	Questions   int               `json:"questions"`
}

func summarize(s domain.Scenario) ScenarioSummary {
	sum := ScenarioSummary{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Difficulty:  s.Difficulty,
		XPReward:    s.XPReward,
		Questions:   len(s.Questions()),
	}
	if s.Badge != domain.BadgeNone {
		info := s.Badge.Info()
		sum.Badge = &info
	}
	return sum
}

// ListScenarios returns the catalogue cards ordered as the repository returns them.
func (s *ScenarioService) ListScenarios(ctx context.Context) ([]ScenarioSummary, error) {
	all, err := s.scenarios.ListScenarios(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ScenarioSummary, 0, len(all))
	for _, sc := range all {
		out = append(out, summarize(sc))
	}
	return out, nil
}

// ScenarioDetail is a scenario with its answer key removed.
type ScenarioDetail struct {
	ScenarioSummary
	Steps []StepView `json:"steps"`
	Tips  []string   `json:"tips,omitempty"`
}

// Scenario returns one scenario without correct answers.
func (s *ScenarioService) Scenario(ctx context.Context, id int) (ScenarioDetail, error) {
	sc, err := s.scenarios.GetScenario(ctx, id)
	if err != nil {
		return ScenarioDetail{}, err
	}
	detail := ScenarioDetail{ScenarioSummary: summarize(sc), Tips: sc.Tips}
	for _, step := range sc.Steps {
		detail.Steps = append(detail.Steps, NewStepView(step))
	}
	return detail, nil
}

// Start begins a new attempt. Anonymous users may play; they cannot record completions.
func (s *ScenarioService) Start(ctx context.Context, userID string, scenarioID int) (AttemptView, error) {
	scenario, err := s.scenarios.GetScenario(ctx, scenarioID)
	if err != nil {
		return AttemptView{}, err
	}
	if err := scenario.Validate(); err != nil {
		s.logger.Error("refusing to start invalid scenario", zap.Int("scenario", scenarioID), zap.Error(err))
		return AttemptView{}, err
	}

	attempt := NewAttempt(uuid.NewString(), userID, scenario)
	s.attempts.Save(attempt)
	s.logger.Debug("attempt started",
		zap.String("attempt", attempt.ID()), zap.String("user", userID), zap.Int("scenario", scenarioID))
	return attempt.View(), nil
}

// Get returns the current view of an attempt.
func (s *ScenarioService) Get(_ context.Context, attemptID, userID string) (AttemptView, error) {
	attempt, err := s.attempt(attemptID, userID)
	if err != nil {
		return AttemptView{}, err
	}
	return attempt.View(), nil
}

// SelectAnswer records an answer for the attempt.
func (s *ScenarioService) SelectAnswer(_ context.Context, attemptID, userID string, questionID int, optionID string) (AttemptView, error) {
	attempt, err := s.attempt(attemptID, userID)
	if err != nil {
		return AttemptView{}, err
	}
	if err := attempt.SelectAnswer(questionID, optionID); err != nil {
		return attempt.View(), err
	}
	return attempt.View(), nil
}

// Next advances the attempt; leaving the last step moves it to review.
func (s *ScenarioService) Next(_ context.Context, attemptID, userID string) (AttemptView, error) {
	attempt, err := s.attempt(attemptID, userID)
	if err != nil {
		return AttemptView{}, err
	}
	if err := attempt.Next(); err != nil {
		return attempt.View(), err
	}
	return attempt.View(), nil
}

// Previous moves the attempt back one step.
func (s *ScenarioService) Previous(_ context.Context, attemptID, userID string) (AttemptView, error) {
	attempt, err := s.attempt(attemptID, userID)
	if err != nil {
		return AttemptView{}, err
	}
	if err := attempt.Previous(); err != nil {
		return attempt.View(), err
	}
	return attempt.View(), nil
}

// CompletionResult pairs the attempt state with the progression outcome.
type CompletionResult struct {
	Attempt AttemptView `json:"attempt"`
	Outcome Outcome     `json:"outcome"`
}

// Complete records a reviewed attempt. The attempt is finalized only when the ledger
// accepted the completion (or already had it); on failure it stays in review and can be retried.
func (s *ScenarioService) Complete(ctx context.Context, attemptID, userID string) (CompletionResult, error) {
	return s.CompleteNotify(ctx, attemptID, userID, nil)
}

// CompleteNotify is Complete with a hook called with the submitting view once the
// completion is in flight, before any ledger write.
func (s *ScenarioService) CompleteNotify(ctx context.Context, attemptID, userID string, submitting func(AttemptView)) (CompletionResult, error) {
	attempt, err := s.attempt(attemptID, userID)
	if err != nil {
		return CompletionResult{}, err
	}
	if userID == "" {
		return CompletionResult{Attempt: attempt.View()}, domain.ErrAuthenticationRequired
	}

	score, err := attempt.BeginCompletion()
	if err != nil {
		return CompletionResult{Attempt: attempt.View()}, err
	}
	if submitting != nil {
		submitting(attempt.View())
	}

	outcome, err := s.apply(ctx, attempt.ScenarioID(), userID, score)
	if errors.Is(err, domain.ErrAlreadyCompleted) {
		err = nil
	}
	attempt.EndCompletion(err)
	if err != nil {
		return CompletionResult{Attempt: attempt.View()}, err
	}
	return CompletionResult{Attempt: attempt.View(), Outcome: outcome}, nil
}

func (s *ScenarioService) apply(ctx context.Context, scenarioID int, userID string, score domain.Score) (Outcome, error) {
	scenario, err := s.scenarios.GetScenario(ctx, scenarioID)
	if err != nil {
		return Outcome{}, err
	}
	return s.progression.ApplyCompletion(ctx, userID, scenario, score)
}

// Abandon discards an attempt and its answers.
func (s *ScenarioService) Abandon(_ context.Context, attemptID, userID string) {
	if _, err := s.attempt(attemptID, userID); err != nil {
		return
	}
	s.attempts.Delete(attemptID)
}

// SweepIdle drops attempts idle for longer than maxIdle.
func (s *ScenarioService) SweepIdle(maxIdle time.Duration) int {
	removed := s.attempts.Sweep(time.Now().Add(-maxIdle))
	if removed > 0 {
		s.logger.Info("swept idle attempts", zap.Int("removed", removed))
	}
	return removed
}

// attempt fetches an attempt owned by userID. Attempts started anonymously may be
// completed by a user who signs in later.
func (s *ScenarioService) attempt(attemptID, userID string) (*Attempt, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	if attempt.UserID() != "" && attempt.UserID() != userID {
		return nil, domain.ErrAttemptNotFound
	}
	return attempt, nil
}
