package app

import (
	"errors"
	"sync"
	"time"

	"scamslayer-service/internal/domain"
)

// Phase is the lifecycle position of an attempt.
type Phase int

const (
	PhaseInProgress Phase = iota // walking through steps
	PhaseReviewing               // score computed, waiting for the completion to be recorded
	PhaseFinalized               // completion recorded
)

func (p Phase) String() string {
	switch p {
	case PhaseInProgress:
		return "in_progress"
	case PhaseReviewing:
		return "reviewing"
	case PhaseFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Attempt is one user's walk through a scenario. Navigation is strictly linear.
type Attempt struct {
	id         string
	userID     string
	scenario   domain.Scenario
	now        func() time.Time
	mu         sync.Mutex
	stepIndex  int
	answers    domain.Answers
	phase      Phase
	score      domain.Score
	submitting bool
	retryable  bool
	lastError  string
	touchedAt  time.Time
}

// NewAttempt starts an attempt at the first step.
func NewAttempt(id, userID string, scenario domain.Scenario) *Attempt {
	return NewAttemptWithClock(id, userID, scenario, time.Now)
}

// NewAttemptWithClock allows deterministic timestamps in tests.
func NewAttemptWithClock(id, userID string, scenario domain.Scenario, now func() time.Time) *Attempt {
	return &Attempt{
		id:        id,
		userID:    userID,
		scenario:  scenario,
		now:       now,
		answers:   make(domain.Answers),
		phase:     PhaseInProgress,
		touchedAt: now(),
	}
}

func (a *Attempt) ID() string { return a.id }

func (a *Attempt) UserID() string { return a.userID }

func (a *Attempt) ScenarioID() int { return a.scenario.ID }

// TouchedAt is the time of the last interaction.
func (a *Attempt) TouchedAt() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.touchedAt
}

// SelectAnswer records or overwrites the choice for a question.
func (a *Attempt) SelectAnswer(questionID int, optionID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.phase != PhaseInProgress {
		return domain.ErrAttemptClosed
	}
	q, ok := a.scenario.Question(questionID)
	if !ok {
		return domain.ErrQuestionNotFound
	}
	if !q.HasOption(optionID) {
		return domain.ErrOptionNotFound
	}
	a.answers[questionID] = optionID
	a.touchedAt = a.now()
	return nil
}

// CanAdvance reports whether the current step allows moving on.
func (a *Attempt) CanAdvance() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.canAdvanceLocked()
}

func (a *Attempt) canAdvanceLocked() bool {
	if a.phase != PhaseInProgress || len(a.scenario.Steps) == 0 {
		return false
	}
	step := a.scenario.Steps[a.stepIndex]
	if step.Kind != domain.StepQuestion {
		return true
	}
	_, answered := a.answers[step.Question.ID]
	return answered
}

// Next moves to the following step. Leaving the last step computes the score and enters review.
func (a *Attempt) Next() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.phase != PhaseInProgress {
		return domain.ErrAttemptClosed
	}
	if !a.canAdvanceLocked() {
		return domain.ErrAnswerRequired
	}
	a.touchedAt = a.now()
	if a.stepIndex < len(a.scenario.Steps)-1 {
		a.stepIndex++
		return nil
	}

	score, err := ComputeScore(a.scenario, a.answers)
	if err != nil {
		return err
	}
	a.score = score
	a.phase = PhaseReviewing
	return nil
}

// Previous moves back one step, stopping at the first.
func (a *Attempt) Previous() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.phase != PhaseInProgress {
		return domain.ErrAttemptClosed
	}
	if a.stepIndex > 0 {
		a.stepIndex--
	}
	a.touchedAt = a.now()
	return nil
}

// BeginCompletion marks a completion as in flight and returns the score to record.
// Only one completion may run at a time.
func (a *Attempt) BeginCompletion() (domain.Score, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.phase != PhaseReviewing {
		return domain.Score{}, domain.ErrNotReviewing
	}
	if a.submitting {
		return domain.Score{}, domain.ErrCompletionInFlight
	}
	a.submitting = true
	a.lastError = ""
	a.touchedAt = a.now()
	return a.score, nil
}

// EndCompletion settles an in-flight completion. A nil error finalizes the attempt;
// anything else leaves it in review.
func (a *Attempt) EndCompletion(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.submitting = false
	a.touchedAt = a.now()
	if err == nil {
		a.phase = PhaseFinalized
		a.retryable = false
		a.lastError = ""
		return
	}
	a.lastError = err.Error()
	a.retryable = errors.Is(err, domain.ErrPersistenceFailure) || errors.Is(err, domain.ErrCompletionInFlight)
}

// AttemptView is the transport-facing snapshot of an attempt. Correct answers are only
// included once the attempt is in review.
type AttemptView struct {
	ID          string         `json:"id"`
	ScenarioID  int            `json:"scenarioId"`
	Title       string         `json:"title"`
	Phase       string         `json:"phase"`
	StepIndex   int            `json:"stepIndex"`
	StepCount   int            `json:"stepCount"`
	Step        *StepView      `json:"step,omitempty"`
	CanAdvance  bool           `json:"canAdvance"`
	Answers     domain.Answers `json:"answers"`
	Score       *domain.Score  `json:"score,omitempty"`
	XPReward    int            `json:"xpReward"`
	Submitting  bool           `json:"submitting"`
	Retryable   bool           `json:"retryable"`
	LastError   string         `json:"lastError,omitempty"`
	Review      []ReviewItem   `json:"review,omitempty"`
	ProgressPct int            `json:"progressPercent"`
}

// StepView hides the answer key of a question step.
type StepView struct {
	ID       int                 `json:"id"`
	Kind     domain.StepKind     `json:"type"`
	Info     *domain.InfoContent `json:"info,omitempty"`
	Question *QuestionView       `json:"question,omitempty"`
}

type QuestionView struct {
	ID      int             `json:"id"`
	Text    string          `json:"text"`
	Options []domain.Option `json:"options"`
}

// ReviewItem explains one question after scoring.
type ReviewItem struct {
	QuestionID      int    `json:"questionId"`
	Selected        string `json:"selected"`
	CorrectAnswerID string `json:"correctAnswerId"`
	Correct         bool   `json:"correct"`
	Explanation     string `json:"explanation,omitempty"`
}

// View snapshots the attempt.
func (a *Attempt) View() AttemptView {
	a.mu.Lock()
	defer a.mu.Unlock()

	view := AttemptView{
		ID:         a.id,
		ScenarioID: a.scenario.ID,
		Title:      a.scenario.Title,
		Phase:      a.phase.String(),
		StepIndex:  a.stepIndex,
		StepCount:  len(a.scenario.Steps),
		CanAdvance: a.canAdvanceLocked(),
		Answers:    a.answers.Clone(),
		XPReward:   a.scenario.XPReward,
		Submitting: a.submitting,
		Retryable:  a.retryable,
		LastError:  a.lastError,
	}
	if view.StepCount > 0 {
		view.ProgressPct = roundPercent(a.stepIndex+1, view.StepCount)
	}

	if a.phase == PhaseInProgress {
		if view.StepCount == 0 {
			return view
		}
		step := NewStepView(a.scenario.Steps[a.stepIndex])
		view.Step = &step
		return view
	}

	score := a.score
	view.Score = &score
	view.ProgressPct = 100
	for _, q := range a.scenario.Questions() {
		selected := a.answers[q.ID]
		view.Review = append(view.Review, ReviewItem{
			QuestionID:      q.ID,
			Selected:        selected,
			CorrectAnswerID: q.CorrectAnswerID,
			Correct:         selected == q.CorrectAnswerID,
			Explanation:     q.Explanation,
		})
	}
	return view
}

// NewStepView strips the answer key from a step.
func NewStepView(step domain.Step) StepView {
	view := StepView{ID: step.ID, Kind: step.Kind, Info: step.Info}
	if step.Question != nil {
		view.Question = &QuestionView{
			ID:      step.Question.ID,
			Text:    step.Question.Text,
			Options: step.Question.Options,
		}
	}
	return view
}
