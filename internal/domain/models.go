package domain

import (
	"fmt"
	"time"
)

// Difficulty grades a scenario for display.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// StepKind distinguishes informational steps from question steps.
type StepKind string

const (
	StepInfo     StepKind = "info"
	StepQuestion StepKind = "question"
)

// Option represents a possible answer for a question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question models a single-choice question. CorrectAnswerID must name one of Options.
type Question struct {
	ID              int      `json:"id"`
	Text            string   `json:"text"`
	Options         []Option `json:"options"`
	CorrectAnswerID string   `json:"correctAnswerId"`
	Explanation     string   `json:"explanation,omitempty"`
}

// HasOption reports whether optionID is one of the question's options.
func (q Question) HasOption(optionID string) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// InfoContent is the material shown on an informational step (an email, a text message, a pop-up).
type InfoContent struct {
	Title   string   `json:"title"`
	Sender  string   `json:"sender,omitempty"`
	Subject string   `json:"subject,omitempty"`
	Body    string   `json:"body"`
	Clues   []string `json:"clues,omitempty"`
}

// Step is one screen of a scenario. Exactly one of Info and Question is set, matching Kind.
type Step struct {
	ID       int          `json:"id"`
	Kind     StepKind     `json:"type"`
	Info     *InfoContent `json:"info,omitempty"`
	Question *Question    `json:"question,omitempty"`
}

// Scenario is a scam-identification exercise. Scenarios are immutable at runtime.
type Scenario struct {
	ID                    int        `json:"id"`
	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	Difficulty            Difficulty `json:"difficulty"`
	Steps                 []Step     `json:"steps"`
	XPReward              int        `json:"xpReward"`
	RequiredScoreForBadge int        `json:"requiredScoreForBadge,omitempty"`
	Badge                 BadgeKind  `json:"badgeId,omitempty"`
	Tips                  []string   `json:"tips,omitempty"`
}

// Questions returns the scenario's question steps in order.
func (s Scenario) Questions() []Question {
	questions := make([]Question, 0, len(s.Steps))
	for _, step := range s.Steps {
		if step.Kind == StepQuestion && step.Question != nil {
			questions = append(questions, *step.Question)
		}
	}
	return questions
}

// Question finds a question by ID.
func (s Scenario) Question(id int) (Question, bool) {
	for _, step := range s.Steps {
		if step.Kind == StepQuestion && step.Question != nil && step.Question.ID == id {
			return *step.Question, true
		}
	}
	return Question{}, false
}

// Validate checks the authoring invariants. Errors wrap ErrInvalidScenario.
func (s Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: scenario %d has no steps", ErrInvalidScenario, s.ID)
	}
	if s.XPReward < 0 {
		return fmt.Errorf("%w: scenario %d has negative xp reward", ErrInvalidScenario, s.ID)
	}
	if s.Badge != BadgeNone && !s.Badge.Valid() {
		return fmt.Errorf("%w: scenario %d references unknown badge %d", ErrInvalidScenario, s.ID, s.Badge)
	}
	if s.RequiredScoreForBadge < 0 || s.RequiredScoreForBadge > 100 {
		return fmt.Errorf("%w: scenario %d badge threshold %d outside 0-100", ErrInvalidScenario, s.ID, s.RequiredScoreForBadge)
	}

	stepIDs := make(map[int]struct{}, len(s.Steps))
	questions := 0
	for _, step := range s.Steps {
		if _, dup := stepIDs[step.ID]; dup {
			return fmt.Errorf("%w: scenario %d has duplicate step id %d", ErrInvalidScenario, s.ID, step.ID)
		}
		stepIDs[step.ID] = struct{}{}

		switch step.Kind {
		case StepInfo:
			if step.Info == nil {
				return fmt.Errorf("%w: scenario %d step %d has no content", ErrInvalidScenario, s.ID, step.ID)
			}
		case StepQuestion:
			if step.Question == nil {
				return fmt.Errorf("%w: scenario %d step %d has no question", ErrInvalidScenario, s.ID, step.ID)
			}
			if err := validateQuestion(s.ID, *step.Question); err != nil {
				return err
			}
			questions++
		default:
			return fmt.Errorf("%w: scenario %d step %d has unknown kind %q", ErrInvalidScenario, s.ID, step.ID, step.Kind)
		}
	}
	if questions == 0 {
		return fmt.Errorf("%w: scenario %d has no questions", ErrInvalidScenario, s.ID)
	}
	return nil
}

func validateQuestion(scenarioID int, q Question) error {
	if len(q.Options) == 0 {
		return fmt.Errorf("%w: scenario %d question %d has no options", ErrInvalidScenario, scenarioID, q.ID)
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if _, dup := seen[opt.ID]; dup {
			return fmt.Errorf("%w: scenario %d question %d repeats option %q", ErrInvalidScenario, scenarioID, q.ID, opt.ID)
		}
		seen[opt.ID] = struct{}{}
	}
	if _, ok := seen[q.CorrectAnswerID]; !ok {
		return fmt.Errorf("%w: scenario %d question %d correct answer %q is not an option", ErrInvalidScenario, scenarioID, q.ID, q.CorrectAnswerID)
	}
	return nil
}

// Answers maps question ID to the chosen option ID for one attempt.
type Answers map[int]string

// Clone returns an independent copy.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Score is derived from answers; Percentage is round(100*Correct/Total).
type Score struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// CompletionRecord is written at most once per (UserID, ScenarioID).
type CompletionRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	ScenarioID  int       `json:"scenarioId"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completedAt"`
}

// Profile is a user's cumulative progression. XP never decreases and Level is at least 1.
type Profile struct {
	UserID    string    `json:"userId"`
	XP        int       `json:"xp"`
	Level     int       `json:"level"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// BadgeAward is written at most once per (UserID, Badge).
type BadgeAward struct {
	UserID   string    `json:"userId"`
	Badge    BadgeKind `json:"badgeId"`
	EarnedAt time.Time `json:"earnedAt"`
}
