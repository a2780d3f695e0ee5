package domain

import "errors"

var (
	// ErrInvalidScenario indicates malformed scenario content (no questions, bad answer key).
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrAlreadyCompleted is returned when a user has already completed a scenario.
	// Callers treat it as success and skip the award.
	ErrAlreadyCompleted = errors.New("scenario already completed")
	// ErrAuthenticationRequired is returned when a completion is attempted without a signed-in user.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrPersistenceFailure wraps any ledger failure; the operation can be retried.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrScenarioNotFound indicates the scenario content could not be loaded.
	ErrScenarioNotFound = errors.New("scenario not found")
	// ErrAttemptNotFound is returned for unknown or expired attempts.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option ID is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrAnswerRequired is returned when advancing past an unanswered question.
	ErrAnswerRequired = errors.New("answer required before advancing")
	// ErrAttemptClosed is returned when answers or navigation arrive after the questions are done.
	ErrAttemptClosed = errors.New("attempt no longer accepts answers")
	// ErrNotReviewing is returned when completing an attempt that has not reached review.
	ErrNotReviewing = errors.New("attempt is not awaiting completion")
	// ErrCompletionInFlight is returned while another completion for the same attempt is running.
	ErrCompletionInFlight = errors.New("completion already in progress")
	// ErrProfileNotFound is returned by ledgers when no profile row exists.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidReport is returned for incomplete scam reports.
	ErrInvalidReport = errors.New("invalid report")
)
