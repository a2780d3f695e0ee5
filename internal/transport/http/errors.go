package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"scamslayer-service/internal/app"
	"scamslayer-service/internal/domain"
)

// Error codes surfaced to clients.
const (
	CodeInvalidScenario        = "invalid_scenario"
	CodeAlreadyCompleted       = "already_completed"
	CodeAuthenticationRequired = "authentication_required"
	CodePersistenceFailure     = "persistence_failure"
	CodeNotFound               = "not_found"
	CodeAnswerRequired         = "answer_required"
	CodeInFlight               = "in_flight"
	CodeInvalidRequest         = "invalid_request"
)

type errorPayload struct {
	Message   string `json:"message"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}

// classify maps a service error to its client code and HTTP status.
func classify(err error) (errorPayload, int) {
	p := errorPayload{Message: err.Error()}
	switch {
	case errors.Is(err, domain.ErrInvalidScenario):
		p.Code = CodeInvalidScenario
		return p, http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAlreadyCompleted):
		p.Code = CodeAlreadyCompleted
		return p, http.StatusConflict
	case errors.Is(err, domain.ErrAuthenticationRequired):
		p.Code = CodeAuthenticationRequired
		return p, http.StatusUnauthorized
	case errors.Is(err, domain.ErrPersistenceFailure):
		p.Code = CodePersistenceFailure
		p.Retryable = true
		p.Message = "progress could not be saved, please try again"
		return p, http.StatusServiceUnavailable
	case errors.Is(err, app.ErrUnsupportedLedger):
		p.Code = CodePersistenceFailure
		p.Message = "progress storage is misconfigured"
		return p, http.StatusInternalServerError
	case errors.Is(err, domain.ErrCompletionInFlight):
		p.Code = CodeInFlight
		p.Retryable = true
		return p, http.StatusConflict
	case errors.Is(err, domain.ErrScenarioNotFound),
		errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrProfileNotFound):
		p.Code = CodeNotFound
		return p, http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidReport):
		p.Code = CodeInvalidRequest
		return p, http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAnswerRequired):
		p.Code = CodeAnswerRequired
		return p, http.StatusBadRequest
	default:
		p.Code = CodeInvalidRequest
		return p, http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	p, status := classify(err)
	writeJSON(w, status, map[string]errorPayload{"error": p})
}
