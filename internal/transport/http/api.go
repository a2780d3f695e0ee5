package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"scamslayer-service/internal/app"
	"scamslayer-service/internal/auth"
	"scamslayer-service/internal/domain"
)

// API serves the REST surface: catalogue, profile, badges and reports.
type API struct {
	scenarios   *app.ScenarioService
	progression *app.ProgressionService
	reports     *app.ReportService
	logger      *zap.Logger
}

func NewAPI(scenarios *app.ScenarioService, progression *app.ProgressionService, reports *app.ReportService, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{scenarios: scenarios, progression: progression, reports: reports, logger: logger}
}

// NewRouter mounts the REST API and websocket endpoint behind the auth middleware.
func NewRouter(api *API, ws *WSHandler, verifier *auth.Verifier, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /scenarios", api.listScenarios)
	mux.HandleFunc("GET /scenarios/{id}", api.getScenario)
	mux.HandleFunc("GET /profile", api.getProfile)
	mux.HandleFunc("GET /badges", api.listBadges)
	mux.HandleFunc("POST /reports/validate", api.validateReport)
	mux.HandleFunc("POST /reports", api.submitReport)
	mux.HandleFunc("GET /reports", api.recentReports)
	mux.HandleFunc("/ws", ws.ServeWS)
	return auth.Middleware(verifier, logger, logRequests(logger, mux))
}

func logRequests(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

func (a *API) listScenarios(w http.ResponseWriter, r *http.Request) {
	list, err := a.scenarios.ListScenarios(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) getScenario(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorPayload{
			"error": {Message: "scenario id must be a number", Code: CodeInvalidRequest},
		})
		return
	}
	detail, err := a.scenarios.Scenario(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *API) getProfile(w http.ResponseWriter, r *http.Request) {
	summary, err := a.progression.Summary(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type badgeEntry struct {
	domain.BadgeInfo
	Earned bool `json:"earned"`
}

// listBadges returns the full badge catalogue, marking the caller's earned badges.
func (a *API) listBadges(w http.ResponseWriter, r *http.Request) {
	earned := map[domain.BadgeKind]bool{}
	if userID := auth.UserID(r.Context()); userID != "" {
		summary, err := a.progression.Summary(r.Context(), userID)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		for _, b := range summary.Badges {
			earned[b.ID] = true
		}
	}
	out := make([]badgeEntry, 0, len(domain.AllBadgeKinds()))
	for _, k := range domain.AllBadgeKinds() {
		out = append(out, badgeEntry{BadgeInfo: k.Info(), Earned: earned[k]})
	}
	writeJSON(w, http.StatusOK, out)
}

type validateRequest struct {
	Step  int                `json:"step"`
	Draft domain.ReportDraft `json:"draft"`
}

func (a *API) validateReport(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.badBody(w)
		return
	}
	if err := app.ValidateStep(req.Draft, req.Step); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"step": req.Step, "valid": true})
}

func (a *API) submitReport(w http.ResponseWriter, r *http.Request) {
	var draft domain.ReportDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		a.badBody(w)
		return
	}
	sub, err := a.reports.Submit(r.Context(), draft)
	if err != nil {
		p, status := classify(err)
		writeJSON(w, status, map[string]any{"submission": sub, "error": p})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"submission": sub})
}

func (a *API) recentReports(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	reports, err := a.reports.Recent(r.Context(), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (a *API) badBody(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, map[string]errorPayload{
		"error": {Message: "malformed json body", Code: CodeInvalidRequest},
	})
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	_, status := classify(err)
	if status >= http.StatusInternalServerError {
		a.logger.Warn("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, err)
}
