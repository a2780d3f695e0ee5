package http

import (
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"scamslayer-service/internal/app"
	"scamslayer-service/internal/auth"
	"scamslayer-service/internal/catalog"
	"scamslayer-service/internal/infra/memory"
)

type testEnv struct {
	router   http.Handler
	verifier *auth.Verifier
	ledger   *memory.Ledger
	reports  *memory.ReportStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	verifier, err := auth.NewVerifier("test-secret")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	ledger := memory.NewLedger()
	reports := memory.NewReportStore()
	opts := app.ProgressionOptions{MaxRetries: 1, InitialInterval: time.Millisecond}
	progression := app.NewProgressionService(ledger, memory.NewCompletionGuard(), opts, zap.NewNop())
	scenarios := app.NewScenarioService(memory.NewAttemptStore(),
		memory.NewScenarioRepository(catalog.NewLoader(), time.Minute), progression, zap.NewNop())
	api := NewAPI(scenarios, progression, app.NewReportService(reports, zap.NewNop()), zap.NewNop())
	return &testEnv{
		router:   NewRouter(api, NewWSHandler(scenarios, zap.NewNop()), verifier, zap.NewNop()),
		verifier: verifier,
		ledger:   ledger,
		reports:  reports,
	}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := e.verifier.Issue(userID, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}
