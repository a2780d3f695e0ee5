package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"scamslayer-service/internal/app"
	"scamslayer-service/internal/catalog"
	"scamslayer-service/internal/domain"
	"scamslayer-service/internal/infra/postgres"
	pgmigrations "scamslayer-service/internal/infra/postgres/migrations"
	infraredis "scamslayer-service/internal/infra/redis"
)

func TestScenarioCompletionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := postgres.OpenBun(pgURL)
	defer db.Close()
	if _, err := pgmigrations.Run(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := postgres.SeedScenarios(ctx, db, catalog.Scenarios()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	pool, err := postgres.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	ledger := postgres.NewLedger(pool)
	scenarioRepo := infraredis.NewScenarioRepository(redisClient, postgres.NewScenarioLoader(pool), 5*time.Minute)
	attempts := infraredis.NewAttemptStore(redisClient, 5*time.Minute)
	guard := infraredis.NewCompletionGuard(redisClient, 30*time.Second)
	progression := app.NewProgressionService(ledger, guard, app.DefaultProgressionOptions(), zap.NewNop())
	service := app.NewScenarioService(attempts, scenarioRepo, progression, zap.NewNop())

	view, err := service.Start(ctx, "u1", catalog.PhishingEmail)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	steps := []func() (app.AttemptView, error){
		func() (app.AttemptView, error) { return service.Next(ctx, view.ID, "u1") },
		func() (app.AttemptView, error) { return service.SelectAnswer(ctx, view.ID, "u1", 2, "b") },
		func() (app.AttemptView, error) { return service.Next(ctx, view.ID, "u1") },
		func() (app.AttemptView, error) { return service.SelectAnswer(ctx, view.ID, "u1", 3, "c") },
		func() (app.AttemptView, error) { return service.Next(ctx, view.ID, "u1") },
	}
	for i, step := range steps {
		if view, err = step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if view.Phase != "reviewing" || view.Score == nil || view.Score.Percentage != 100 {
		t.Fatalf("expected reviewing with 100%%, got %+v", view)
	}

	result, err := service.Complete(ctx, view.ID, "u1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.Outcome.Profile.XP != 50 || len(result.Outcome.NewBadges) != 1 {
		t.Fatalf("unexpected outcome: %+v", result.Outcome)
	}

	// A second play of the same scenario must not add XP.
	scenario, err := scenarioRepo.GetScenario(ctx, catalog.PhishingEmail)
	if err != nil {
		t.Fatalf("get scenario: %v", err)
	}
	if _, err := progression.ApplyCompletion(ctx, "u1", scenario, *view.Score); !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("expected already completed, got %v", err)
	}

	summary, err := progression.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Profile.XP != 50 || len(summary.Completions) != 1 || len(summary.Badges) != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestConcurrentCompletionsAwardOnce(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	db := postgres.OpenBun(pgURL)
	defer db.Close()
	if _, err := pgmigrations.Run(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := postgres.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	// No guard: the unique constraint alone must prevent a double award.
	progression := app.NewProgressionService(postgres.NewLedger(pool), nil, app.DefaultProgressionOptions(), zap.NewNop())
	scenario, _ := catalog.Lookup(catalog.CreditCardScam)
	score := domain.Score{Correct: 3, Total: 3, Percentage: 100}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = progression.ApplyCompletion(ctx, "racer", scenario, score)
		}()
	}
	wg.Wait()

	summary, err := progression.Summary(ctx, "racer")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Profile.XP != scenario.XPReward {
		t.Fatalf("expected %d xp, got %d", scenario.XPReward, summary.Profile.XP)
	}
	if len(summary.Completions) != 1 || len(summary.Badges) != 1 {
		t.Fatalf("expected one completion and badge, got %+v", summary)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "scamslayer", "POSTGRES_PASSWORD": "scamslayer", "POSTGRES_DB": "scamslayer"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://scamslayer:scamslayer@%s:%s/scamslayer?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
