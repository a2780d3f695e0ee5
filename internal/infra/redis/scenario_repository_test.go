package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"scamslayer-service/internal/catalog"
	"scamslayer-service/internal/domain"
)

func TestScenarioRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{ScenarioLoader: catalog.NewLoader()}
	repo := NewScenarioRepository(client, loader, time.Minute)

	first, err := repo.GetScenario(context.Background(), catalog.PhishingEmail)
	if err != nil {
		t.Fatalf("get scenario: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("scenario:1") {
		t.Fatalf("expected scenario cached in redis")
	}

	// Second call should hit cache, loader not incremented.
	second, err := repo.GetScenario(context.Background(), catalog.PhishingEmail)
	if err != nil {
		t.Fatalf("get scenario 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	q, ok := second.Question(2)
	if !ok || q.CorrectAnswerID != "b" {
		t.Fatalf("cached scenario lost its answer key: %+v", q)
	}
	if second.Badge != first.Badge || second.XPReward != first.XPReward {
		t.Fatalf("cached scenario differs: %+v vs %+v", second, first)
	}
}

func TestScenarioRepositoryExpiresAndInvalidates(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{ScenarioLoader: catalog.NewLoader()}
	repo := NewScenarioRepository(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	_, _ = repo.GetScenario(ctx, catalog.TechSupportScam)
	mr.FastForward(2 * time.Minute)
	_, _ = repo.GetScenario(ctx, catalog.TechSupportScam)
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls=%d", loader.calls)
	}

	if err := repo.Invalidate(ctx, catalog.TechSupportScam); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.GetScenario(ctx, catalog.TechSupportScam)
	if loader.calls != 3 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestScenarioRepositoryList(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewScenarioRepository(newClient(mr), catalog.NewLoader(), time.Minute)
	for i := 0; i < 2; i++ {
		all, err := repo.ListScenarios(context.Background())
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(all) != 8 {
			t.Fatalf("expected 8 scenarios, got %d", len(all))
		}
	}
}

type countingLoader struct {
	ScenarioLoader
	calls int
}

func (l *countingLoader) LoadScenario(ctx context.Context, id int) (domain.Scenario, error) {
	l.calls++
	return l.ScenarioLoader.LoadScenario(ctx, id)
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
