package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"scamslayer-service/internal/domain"
)

// ScenarioLoader fetches scenario content from a backing store (catalog, Postgres).
type ScenarioLoader interface {
	LoadScenario(ctx context.Context, id int) (domain.Scenario, error)
	ListScenarios(ctx context.Context) ([]domain.Scenario, error)
}

// ScenarioRepository caches scenarios with TTL to avoid repeated loader hits.
type ScenarioRepository struct {
	loader ScenarioLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[int]cachedScenario
	list  *cachedList
}

type cachedScenario struct {
	scenario  domain.Scenario
	expiresAt time.Time
}

type cachedList struct {
	scenarios []domain.Scenario
	expiresAt time.Time
}

func NewScenarioRepository(loader ScenarioLoader, ttl time.Duration) *ScenarioRepository {
	return &ScenarioRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int]cachedScenario),
	}
}

func (r *ScenarioRepository) GetScenario(ctx context.Context, id int) (domain.Scenario, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[id]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.scenario, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(strconv.Itoa(id), func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[id]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.scenario, nil
		}
		r.mu.RUnlock()

		scenario, err := r.loader.LoadScenario(ctx, id)
		if err != nil {
			return domain.Scenario{}, err
		}

		r.mu.Lock()
		r.cache[id] = cachedScenario{
			scenario:  scenario,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return scenario, nil
	})
	if err != nil {
		return domain.Scenario{}, err
	}
	return result.(domain.Scenario), nil
}

func (r *ScenarioRepository) ListScenarios(ctx context.Context) ([]domain.Scenario, error) {
	now := r.clock()

	r.mu.RLock()
	if r.list != nil && r.list.expiresAt.After(now) {
		out := r.list.scenarios
		r.mu.RUnlock()
		return out, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("list", func() (interface{}, error) {
		scenarios, err := r.loader.ListScenarios(ctx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.list = &cachedList{scenarios: scenarios, expiresAt: now.Add(r.ttlWithJitter())}
		r.mu.Unlock()
		return scenarios, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Scenario), nil
}

func (r *ScenarioRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
