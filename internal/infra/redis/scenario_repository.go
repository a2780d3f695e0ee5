package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"scamslayer-service/internal/domain"
)

// ScenarioLoader fetches scenario content from a backing store (catalog, Postgres).
type ScenarioLoader interface {
	LoadScenario(ctx context.Context, id int) (domain.Scenario, error)
	ListScenarios(ctx context.Context) ([]domain.Scenario, error)
}

// ScenarioRepository caches scenarios in Redis and falls back to a loader on cache miss.
// Each scenario is stored as JSON: SET scenario:{id} {json} EX ttl
// The catalogue list is stored the same way under scenario:all.
type ScenarioRepository struct {
	client *redis.Client
	loader ScenarioLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewScenarioRepository(client *redis.Client, loader ScenarioLoader, ttl time.Duration) *ScenarioRepository {
	return &ScenarioRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ScenarioRepository) GetScenario(ctx context.Context, id int) (domain.Scenario, error) {
	key := scenarioKey(id)
	var cached domain.Scenario
	if r.readCache(ctx, key, &cached) {
		return cached, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		var cached domain.Scenario
		if r.readCache(ctx, key, &cached) {
			return cached, nil
		}

		scenario, err := r.loader.LoadScenario(ctx, id)
		if err != nil {
			return domain.Scenario{}, err
		}
		r.writeCache(ctx, key, scenario)
		return scenario, nil
	})
	if err != nil {
		return domain.Scenario{}, err
	}
	return result.(domain.Scenario), nil
}

func (r *ScenarioRepository) ListScenarios(ctx context.Context) ([]domain.Scenario, error) {
	var cached []domain.Scenario
	if r.readCache(ctx, listKey, &cached) {
		return cached, nil
	}

	result, err, _ := r.sf.Do(listKey, func() (interface{}, error) {
		scenarios, err := r.loader.ListScenarios(ctx)
		if err != nil {
			return nil, err
		}
		r.writeCache(ctx, listKey, scenarios)
		return scenarios, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Scenario), nil
}

// Invalidate drops the cached copy of a scenario and the catalogue list.
func (r *ScenarioRepository) Invalidate(ctx context.Context, id int) error {
	return r.client.Del(ctx, scenarioKey(id), listKey).Err()
}

const listKey = "scenario:all"

func scenarioKey(id int) string {
	return "scenario:" + strconv.Itoa(id)
}

// readCache reports a hit only when the key exists and decodes; Redis errors count as a miss.
func (r *ScenarioRepository) readCache(ctx context.Context, key string, dst any) bool {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (r *ScenarioRepository) writeCache(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	// best-effort; a failed write only costs a reload
	_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
}

func (r *ScenarioRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
