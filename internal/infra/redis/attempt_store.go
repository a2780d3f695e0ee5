package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"scamslayer-service/internal/app"
)

// AttemptStore is a Redis-aware implementation of app.AttemptRepository.
// Notes:
//   - Attempts are kept in a local map; answers never leave the instance that owns the
//     connection, so they are not persisted.
//   - Redis holds a liveness marker per attempt with the idle TTL, which lets other
//     instances and operators see how many attempts are open.
type AttemptStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		client:   client,
		ttl:      ttl,
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) Save(attempt *app.Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.ID()] = attempt
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(attempt.ID()), attempt.ScenarioID(), s.ttl).Err()
}

func (s *AttemptStore) Get(attemptID string) (*app.Attempt, bool) {
	s.mu.RLock()
	attempt, ok := s.attempts[attemptID]
	s.mu.RUnlock()
	if ok {
		_ = s.client.Expire(context.Background(), s.key(attemptID), s.ttl).Err()
	}
	return attempt, ok
}

func (s *AttemptStore) Delete(attemptID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, attemptID)
	_ = s.client.Del(context.Background(), s.key(attemptID)).Err()
}

func (s *AttemptStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stale []string
	for id, attempt := range s.attempts {
		if attempt.TouchedAt().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return 0
	}
	keys := make([]string, 0, len(stale))
	for _, id := range stale {
		delete(s.attempts, id)
		keys = append(keys, s.key(id))
	}
	_ = s.client.Del(context.Background(), keys...).Err()
	return len(stale)
}

func (s *AttemptStore) key(attemptID string) string {
	return "scenario:attempt:" + attemptID
}
