package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"scamslayer-service/internal/domain"
)

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// CompletionGuard is an app.CompletionGuard shared by every instance pointing at the same Redis.
// Locks expire after ttl so a crashed holder cannot block a user forever.
type CompletionGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCompletionGuard(client *redis.Client, ttl time.Duration) *CompletionGuard {
	return &CompletionGuard{client: client, ttl: ttl}
}

func (g *CompletionGuard) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.key(key), token, g.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrCompletionInFlight
	}
	return func() {
		_ = releaseScript.Run(context.Background(), g.client, []string{g.key(key)}, token).Err()
	}, nil
}

func (g *CompletionGuard) key(key string) string {
	return "completion:lock:" + key
}
