package services

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// DefaultRefreshCooldown is the minimum gap between two refreshes of one table.
const DefaultRefreshCooldown = 3 * time.Second

// RefreshThrottle decides whether a refresh for key may hit the store now.
type RefreshThrottle interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryThrottle keeps one token-bucket limiter per key in process memory.
type MemoryThrottle struct {
	clock    clockwork.Clock
	cooldown time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewMemoryThrottle(clock clockwork.Clock, cooldown time.Duration) *MemoryThrottle {
	if cooldown <= 0 {
		cooldown = DefaultRefreshCooldown
	}
	return &MemoryThrottle{
		clock:    clock,
		cooldown: cooldown,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (m *MemoryThrottle) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	limiter, ok := m.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(m.cooldown), 1)
		m.limiters[key] = limiter
	}
	m.mu.Unlock()

	return limiter.AllowN(m.clock.Now(), 1), nil
}

// RedisThrottle shares the cooldown across replicas with SET NX PX.
type RedisThrottle struct {
	client   *redis.Client
	cooldown time.Duration
	prefix   string
}

func NewRedisThrottle(client *redis.Client, cooldown time.Duration) *RedisThrottle {
	if cooldown <= 0 {
		cooldown = DefaultRefreshCooldown
	}
	return &RedisThrottle{client: client, cooldown: cooldown, prefix: "session-refresh:"}
}

func (r *RedisThrottle) Allow(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, r.prefix+key, "1", r.cooldown).Result()
}
