package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/config"
)

const alertKeyPrefix = "edgeviper:alert:"

var (
	_ AlertGate = (*RedisAlertGate)(nil)
	_ AlertGate = (*MemoryAlertGate)(nil)
)

// RedisAlertGate shares the alert cooldown between processes via SETNX.
type RedisAlertGate struct {
	client   *redis.Client
	cooldown time.Duration
}

func NewRedisAlertGate(cfg *config.RedisConfig) (*RedisAlertGate, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Check connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisAlertGate{client: client, cooldown: cfg.AlertCooldown}, nil
}

// Allow claims key for the cooldown window. Only the first caller in the window gets true.
func (g *RedisAlertGate) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, alertKeyPrefix+key, time.Now().UTC().Format(time.RFC3339), g.cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim alert key: %w", err)
	}
	return ok, nil
}

// Close closes connection with Redis
func (g *RedisAlertGate) Close() error {
	return g.client.Close()
}

// MemoryAlertGate is the single-process gate used when Redis is not configured.
type MemoryAlertGate struct {
	mu       sync.Mutex
	cooldown time.Duration
	now      func() time.Time
	seen     map[string]time.Time
}

func NewMemoryAlertGate(cooldown time.Duration) *MemoryAlertGate {
	return &MemoryAlertGate{
		cooldown: cooldown,
		now:      time.Now,
		seen:     make(map[string]time.Time),
	}
}

func (g *MemoryAlertGate) Allow(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if until, ok := g.seen[key]; ok && now.Before(until) {
		return false, nil
	}
	g.seen[key] = now.Add(g.cooldown)

	// expired entries are dropped so long-running loops do not grow the map
	for k, until := range g.seen {
		if !now.Before(until) {
			delete(g.seen, k)
		}
	}
	return true, nil
}
