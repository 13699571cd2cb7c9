package rates

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Nzyazin/currency/internal/core/logger"
	"github.com/go-redis/redis/v8"
)

// Store keeps rates for a limited time. Get reports ok=false on a miss.
type Store interface {
	Get(ctx context.Context, key string) (rate float64, ok bool, err error)
	Set(ctx context.Context, key string, rate float64, ttl time.Duration) error
}

// cachingProvider decorates a Provider with a TTL cache of pair rates.
// Failed lookups are never cached.
type cachingProvider struct {
	next  Provider
	store Store
	ttl   time.Duration
	log   logger.Logger
}

// NewCachingProvider returns next wrapped with a cache held in store.
func NewCachingProvider(next Provider, store Store, ttl time.Duration, log logger.Logger) Provider {
	return &cachingProvider{next: next, store: store, ttl: ttl, log: log}
}

func cacheKey(base, target string) string {
	return "rate:" + base + ":" + target
}

func (p *cachingProvider) LookupRate(ctx context.Context, base, target string) (float64, error) {
	key := cacheKey(base, target)

	rate, ok, err := p.store.Get(ctx, key)
	if err != nil {
		p.log.Warn("rate cache read failed", logger.StringField("key", key), logger.ErrorField("error", err))
	} else if ok {
		return rate, nil
	}

	rate, err = p.next.LookupRate(ctx, base, target)
	if err != nil {
		return 0, err
	}

	if err := p.store.Set(ctx, key, rate, p.ttl); err != nil {
		p.log.Warn("rate cache write failed", logger.StringField("key", key), logger.ErrorField("error", err))
	}
	return rate, nil
}

type memoryEntry struct {
	rate    float64
	expires time.Time
}

// MemoryStore is an in-process Store. Expired entries are dropped on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[string]memoryEntry{},
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (float64, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return 0, false, nil
	}

	if !s.now().Before(e.expires) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur.expires.Equal(e.expires) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return 0, false, nil
	}
	return e.rate, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, rate float64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{rate: rate, expires: s.now().Add(ttl)}
	return nil
}

// RedisStore keeps rates in Redis with native key expiry.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (float64, bool, error) {
	rate, err := s.client.Get(ctx, key).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return rate, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, rate float64, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, rate, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
