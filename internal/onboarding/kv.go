package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrKeyNotFound is returned by KV.Get for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// KV is the device-scoped key-value storage behind DraftStore.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value. A zero ttl keeps the entry until deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisKV stores entries in Redis.
type RedisKV struct {
	client redis.UniversalClient
}

// NewRedisKV wraps client.
func NewRedisKV(client redis.UniversalClient) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, keys ...string) error {
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryKV is a process-local KV for tests and single-instance runs.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	now     func() time.Time
}

// NewMemoryKV creates an empty store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string]memEntry), now: time.Now}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || (!e.expiresAt.IsZero() && m.now().After(e.expiresAt)) {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

var (
	_ KV = (*RedisKV)(nil)
	_ KV = (*MemoryKV)(nil)
)
