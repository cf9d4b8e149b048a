package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Storage is the persistent key/value store behind one browser session.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Store hands out Storage scoped to one session id.
type Store interface {
	Scope(sessionID string) Storage
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

func (s *MemoryStore) Scope(sessionID string) Storage {
	return &memoryStorage{store: s, id: sessionID}
}

type memoryStorage struct {
	store *MemoryStore
	id    string
}

func (m *memoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	v, ok := m.store.data[m.id][key]
	return v, ok, nil
}

func (m *memoryStorage) Set(_ context.Context, key, value string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.data[m.id] == nil {
		m.store.data[m.id] = make(map[string]string)
	}
	m.store.data[m.id][key] = value
	return nil
}

func (m *memoryStorage) Delete(_ context.Context, keys ...string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, k := range keys {
		delete(m.store.data[m.id], k)
	}
	if len(m.store.data[m.id]) == 0 {
		delete(m.store.data, m.id)
	}
	return nil
}

// RedisStore keeps sessions in Redis with a sliding TTL.
type RedisStore struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
	tracer trace.Tracer
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RedisStore{
		redis:  client,
		prefix: "atelier:session",
		ttl:    ttl,
		tracer: otel.Tracer("atelier.internal.session"),
	}
}

func (s *RedisStore) Scope(sessionID string) Storage {
	return &redisStorage{store: s, id: sessionID}
}

type redisStorage struct {
	store *RedisStore
	id    string
}

func (r *redisStorage) key(k string) string {
	return fmt.Sprintf("%s:%s:%s", r.store.prefix, r.id, k)
}

func (r *redisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, span := r.store.tracer.Start(ctx, "session.get")
	defer span.End()

	v, err := r.store.redis.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		span.RecordError(err)
		return "", false, fmt.Errorf("session: failed to read %s: %w", key, err)
	}
	return v, true, nil
}

func (r *redisStorage) Set(ctx context.Context, key, value string) error {
	ctx, span := r.store.tracer.Start(ctx, "session.set")
	defer span.End()

	if err := r.store.redis.Set(ctx, r.key(key), value, r.store.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist %s: %w", key, err)
	}
	return nil
}

func (r *redisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, span := r.store.tracer.Start(ctx, "session.delete")
	defer span.End()

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	if err := r.store.redis.Del(ctx, full...).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to delete keys: %w", err)
	}
	return nil
}
