package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CredentialStore holds the scrape API token each client workspace has
// configured. An empty string means no token.
type CredentialStore interface {
	Get(ctx context.Context, owner string) (string, error)
	Save(ctx context.Context, owner, key string) error
	Clear(ctx context.Context, owner string) error
}

type MemoryCredentialStore struct {
	mu   sync.RWMutex
	keys map[string]string
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{keys: make(map[string]string)}
}

func (s *MemoryCredentialStore) Get(_ context.Context, owner string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[owner], nil
}

func (s *MemoryCredentialStore) Save(_ context.Context, owner, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[owner] = key
	return nil
}

func (s *MemoryCredentialStore) Clear(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, owner)
	return nil
}

// RedisCredentialStore keeps tokens in Redis so they survive restarts and
// are shared between replicas.
type RedisCredentialStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCredentialStore(client *redis.Client, ttl time.Duration) *RedisCredentialStore {
	return &RedisCredentialStore{client: client, ttl: ttl}
}

func (s *RedisCredentialStore) getKey(owner string) string {
	return "credential:scrape:" + owner
}

func (s *RedisCredentialStore) Get(ctx context.Context, owner string) (string, error) {
	val, err := s.client.Get(ctx, s.getKey(owner)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RedisCredentialStore) Save(ctx context.Context, owner, key string) error {
	return s.client.Set(ctx, s.getKey(owner), key, s.ttl).Err()
}

func (s *RedisCredentialStore) Clear(ctx context.Context, owner string) error {
	return s.client.Del(ctx, s.getKey(owner)).Err()
}
