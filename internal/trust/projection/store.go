package projection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"briq/internal/trust/models"
	"briq/pkg/platform/sentinel"
)

// MetadataKeyPrefix namespaces cached metadata documents.
const MetadataKeyPrefix = "briq_user_nft_"

// InMemoryStore caches metadata documents in process.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Metadata
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{docs: make(map[string]Metadata)}
}

func (s *InMemoryStore) Get(_ context.Context, address string) (*Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.docs[models.NormalizeAddress(address)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	m.Attributes = append([]Trait(nil), m.Attributes...)
	return &m, nil
}

func (s *InMemoryStore) Put(_ context.Context, address string, m *Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	cp.Attributes = append([]Trait(nil), m.Attributes...)
	s.docs[models.NormalizeAddress(address)] = cp
	return nil
}

// RedisStore caches metadata documents as JSON strings. A zero ttl keeps them
// until overwritten.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, address string) (*Metadata, error) {
	raw, err := s.client.Get(ctx, MetadataKeyPrefix+models.NormalizeAddress(address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &m, nil
}

func (s *RedisStore) Put(ctx context.Context, address string, m *Metadata) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := s.client.Set(ctx, MetadataKeyPrefix+models.NormalizeAddress(address), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("put metadata: %w", err)
	}
	return nil
}
