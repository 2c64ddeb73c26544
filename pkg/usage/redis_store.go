package usage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "casepilot:usage:"

// RedisStore implements Store on top of Redis, storing each record as a JSON
// value under a per-tenant key. Redis is the reference durable key-value
// backend for the ledger.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix overrides the key namespace, e.g. for shared Redis instances.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.keyPrefix = prefix
		}
	}
}

// NewRedisStore creates a Redis-backed usage store.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(tenantID uuid.UUID) string {
	return s.keyPrefix + tenantID.String()
}

func (s *RedisStore) Get(ctx context.Context, tenantID uuid.UUID) (*Record, error) {
	raw, err := s.client.Get(ctx, s.key(tenantID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUsageNotFound
		}
		return nil, errors.Join(ErrFailedToLoadUsage, err)
	}

	var r Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, errors.Join(ErrFailedToLoadUsage, err)
	}
	return &r, nil
}

func (s *RedisStore) Save(ctx context.Context, record *Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return errors.Join(ErrFailedToStoreUsage, err)
	}
	if err := s.client.Set(ctx, s.key(record.TenantID), raw, 0).Err(); err != nil {
		return errors.Join(ErrFailedToStoreUsage, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, tenantID uuid.UUID) error {
	if err := s.client.Del(ctx, s.key(tenantID)).Err(); err != nil {
		return errors.Join(ErrFailedToStoreUsage, err)
	}
	return nil
}
