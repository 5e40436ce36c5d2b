package redisstore

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Store is a Redis-backed core.Store for server-rendered deployments where
// device state is keyed by a device identifier instead of browser storage.
type Store struct {
	rdb   *redis.Client
	keyNS string
}

// New creates a store namespaced under keyPrefix (default "licensekit:").
func New(rdb *redis.Client, keyPrefix string) *Store {
	if keyPrefix == "" {
		keyPrefix = "licensekit:"
	}
	return &Store{rdb: rdb, keyNS: keyPrefix}
}

func (s *Store) key(k string) string { return s.keyNS + k }

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	// No TTL: attestation and prompt markers expire by policy, not by key.
	return s.rdb.Set(ctx, s.key(key), value, 0).Err()
}

func (s *Store) Del(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.key(key)).Err()
}
