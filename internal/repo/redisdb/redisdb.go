package redisdb

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store keeps override pairs in a single Redis hash under a fixed
// namespace key.
type Store struct {
	client *redis.Client
	key    string
}

// Open connects and pings so a bad address fails at startup rather than
// on the first correction.
func Open(ctx context.Context, addr string, db int, key string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &Store{client: client, key: key}, nil
}

func (s *Store) All(ctx context.Context) (map[string]string, error) {
	pairs, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", s.key, err)
	}
	return pairs, nil
}

func (s *Store) Put(ctx context.Context, realName, identityID string) error {
	if err := s.client.HSet(ctx, s.key, realName, identityID).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", s.key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
