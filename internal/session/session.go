// Package session stores JSON-serializable per-session blobs (cart and
// wishlist lines) in Redis with TTL-based expiry, and provides the
// per-session lock used to guard checkout against double submits.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Well-known blob names within a session.
const (
	KeyCart     = "cart"
	KeyWishlist = "wishlist"
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a Redis-backed session store. Every write refreshes the
// session TTL.
func NewStore(addr, password string, db int, ttl time.Duration) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Store{rdb: rdb, ttl: ttl}, nil
}

// GetClient returns the underlying Redis client
func (s *Store) GetClient() *redis.Client {
	return s.rdb
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.rdb.Close()
}

func blobKey(sessionID, name string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, name)
}

// Get unmarshals the named blob for a session into dest. A missing blob is
// not an error; dest is left untouched.
func (s *Store) Get(ctx context.Context, sessionID, name string, dest interface{}) error {
	data, err := s.rdb.Get(ctx, blobKey(sessionID, name)).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session get %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("session decode %s: %w", name, err)
	}
	return nil
}

// Set marshals value and stores it as the named blob, refreshing the
// session TTL.
func (s *Store) Set(ctx context.Context, sessionID, name string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session encode %s: %w", name, err)
	}
	if err := s.rdb.Set(ctx, blobKey(sessionID, name), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session set %s: %w", name, err)
	}
	return nil
}

// Delete removes the named blob for a session.
func (s *Store) Delete(ctx context.Context, sessionID, name string) error {
	return s.rdb.Del(ctx, blobKey(sessionID, name)).Err()
}

// AcquireLock acquires a session-scoped lock
func (s *Store) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a session-scoped lock
func (s *Store) ReleaseLock(ctx context.Context, lockKey string) error {
	return s.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
