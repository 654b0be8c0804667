package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed checkout can hold its key.
	pendingTTL    = time.Minute
	pendingMarker = "pending"
)

// IdempotencyStore remembers which order a checkout request produced so a
// retried POST /orders with the same Idempotency-Key returns it again.
// Key format: idempotency:<owner_id>:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore wraps client. A non-positive ttl falls back to 24h.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Claim reserves (ownerID, key) for a new checkout with SET NX. When the key is
// already held, claimed is false and orderID is the order it produced, or empty
// while the holder is still placing it.
func (s *IdempotencyStore) Claim(ctx context.Context, ownerID, key string) (string, bool, error) {
	k := s.key(ownerID, key)
	claimed, err := s.client.SetNX(ctx, k, pendingMarker, pendingTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("idempotency claim: %w", err)
	}
	if claimed {
		return "", true, nil
	}

	orderID, err := s.client.Get(ctx, k).Result()
	switch {
	case errors.Is(err, redis.Nil), orderID == pendingMarker:
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return orderID, false, nil
}

// Complete replaces the pending marker with orderID for the full ttl.
func (s *IdempotencyStore) Complete(ctx context.Context, ownerID, key, orderID string) error {
	if err := s.client.Set(ctx, s.key(ownerID, key), orderID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release drops a claim whose checkout failed so the client can retry with the same key.
func (s *IdempotencyStore) Release(ctx context.Context, ownerID, key string) error {
	if err := s.client.Del(ctx, s.key(ownerID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(ownerID, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", ownerID, key)
}
