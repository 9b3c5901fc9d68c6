package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	SubmitKeyPrefix  = "rental_submit:"
	DefaultSubmitTTL = 10 * time.Second
)

// SubmitGuard rejects the same submission arriving twice within TTL, e.g. a
// double-tapped submit button on a phone.
type SubmitGuard struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewSubmitGuard(client *redis.Client, ttl time.Duration) *SubmitGuard {
	if ttl <= 0 {
		ttl = DefaultSubmitTTL
	}
	return &SubmitGuard{Client: client, TTL: ttl}
}

// Acquire returns false when fingerprint was already acquired and has not expired
func (g *SubmitGuard) Acquire(ctx context.Context, fingerprint string) (bool, error) {
	ok, err := g.Client.SetNX(ctx, SubmitKeyPrefix+fingerprint, "1", g.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire submit guard: %w", err)
	}
	return ok, nil
}

// Release frees fingerprint so a failed submission can be retried at once
func (g *SubmitGuard) Release(ctx context.Context, fingerprint string) error {
	return g.Client.Del(ctx, SubmitKeyPrefix+fingerprint).Err()
}
