// Package cache keeps revoked token ids in Redis.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const revokedPrefix = "auth:revoked:"

// TokenBlacklist records logged-out token ids until they expire.
// It fails safe: when Redis is unreachable tokens are treated as valid.
type TokenBlacklist struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

// New creates a blacklist for the Redis server at addr. An empty addr yields a
// disabled blacklist that never reports a token as revoked.
func New(addr, password string, db int, log *zap.SugaredLogger) *TokenBlacklist {
	b := &TokenBlacklist{log: log.With("component", "token_blacklist")}
	if addr == "" {
		return b
	}
	b.client = redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,
	})
	return b
}

// NewFromClient wraps an existing Redis client
func NewFromClient(client *redis.Client, log *zap.SugaredLogger) *TokenBlacklist {
	return &TokenBlacklist{client: client, log: log.With("component", "token_blacklist")}
}

// Enabled reports whether a Redis server is configured
func (b *TokenBlacklist) Enabled() bool {
	return b != nil && b.client != nil
}

// Revoke marks tokenID as revoked for ttl. Non-positive ttls are ignored.
func (b *TokenBlacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if !b.Enabled() || tokenID == "" || ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, revokedPrefix+tokenID, 1, ttl).Err(); err != nil {
		b.log.Warnw("revoke token", "error", err)
		return err
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked
func (b *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if !b.Enabled() || tokenID == "" {
		return false, nil
	}
	n, err := b.client.Exists(ctx, revokedPrefix+tokenID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		// fail safe: behave like a miss
		b.log.Warnw("check revoked token", "error", err)
		return false, nil
	}
	return n > 0, nil
}

// Close releases the Redis connection pool
func (b *TokenBlacklist) Close() error {
	if !b.Enabled() {
		return nil
	}
	return b.client.Close()
}
