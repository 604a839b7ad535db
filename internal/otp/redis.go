package otp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisStore is a Redis-backed Store for deployments where confirmation and
// reset flows may land on different processes. Expiry rides on the key TTL;
// a SET with a fresh TTL replaces any prior code, preserving the one-live-
// code-per-user rule.
//
// Redis failures are logged and treated as "no live code": the flows gated
// by these codes can always re-issue, so degrading to a failed validation is
// safer than failing the request outright.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a RedisStore on the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "otp:"}
}

func (r *RedisStore) key(userID uint) string {
	return fmt.Sprintf("%s%d", r.prefix, userID)
}

// Issue stores code for userID with the given TTL, replacing any prior code.
func (r *RedisStore) Issue(ctx context.Context, userID uint, code string, ttl time.Duration) {
	if err := r.client.Set(ctx, r.key(userID), code, ttl).Err(); err != nil {
		log.Error().Err(err).Uint("user_id", userID).Msg("otp: redis issue failed")
	}
}

// Validate reports whether a live matching code exists for userID.
func (r *RedisStore) Validate(ctx context.Context, userID uint, code string) bool {
	stored, err := r.client.Get(ctx, r.key(userID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Error().Err(err).Uint("user_id", userID).Msg("otp: redis get failed")
		}
		return false
	}
	return strings.EqualFold(stored, code)
}

// Invalidate removes the code for userID if present.
func (r *RedisStore) Invalidate(ctx context.Context, userID uint) {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		log.Error().Err(err).Uint("user_id", userID).Msg("otp: redis del failed")
	}
}

// HasLive reports whether an unexpired code exists for userID.
func (r *RedisStore) HasLive(ctx context.Context, userID uint) bool {
	n, err := r.client.Exists(ctx, r.key(userID)).Result()
	if err != nil {
		log.Error().Err(err).Uint("user_id", userID).Msg("otp: redis exists failed")
		return false
	}
	return n > 0
}
