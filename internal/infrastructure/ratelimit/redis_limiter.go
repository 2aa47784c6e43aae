// Package ratelimit provides a Redis-backed fixed-window rate limiter used to
// bound login attempts per identifier and source address.
package ratelimit

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/rivon0507/courier-back/internal/config"
	"github.com/rivon0507/courier-back/internal/domain/service"
)

type redisRateLimiter struct {
	client *redis.Client
	rule   config.RateLimitRule
	logger *zap.Logger
}

// NewRedisRateLimiter creates a fixed-window limiter. The limiter fails open:
// a Redis outage must not lock users out of authentication.
func NewRedisRateLimiter(client *redis.Client, rule config.RateLimitRule, logger *zap.Logger) service.RateLimiter {
	return &redisRateLimiter{
		client: client,
		rule:   rule,
		logger: logger.Named("rate_limiter"),
	}
}

func (l *redisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if !l.rule.Enabled {
		return true, nil
	}

	windowKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := l.client.Incr(ctx, windowKey).Result()
	if err != nil {
		l.logger.Error("rate limiter unavailable, allowing request", zap.Error(err), zap.String("key", key))
		return true, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, windowKey, l.rule.Window).Err(); err != nil {
			l.logger.Error("failed to set rate limit window expiry", zap.Error(err), zap.String("key", key))
		}
	}

	return count <= int64(l.rule.Limit), nil
}

var _ service.RateLimiter = (*redisRateLimiter)(nil)
