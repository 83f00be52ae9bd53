package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/dashboard-auth/internal/config"
	apperrors "github.com/spec-kit/dashboard-auth/pkg/util"
)

const loginRateKeyPrefix = "login_rate"

// LoginRateLimiter throttles login attempts per client IP with a fixed window in Redis.
// A nil client disables throttling; Redis errors let the request through.
func LoginRateLimiter(rdb *redis.Client, cfg config.RateLimitConfig, logger *zap.Logger) fiber.Handler {
	if rdb == nil || cfg.LoginLimit <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	window := cfg.Window()
	block := cfg.BlockDuration()

	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		key := loginRateKeyPrefix + ":ip:" + c.IP()
		blockKey := key + ":blocked"

		if ttl, err := rdb.TTL(ctx, blockKey).Result(); err == nil && ttl > 0 {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(ttl.Seconds())))
			return apperrors.NewTooManyRequests("too many login attempts", map[string]any{"retry_after_seconds": int(ttl.Seconds())})
		}

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("login rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			rdb.Expire(ctx, key, window)
		}

		if count > int64(cfg.LoginLimit) {
			rdb.Set(ctx, blockKey, "1", block)
			rdb.Del(ctx, key)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(block.Seconds())))
			return apperrors.NewTooManyRequests("too many login attempts", map[string]any{"retry_after_seconds": int(block.Seconds())})
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.LoginLimit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(cfg.LoginLimit-int(count)))
		return c.Next()
	}
}
