package middleware

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// TopUpRateLimit caps top-up attempts per owner per minute using Redis if
// available. Limiting is fail-open: without a cache or on cache errors the
// request proceeds.
func TopUpRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 10
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		owner, _ := c.Locals("owner_id").(string)
		if owner == "" {
			owner = c.IP()
		}
		key := "rl:topup:" + owner
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err == nil && cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many top-up attempts, try again later")
		}
		return c.Next()
	}
}
