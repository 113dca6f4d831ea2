package ratelimit

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Middleware throttles one operation scope, keying the limiter on the
// client IP. Denied requests get a 429 with a Retry-After hint.
func Middleware(scope string, limiter Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := scope + ":" + c.IP()

		allowed, retry, err := limiter.Allow(c.UserContext(), key, time.Now())
		if err != nil {
			// A broken limiter should not take the endpoint down.
			return c.Next()
		}

		if !allowed {
			seconds := int64(math.Ceil(retry.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(seconds, 10))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "too many requests",
				"details": "rate limit exceeded, retry later",
			})
		}

		return c.Next()
	}
}
