package middleware

import (
	"math"
	"strconv"

	"stylist_server/pkg/apperr"
	"stylist_server/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
)

// RateLimit rejects callers over the limiter's budget with 429. Callers are
// keyed by user id when authenticated, else by IP.
func RateLimit(limiter ratelimit.Limiter, scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()
		if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
			key = "user:" + userID
		}

		allowed, wait := limiter.Allow(c.UserContext(), scope+":"+key)
		if !allowed {
			retryAfter := int(math.Ceil(wait.Seconds()))
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return apperr.ErrRateLimited
		}
		return c.Next()
	}
}
