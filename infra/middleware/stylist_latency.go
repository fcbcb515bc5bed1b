package middleware

import (
	"time"

	"stylist_server/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// Latency records handler duration per matched route.
func Latency(registry *metrics.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		registry.Record(c.Method()+" "+c.Route().Path, time.Since(start))
		return err
	}
}
