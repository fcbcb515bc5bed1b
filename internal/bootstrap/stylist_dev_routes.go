package bootstrap

import (
	"context"
	"time"

	"stylist_server/infra/database"
	"stylist_server/internal/stream"
	"stylist_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// RegisterDevRoutes mounts unauthenticated diagnostics.
// WARNING: Only enable in development environment!
func RegisterDevRoutes(app *fiber.App, deps *Dependencies) {
	dev := app.Group("/dev")

	dev.Get("/stats", func(c *fiber.Ctx) error {
		stats := fiber.Map{
			"sse":     deps.SSEHub.Metrics(),
			"latency": deps.Latency.Snapshot(),
		}
		if deps.Redis != nil {
			stats["redis"] = database.GetRedisStats(deps.Redis)
		}
		if deps.SQLDB != nil {
			stats["postgres"] = database.GetPoolStats(deps.SQLDB)
		}
		if deps.LLMClient != nil {
			stats["llm"] = deps.LLMClient.Usage().GetStats()
		}
		return c.JSON(stats)
	})

	// Publish a synthetic activity event, e.g. {"type":"order.placed"}
	dev.Post("/activity", func(c *fiber.Ctx) error {
		if deps.ActivityStream == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "redis not configured"})
		}
		var event stream.ActivityEvent
		if err := c.BodyParser(&event); err != nil {
			return apperr.BadRequest("invalid request body")
		}
		if err := event.Validate(); err != nil {
			return err
		}
		if event.OccurredAt.IsZero() {
			event.OccurredAt = time.Now().UTC()
		}
		id, err := deps.ActivityStream.Publish(c.UserContext(), stream.StreamActivity, event)
		if err != nil {
			return apperr.ExternalError("redis stream", err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"id": id})
	})

	// Broadcast immediately, bypassing the debounce
	dev.Post("/metrics/broadcast", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 30*time.Second)
		defer cancel()
		return c.JSON(deps.MetricsService.Broadcast(ctx))
	})
}
