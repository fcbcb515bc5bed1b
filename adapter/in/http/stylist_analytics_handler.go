package http

import (
	"stylist_server/core/port/in"

	"github.com/gofiber/fiber/v2"
)

// AnalyticsHandler serves the recommendation funnel.
type AnalyticsHandler struct {
	metrics in.MetricsUseCase
}

func NewAnalyticsHandler(metrics in.MetricsUseCase) *AnalyticsHandler {
	return &AnalyticsHandler{metrics: metrics}
}

func (h *AnalyticsHandler) Register(router fiber.Router) {
	analytics := router.Group("/analytics")
	analytics.Get("/recommendations", h.Recommendations)
	analytics.Post("/recommendations/trigger", h.Trigger)
}

// Recommendations always answers 200; failures show up as a degraded body.
func (h *AnalyticsHandler) Recommendations(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Compute(c.UserContext()))
}

// Trigger schedules a debounced broadcast for order, cart and wishlist writers.
func (h *AnalyticsHandler) Trigger(c *fiber.Ctx) error {
	h.metrics.Trigger()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "scheduled"})
}
