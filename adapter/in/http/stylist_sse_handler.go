package http

import (
	"bufio"
	"context"
	"time"

	"stylist_server/adapter/out/realtime"
	"stylist_server/core/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// =============================================================================
// SSE Handler - RealtimePort 기반
// =============================================================================

// SnapshotSource supplies the metrics replayed to new subscribers.
type SnapshotSource interface {
	Latest(ctx context.Context) *domain.RecommendationMetrics
}

// SSEHandler streams realtime events. Anonymous clients receive broadcasts
// only.
type SSEHandler struct {
	hub       *realtime.SSEHub
	snapshots SnapshotSource
	log       zerolog.Logger
}

func NewSSEHandler(hub *realtime.SSEHub, snapshots SnapshotSource, log zerolog.Logger) *SSEHandler {
	return &SSEHandler{
		hub:       hub,
		snapshots: snapshots,
		log:       log.With().Str("handler", "sse").Logger(),
	}
}

func (h *SSEHandler) Register(router fiber.Router, optionalAuth fiber.Handler) {
	router.Get("/events", optionalAuth, h.Stream)
	router.Get("/events/status", h.Status)
}

func (h *SSEHandler) Stream(c *fiber.Ctx) error {
	var replay *domain.RecommendationMetrics
	if h.snapshots != nil {
		replay = h.snapshots.Latest(c.UserContext())
	}

	client := h.hub.CreateClient(OptionalUserID(c))
	h.log.Info().Str("user_id", client.UserID).Msg("SSE client connected")

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // Nginx buffering 비활성화

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(client.HeartbeatInterval())
		defer ticker.Stop()
		defer func() {
			client.Close()
			h.log.Info().Str("user_id", client.UserID).Msg("SSE client disconnected")
		}()

		if !h.write(w, &domain.RealtimeEvent{
			Type:      domain.EventConnected,
			Data:      fiber.Map{"status": "connected"},
			Timestamp: time.Now().UTC(),
		}) {
			return
		}
		if replay != nil && !h.write(w, &domain.RealtimeEvent{
			Type:      domain.EventRecommendationMetrics,
			Data:      replay,
			Timestamp: replay.UpdatedAt,
		}) {
			return
		}

		for {
			select {
			case event, ok := <-client.Events:
				if !ok {
					return
				}
				if !h.write(w, event) {
					return
				}

			case <-ticker.C:
				w.WriteString(": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					h.log.Debug().Err(err).Msg("client disconnected during heartbeat")
					return
				}
			}
		}
	})

	return nil
}

// write sends one frame and reports whether the connection is still usable.
func (h *SSEHandler) write(w *bufio.Writer, event *domain.RealtimeEvent) bool {
	frame, err := realtime.SerializeEvent(event)
	if err != nil {
		h.log.Error().Err(err).Str("event_type", string(event.Type)).Msg("failed to serialize event")
		return true
	}
	w.Write(frame)
	if err := w.Flush(); err != nil {
		h.log.Debug().Err(err).Msg("client disconnected during write")
		return false
	}
	return true
}

func (h *SSEHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.hub.Metrics())
}
