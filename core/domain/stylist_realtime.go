package domain

import "time"

// RealtimeEvent is a message pushed to connected clients.
type RealtimeEvent struct {
	Type      EventType   `json:"type"`
	Seq       int64       `json:"seq"`
	UserID    string      `json:"-"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type EventType string

const (
	EventConnected             EventType = "connected"
	EventRecommendationMetrics EventType = "recommendation-metrics"
	EventAIChatResponse        EventType = "ai-chat-response"
)
