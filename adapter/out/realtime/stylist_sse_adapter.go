// Package realtime pushes recommendation events to connected clients.
package realtime

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const subscriberBuffer = 64

// =============================================================================
// SSE Adapter - RealtimePort 구현
// =============================================================================

// SSEAdapter implements out.RealtimePort with one buffered channel per
// connection. Slow connections drop events instead of blocking senders.
type SSEAdapter struct {
	clients map[string]map[chan *domain.RealtimeEvent]struct{} // userID -> channels
	mu      sync.RWMutex
	log     zerolog.Logger

	messagesSent    atomic.Int64
	messagesDropped atomic.Int64
	seq             atomic.Int64
}

func NewSSEAdapter(log zerolog.Logger) *SSEAdapter {
	return &SSEAdapter{
		clients: make(map[string]map[chan *domain.RealtimeEvent]struct{}),
		log:     log.With().Str("component", "sse_adapter").Logger(),
	}
}

func (a *SSEAdapter) Subscribe(userID string) <-chan *domain.RealtimeEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	ch := make(chan *domain.RealtimeEvent, subscriberBuffer)
	if a.clients[userID] == nil {
		a.clients[userID] = make(map[chan *domain.RealtimeEvent]struct{})
	}
	a.clients[userID][ch] = struct{}{}

	a.log.Debug().
		Str("user_id", userID).
		Int("connections", len(a.clients[userID])).
		Msg("client subscribed")

	return ch
}

func (a *SSEAdapter) Unsubscribe(userID string, ch <-chan *domain.RealtimeEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	channels, ok := a.clients[userID]
	if !ok {
		return
	}
	for c := range channels {
		if c == ch {
			delete(channels, c)
			close(c)
			break
		}
	}
	if len(channels) == 0 {
		delete(a.clients, userID)
	}

	a.log.Debug().Str("user_id", userID).Msg("client unsubscribed")
}

// Push delivers event to every connection of one user.
func (a *SSEAdapter) Push(ctx context.Context, userID string, event *domain.RealtimeEvent) error {
	event.Seq = a.seq.Add(1)
	event.UserID = userID

	a.mu.RLock()
	defer a.mu.RUnlock()

	for ch := range a.clients[userID] {
		a.deliver(ch, userID, event)
	}
	return nil
}

// Broadcast delivers event to every connection.
func (a *SSEAdapter) Broadcast(ctx context.Context, event *domain.RealtimeEvent) error {
	event.Seq = a.seq.Add(1)

	a.mu.RLock()
	defer a.mu.RUnlock()

	for userID, channels := range a.clients {
		for ch := range channels {
			a.deliver(ch, userID, event)
		}
	}
	return nil
}

// deliver must be called with the read lock held so ch cannot be closed concurrently.
func (a *SSEAdapter) deliver(ch chan *domain.RealtimeEvent, userID string, event *domain.RealtimeEvent) {
	select {
	case ch <- event:
		a.messagesSent.Add(1)
	default:
		a.messagesDropped.Add(1)
		a.log.Warn().
			Str("user_id", userID).
			Str("event_type", string(event.Type)).
			Int64("seq", event.Seq).
			Msg("dropped event due to full buffer")
	}
}

// ConnectedCount returns the number of users with at least one connection.
func (a *SSEAdapter) ConnectedCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.clients)
}

func (a *SSEAdapter) GetMetrics() SSEMetrics {
	a.mu.RLock()
	defer a.mu.RUnlock()

	total := 0
	for _, channels := range a.clients {
		total += len(channels)
	}
	return SSEMetrics{
		ConnectedUsers:   len(a.clients),
		TotalConnections: total,
		MessagesSent:     a.messagesSent.Load(),
		MessagesDropped:  a.messagesDropped.Load(),
	}
}

type SSEMetrics struct {
	ConnectedUsers   int   `json:"connected_users"`
	TotalConnections int   `json:"total_connections"`
	MessagesSent     int64 `json:"messages_sent"`
	MessagesDropped  int64 `json:"messages_dropped"`
}

var _ out.RealtimePort = (*SSEAdapter)(nil)

// =============================================================================
// SSE Hub - HTTP Handler 연결용
// =============================================================================

// SSEHub hands out client connections to the HTTP layer.
type SSEHub struct {
	adapter           *SSEAdapter
	log               zerolog.Logger
	heartbeatInterval time.Duration
}

func NewSSEHub(adapter *SSEAdapter, log zerolog.Logger) *SSEHub {
	return &SSEHub{
		adapter:           adapter,
		log:               log.With().Str("component", "sse_hub").Logger(),
		heartbeatInterval: 30 * time.Second,
	}
}

// CreateClient subscribes a connection. An empty userID gets an anonymous id
// that only receives broadcasts.
func (h *SSEHub) CreateClient(userID string) *SSEClient {
	if userID == "" {
		userID = "anon-" + uuid.NewString()
	}
	return &SSEClient{
		UserID: userID,
		Events: h.adapter.Subscribe(userID),
		hub:    h,
	}
}

func (h *SSEHub) RemoveClient(client *SSEClient) {
	h.adapter.Unsubscribe(client.UserID, client.Events)
}

// SSEClient is one open event stream.
type SSEClient struct {
	UserID string
	Events <-chan *domain.RealtimeEvent
	hub    *SSEHub
	once   sync.Once
}

// Close unsubscribes the client. It is safe to call more than once.
func (c *SSEClient) Close() {
	c.once.Do(func() { c.hub.RemoveClient(c) })
}

func (c *SSEClient) HeartbeatInterval() time.Duration {
	return c.hub.heartbeatInterval
}

// =============================================================================
// Event Serialization
// =============================================================================

// SerializeEvent renders event as one SSE frame.
func SerializeEvent(event *domain.RealtimeEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if event.Seq > 0 {
		fmt.Fprintf(&buf, "id: %d\n", event.Seq)
	}
	fmt.Fprintf(&buf, "event: %s\n", event.Type)
	buf.WriteString("data: ")
	buf.Write(data)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

// Metrics reports connection and delivery counters.
func (h *SSEHub) Metrics() SSEMetrics {
	return h.adapter.GetMetrics()
}
