package chat

import (
	"context"
	"errors"
	"sync"

	speechmodel "github.com/konnectpackaging/konnect-bot/backend/internal/model/speech"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/conversation"
	"go.uber.org/zap"
)

// EventType names an outbound realtime event.
type EventType string

const (
	EventSnapshot EventType = "snapshot"
	EventAudio    EventType = "audio"
)

// DefaultSubscriberBuffer is the per-subscriber event queue length.
const DefaultSubscriberBuffer = 16

// ErrNoListeners is returned by Play when a session has no subscribers.
var ErrNoListeners = errors.New("no listeners for session")

// Event is pushed to every subscriber of a session.
type Event struct {
	Type      EventType              `json:"type"`
	SessionID string                 `json:"sessionId"`
	Snapshot  *conversation.Snapshot `json:"snapshot,omitempty"`
	Audio     *speechmodel.Clip      `json:"audio,omitempty"`
}

type subscriber struct {
	events chan Event
}

// Hub fans session events out to realtime subscribers. A full subscriber
// queue drops the event instead of blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	buffer int
	logger *zap.Logger
}

// NewHub creates a hub with the given per-subscriber buffer.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a listener for sessionID. The returned cancel func
// unregisters it and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(sessionID string) (<-chan Event, func()) {
	sub := &subscriber{events: make(chan Event, h.buffer)}

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*subscriber]struct{})
	}
	h.subs[sessionID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.remove(sessionID, sub)
		})
	}
	return sub.events, cancel
}

// remove must be called with h.mu held.
func (h *Hub) remove(sessionID string, sub *subscriber) {
	set, ok := h.subs[sessionID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	close(sub.events)
	if len(set) == 0 {
		delete(h.subs, sessionID)
	}
}

// Subscribers returns the number of listeners on sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

// Publish delivers evt to the session's subscribers and returns how many accepted it.
func (h *Hub) Publish(evt Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subs[evt.SessionID] {
		select {
		case sub.events <- evt:
			delivered++
		default:
			h.logger.Warn("dropping event for slow subscriber",
				zap.String("session_id", evt.SessionID),
				zap.String("type", string(evt.Type)),
			)
		}
	}
	return delivered
}

// PublishSnapshot publishes a snapshot event.
func (h *Hub) PublishSnapshot(snap conversation.Snapshot) int {
	return h.Publish(Event{Type: EventSnapshot, SessionID: snap.SessionID, Snapshot: &snap})
}

// Play implements speech.Player by pushing the clip to the session's subscribers.
func (h *Hub) Play(_ context.Context, clip speechmodel.Clip) error {
	if h.Publish(Event{Type: EventAudio, SessionID: clip.SessionID, Audio: &clip}) == 0 {
		return ErrNoListeners
	}
	return nil
}

// CloseSession drops every subscriber of sessionID.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[sessionID] {
		h.remove(sessionID, sub)
	}
}
