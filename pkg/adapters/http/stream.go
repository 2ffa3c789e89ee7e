package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/loanflow/internal/logging"
	"github.com/aretw0/loanflow/pkg/domain"
)

// SSE event names.
const (
	EventMessage = "message"
	EventPatch   = "patch"
)

// Event is a single server-sent event.
type Event struct {
	Name string
	Data string
}

// StreamManager fans session events out to SSE subscribers.
// It implements runtime.Emitter so assistant messages reach the browser as
// they are paced, before the HTTP answer returns.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Event]struct{}
	buffer      int
	logger      *slog.Logger
}

// NewStreamManager creates a manager with no subscribers.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Event]struct{}),
		buffer:      16,
		logger:      logger,
	}
}

// Subscribe registers a channel for sessionID. The returned func unsubscribes
// and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, sm.buffer)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- Event]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
			close(ch)
		})
	}
}

// Subscribers reports how many channels listen on sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast delivers ev to every subscriber of sessionID. Slow clients lose
// events rather than block the conversation.
func (sm *StreamManager) Broadcast(sessionID string, ev Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- ev:
		default:
			sm.logger.Warn("SSE client buffer full, dropping event", "session_id", sessionID, "event", ev.Name)
		}
	}
}

// Emit broadcasts an assistant message.
func (sm *StreamManager) Emit(_ context.Context, sessionID string, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	sm.Broadcast(sessionID, Event{Name: EventMessage, Data: string(data)})
	return nil
}
