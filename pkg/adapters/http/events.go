package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/internal/runtime"
)

// StreamManager fans canvas changes out to the SSE and WebSocket clients of
// each session.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager. A nil logger discards.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for the session. The returned
// func unregisters and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Subscribers returns how many clients follow the session.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast sends msg to every subscriber of the session without blocking.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("broadcasting canvas event", "session_id", sessionID, "payload_size", len(msg))

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Slow client.
			sm.logger.Warn("subscriber buffer full, dropping event", "session_id", sessionID)
		}
	}
}

// Notify broadcasts the serialized canvas. Its signature matches
// easel.WithChangeListener.
func (sm *StreamManager) Notify(sessionID string, cc runtime.CanvasContext) {
	b, err := json.Marshal(cc)
	if err != nil {
		sm.logger.Error("failed to encode canvas event", "session_id", sessionID, "err", err)
		return
	}
	sm.Broadcast(sessionID, string(b))
}

// subscribeEvents handles GET /api/canvas/events. Browsers cannot set
// headers on an EventSource, so the session may also come from ?session_id.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		s.logger.Error("SSE: streaming not supported")
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = sessionFrom(r)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(sessionID)
	defer cancel()
	s.logger.Info("SSE client subscribed", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: canvas\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
