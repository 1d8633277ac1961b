package memory

import (
	"context"
	"sync"

	"github.com/aretw0/easel/pkg/domain"
)

// History implements ports.HistoryStore in memory.
// Safe for concurrent use.
type History struct {
	logs map[string][]domain.ChatMessage
	mu   sync.RWMutex
}

// NewHistory creates an empty in-memory chat log.
func NewHistory() *History {
	return &History{
		logs: make(map[string][]domain.ChatMessage),
	}
}

// Append adds msg at the end of the session's log.
func (h *History) Append(ctx context.Context, sessionID string, msg domain.ChatMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logs[sessionID] = append(h.logs[sessionID], msg)
	return nil
}

// List returns a copy of the session's log.
func (h *History) List(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	log := h.logs[sessionID]
	out := make([]domain.ChatMessage, len(log))
	copy(out, log)
	return out, nil
}

// Clear drops the session's log.
func (h *History) Clear(ctx context.Context, sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.logs, sessionID)
	return nil
}
