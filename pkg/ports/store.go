package ports

import (
	"context"

	"github.com/aretw0/easel/pkg/domain"
)

// SnapshotStore persists one canvas snapshot per session.
type SnapshotStore interface {
	// Save stores the snapshot for a session, replacing any previous one.
	Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot of a session.
	// Returns domain.ErrSnapshotNotFound if nothing was saved.
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)

	// Delete removes the snapshot of a session. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the ids of every session holding a snapshot.
	List(ctx context.Context) ([]string, error)
}

// HistoryStore keeps the ordered chat log of each session.
type HistoryStore interface {
	// Append adds a message at the end of the session's log.
	Append(ctx context.Context, sessionID string, msg domain.ChatMessage) error

	// List returns the session's messages in insertion order.
	// An unknown session yields an empty slice.
	List(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)

	// Clear empties the session's log.
	Clear(ctx context.Context, sessionID string) error
}
