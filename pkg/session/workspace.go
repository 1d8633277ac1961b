package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/easel/pkg/domain"
)

// Workspace is exclusive access to one session's document.
// It is only valid inside the WithWorkspace callback that produced it.
type Workspace struct {
	ID string

	ctx     context.Context
	doc     *domain.Document
	mgr     *Manager
	cleared bool
}

// Document returns the live document. Mutations are visible to later callers.
func (w *Workspace) Document() *domain.Document {
	return w.doc
}

// Save stores elements as the session's snapshot and makes them the live
// document. Duplicate ids leave both untouched.
func (w *Workspace) Save(elements []domain.TextElement, meta map[string]any) (*domain.Snapshot, error) {
	next, err := domain.NewDocument(elements...)
	if err != nil {
		return nil, err
	}

	snap := &domain.Snapshot{
		Elements:  next.Elements(),
		Meta:      meta,
		UpdatedAt: w.mgr.now().UTC(),
	}
	if err := w.mgr.store.Save(w.ctx, w.ID, snap); err != nil {
		return nil, fmt.Errorf("failed to save session %q: %w", w.ID, err)
	}

	_ = w.doc.Replace(snap.Elements)
	return snap, nil
}

// Commit stores the live document as the session's snapshot.
func (w *Workspace) Commit(meta map[string]any) (*domain.Snapshot, error) {
	return w.Save(w.doc.Elements(), meta)
}

// Load replaces the live document with the saved snapshot.
// It returns nil, nil when nothing was saved and leaves the document as is.
func (w *Workspace) Load() (*domain.Snapshot, error) {
	snap, err := w.mgr.store.Load(w.ctx, w.ID)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %q: %w", w.ID, err)
	}
	if err := w.doc.Replace(snap.Elements); err != nil {
		return nil, fmt.Errorf("stored snapshot for %q: %w", w.ID, err)
	}
	return snap, nil
}

// Clear deletes the saved snapshot and empties the live document.
func (w *Workspace) Clear() error {
	if err := w.mgr.store.Delete(w.ctx, w.ID); err != nil {
		return fmt.Errorf("failed to clear session %q: %w", w.ID, err)
	}
	w.doc.Clear()
	w.cleared = true
	return nil
}
