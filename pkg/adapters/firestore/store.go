// Package firestore stores canvas snapshots in Google Cloud Firestore.
package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/aretw0/easel/pkg/domain"
)

// DefaultCollection holds one document per session.
const DefaultCollection = "canvases"

// Store is a Firestore-backed implementation of ports.SnapshotStore.
//
// Each session is a document whose "snapshot" field is the snapshot's JSON.
// Keeping the JSON opaque preserves element order and lets encrypted
// envelopes pass through unchanged.
type Store struct {
	client     *firestore.Client
	collection string
}

// NewClient connects to the project. FIRESTORE_EMULATOR_HOST is honoured by
// the client library.
func NewClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return client, nil
}

// New creates a Store using the given client. An empty collection selects
// DefaultCollection.
func New(client *firestore.Client, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{
		client:     client,
		collection: collection,
	}
}

func (s *Store) docRef(sessionID string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(sessionID)
}

// Save replaces the session's document.
func (s *Store) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	_, err = s.docRef(sessionID).Set(ctx, map[string]interface{}{
		"snapshot":  string(data),
		"updatedAt": time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to save to firestore: %w", err)
	}
	return nil
}

// Load retrieves the session's snapshot.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	doc, err := s.docRef(sessionID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from firestore: %w", err)
	}

	raw, ok := doc.Data()["snapshot"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid snapshot field in document %s", doc.Ref.ID)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes the session's document. Firestore deletes of missing
// documents succeed.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.docRef(sessionID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete from firestore: %w", err)
	}
	return nil
}

// List returns the id of every document in the collection.
func (s *Store) List(ctx context.Context) ([]string, error) {
	iter := s.client.Collection(s.collection).DocumentRefs(ctx)

	var sessions []string
	for {
		ref, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		sessions = append(sessions, ref.ID)
	}
	return sessions, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
