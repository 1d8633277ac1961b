package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract verifies that a SnapshotStore implementation
// honours the interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := fmt.Sprintf("contract-%d", time.Now().UnixNano())

	sample := func() *domain.Snapshot {
		return &domain.Snapshot{
			Elements: []domain.TextElement{
				{ID: "tb-1", X: 10, Y: 20, Content: "Hello", Style: domain.DefaultStyle()},
				{ID: "tb-2", X: 640, Y: 510, Content: "World", Style: domain.Style{FontSize: 32, Bold: true}},
			},
			Meta:      map[string]any{"title": "deck"},
			UpdatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		snap := sample()
		require.NoError(t, store.Save(ctx, sessionID, snap))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, snap.Elements, loaded.Elements, "elements keep order and content")
		assert.Equal(t, "deck", loaded.Meta["title"])
		assert.True(t, snap.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Save Replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, sample()))
		require.NoError(t, store.Save(ctx, sessionID, &domain.Snapshot{
			Elements: []domain.TextElement{{ID: "only"}},
		}))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, loaded.Elements, 1)
		assert.Equal(t, "only", loaded.Elements[0].ID)
	})

	t.Run("Loaded Copy Is Isolated", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, sample()))

		first, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		first.Elements[0].Content = "mutated"

		second, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "Hello", second.Elements[0].Content)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, sample()))
		require.NoError(t, store.Delete(ctx, sessionID))

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

		assert.NoError(t, store.Delete(ctx, sessionID), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := sessionID+"-1", sessionID+"-2"
		require.NoError(t, store.Save(ctx, id1, sample()))
		require.NoError(t, store.Save(ctx, id2, sample()))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)

		require.NoError(t, store.Delete(ctx, id1))
		sessions, err = store.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, sessions, id1)
	})
}

// RunHistoryStoreContract verifies that a HistoryStore implementation
// honours the interface contract.
func RunHistoryStoreContract(t *testing.T, store HistoryStore) {
	ctx := context.Background()
	sessionID := fmt.Sprintf("history-%d", time.Now().UnixNano())
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Empty", func(t *testing.T) {
		msgs, err := store.List(ctx, "missing-"+sessionID)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("Append Keeps Order", func(t *testing.T) {
		require.NoError(t, store.Append(ctx, sessionID, domain.ChatMessage{
			ID: "1", Role: domain.RoleUser, Content: "add a title", Timestamp: ts,
		}))
		require.NoError(t, store.Append(ctx, sessionID, domain.ChatMessage{
			ID: "2", Role: domain.RoleAssistant, Content: "done", Timestamp: ts.Add(time.Second),
			Commands: []any{map[string]any{"action": "create"}},
		}))

		msgs, err := store.List(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "1", msgs[0].ID)
		assert.Equal(t, domain.RoleUser, msgs[0].Role)
		assert.Equal(t, "2", msgs[1].ID)
		assert.Equal(t, "done", msgs[1].Content)
		assert.Len(t, msgs[1].Commands, 1)
		assert.True(t, ts.Equal(msgs[0].Timestamp))
	})

	t.Run("Sessions Are Isolated", func(t *testing.T) {
		msgs, err := store.List(ctx, sessionID+"-other")
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx, sessionID))
		msgs, err := store.List(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})
}
