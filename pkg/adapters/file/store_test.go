package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/easel/pkg/adapters/file"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "deck", &domain.Snapshot{
		Elements: []domain.TextElement{{ID: "a", Content: "x"}},
	}))

	data, err := os.ReadFile(filepath.Join(dir, "deck.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"content": "x"`)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileStore_ListIgnoresStrayFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-deck-123.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	sessions, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "nope"))
	sessions, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestFileStore_RejectsUnsafeIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "..", "../escape", `a\b`, "tmp-x"} {
		err := store.Save(ctx, id, &domain.Snapshot{})
		assert.ErrorIs(t, err, file.ErrInvalidSessionID, id)
		_, err = store.Load(ctx, id)
		assert.ErrorIs(t, err, file.ErrInvalidSessionID, id)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))

	_, err := file.New(dir).Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSnapshotNotFound)
}
