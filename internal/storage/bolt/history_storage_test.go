package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prism/internal/common"
	"github.com/ternarybob/prism/internal/interfaces"
	"github.com/ternarybob/prism/internal/models"
)

func openTestBackend(t *testing.T) *Backend {
	t.Helper()
	backend, err := NewBackend(arbor.NewLogger(), &common.BoltConfig{
		Path: filepath.Join(t.TempDir(), "history.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend
}

func TestSaveEntryDropsDataAndThumbnail(t *testing.T) {
	backend := openTestBackend(t)
	ctx := context.Background()

	entry := &models.HistoryEntry{
		ID:        "hist_1",
		Name:      "teapot.obj",
		Data:      []byte{1, 2, 3},
		Format:    "obj",
		Timestamp: 42,
		Size:      3,
		Thumbnail: "data:image/png;base64,xxxx",
	}
	require.NoError(t, backend.SaveEntry(ctx, entry))

	got, err := backend.GetEntry(ctx, "hist_1")
	require.NoError(t, err)

	// Metadata survives; payloads are intentionally dropped.
	assert.Equal(t, "teapot.obj", got.Name)
	assert.Equal(t, "obj", got.Format)
	assert.Equal(t, int64(3), got.Size)
	assert.Equal(t, int64(42), got.Timestamp)
	assert.Nil(t, got.Data)
	assert.Empty(t, got.Thumbnail)

	// The caller's entry is not mutated by the lossy save.
	assert.Equal(t, []byte{1, 2, 3}, entry.Data)
}

func TestGetEntryNotFound(t *testing.T) {
	backend := openTestBackend(t)
	_, err := backend.GetEntry(context.Background(), "hist_missing")
	assert.ErrorIs(t, err, interfaces.ErrEntryNotFound)
}

func TestFindByNameSize(t *testing.T) {
	backend := openTestBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.SaveEntry(ctx, &models.HistoryEntry{ID: "a", Name: "x.stl", Size: 5}))
	require.NoError(t, backend.SaveEntry(ctx, &models.HistoryEntry{ID: "b", Name: "x.stl", Size: 7}))

	got, err := backend.FindByNameSize(ctx, "x.stl", 7)
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)

	_, err = backend.FindByNameSize(ctx, "y.stl", 7)
	assert.ErrorIs(t, err, interfaces.ErrEntryNotFound)
}

func TestTouchEntry(t *testing.T) {
	backend := openTestBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.SaveEntry(ctx, &models.HistoryEntry{ID: "t", Name: "t.ply", Timestamp: 1}))
	require.NoError(t, backend.TouchEntry(ctx, "t", 99))

	got, err := backend.GetEntry(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, int64(99), got.Timestamp)

	assert.ErrorIs(t, backend.TouchEntry(ctx, "absent", 1), interfaces.ErrEntryNotFound)
}

func TestListEntriesMostRecentFirst(t *testing.T) {
	backend := openTestBackend(t)
	ctx := context.Background()

	for i, ts := range []int64{10, 30, 20} {
		require.NoError(t, backend.SaveEntry(ctx, &models.HistoryEntry{
			ID: string(rune('a' + i)), Name: "m.glb", Timestamp: ts,
		}))
	}

	entries, err := backend.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(30), entries[0].Timestamp)
	assert.Equal(t, int64(10), entries[2].Timestamp)
}

func TestDeleteEntryAndDeleteAll(t *testing.T) {
	backend := openTestBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.SaveEntry(ctx, &models.HistoryEntry{ID: "1", Name: "a"}))
	require.NoError(t, backend.SaveEntry(ctx, &models.HistoryEntry{ID: "2", Name: "b"}))

	deleted, err := backend.DeleteEntry(ctx, "1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = backend.DeleteEntry(ctx, "1")
	require.NoError(t, err)
	assert.False(t, deleted)

	require.NoError(t, backend.DeleteAll(ctx))
	entries, err := backend.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBackendKind(t *testing.T) {
	backend := openTestBackend(t)
	assert.Equal(t, models.BackendKeyValue, backend.Kind())
}
