package cursor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestReadMissingCursorReturnsNil(t *testing.T) {
	store := newTestStore(t)

	c, err := store.Read("sheet1")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.False(t, store.Exists("sheet1"))
}

func TestWriteThenRead(t *testing.T) {
	store := newTestStore(t)

	err := store.Write(&Cursor{
		DatasetKey:            "sheet1",
		LastProcessedPosition: 42,
		TotalProcessed:        40,
	})
	require.NoError(t, err)
	assert.True(t, store.Exists("sheet1"))

	c, err := store.Read("sheet1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "sheet1", c.DatasetKey)
	assert.Equal(t, 42, c.LastProcessedPosition)
	assert.Equal(t, 40, c.TotalProcessed)
	assert.Equal(t, 1, c.Version)
	assert.False(t, c.CreatedAt.IsZero())
	assert.False(t, c.UpdatedAt.IsZero())
}

func TestWriteOverwritesPrevious(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Write(&Cursor{DatasetKey: "sheet1", LastProcessedPosition: 10}))
	require.NoError(t, store.Write(&Cursor{DatasetKey: "sheet1", LastProcessedPosition: 25}))

	c, err := store.Read("sheet1")
	require.NoError(t, err)
	assert.Equal(t, 25, c.LastProcessedPosition)
}

func TestCursorsAreIndependentPerDataset(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Write(&Cursor{DatasetKey: "a", LastProcessedPosition: 5}))
	require.NoError(t, store.Write(&Cursor{DatasetKey: "b", LastProcessedPosition: 9}))

	a, err := store.Read("a")
	require.NoError(t, err)
	b, err := store.Read("b")
	require.NoError(t, err)
	assert.Equal(t, 5, a.LastProcessedPosition)
	assert.Equal(t, 9, b.LastProcessedPosition)
}

func TestClearRemovesCursor(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Write(&Cursor{DatasetKey: "sheet1", LastProcessedPosition: 3}))
	require.NoError(t, store.Clear("sheet1"))

	assert.False(t, store.Exists("sheet1"))
	c, err := store.Read("sheet1")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestClearMissingCursorIsNoOp(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Clear("never-written"))
}

func TestWriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Write(&Cursor{DatasetKey: "sheet1", LastProcessedPosition: 1}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sheet1.cursor.json", entries[0].Name())
}

func TestReadCorruptCursorFails(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cursor.json"), []byte("{truncated"), 0644))

	_, err = store.Read("bad")
	assert.Error(t, err)
}
