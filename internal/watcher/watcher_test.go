package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ChangeAndDelete(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "prompt_tracker.db")

	var changes, deletes atomic.Int32
	w, err := New(dbPath, Options{
		OnChange: func() { changes.Add(1) },
		OnDelete: func() { deletes.Add(1) },
		Debounce: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	// Unrelated files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0600))

	// A burst of writes is coalesced
	require.NoError(t, os.WriteFile(dbPath, []byte("a"), 0600))
	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("b"), 0600))
	require.NoError(t, os.WriteFile(dbPath, []byte("c"), 0600))

	assert.Eventually(t, func() bool { return changes.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, changes.Load(), int32(2))
	assert.Equal(t, int32(0), deletes.Load())

	require.NoError(t, os.Remove(dbPath))
	assert.Eventually(t, func() bool { return deletes.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_MissingParent(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing", "db.sqlite"), Options{})
	require.NoError(t, err)

	assert.Error(t, w.Start())
	assert.NoError(t, w.Stop())
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "db.sqlite"), Options{})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Start())

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
