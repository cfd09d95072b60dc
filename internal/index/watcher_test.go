package index

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notesplit/internal/storage"
)

// watcherTestEnv sets up a vault dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	require.NoError(t, err)
	return vaultDir, store, testDB(t)
}

func indexed(db *DB, p string) bool {
	_, err := db.GetNote(p)
	return err == nil
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, vaultDir, quietLogger(), func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, "new.md"), []byte("# New"), 0o644))

	assert.Eventually(t, func() bool {
		return indexed(db, "new.md")
	}, 5*time.Second, 50*time.Millisecond, "new file not indexed by watcher")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return slices.Contains(events, "created:new.md")
	}, 2*time.Second, 50*time.Millisecond, "expected created:new.md callback")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, vaultDir, quietLogger(), nil)

	time.Sleep(100 * time.Millisecond)

	subDir := filepath.Join(vaultDir, "subdir")
	require.NoError(t, os.MkdirAll(subDir, 0o755))

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(subDir, "deep.md"), []byte("# Deep"), 0o644))

	assert.Eventually(t, func() bool {
		return indexed(db, "subdir/deep.md")
	}, 5*time.Second, 50*time.Millisecond, "file in new subdir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	logger := quietLogger()

	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, "del.md"), []byte("# Delete Me"), 0o644))
	require.NoError(t, Sync(db, store, logger))
	require.True(t, indexed(db, "del.md"), "precondition: file should be indexed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, vaultDir, logger, nil)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(vaultDir, "del.md")))

	assert.Eventually(t, func() bool {
		return !indexed(db, "del.md")
	}, 5*time.Second, 50*time.Millisecond, "deleted file still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	logger := quietLogger()

	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, "old.md"), []byte("# Rename"), 0o644))
	require.NoError(t, Sync(db, store, logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, vaultDir, logger, nil)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.Rename(filepath.Join(vaultDir, "old.md"), filepath.Join(vaultDir, "renamed.md")))

	assert.Eventually(t, func() bool {
		return !indexed(db, "old.md") && indexed(db, "renamed.md")
	}, 5*time.Second, 50*time.Millisecond, "rename reconciliation failed: old path should be removed and new path indexed")
}

func TestWatcher_IgnoredPathsSkipped(t *testing.T) {
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir, storage.WithIgnore("templates/**"))
	require.NoError(t, err)
	db := testDB(t)
	require.NoError(t, os.MkdirAll(filepath.Join(vaultDir, "templates"), 0o755))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, vaultDir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, "templates", "t.md"), []byte("# Template"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, "kept.md"), []byte("# Kept"), 0o644))

	assert.Eventually(t, func() bool {
		return indexed(db, "kept.md")
	}, 5*time.Second, 50*time.Millisecond, "kept.md not indexed")
	assert.False(t, indexed(db, "templates/t.md"), "ignored file should not be indexed")
}
