// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starford/notesplit/internal/index"
	"github.com/starford/notesplit/internal/storage"
)

// FixedNow is the clock used by tests that render date placeholders.
var FixedNow = time.Date(2024, 3, 2, 15, 4, 5, 0, time.UTC)

// Clock returns FixedNow.
func Clock() time.Time {
	return FixedNow
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "notesplit-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory holding files (vault path
// to content) and a storage.FS over it.
func TestVault(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	for p, content := range files {
		abs := filepath.Join(vaultDir, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	store, err := storage.NewFS(vaultDir)
	require.NoError(t, err)
	return vaultDir, store
}

// ReadFile returns the content of a vault file or fails the test.
func ReadFile(t *testing.T, vaultDir, p string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(vaultDir, filepath.FromSlash(p)))
	require.NoError(t, err, "read %s", p)
	return string(data)
}

// Logger returns a logger that only reports errors.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
