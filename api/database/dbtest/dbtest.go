// Package dbtest provisions throwaway SQLite databases migrated with the real schema.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tbeaudouin05/quitcoach/api/database"
)

// URL returns a sqlite:// URL for a fresh file in t's temp dir.
func URL(t testing.TB) string {
	t.Helper()
	return "sqlite://" + filepath.Join(t.TempDir(), "quitcoach.db")
}

// Open migrates a fresh database and returns a connection closed at test end.
func Open(t testing.TB) *database.DB {
	t.Helper()
	url := URL(t)
	require.NoError(t, database.MigrateUp(url))
	db, err := database.Open(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
