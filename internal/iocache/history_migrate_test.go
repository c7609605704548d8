package iocache

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/reddot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateHistory_UnsupportedBackend(t *testing.T) {
	err := MigrateHistory(schema.NoneBackend, "", -1)
	assert.ErrorContains(t, err, "migrations are not supported for backend: none")
}

func TestMigrateHistory_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	var out bytes.Buffer

	require.NoError(t, migrateHistory(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "Successfully migrated from version 0 to version 2")

	out.Reset()
	require.NoError(t, migrateHistory(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "already at the latest version")

	// Migrated tables are usable by the store
	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	runID, err := store.BeginRun(time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordSummaryRows(runID, "/data", sampleSummaryRows()))
	require.NoError(t, store.Close())

	out.Reset()
	require.NoError(t, migrateHistory(&out, schema.SQLiteBackend, dbPath, 1))
	assert.Contains(t, out.String(), "to version 1")

	out.Reset()
	require.NoError(t, migrateHistory(&out, schema.SQLiteBackend, dbPath, 0))
	assert.Contains(t, out.String(), "rolled back from version 1 to version 0")

	out.Reset()
	require.NoError(t, migrateHistory(&out, schema.SQLiteBackend, dbPath, 0))
	assert.Contains(t, out.String(), "already at version 0")

	require.NoError(t, migrateHistory(&out, schema.SQLiteBackend, dbPath, 2))
}

func TestMigrateHistory_SQLiteInMemory(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, migrateHistory(&out, schema.SQLiteBackend, ":memory:", -1))
}

func TestMigrationsDir(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		want    string
	}{
		{schema.SQLiteBackend, "migrations/sqlite"},
		{schema.MySQLBackend, "migrations/mysql"},
		{schema.PostgreSQLBackend, "migrations/postgres"},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			dir, err := migrationsDir(tt.backend)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dir)

			entries, err := migrationsFS.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 4)
		})
	}
}
