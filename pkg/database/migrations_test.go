package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "test.db"), MaxOpenConns: 1}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateEmbeddedSchema(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	require.NoError(t, m.Migrate())
	// second run is a no-op
	require.NoError(t, m.Migrate())

	var versions int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 2, versions)

	for _, table := range []string{"clients", "projects", "invoices", "invoice_items", "payments", "status_changes"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestRunMigrationsOrderAndFailure(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	fsys := fstest.MapFS{
		"002_second.sql": {Data: []byte("INSERT INTO things (name) VALUES ('b');")},
		"001_first.sql":  {Data: []byte("CREATE TABLE things (name TEXT);")},
		"README.md":      {Data: []byte("ignored")},
	}
	require.NoError(t, m.RunMigrations(fsys))

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM things").Scan(&n))
	assert.Equal(t, 1, n)

	bad := fstest.MapFS{"003_broken.sql": {Data: []byte("NOT SQL AT ALL")}}
	err := m.RunMigrations(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to apply migration 3")

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = 3").Scan(&applied))
	assert.Equal(t, 0, applied)
}

func TestLoadMigrationsRejectsBadName(t *testing.T) {
	_, err := loadMigrations(fstest.MapFS{"first.sql": {Data: []byte("SELECT 1;")}})
	assert.Error(t, err)
}

func TestNewCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "billing.db")
	db, err := New(Config{Path: path, MaxOpenConns: 2}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())
	assert.NoError(t, db.Health(context.Background()))
	assert.FileExists(t, path)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestNewInMemory(t *testing.T) {
	// pool settings that would drop the connection between statements
	db, err := New(Config{Path: MemoryPath, MaxOpenConns: 10, MaxIdleConns: 0, ConnMaxLifetime: time.Nanosecond}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, NewMigrator(db, zap.NewNop()).Migrate())
	_, err = db.Exec("INSERT INTO clients (name, email, created_at, updated_at) VALUES ('Acme', 'a@acme.test', '2024-03-01T00:00:00Z', '2024-03-01T00:00:00Z')")
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM clients").Scan(&n))
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(Config{}, zap.NewNop())
	assert.Error(t, err)
}
