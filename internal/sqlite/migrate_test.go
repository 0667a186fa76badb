package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestApplyMigrations(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	migrations := fstest.MapFS{
		"m/002_more.sql":   {Data: []byte("-- +migrate Up\nALTER TABLE items ADD COLUMN label TEXT;\n-- +migrate Down\nSELECT 1;")},
		"m/001_create.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);")},
		"m/README.md":      {Data: []byte("not a migration")},
	}

	require.NoError(t, applyMigrations(ctx, db, migrations, "m"))
	require.NoError(t, applyMigrations(ctx, db, migrations, "m"), "replay is a no-op")

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 2, n)

	_, err := db.Exec("INSERT INTO items (id, label) VALUES ('a', 'b')")
	assert.NoError(t, err, "migrations run in name order")
}

func TestApplyMigrationsFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	migrations := fstest.MapFS{
		"m/001_bad.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE ok(id TEXT);\nNOT SQL;")},
	}
	require.Error(t, applyMigrations(ctx, db, migrations, "m"))

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Zero(t, n)
}

func TestExtractUpMigration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no markers", "CREATE TABLE a(x);", "CREATE TABLE a(x);"},
		{"up only", "-- +migrate Up\nCREATE TABLE a(x);", "\nCREATE TABLE a(x);"},
		{"up and down", "-- +migrate Up\nA;\n-- +migrate Down\nB;", "\nA;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractUpMigration(tt.content))
		})
	}
}

func TestEmbeddedMigrationsCreateTables(t *testing.T) {
	b := setupBackend(t)
	for _, table := range []string{"colors", "projects", "tags", "blocks", "entries", "tagged_blocks", "tagged_entries"} {
		assert.Equal(t, 1, countRows(t, b,
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table), table)
	}
}
