package database

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regionchatbot/pkg/logging"
)

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.SQL.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestOpen_SQLiteAndMigrate(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, SQLite, db.Dialect)

	require.NoError(t, db.Migrate(ctx, logging.Nop()))
	assert.True(t, tableExists(t, db, "users"))
	assert.True(t, tableExists(t, db, "goose_db_version"))

	require.NoError(t, db.Migrate(ctx, logging.Nop()), "second run is a no-op")
}

func TestOpen_SQLiteRejectsSelfPartner(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx, logging.Nop()))

	_, err = db.SQL.ExecContext(ctx, `INSERT INTO users (telegram_id, region, partner_id, last_active_at, created_at)
		VALUES (1, 'Asia', 1, 0, 0)`)
	require.Error(t, err)
}

func TestOpen_InMemory(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx, logging.Nop()))
	assert.True(t, tableExists(t, db, "users"))
}

func TestOpen_UnsupportedScheme(t *testing.T) {
	_, err := Open(context.Background(), "mysql://root@localhost/chat")
	require.ErrorIs(t, err, ErrUnsupportedScheme)

	_, err = Open(context.Background(), "sqlite://")
	require.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestSqliteDSN(t *testing.T) {
	dsn, err := sqliteDSN("/tmp/chat.db?cache=shared")
	require.NoError(t, err)

	assert.Contains(t, dsn, "file:/tmp/chat.db?")
	assert.Contains(t, dsn, "cache=shared")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.Contains(t, dsn, "busy_timeout%285000%29")

	dsn, err = sqliteDSN("chat.db?_txlock=exclusive")
	require.NoError(t, err)
	assert.Contains(t, dsn, "_txlock=exclusive")
	assert.NotContains(t, dsn, "_txlock=immediate")
}

func TestMigrations_Embedded(t *testing.T) {
	entries, err := fs.ReadDir(Migrations(), ".")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "00001_create_users.sql", entries[0].Name())
}
