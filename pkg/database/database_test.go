package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(context.Background(), Config{Path: filepath.Join(t.TempDir(), "test.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrator_RunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	migrations := []Migration{
		{Version: 2, Name: "add_note", SQL: "ALTER TABLE items ADD COLUMN note TEXT;"},
		{Version: 1, Name: "create_items", SQL: "CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL);"},
	}

	m := NewMigrator(db, nil)
	require.NoError(t, m.Run(ctx, migrations))
	require.NoError(t, m.Run(ctx, migrations))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)

	_, err := db.ExecContext(ctx, "INSERT INTO items (name, note) VALUES ('a', 'b')")
	assert.NoError(t, err)
}

func TestMigrator_FailedMigrationIsNotRecorded(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	err := NewMigrator(db, nil).Run(ctx, []Migration{{Version: 1, Name: "broken", SQL: "CREATE TABLE ("}})
	require.Error(t, err)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestDB_WithTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.ExecContext(ctx, "CREATE TABLE items (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO items (id) VALUES (1)"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&count))
	assert.Equal(t, 0, count)
}
