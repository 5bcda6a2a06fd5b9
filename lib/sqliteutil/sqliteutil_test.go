package sqliteutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE entries (
    name TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

func TestOpenDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := OpenDB(testSchema, path)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO entries (name, value) VALUES ('a', 'b')`)
	require.NoError(t, err)
	err = db.Close()
	require.NoError(t, err)

	// reopening re-runs the DDL against a database that already has
	// the table
	db, err = OpenDB(testSchema, path)
	require.NoError(t, err)
	defer db.Close()

	var value string
	err = db.QueryRow(`SELECT value FROM entries WHERE name = 'a'`).Scan(&value)
	require.NoError(t, err)
	require.Equal(t, "b", value)
}

func TestOpenDBBadSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	_, err := OpenDB("CREATE BOGUS;", path)
	require.Error(t, err)
}
