package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `CREATE TABLE IF NOT EXISTS kv (k TEXT PRIMARY KEY, v TEXT NOT NULL)`

func TestOpenAndMigrate(t *testing.T) {
	db, err := Open(InMemory, testSchema)
	require.NoError(t, err)
	defer db.Close()

	// idempotent
	require.NoError(t, Migrate(context.Background(), db, testSchema))

	_, err = db.Exec(`INSERT INTO kv (k, v) VALUES ('a', 'b')`)
	require.NoError(t, err)

	_, err = Open(InMemory, `CREATE TABLE broken (`)
	assert.Error(t, err)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.db")
	db, err := Open(path, testSchema)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO kv (k, v) VALUES ('a', 'b')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path, testSchema)
	require.NoError(t, err)
	defer db.Close()

	var v string
	require.NoError(t, db.QueryRow(`SELECT v FROM kv WHERE k = 'a'`).Scan(&v))
	assert.Equal(t, "b", v)
}

func TestStmtCache(t *testing.T) {
	db, err := Open(InMemory, testSchema)
	require.NoError(t, err)
	defer db.Close()

	sc := NewStmtCache(db)
	defer sc.Clear()

	const query = `SELECT COUNT(*) FROM kv`
	first, err := sc.Prepare(query)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stmt, err := sc.PrepareContext(context.Background(), query)
			assert.NoError(t, err)
			assert.Same(t, first, stmt)
		}()
	}
	wg.Wait()

	_, err = sc.Prepare(`SELECT nope FROM`)
	assert.Error(t, err)
	assert.Panics(t, func() { sc.MustPrepare(`SELECT nope FROM`) })

	sc.Clear()
	again, err := sc.Prepare(query)
	require.NoError(t, err)
	assert.NotSame(t, first, again)
}
