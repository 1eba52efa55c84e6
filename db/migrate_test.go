package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n))
	return n == 1
}

func TestOpenWithMigrations(t *testing.T) {
	db, err := OpenWithMigrations(filepath.Join(t.TempDir(), "ledger.db"), zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"schema_migrations", "runs", "rounds", "counters"} {
		assert.True(t, tableExists(t, db, table), "table %s should exist", table)
	}

	versions, err := AppliedVersions(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"000", "001", "002"}, versions)
}

func TestMigrate_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	db, err := OpenWithMigrations(path, nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(db, zaptest.NewLogger(t).Sugar()))
	require.NoError(t, db.Close())

	db, err = OpenWithMigrations(path, nil)
	require.NoError(t, err)
	defer db.Close()

	versions, err := AppliedVersions(db)
	require.NoError(t, err)
	assert.Len(t, versions, 3)
}

func TestMigrate_ConstraintsEnforced(t *testing.T) {
	db, err := OpenWithMigrations(filepath.Join(t.TempDir(), "ledger.db"), nil)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO rounds (run_id, round, t1, t2, parallelism, canopies) VALUES ('missing', 1, 0.1, 0.1, 1, 1)`)
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err), "foreign key to runs must be enforced")

	_, err = db.Exec(`INSERT INTO runs (id, kind, status, input, output, created_at, updated_at)
		VALUES ('r1', 'sort', 'queued', 'in', 'out', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err), "kind check must be enforced")
}

func TestEmbeddedMigrations_Order(t *testing.T) {
	ms, err := embeddedMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, ms)
	assert.Equal(t, "000", ms[0].version)
	for i := 1; i < len(ms); i++ {
		assert.Less(t, ms[i-1].file, ms[i].file)
	}
}
