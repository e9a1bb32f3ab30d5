package migration

import (
	"database/sql"
	"io/fs"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/storefront/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestMigrator_SQLiteUpAndDown(t *testing.T) {
	db := openSQLite(t)

	m, err := New(db, DriverSQLite, zap.NewNop())
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Up())
	assert.True(t, tableExists(t, db, "demo_users"))
	assert.True(t, tableExists(t, db, "order_deliveries"))

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// a second run is a no-op
	require.NoError(t, m.Up())

	require.NoError(t, m.Steps(-1))
	assert.False(t, tableExists(t, db, "order_deliveries"))
	assert.True(t, tableExists(t, db, "demo_users"))

	require.NoError(t, m.Down())
	assert.False(t, tableExists(t, db, "demo_users"))

	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestMigrator_GoTo(t *testing.T) {
	db := openSQLite(t)

	m, err := New(db, DriverSQLite, zap.NewNop())
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.GoTo(1))
	assert.True(t, tableExists(t, db, "demo_users"))
	assert.False(t, tableExists(t, db, "order_deliveries"))

	require.NoError(t, m.GoTo(1))
}

func TestMigrator_UnknownDriver(t *testing.T) {
	db := openSQLite(t)
	defer db.Close()

	_, err := New(db, "mysql", zap.NewNop())
	assert.Error(t, err)
}

func TestEmbeddedMigrations_DriversInStep(t *testing.T) {
	versions := func(driver string) []string {
		entries, err := fs.ReadDir(migrations.FS, driver)
		require.NoError(t, err)
		var out []string
		for _, e := range entries {
			out = append(out, strings.TrimSuffix(strings.TrimSuffix(e.Name(), ".up.sql"), ".down.sql"))
		}
		return out
	}
	assert.Equal(t, versions(DriverPostgres), versions(DriverSQLite))
}
