package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add carts table", "add_carts_table"},
		{"Add-Carts-Table", "add_carts_table"},
		{"ADD_CARTS_TABLE", "add_carts_table"},
		{"add__carts__table", "add_carts_table"},
		{"Add Deliveries 123", "add_deliveries_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_AllDrivers(t *testing.T) {
	dir := t.TempDir()

	files, err := CreateMigration(dir, "add wishlist", "Create wishlist table")
	require.NoError(t, err)
	require.Len(t, files, 2)

	for _, mf := range files {
		assert.Equal(t, "000001", mf.Version)
		assert.Equal(t, filepath.Join(dir, mf.Driver, "000001_add_wishlist.up.sql"), mf.UpPath)
		assert.Equal(t, filepath.Join(dir, mf.Driver, "000001_add_wishlist.down.sql"), mf.DownPath)

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "add wishlist")
		assert.Contains(t, string(up), "Create wishlist table")
		assert.Contains(t, string(up), mf.Driver)

		down, err := os.ReadFile(mf.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(down), "rollback")
	}
}

func TestCreateMigration_NextVersionFollowsHighestDriver(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, DriverPostgres), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DriverPostgres, "000004_x.up.sql"), []byte("--"), 0o644))

	files, err := CreateMigration(dir, "next", "")
	require.NoError(t, err)
	for _, mf := range files {
		assert.Equal(t, "000005", mf.Version)
	}
	_, err = os.Stat(filepath.Join(dir, DriverSQLite, "000005_next.up.sql"))
	assert.NoError(t, err)
}

func TestCreateMigration_SingleDriver(t *testing.T) {
	dir := t.TempDir()

	files, err := CreateMigration(dir, "pg only", "", DriverPostgres)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, DriverPostgres, files[0].Driver)

	_, err = os.Stat(filepath.Join(dir, DriverSQLite))
	assert.True(t, os.IsNotExist(err))
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{
		"000002_add_users.up.sql",
		"000002_add_users.down.sql",
		"000001_init_schema.up.sql",
		"000001_init_schema.down.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- test"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.up.sql"), 0o755))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init_schema", "000002_add_users"}, migrations)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	migrations, err := ListMigrations("/nonexistent/path/to/migrations")
	require.NoError(t, err)
	assert.Empty(t, migrations)
}
