package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrationFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"002_orders.up.sql": {Data: []byte("")},
		"001_init.up.sql":   {Data: []byte("")},
		"001_init.down.sql": {Data: []byte("")},
		"nested/003.up.sql": {Data: []byte("")},
	}
	assert.Equal(t, []string{"001_init.up.sql", "002_orders.up.sql"}, listMigrationFiles(fsys))
}

func TestAppliedBetween(t *testing.T) {
	files := []string{"001_init.up.sql", "002_orders.up.sql", "003_idx.up.sql"}
	assert.Equal(t, []string{"002_orders.up.sql", "003_idx.up.sql"}, appliedBetween(files, 1, 3))
	assert.Empty(t, appliedBetween(files, 3, 3))
	assert.Equal(t, uint64(2), parseVersion("002_orders.up.sql"))
}

func TestConfigNormalize(t *testing.T) {
	var c Config
	require.NoError(t, c.Normalize())
	assert.Equal(t, DriverSQLite, c.Driver)
	assert.Equal(t, "orders.db", c.Path)
	assert.Equal(t, 1, c.MaxConnections)
	assert.Contains(t, c.DSN(), "_foreign_keys=on")

	pg := Config{Driver: "PostgreSQL", Host: "db", Name: "market"}
	require.NoError(t, pg.Normalize())
	assert.Equal(t, DriverPostgres, pg.Driver)
	assert.Equal(t, "db:5432/market", pg.Target())
	assert.Contains(t, pg.DSN(), "sslmode=disable")

	bad := Config{Driver: "mysql"}
	assert.Error(t, bad.Normalize())
	assert.Error(t, (&Config{Driver: "postgres"}).Normalize())
}
