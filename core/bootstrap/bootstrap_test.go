package bootstrap

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/marketbot/core/config"
	coredatabase "github.com/m3rciful/marketbot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunMigratesWithDriverSet(t *testing.T) {
	var gotDriver string
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Path: filepath.Join(t.TempDir(), "boot.db")},
		LoggerInit: noLogger,
		Migrations: func(driver string) (fs.FS, error) {
			return fstest.MapFS{}, nil
		},
		Migrate: func(db *sqlx.DB, driver string, _ fs.FS) error {
			gotDriver = driver
			return db.Ping()
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.DB.Close() })
	assert.Equal(t, coredatabase.DriverSQLite, gotDriver)
	assert.Equal(t, coredatabase.DriverSQLite, res.Driver)
}

func TestRunPropagatesMigrationFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Path: filepath.Join(t.TempDir(), "boot.db")},
		LoggerInit: noLogger,
		Migrations: func(string) (fs.FS, error) { return fstest.MapFS{}, nil },
		Migrate:    func(*sqlx.DB, string, fs.FS) error { return boom },
	})
	require.ErrorIs(t, err, boom)
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(Options{})
	assert.Error(t, err)
}
