package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/marketbot/core/config"
	coredatabase "github.com/m3rciful/marketbot/core/database"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 42
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, int64(42), cfg.CoreConfig().Telegram.AdminID)
	assert.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, coredatabase.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "orders.db", cfg.Database.Path)
	assert.Equal(t, 10, cfg.Market.OrdersLimit)
	assert.Equal(t, "SAR", cfg.Market.Currency)
	assert.Equal(t, ":5000", cfg.Health.Listen)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "from-file"
database:
  path: file.db
market:
  currency: USD
session:
  ttl: 2h
`)
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("DB_PATH", "env.db")
	t.Setenv("MARKET_ORDERS_LIMIT", "5")
	t.Setenv("PORT", "8080")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, "env.db", cfg.Database.Path)
	assert.Equal(t, 5, cfg.Market.OrdersLimit)
	assert.Equal(t, "USD", cfg.Market.Currency)
	assert.Equal(t, ":8080", cfg.Health.Listen)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	require.NoError(t, os.Unsetenv("BOT_TOKEN"))

	_, err := Load(writeConfig(t, "telegram:\n  token: x\nmarket:\n  orders_limit: 500\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "telegram:\n  token: x\ndatabase:\n  driver: mysql\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "market:\n  currency: SAR\n"))
	assert.Error(t, err, "token is required")
}
