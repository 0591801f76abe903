package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/marketbot/core/config"
	coredatabase "github.com/m3rciful/marketbot/core/database"
	"github.com/m3rciful/marketbot/core/health"
	coretelegram "github.com/m3rciful/marketbot/core/telegram"
	marketconfig "github.com/m3rciful/marketbot/market/config"
)

func testConfig(t *testing.T) *marketconfig.Config {
	t.Helper()
	cfg := &marketconfig.Config{
		Config: coreconfig.Config{
			Telegram: coreconfig.TelegramConfig{Token: "123:abc", AdminID: 42},
			Health:   coreconfig.HealthConfig{Listen: "127.0.0.1:0"},
		},
		Database: coredatabase.Config{Path: filepath.Join(t.TempDir(), "app.db")},
	}
	require.NoError(t, cfg.Normalize())
	return cfg
}

func hasEndpoint(routes []coretelegram.Route, endpoint any) bool {
	for _, r := range routes {
		if r.Endpoint == endpoint && r.Handler != nil {
			return true
		}
	}
	return false
}

func TestBootstrapBuildsRunOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Health.Disable = true
	a, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	assert.Same(t, &cfg.Config, opts.Config)
	require.NotNil(t, opts.Registry)

	for _, ep := range []any{"/start", "/orders", "/admin", tele.OnText, tele.OnMedia, tele.OnCallback} {
		assert.Truef(t, hasEndpoint(opts.Routes, ep), "route %v", ep)
	}
	var names []string
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	assert.Equal(t, "recover", names[0])
	assert.Equal(t, "serialize", names[len(names)-1])

	rt := coretelegram.Runtime{Registry: opts.Registry}
	require.NoError(t, opts.OnStart(context.Background(), rt))
	require.NoError(t, opts.OnStop(context.Background(), rt))
}

func TestHealthListenerFollowsLifecycle(t *testing.T) {
	cfg := testConfig(t)
	a, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, a.health)

	srv := a.health.Routes()
	req, err := http.NewRequest(http.MethodGet, "/health", nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	var body health.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	require.NoError(t, opts.OnStart(context.Background(), coretelegram.Runtime{}))
	require.NoError(t, opts.OnStop(context.Background(), coretelegram.Runtime{}))
}

func TestMigrateIsRepeatable(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, Migrate(cfg))
	require.NoError(t, Migrate(cfg))
}
