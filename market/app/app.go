// Package app is the composition root of the marketplace bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/marketbot/core/bootstrap"
	"github.com/m3rciful/marketbot/core/health"
	"github.com/m3rciful/marketbot/core/logger"
	coretelegram "github.com/m3rciful/marketbot/core/telegram"
	"github.com/m3rciful/marketbot/core/telegram/router"
	"github.com/m3rciful/marketbot/core/telegram/state"
	"github.com/m3rciful/marketbot/market/bot"
	marketconfig "github.com/m3rciful/marketbot/market/config"
	"github.com/m3rciful/marketbot/market/flow"
	"github.com/m3rciful/marketbot/market/ledger"
)

// App holds the initialized components of the bot.
type App struct {
	cfg      *marketconfig.Config
	db       *sqlx.DB
	sessions *state.MemoryManager
	bot      *bot.Bot
	health   *health.Server

	stopSweeper context.CancelFunc
}

// Bootstrap initializes logging, opens and migrates the ledger and builds the bot.
func Bootstrap(ctx context.Context, cfg *marketconfig.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	res, err := bootstrap.Run(bootstrap.Options{
		Config:     &cfg.Config,
		Database:   cfg.Database,
		Migrations: ledger.Migrations,
	})
	if err != nil {
		return nil, err
	}

	sessions := state.NewMemoryManager(state.Options{
		TTL:           cfg.Session.TTL,
		SweepInterval: cfg.Session.SweepInterval,
	})
	engine := flow.New(ledger.New(res.DB), flow.Options{
		Currency:    cfg.Market.Currency,
		OrdersLimit: cfg.Market.OrdersLimit,
	})
	b, err := bot.New(bot.Options{
		Engine:   engine,
		Sessions: sessions,
		AdminID:  cfg.Telegram.AdminID,
	})
	if err != nil {
		_ = res.DB.Close()
		return nil, fmt.Errorf("app: %w", err)
	}

	a := &App{cfg: cfg, db: res.DB, sessions: sessions, bot: b}
	if !cfg.Health.Disable {
		a.health = health.New(cfg.Health.Listen)
	}
	logger.Info(ctx, "app", "app.bootstrap",
		slog.String("status", "ok"),
		slog.String("driver", res.Driver),
		slog.Int("count", len(b.Registry().ListCommands(false))),
	)
	return a, nil
}

// Migrate applies pending ledger migrations and exits.
func Migrate(cfg *marketconfig.Config) error {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:     &cfg.Config,
		Database:   cfg.Database,
		Migrations: ledger.Migrations,
	})
	if err != nil {
		return err
	}
	return res.DB.Close()
}

// TelegramRunOptions describes the middlewares, routes and lifecycle hooks of the bot.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		Config:   &a.cfg.Config,
		Registry: a.bot.Registry(),
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, coretelegram.ChainOptions{
			OnLimited: a.bot.Limited(),
			OnPanic:   a.bot.Failure(),
			Extra: []coretelegram.Middleware{
				{Name: "serialize", Use: state.Serialize(a.sessions)},
			},
		}),
		Routes:  a.routes(),
		OnStart: a.start,
		OnStop:  a.stop,
	}, nil
}

func (a *App) routes() []coretelegram.Route {
	reg := a.bot.Registry()
	adminID := a.cfg.Telegram.AdminID
	onFailure := a.bot.Failure()

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       adminID,
		OnAdminReject: a.bot.AdminReject(),
		OnFailure:     onFailure,
	})
	routes = append(routes, router.TextRoutes(a.bot, reg, router.TextOptions{
		UnknownText:   a.bot.UnknownText(),
		UnknownMedia:  a.bot.UnknownMedia(),
		OnFailure:     onFailure,
		AdminID:       adminID,
		OnAdminReject: a.bot.AdminReject(),
	})...)
	return append(routes, router.CallbackRoute(reg, router.CallbackOptions{
		NotFound:  a.bot.UnknownCallback(),
		OnFailure: onFailure,
	}))
}

func (a *App) start(ctx context.Context, _ coretelegram.Runtime) error {
	sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.stopSweeper = cancel
	go a.sessions.Run(sweepCtx)

	if a.health != nil {
		if err := a.health.Start(); err != nil {
			cancel()
			return err
		}
	}
	return nil
}

func (a *App) stop(ctx context.Context, _ coretelegram.Runtime) error {
	if a.stopSweeper != nil {
		a.stopSweeper()
	}
	var errs []error
	if a.health != nil {
		if err := a.health.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("health shutdown: %w", err))
		}
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("db close: %w", err))
	}
	return errors.Join(errs...)
}
