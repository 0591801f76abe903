package router

import (
	"log/slog"
	"sort"
	"time"

	"github.com/m3rciful/marketbot/core/logger"
	tg "github.com/m3rciful/marketbot/core/telegram"
	"github.com/m3rciful/marketbot/core/telegram/commands"
	"github.com/m3rciful/marketbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
	// OnFailure answers the user when a command handler returns an error.
	OnFailure tele.HandlerFunc
}

// CommandRoutes binds every registered slash command to its handler.
// Keyboard aliases are resolved by TextRoutes instead.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	cmds := reg.Commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	routes := make([]tg.Route, 0, len(names))
	for _, name := range names {
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  commandHandler(name, cmds[name], opts),
		})
	}

	logger.TWire.Info("commands wired",
		slog.String("event", "wire.commands"),
		slog.Int("count", len(routes)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

// commandHandler wraps a command with logging, admin checks and the summary line.
func commandHandler(name string, def commands.Command, opts CommandRouteOptions) tele.HandlerFunc {
	h := func(c tele.Context) error {
		return runCommand(c, name, def, time.Now(), opts)
	}
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
}

// runCommand executes def under its normalized name, applying the admin guard.
func runCommand(c tele.Context, name string, def commands.Command, start time.Time, opts CommandRouteOptions) error {
	h := def.Handler
	if def.AdminOnly {
		h = middleware.AdminOnlyMiddleware(middleware.AdminOptions{
			AdminID:  opts.AdminID,
			OnReject: opts.OnAdminReject,
		})(h)
	}
	return handleWithSummary(c, summary{name: normalizeHandlerName(name)}, start, opts.OnFailure, h)
}
