package router

import (
	"time"

	tg "github.com/m3rciful/marketbot/core/telegram"
	"github.com/m3rciful/marketbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM is the conversation side of text routing.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text and media updates.
type TextOptions struct {
	// UnknownText answers text that is neither a command, an alias nor
	// conversation input. Registry.TextFallback takes precedence.
	UnknownText tele.HandlerFunc
	// UnknownMedia answers photos, documents and other media outside a conversation.
	UnknownMedia tele.HandlerFunc
	// OnFailure answers the user when a handler returns an error.
	OnFailure tele.HandlerFunc
	// AdminID guards AdminOnly commands reached through their aliases.
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// TextRoutes routes free text in this order: aliases marked Interrupts,
// the active conversation, other commands and aliases, then the fallback.
// Media inside a conversation goes to the conversation as empty input.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	cmdOpts := CommandRouteOptions{AdminID: opts.AdminID, OnAdminReject: opts.OnAdminReject, OnFailure: opts.OnFailure}

	inConversation := func(c tele.Context) bool {
		return fsm != nil && c.Sender() != nil && fsm.InProgress(c.Sender().ID)
	}

	textHandler := func(c tele.Context) error {
		start := time.Now()
		if reg != nil {
			if name, def, ok := reg.LookupCommand(c.Text()); ok && def.Handler != nil {
				if def.Interrupts || !inConversation(c) {
					return runCommand(c, name, def, start, cmdOpts)
				}
			}
		}

		if inConversation(c) {
			return handleWithSummary(c, summary{name: "fsm"}, start, opts.OnFailure, fsm.ManagerHandler)
		}

		fallback := opts.UnknownText
		if reg != nil && reg.TextFallback() != nil {
			fallback = reg.TextFallback()
		}
		if fallback == nil {
			logHandlerSummary(c, summary{name: "unknown_text", status: "skip", outcome: "ok"}, start, nil)
			return nil
		}
		return handleWithSummary(c, summary{name: "unknown_text"}, start, opts.OnFailure, fallback)
	}

	mediaHandler := func(c tele.Context) error {
		start := time.Now()
		if inConversation(c) {
			return handleWithSummary(c, summary{name: "fsm_media"}, start, opts.OnFailure, fsm.ManagerHandler)
		}
		if opts.UnknownMedia == nil {
			logHandlerSummary(c, summary{name: "unexpected_media", status: "skip", outcome: "ok"}, start, nil)
			return nil
		}
		return handleWithSummary(c, summary{name: "unexpected_media"}, start, opts.OnFailure, opts.UnknownMedia)
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: middleware.RecoverMiddleware(middleware.LoggerMiddleware(textHandler))},
		{Endpoint: tele.OnMedia, Handler: middleware.RecoverMiddleware(middleware.LoggerMiddleware(mediaHandler))},
	}
}
