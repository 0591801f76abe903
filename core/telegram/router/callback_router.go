package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/marketbot/core/telegram"
	"github.com/m3rciful/marketbot/core/telegram/callbacks"
	"github.com/m3rciful/marketbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	// NotFound answers keys missing from the registry when the registry has no fallback.
	NotFound  tele.HandlerFunc
	OnFailure tele.HandlerFunc
}

// answerTracker records whether a handler answered the callback query.
type answerTracker struct {
	tele.Context
	answered bool
}

func (a *answerTracker) Respond(resp ...*tele.CallbackResponse) error {
	a.answered = true
	return a.Context.Respond(resp...)
}

// CallbackRoute routes inline button presses by key. Queries the handler left
// unanswered are answered empty so the client stops its spinner.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key, _ := callbacks.Parse(c.Callback())
		s := summary{
			name:   "callback." + normalizeHandlerName(key),
			extras: []slog.Attr{slog.String("cb_key", key)},
		}

		h, ok := reg.GetCallback(key)
		if !ok || h == nil {
			h = reg.CallbackNotFound()
			if h == nil {
				h = opts.NotFound
			}
			s.extras = append(s.extras, slog.String("cause", "not_found"))
		}

		tracked := &answerTracker{Context: c}
		var err error
		if h == nil {
			logHandlerSummary(tracked, summary{name: s.name, status: "skip", outcome: "ok", extras: s.extras}, start, nil)
		} else {
			err = handleWithSummary(tracked, s, start, opts.OnFailure, h)
		}
		if !tracked.answered {
			_ = c.Respond()
		}
		return err
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
