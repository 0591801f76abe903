package middleware

import (
	"log/slog"

	"github.com/m3rciful/marketbot/core/logger"
	tghelpers "github.com/m3rciful/marketbot/core/telegram/helpers"
	"github.com/m3rciful/marketbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// StateGetter is the minimal interface required from a session manager.
type StateGetter interface {
	GetState(userID int64) state.State
}

// State passes the update on only while the sender is at the expected step.
// Otherwise onMismatch runs, typically to tell the user a button expired.
func State(mgr StateGetter, expected state.State, onMismatch tele.HandlerFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}
			current := mgr.GetState(sender.ID)
			if current == expected {
				return next(c)
			}
			logger.TG.DebugContext(tghelpers.BuildContext(c), "state mismatch",
				slog.String("event", "fsm.skip"),
				slog.String("status", "skip"),
				slog.String("from_state", string(current)),
				slog.String("to_state", string(expected)),
			)
			if onMismatch != nil {
				return onMismatch(c)
			}
			return nil
		}
	}
}
