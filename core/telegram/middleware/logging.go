package middleware

import (
	"log/slog"
	"time"

	"github.com/m3rciful/marketbot/core/logger"
	"github.com/m3rciful/marketbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/marketbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware assigns the update rid, stores the logging context and
// writes one sampled debug line per update. Applying it twice to the same
// update is harmless.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if rid, _ := c.Get(tghelpers.RIDKey).(string); rid != "" {
			return next(c)
		}
		updateID, userID, chatID := tghelpers.UpdateIDs(c)
		rid := logger.BuildRID(updateID, chatID, userID)
		c.Set(tghelpers.RIDKey, rid)
		c.Set("update_start", time.Now())
		ctx := tghelpers.BuildContext(c)

		if logger.ShouldSampleDebug() {
			attrs := []slog.Attr{slog.String("status", "ok")}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
			}
			if u := c.Sender(); u != nil {
				if u.Username != "" {
					attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
				}
				if u.LanguageCode != "" {
					attrs = append(attrs, slog.String("lang", u.LanguageCode))
				}
			}
			if cb := c.Callback(); cb != nil {
				key, payload := callbacks.Parse(cb)
				attrs = append(attrs,
					slog.String("cb_key", logger.SanitizeLimit(key, 64)),
					slog.String("payload", logger.SanitizeLimit(payload, 128)),
				)
			} else if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
			}
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)
		}
		return next(c)
	}
}
