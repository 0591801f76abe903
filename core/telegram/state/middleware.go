package state

import tele "gopkg.in/telebot.v4"

// Locker hands out per-user locks.
type Locker interface {
	Lock(userID int64) (unlock func())
}

// Serialize runs at most one handler at a time for each sender.
// Updates without a sender pass through unlocked.
func Serialize(l Locker) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if l == nil || sender == nil {
				return next(c)
			}
			unlock := l.Lock(sender.ID)
			defer unlock()
			return next(c)
		}
	}
}
