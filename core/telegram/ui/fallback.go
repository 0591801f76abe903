// Package ui declares the replies a bot supplies for updates no route claims.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider exposes handlers used when incoming updates cannot be
// mapped to a command, an active conversation or a registered callback.
type FallbackProvider interface {
	// UnknownText answers free text when no conversation is active.
	UnknownText() tele.HandlerFunc
	// UnknownCallback answers buttons whose key is not registered.
	UnknownCallback() tele.HandlerFunc
	// Failure tells the user their request could not be completed.
	Failure() tele.HandlerFunc
}
