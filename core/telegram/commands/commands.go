// Package commands describes bot commands for the registry.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is a bot command with its handler and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly restricts the command to the configured admin id.
	AdminOnly bool
	// Hidden keeps the command out of the Telegram command menu.
	Hidden bool
	// Aliases are reply keyboard labels that trigger the command as plain text.
	Aliases []string
	// Interrupts lets an alias run while a conversation is in progress;
	// otherwise the text is handed to the conversation as input.
	Interrupts bool
}
