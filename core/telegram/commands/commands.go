// Package commands describes slash commands kept in the bot registry.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is a slash command handler with its menu description and access rules.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly restricts the command to configured admin ids.
	AdminOnly bool
	// PrivateOnly restricts the command to private chats.
	PrivateOnly bool
	// Hidden keeps the command out of the Telegram menu.
	Hidden bool
}
