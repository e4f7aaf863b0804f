package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/lendbot/core/telegram"
	"github.com/m3rciful/lendbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls gating and fallback behaviour for text updates.
type TextOptions struct {
	AdminIDs    []int64
	UnknownText tele.HandlerFunc
}

// TextRoutes builds the handler for plain text updates.
// A bare command name typed as text is resolved through the registry, anything
// else goes to the registry's text fallback. Text from non-admins is dropped silently.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		name, h, privateOnly := resolveText(reg, c.Text(), opts.UnknownText)
		if h == nil {
			logHandlerSummary(c, name, start, nil, summary{status: "skip"})
			return nil
		}
		if privateOnly && !isPrivate(c) {
			logHandlerSummary(c, name, start, nil, summary{
				status:  "skip",
				outcome: "denied",
				extras:  []slog.Attr{slog.String("reason", "private_only")},
			})
			return nil
		}
		return handleWithSummary(c, name, start, func() error { return h(c) })
	}

	gate := middleware.AdminOnlyMiddleware(middleware.AdminOptions{AdminIDs: opts.AdminIDs})
	return []tg.Route{{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(gate(handler))),
	}}
}

// resolveText picks the handler for text, the name it is logged under and
// whether it may only run in private chats.
func resolveText(reg *tg.Registry, text string, unknown tele.HandlerFunc) (string, tele.HandlerFunc, bool) {
	if reg != nil {
		if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
			return normalizeHandlerName(key), cmd.Handler, cmd.PrivateOnly
		}
		if fb := reg.TextFallback(); fb != nil {
			return "fallback", fb, false
		}
	}
	return "unknown_text", unknown, false
}

func isPrivate(c tele.Context) bool {
	chat := c.Chat()
	return chat != nil && chat.Type == tele.ChatPrivate
}
