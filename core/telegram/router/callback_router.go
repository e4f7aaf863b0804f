package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/lendbot/core/telegram"
	"github.com/m3rciful/lendbot/core/telegram/callbacks"
	"github.com/m3rciful/lendbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises gating and fallback behaviour for callbacks.
type CallbackOptions struct {
	AdminIDs []int64
	NotFound tele.HandlerFunc
	// OnAdminReject answers callbacks pressed by non-admins.
	OnAdminReject tele.HandlerFunc
}

// CallbackRoute returns a handler that routes callbacks through the registry.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key := callbacks.CallbackKey(c)
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		cbHandler, ok := reg.GetCallback(key)
		if !ok || cbHandler == nil {
			// The not-found handler answers the callback itself, usually with a toast.
			fallback := opts.NotFound
			if fallback == nil {
				fallback = reg.CallbackNotFound()
			}
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, start, func() error {
				if fallback == nil {
					return c.Respond()
				}
				return fallback(c)
			}, extras...)
		}

		return handleWithSummary(c, name, start, func() error {
			err := cbHandler(c)
			// Stops the client spinner; handlers reply by editing the message.
			_ = c.Respond()
			return err
		}, extras...)
	}
	gate := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminIDs: opts.AdminIDs,
		OnReject: opts.OnAdminReject,
	})
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(gate(handler))),
	}
}
