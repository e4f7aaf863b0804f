package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/lendbot/core/logger"
	tg "github.com/m3rciful/lendbot/core/telegram"
	"github.com/m3rciful/lendbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminIDs        []int64
	OnAdminReject   tele.HandlerFunc
	OnPrivateReject tele.HandlerFunc
}

// CommandRoutes prepares command handlers wrapped with shared middleware.
// Gates run before the summary so rejected updates are logged as skipped.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for cmd, def := range cmds {
		name := normalizeHandlerName(cmd)
		inner := def.Handler
		h := func(c tele.Context) error {
			return handleWithSummary(c, name, time.Now(), func() error {
				return inner(c)
			})
		}
		if def.PrivateOnly {
			h = middleware.PrivateOnlyMiddleware(skipped(name, opts.OnPrivateReject, "private_only"))(h)
		}
		if def.AdminOnly {
			h = middleware.AdminOnlyMiddleware(middleware.AdminOptions{
				AdminIDs: opts.AdminIDs,
				OnReject: skipped(name, opts.OnAdminReject, "not_admin"),
			})(h)
		}
		h = middleware.LoggerMiddleware(h)
		h = middleware.RecoverMiddleware(h)
		routes = append(routes, tg.Route{
			Endpoint: cmd,
			Handler:  h,
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(routes)),
		slog.Int("callbacks", reg.CallbackCount()),
	)

	return routes
}

// skipped logs a gate rejection and then runs the optional reject handler.
func skipped(name string, onReject tele.HandlerFunc, reason string) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		var err error
		if onReject != nil {
			err = onReject(c)
		}
		logHandlerSummary(c, name, start, err, summary{status: "skip", outcome: "denied", extras: []slog.Attr{slog.String("reason", reason)}})
		return err
	}
}
