package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/lendbot/core/logger"
	"github.com/m3rciful/lendbot/core/metrics"
	tghelpers "github.com/m3rciful/lendbot/core/telegram/helpers"
	"github.com/m3rciful/lendbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// summary overrides the status and outcome derived from the handler error.
type summary struct {
	status  string
	outcome string
	extras  []slog.Attr
}

func handleWithSummary(c tele.Context, handlerName string, start time.Time, fn func() error, extras ...slog.Attr) error {
	tghelpers.WithHandler(c, handlerName)
	err := fn()
	logHandlerSummary(c, handlerName, start, err, summary{extras: extras})
	return err
}

// logHandlerSummary writes the one handler.handled line per update and feeds the handler metrics.
func logHandlerSummary(c tele.Context, handlerName string, start time.Time, err error, s summary) {
	ctx := tghelpers.WithHandler(c, handlerName)
	msgs, kb := middleware.GetCounters(c)

	result := "ok"
	if err != nil {
		result = "fail"
	}
	status, outcome := s.status, s.outcome
	if status == "" {
		status = result
	}
	if outcome == "" {
		outcome = result
	}

	elapsed := time.Since(start)
	metrics.ObserveHandler(handlerName, outcome, elapsed, msgs, kb)

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", handlerName),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", elapsed),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
		)
	}
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelInfo, "handler.handled", append(attrs, s.extras...)...)
}

// normalizeHandlerName turns "/Breach End" into "breach_end".
func normalizeHandlerName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// deriveErrorCode prefers a Code() string anywhere in the chain, then the error's type name.
func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var c interface{ Code() string }
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return strings.ToUpper(name)
	}
	return "UNKNOWN_ERROR"
}
