package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/lendbot/core/logger"
	"github.com/m3rciful/lendbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/lendbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// updateSeen remembers recently logged update ids for a short window.
type updateSeen struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[int]time.Time
}

var receipts = &updateSeen{ttl: 10 * time.Second, seen: make(map[int]time.Time)}

// first reports whether id is new within the window, expiring old ids on the way.
func (u *updateSeen) first(id int, now time.Time) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	for k, ts := range u.seen {
		if now.Sub(ts) > u.ttl {
			delete(u.seen, k)
		}
	}
	if _, ok := u.seen[id]; ok {
		return false
	}
	u.seen[id] = now
	return true
}

// LoggerMiddleware stores the request context (rid plus update metadata) on the
// update and logs one sampled receipt line per update id.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if logger.ShouldSampleDebug() && receipts.first(c.Update().ID, time.Now()) {
			logger.Debug(ctx, "tg", "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("kind", UpdateKind(c.Update())),
	}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}

	upd := c.Update()
	var payload string
	switch {
	case upd.Callback != nil:
		var key string
		key, payload = callbacks.ParseCallbackData(upd.Callback)
		if key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
		}
	case upd.Message != nil:
		payload = c.Text()
	}
	if payload != "" {
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
	}
	return attrs
}
