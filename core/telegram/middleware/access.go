package middleware

import tele "gopkg.in/telebot.v4"

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminIDs []int64
	OnReject tele.HandlerFunc
}

// IsAdmin reports whether userID is one of the configured admins.
// An empty admin list admits nobody.
func (o AdminOptions) IsAdmin(userID int64) bool {
	for _, id := range o.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AdminOnlyMiddleware ensures that only configured admins can invoke downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil || !opts.IsAdmin(sender.ID) {
				return reject(c, opts.OnReject)
			}
			return next(c)
		}
	}
}

// PrivateOnlyMiddleware lets through only updates coming from a private chat.
func PrivateOnlyMiddleware(onReject tele.HandlerFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil || chat.Type != tele.ChatPrivate {
				return reject(c, onReject)
			}
			return next(c)
		}
	}
}

func reject(c tele.Context, onReject tele.HandlerFunc) error {
	if onReject != nil {
		return onReject(c)
	}
	return nil
}
