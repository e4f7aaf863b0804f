package middleware

import (
	tele "gopkg.in/telebot.v4"
)

const countersKey = "response_counters"

// responseCounters tracks what a handler sent back for the handler summary.
type responseCounters struct {
	messages int
	kb       bool
}

// countingContext counts successful outgoing messages, edits included.
type countingContext struct {
	tele.Context
	n *responseCounters
}

func (c countingContext) record(err error, opts []any) error {
	if err != nil {
		return err
	}
	c.n.messages++
	if hasKeyboard(opts) {
		c.n.kb = true
	}
	return nil
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// Send counts the message when delivery succeeds.
func (c countingContext) Send(what any, opts ...any) error {
	return c.record(c.Context.Send(what, opts...), opts)
}

// Reply counts the message when delivery succeeds.
func (c countingContext) Reply(what any, opts ...any) error {
	return c.record(c.Context.Reply(what, opts...), opts)
}

// Edit counts the edit when it succeeds.
func (c countingContext) Edit(what any, opts ...any) error {
	return c.record(c.Context.Edit(what, opts...), opts)
}

// EditOrSend counts the edit or message when it succeeds.
func (c countingContext) EditOrSend(what any, opts ...any) error {
	return c.record(c.Context.EditOrSend(what, opts...), opts)
}

// EditOrReply counts the edit or reply when it succeeds.
func (c countingContext) EditOrReply(what any, opts ...any) error {
	return c.record(c.Context.EditOrReply(what, opts...), opts)
}

// MessageMetricsMiddleware hands downstream handlers a context that counts replies.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		n := &responseCounters{}
		c.Set(countersKey, n)
		return next(countingContext{Context: c, n: n})
	}
}

// GetCounters returns how many messages the handler sent and whether any carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	if n, ok := c.Get(countersKey).(*responseCounters); ok && n != nil {
		return n.messages, n.kb
	}
	return 0, false
}
