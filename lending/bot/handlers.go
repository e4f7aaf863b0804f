// Package bot maps Telegram commands, quick entries and callbacks onto the
// lending book. Each chat is one binding slot.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/lendbot/core/logger"
	tg "github.com/m3rciful/lendbot/core/telegram"
	"github.com/m3rciful/lendbot/core/telegram/callbacks"
	"github.com/m3rciful/lendbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/lendbot/core/telegram/helpers"
	"github.com/m3rciful/lendbot/core/telegram/keyboard"
	"github.com/m3rciful/lendbot/lending"
	"github.com/m3rciful/lendbot/lending/journal"
	"github.com/m3rciful/lendbot/lending/report"

	tele "gopkg.in/telebot.v4"
)

// CallbackReport is the callback key of the classification report buttons.
const CallbackReport = "report"

const (
	historyLimit   = 10
	historyTimeout = 5 * time.Second
	buttonsPerRow  = 3
)

// HistoryReader lists journal entries of a slot, newest first.
type HistoryReader interface {
	ListBySlot(ctx context.Context, slotID int64, limit int) ([]journal.Entry, error)
}

// Handlers serves bot updates against a single book.
type Handlers struct {
	book    *lending.Book
	history HistoryReader
	now     func() time.Time
}

// Option configures Handlers.
type Option func(*Handlers)

// WithHistory enables /history backed by the journal.
func WithHistory(r HistoryReader) Option {
	return func(h *Handlers) { h.history = r }
}

// WithClock overrides the time source used for order creation.
func WithClock(now func() time.Time) Option {
	return func(h *Handlers) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandlers binds handlers to book.
func NewHandlers(book *lending.Book, opts ...Option) *Handlers {
	h := &Handlers{book: book, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds every command, the quick-entry fallback and the report callback to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	cmds := map[string]commands.Command{
		"/start":      {Handler: h.Start, Description: "Show help", AdminOnly: true, PrivateOnly: true},
		"/create":     {Handler: h.Create, Description: "Create an order: /create <id> <A|B> <amount>", AdminOnly: true},
		"/normal":     {Handler: h.transition(lending.OpMarkNormal), Description: "Return an overdue order to normal", AdminOnly: true},
		"/overdue":    {Handler: h.transition(lending.OpMarkOverdue), Description: "Mark the order overdue", AdminOnly: true},
		"/end":        {Handler: h.transition(lending.OpMarkEnded), Description: "Complete the order", AdminOnly: true},
		"/breach":     {Handler: h.transition(lending.OpMarkBreach), Description: "Mark the order as breach", AdminOnly: true},
		"/breach_end": {Handler: h.transition(lending.OpMarkBreachEnded), Description: "Settle a breached order", AdminOnly: true},
		"/order":      {Handler: h.Order, Description: "Show the current order", AdminOnly: true},
		"/report":     {Handler: h.Report, Description: "Show the global or a classification report", AdminOnly: true, PrivateOnly: true},
		"/history":    {Handler: h.History, Description: "Show recent journal entries of this chat", AdminOnly: true},
	}
	var errs []error
	for name, cmd := range cmds {
		errs = append(errs, reg.RegisterCommand(name, cmd))
	}
	reg.SetTextFallback(h.QuickEntry)
	errs = append(errs, reg.RegisterCallback(CallbackReport, h.ReportCallback))
	return errors.Join(errs...)
}

// RejectAdmin answers a command sent by a non-admin.
func RejectAdmin(c tele.Context) error {
	return tghelpers.SendText(c, msgAdminOnly)
}

// RejectPrivate answers a private-only command sent from a group.
func RejectPrivate(c tele.Context) error {
	return tghelpers.SendText(c, msgPrivateOnly)
}

// RejectCallback answers a button pressed by a non-admin.
func RejectCallback(c tele.Context) error {
	return c.Respond(&tele.CallbackResponse{Text: msgAdminOnly})
}

// Start replies with the command overview.
func (h *Handlers) Start(c tele.Context) error {
	return tghelpers.SendText(c, msgHelp)
}

// Create opens an order in the current chat.
func (h *Handlers) Create(c tele.Context) error {
	args := c.Args()
	if len(args) != 3 {
		return tghelpers.SendText(c, msgCreateUsage)
	}
	ctx := tghelpers.BuildContext(c)
	o, err := h.book.CreateOrder(ctx, slotOf(c), args[0], args[1], args[2], h.now())
	if err != nil {
		return h.fail(c, lending.OpCreate, err)
	}
	return tghelpers.SendText(c, report.Created(o))
}

func (h *Handlers) transition(op lending.Operation) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		slot := slotOf(c)

		var (
			o     lending.Order
			err   error
			reply func(lending.Order) string
		)
		switch op {
		case lending.OpMarkOverdue:
			o, err = h.book.MarkOverdue(ctx, slot)
			reply = report.StateChanged
		case lending.OpMarkNormal:
			o, err = h.book.MarkNormal(ctx, slot)
			reply = report.StateChanged
		case lending.OpMarkEnded:
			o, err = h.book.MarkEnded(ctx, slot)
			reply = report.Ended
		case lending.OpMarkBreach:
			o, err = h.book.MarkBreach(ctx, slot)
			reply = report.Breached
		case lending.OpMarkBreachEnded:
			o, err = h.book.MarkBreachEnded(ctx, slot)
			reply = report.BreachEnded
		default:
			return fmt.Errorf("bot: unsupported transition %s", op)
		}
		if err != nil {
			return h.fail(c, op, err)
		}
		return tghelpers.SendText(c, reply(o))
	}
}

// QuickEntry handles "+N", "+Nb" and "+Nc" messages. Other text is ignored.
func (h *Handlers) QuickEntry(c tele.Context) error {
	kind, amountText, ok := ParseQuickEntry(c.Text())
	if !ok {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	slot := slotOf(c)

	switch kind {
	case EntryPrincipal:
		o, err := h.book.ApplyPrincipalReduction(ctx, slot, amountText)
		if err != nil {
			return h.fail(c, lending.OpPrincipalReduction, err)
		}
		amount, _ := lending.ParseAmount(amountText)
		return tghelpers.SendText(c, report.PrincipalReduced(o, amount))
	case EntryBreachPayment:
		o, err := h.book.ApplyBreachPayment(ctx, slot, amountText)
		if err != nil {
			return h.fail(c, lending.OpBreachPayment, err)
		}
		amount, _ := lending.ParseAmount(amountText)
		return tghelpers.SendText(c, report.BreachPayment(o, amount))
	default:
		if _, err := h.book.ApplyInterest(ctx, slot, amountText); err != nil {
			return h.fail(c, lending.OpInterest, err)
		}
		amount, _ := lending.ParseAmount(amountText)
		return tghelpers.SendText(c, report.Interest(amount, h.book.GlobalLedger().Interest))
	}
}

// Order shows the card of the current order.
func (h *Handlers) Order(c tele.Context) error {
	o, err := h.book.ActiveOrder(slotOf(c))
	if err != nil {
		if errors.Is(err, lending.ErrUnknownSlot) {
			return tghelpers.SendText(c, msgNoOrder)
		}
		return err
	}
	return tghelpers.SendText(c, report.Order(o))
}

// Report renders the global report with one button per classification, or the
// report of the classification named in the first argument.
func (h *Handlers) Report(c tele.Context) error {
	if args := c.Args(); len(args) > 0 {
		id, l, err := h.book.ClassificationLedger(args[0])
		if err != nil {
			return h.fail(c, "", err)
		}
		return tghelpers.SendText(c, report.Classification(id, l))
	}

	text := report.Global(h.book.GlobalLedger())
	ids := h.book.Classifications()
	if len(ids) == 0 {
		return tghelpers.SendText(c, text)
	}
	buttons := make([]keyboard.Button, 0, len(ids))
	for _, id := range ids {
		buttons = append(buttons, keyboard.Button{
			Text:   "Report " + id.String(),
			Unique: CallbackReport,
			Data:   id.String(),
		})
	}
	markup := keyboard.Grid(buttons, buttonsPerRow)
	return tghelpers.SendText(c, text, &tele.SendOptions{ReplyMarkup: markup})
}

// ReportCallback replaces the global report message with a classification report.
func (h *Handlers) ReportCallback(c tele.Context) error {
	id, l, err := h.book.ClassificationLedger(callbacks.CallbackPayload(c))
	if err != nil {
		if editErr := c.Edit(userMessage("", err)); editErr != nil {
			return errors.Join(err, editErr)
		}
		return err
	}
	return c.Edit(report.Classification(id, l))
}

// History lists the latest journal entries of the current chat.
func (h *Handlers) History(c tele.Context) error {
	if h.history == nil {
		return tghelpers.SendText(c, msgJournalOff)
	}
	ctx, cancel := context.WithTimeout(tghelpers.BuildContext(c), historyTimeout)
	defer cancel()

	entries, err := h.history.ListBySlot(ctx, int64(slotOf(c)), historyLimit)
	if err != nil {
		logger.Warn(ctx, "journal", "journal.list",
			slog.String("status", "fail"),
			slog.Int64("slot_id", int64(slotOf(c))),
			slog.String("err", err.Error()),
		)
		_ = tghelpers.SendText(c, msgJournalFailure)
		return err
	}
	if len(entries) == 0 {
		return tghelpers.SendText(c, msgJournalEmpty)
	}
	return tghelpers.SendText(c, renderHistory(entries))
}

func renderHistory(entries []journal.Entry) string {
	var b strings.Builder
	b.WriteString("Journal (newest first)\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "#%d %s %s %s", e.Seq, e.CommittedAt.Format("2006-01-02 15:04"), e.OrderID, e.Operation)
		if e.Posting != "" {
			fmt.Fprintf(&b, " %s", e.Amount.StringFixed(2))
		}
		fmt.Fprintf(&b, " -> %s\n", e.State)
	}
	return strings.TrimRight(b.String(), "\n")
}

// fail replies with the user-facing message for err and returns err so the
// router logs it with its machine code.
func (h *Handlers) fail(c tele.Context, op lending.Operation, err error) error {
	if sendErr := tghelpers.SendText(c, userMessage(op, err)); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return err
}

func slotOf(c tele.Context) lending.SlotID {
	if chat := c.Chat(); chat != nil {
		return lending.SlotID(chat.ID)
	}
	return 0
}
