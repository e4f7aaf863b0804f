package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/lendbot/core/telegram"
	"github.com/m3rciful/lendbot/lending"
	"github.com/m3rciful/lendbot/lending/journal"
)

// fakeContext records replies and serves the fields handlers read.
type fakeContext struct {
	tele.Context
	chat     *tele.Chat
	sender   *tele.User
	text     string
	args     []string
	callback *tele.Callback
	store    map[string]any

	sent    []string
	markups []*tele.ReplyMarkup
	edited  []string
	editErr error
}

func newFakeContext(chatID int64, text string, args ...string) *fakeContext {
	return &fakeContext{
		chat:   &tele.Chat{ID: chatID, Type: tele.ChatGroup},
		sender: &tele.User{ID: 1},
		text:   text,
		args:   args,
		store:  map[string]any{},
	}
}

func (f *fakeContext) Chat() *tele.Chat         { return f.chat }
func (f *fakeContext) Sender() *tele.User       { return f.sender }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Args() []string           { return f.args }
func (f *fakeContext) Callback() *tele.Callback { return f.callback }
func (f *fakeContext) Update() tele.Update      { return tele.Update{ID: 1} }
func (f *fakeContext) Get(key string) any       { return f.store[key] }
func (f *fakeContext) Set(key string, v any)    { f.store[key] = v }

func (f *fakeContext) Send(what any, opts ...any) error {
	f.sent = append(f.sent, what.(string))
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok && so.ReplyMarkup != nil {
			f.markups = append(f.markups, so.ReplyMarkup)
		}
	}
	return nil
}

func (f *fakeContext) Edit(what any, _ ...any) error {
	f.edited = append(f.edited, what.(string))
	return f.editErr
}

func (f *fakeContext) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

var fixedNow = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func newHandlers(opts ...Option) (*Handlers, *lending.Book) {
	book := lending.NewBook(lending.WithLocation(time.UTC))
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewHandlers(book, opts...), book
}

func TestCreateAndLifecycle(t *testing.T) {
	h, book := newHandlers()

	c := newFakeContext(-100, "/create s01 a 1000", "s01", "a", "1000")
	require.NoError(t, h.Create(c))
	assert.Contains(t, c.last(), "Order created")
	assert.Contains(t, c.last(), "s01")

	o, err := book.ActiveOrder(-100)
	require.NoError(t, err)
	assert.Equal(t, lending.StateNormal, o.State)

	c = newFakeContext(-100, "/overdue")
	require.NoError(t, h.transition(lending.OpMarkOverdue)(c))
	assert.Contains(t, c.last(), "overdue")

	c = newFakeContext(-100, "/breach")
	require.NoError(t, h.transition(lending.OpMarkBreach)(c))
	assert.Contains(t, c.last(), "Breach amount: 1000.00")

	c = newFakeContext(-100, "+300c")
	require.NoError(t, h.QuickEntry(c))
	assert.Contains(t, c.last(), "Outstanding: 700.00")

	c = newFakeContext(-100, "/breach_end")
	require.NoError(t, h.transition(lending.OpMarkBreachEnded)(c))
	assert.Contains(t, c.last(), "settled")

	_, err = book.ActiveOrder(-100)
	assert.ErrorIs(t, err, lending.ErrUnknownSlot)
}

func TestCreateUsageAndValidation(t *testing.T) {
	h, _ := newHandlers()

	c := newFakeContext(-1, "/create", "S01")
	require.NoError(t, h.Create(c))
	assert.Equal(t, msgCreateUsage, c.last())

	c = newFakeContext(-1, "/create", "101", "A", "10")
	err := h.Create(c)
	assert.ErrorIs(t, err, lending.ErrInvalidClassificationID)
	assert.Contains(t, c.last(), "classification")

	c = newFakeContext(-1, "/create", "S01", "A", "10")
	require.NoError(t, h.Create(c))
	c = newFakeContext(-1, "/create", "S02", "B", "10")
	assert.ErrorIs(t, h.Create(c), lending.ErrSlotOccupied)
	assert.Contains(t, c.last(), "already has an order")
}

func TestQuickEntries(t *testing.T) {
	h, book := newHandlers()
	require.NoError(t, h.Create(newFakeContext(7, "", "A01", "B", "500")))

	c := newFakeContext(7, "+25")
	require.NoError(t, h.QuickEntry(c))
	assert.Contains(t, c.last(), "Total interest: 25.00")

	c = newFakeContext(7, "+200b")
	require.NoError(t, h.QuickEntry(c))
	assert.Contains(t, c.last(), "Remaining: 300.00")

	c = newFakeContext(7, "+400b")
	assert.ErrorIs(t, h.QuickEntry(c), lending.ErrInvalidAmount)
	assert.Contains(t, c.last(), "not exceed the principal")

	c = newFakeContext(7, "+5c")
	assert.ErrorIs(t, h.QuickEntry(c), lending.ErrInvalidStateTransition)
	assert.Equal(t, transitionMessage(lending.OpBreachPayment), c.last())

	c = newFakeContext(7, "just chatting")
	require.NoError(t, h.QuickEntry(c))
	assert.Empty(t, c.sent)

	g := book.GlobalLedger()
	assert.True(t, g.Interest.Equal(decimal.NewFromInt(25)))
	assert.True(t, g.ValidAmount.Equal(decimal.NewFromInt(300)))
}

func TestQuickEntryWithoutOrder(t *testing.T) {
	h, _ := newHandlers()
	c := newFakeContext(9, "+10")
	assert.ErrorIs(t, h.QuickEntry(c), lending.ErrUnknownSlot)
	assert.Equal(t, msgNoOrder, c.last())
}

func TestOrderCard(t *testing.T) {
	h, _ := newHandlers()

	c := newFakeContext(3, "/order")
	require.NoError(t, h.Order(c))
	assert.Equal(t, msgNoOrder, c.last())

	require.NoError(t, h.Create(newFakeContext(3, "", "Z99", "A", "42.5")))
	c = newFakeContext(3, "/order")
	require.NoError(t, h.Order(c))
	assert.Contains(t, c.last(), "Z99")
	assert.Contains(t, c.last(), "42.50")
	assert.Contains(t, c.last(), "Mon")
}

func TestReportAndCallback(t *testing.T) {
	h, _ := newHandlers()
	require.NoError(t, h.Create(newFakeContext(1, "", "A01", "A", "100")))
	require.NoError(t, h.Create(newFakeContext(2, "", "B02", "B", "50")))

	c := newFakeContext(1, "/report")
	require.NoError(t, h.Report(c))
	assert.Contains(t, c.last(), "Global report")
	assert.Contains(t, c.last(), "Liquid funds")
	require.Len(t, c.markups, 1)
	var datas []string
	for _, row := range c.markups[0].InlineKeyboard {
		for _, btn := range row {
			assert.Equal(t, CallbackReport, btn.Unique)
			datas = append(datas, btn.Data)
		}
	}
	assert.Equal(t, []string{"A01", "B02"}, datas)

	c = newFakeContext(1, "/report b02", "b02")
	assert.ErrorIs(t, h.Report(c), lending.ErrUnknownClassification)

	c = newFakeContext(1, "/report B02", "B02")
	require.NoError(t, h.Report(c))
	assert.Contains(t, c.last(), "Report for B02")
	assert.NotContains(t, c.last(), "Liquid funds")

	c = newFakeContext(1, "/report", "C03")
	assert.ErrorIs(t, h.Report(c), lending.ErrUnknownClassification)

	cb := newFakeContext(1, "")
	cb.callback = &tele.Callback{Data: "\f" + CallbackReport + "|" + datas[0]}
	require.NoError(t, h.ReportCallback(cb))
	require.Len(t, cb.edited, 1)
	assert.Contains(t, cb.edited[0], "Report for A01")
}

func TestReportCallbackUnknownClassification(t *testing.T) {
	h, _ := newHandlers()

	cb := newFakeContext(1, "")
	cb.callback = &tele.Callback{Data: "\f" + CallbackReport + "|Z99"}
	assert.ErrorIs(t, h.ReportCallback(cb), lending.ErrUnknownClassification)
	require.Len(t, cb.edited, 1)

	editFailure := errors.New("message is not modified")
	cb = newFakeContext(1, "")
	cb.callback = &tele.Callback{Data: "\f" + CallbackReport + "|Z99"}
	cb.editErr = editFailure
	err := h.ReportCallback(cb)
	assert.ErrorIs(t, err, lending.ErrUnknownClassification)
	assert.ErrorIs(t, err, editFailure)
}

func TestReportWithoutClassificationsHasNoKeyboard(t *testing.T) {
	h, _ := newHandlers()
	c := newFakeContext(1, "/report")
	require.NoError(t, h.Report(c))
	assert.Empty(t, c.markups)
}

type historyStub struct {
	entries []journal.Entry
	err     error
	slot    int64
}

func (s *historyStub) ListBySlot(_ context.Context, slotID int64, _ int) ([]journal.Entry, error) {
	s.slot = slotID
	return s.entries, s.err
}

func TestHistory(t *testing.T) {
	h, _ := newHandlers()
	c := newFakeContext(5, "/history")
	require.NoError(t, h.History(c))
	assert.Equal(t, msgJournalOff, c.last())

	stub := &historyStub{entries: []journal.Entry{{
		Seq: 2, Operation: "interest", Posting: "interest_recorded", OrderID: "0001",
		Amount: decimal.RequireFromString("12.5"), State: "normal", CommittedAt: fixedNow,
	}}}
	h, _ = newHandlers(WithHistory(stub))
	c = newFakeContext(5, "/history")
	require.NoError(t, h.History(c))
	assert.Equal(t, int64(5), stub.slot)
	assert.Contains(t, c.last(), "#2")
	assert.Contains(t, c.last(), "12.50")

	stub.err = errors.New("db down")
	c = newFakeContext(5, "/history")
	assert.Error(t, h.History(c))
	assert.Equal(t, msgJournalFailure, c.last())

	stub.err, stub.entries = nil, nil
	c = newFakeContext(5, "/history")
	require.NoError(t, h.History(c))
	assert.Equal(t, msgJournalEmpty, c.last())
}

func TestRegister(t *testing.T) {
	h, _ := newHandlers()
	reg := tg.NewRegistry()
	require.NoError(t, h.Register(reg))

	for _, name := range []string{"/start", "/create", "/normal", "/overdue", "/end", "/breach", "/breach_end", "/order", "/report", "/history"} {
		_, cmd, ok := reg.LookupCommand(name)
		require.True(t, ok, name)
		assert.True(t, cmd.AdminOnly, name)
	}
	_, start, _ := reg.LookupCommand("/start")
	_, rep, _ := reg.LookupCommand("/report")
	_, create, _ := reg.LookupCommand("/create")
	assert.True(t, start.PrivateOnly)
	assert.True(t, rep.PrivateOnly)
	assert.False(t, create.PrivateOnly)

	_, ok := reg.GetCallback(CallbackReport)
	assert.True(t, ok)
	assert.NotNil(t, reg.TextFallback())
}
