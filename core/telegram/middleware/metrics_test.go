package middleware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

// storeContext keeps Set/Get values and accepts every send.
type storeContext struct {
	tele.Context
	sender  *tele.User
	store   map[string]any
	sendErr error
}

func newStoreContext(userID int64) *storeContext {
	return &storeContext{sender: &tele.User{ID: userID}, store: map[string]any{}}
}

func (s *storeContext) Sender() *tele.User      { return s.sender }
func (s *storeContext) Chat() *tele.Chat        { return &tele.Chat{ID: s.sender.ID, Type: tele.ChatPrivate} }
func (s *storeContext) Update() tele.Update     { return tele.Update{ID: 1, Message: &tele.Message{}} }
func (s *storeContext) Set(key string, v any)   { s.store[key] = v }
func (s *storeContext) Get(key string) any      { return s.store[key] }
func (s *storeContext) Send(any, ...any) error  { return s.sendErr }
func (s *storeContext) Edit(any, ...any) error  { return s.sendErr }
func (s *storeContext) Reply(any, ...any) error { return s.sendErr }

func TestMessageMetricsCountsReplies(t *testing.T) {
	c := newStoreContext(1)
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		require.NoError(t, c.Send("plain"))
		require.NoError(t, c.Edit("edited", &tele.ReplyMarkup{}))
		return nil
	})
	require.NoError(t, h(c))

	msgs, kb := GetCounters(c)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
}

func TestMessageMetricsSkipsFailedSends(t *testing.T) {
	c := newStoreContext(1)
	c.sendErr = errors.New("blocked")
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		return c.Send("plain", &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}})
	})
	require.Error(t, h(c))

	msgs, kb := GetCounters(c)
	assert.Zero(t, msgs)
	assert.False(t, kb)
}

func TestGetCountersWithoutMiddleware(t *testing.T) {
	msgs, kb := GetCounters(newStoreContext(1))
	assert.Zero(t, msgs)
	assert.False(t, kb)
}
