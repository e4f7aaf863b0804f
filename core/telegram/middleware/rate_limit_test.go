package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestRateLimitDropsBurstsPerUser(t *testing.T) {
	var passed, limited int
	h := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		OnLimited: func(tele.Context) error { limited++; return nil },
	})(func(tele.Context) error { passed++; return nil })

	require.NoError(t, h(newStoreContext(1)))
	require.NoError(t, h(newStoreContext(1)))
	require.NoError(t, h(newStoreContext(2)))

	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, limited)
}

func TestRateLimitExcludedKindPasses(t *testing.T) {
	var passed int
	h := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"message": {}},
	})(func(tele.Context) error { passed++; return nil })

	for i := 0; i < 3; i++ {
		require.NoError(t, h(newStoreContext(1)))
	}
	assert.Equal(t, 3, passed)
}

func TestUserThrottleWindow(t *testing.T) {
	th := &userThrottle{interval: time.Second, last: map[int64]time.Time{}}
	now := time.Unix(100, 0)
	assert.True(t, th.allow(7, now))
	assert.False(t, th.allow(7, now.Add(500*time.Millisecond)))
	assert.True(t, th.allow(7, now.Add(2*time.Second)))
}

func TestRecoverMiddlewareReturnsError(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(newStoreContext(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
