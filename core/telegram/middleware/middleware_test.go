package middleware

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/marketbot/core/telegram/helpers"
	"github.com/m3rciful/marketbot/core/telegram/state"
)

// fakeContext implements the parts of tele.Context the middlewares use.
type fakeContext struct {
	tele.Context
	mu     sync.Mutex
	update tele.Update
	store  map[string]any
	sent   []any
}

func newFake(userID int64, text string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 10, Message: &tele.Message{
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
			Text:   text,
		}},
		store: map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update { return f.update }
func (f *fakeContext) Sender() *tele.User {
	if f.update.Callback != nil {
		return f.update.Callback.Sender
	}
	return f.update.Message.Sender
}
func (f *fakeContext) Chat() *tele.Chat         { return f.update.Message.Chat }
func (f *fakeContext) Text() string             { return f.update.Message.Text }
func (f *fakeContext) Callback() *tele.Callback { return f.update.Callback }
func (f *fakeContext) Get(key string) any       { f.mu.Lock(); defer f.mu.Unlock(); return f.store[key] }
func (f *fakeContext) Set(key string, v any)    { f.mu.Lock(); defer f.mu.Unlock(); f.store[key] = v }
func (f *fakeContext) Send(what any, opts ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

func TestAdminOnly(t *testing.T) {
	rejected := 0
	mw := AdminOnlyMiddleware(AdminOptions{AdminID: 1, OnReject: func(tele.Context) error { rejected++; return nil }})
	called := 0
	h := mw(func(tele.Context) error { called++; return nil })

	require.NoError(t, h(newFake(1, "/admin")))
	require.NoError(t, h(newFake(2, "/admin")))
	assert.Equal(t, 1, called)
	assert.Equal(t, 1, rejected)

	none := AdminOnlyMiddleware(AdminOptions{})(func(tele.Context) error { called++; return nil })
	require.NoError(t, none(newFake(1, "/admin")))
	assert.Equal(t, 1, called, "no admin configured rejects everyone")
}

func TestRecoverReturnsError(t *testing.T) {
	answered := false
	h := Recover(func(tele.Context) error { answered = true; return nil })(func(tele.Context) error {
		panic("boom")
	})
	err := h(newFake(1, "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, answered)
}

func TestLoggerMiddlewareSetsRIDOnce(t *testing.T) {
	c := newFake(5, "hello")
	var rid string
	h := LoggerMiddleware(LoggerMiddleware(func(c tele.Context) error {
		rid, _ = c.Get(tghelpers.RIDKey).(string)
		return nil
	}))
	require.NoError(t, h(c))
	assert.Equal(t, "10:5:5", rid)
	_, ok := tghelpers.ContextFrom(c)
	assert.True(t, ok)
}

func TestMessageMetricsCounts(t *testing.T) {
	c := newFake(1, "x")
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		_ = c.Send("one")
		_ = c.Send("two", &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}})
		return nil
	})
	require.NoError(t, h(c))
	msgs, kb := GetCounters(c)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
	assert.Len(t, c.sent, 2)
}

func TestRateLimit(t *testing.T) {
	now := time.Unix(1000, 0)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
		Now:       func() time.Time { return now },
	})
	passed := 0
	h := mw(func(tele.Context) error { passed++; return nil })

	require.NoError(t, h(newFake(1, "a")))
	require.NoError(t, h(newFake(1, "b")))
	require.NoError(t, h(newFake(2, "c")))
	now = now.Add(2 * time.Second)
	require.NoError(t, h(newFake(1, "d")))

	cb := newFake(1, "")
	cb.update.Callback = &tele.Callback{Sender: &tele.User{ID: 1}}
	require.NoError(t, h(cb))

	assert.Equal(t, 4, passed)
	assert.Equal(t, 1, limited)
}

type fixedState state.State

func (f fixedState) GetState(int64) state.State { return state.State(f) }

func TestStateMiddleware(t *testing.T) {
	mismatch := errors.New("expired")
	h := State(fixedState("checkout.await_product"), "checkout.await_product", nil)(func(tele.Context) error { return nil })
	assert.NoError(t, h(newFake(1, "")))

	h = State(fixedState(state.StateIdle), "checkout.await_product", func(tele.Context) error { return mismatch })(func(tele.Context) error { return nil })
	assert.ErrorIs(t, h(newFake(1, "")), mismatch)
}
