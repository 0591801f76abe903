package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/marketbot/core/telegram"
	"github.com/m3rciful/marketbot/core/telegram/commands"
)

type fakeContext struct {
	tele.Context
	update    tele.Update
	store     map[string]any
	sent      []any
	responses int
}

func textUpdate(userID int64, text string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 7, Message: &tele.Message{
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID},
			Text:   text,
		}},
		store: map[string]any{},
	}
}

func callbackUpdate(userID int64, data string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 8, Callback: &tele.Callback{
			Sender: &tele.User{ID: userID},
			Data:   data,
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
func (f *fakeContext) Chat() *tele.Chat {
	if f.update.Message != nil {
		return f.update.Message.Chat
	}
	return nil
}
func (f *fakeContext) Text() string {
	if f.update.Message != nil {
		return f.update.Message.Text
	}
	return ""
}
func (f *fakeContext) Callback() *tele.Callback { return f.update.Callback }
func (f *fakeContext) Get(key string) any       { return f.store[key] }
func (f *fakeContext) Set(key string, v any)    { f.store[key] = v }
func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}
func (f *fakeContext) Respond(...*tele.CallbackResponse) error {
	f.responses++
	return nil
}

type fakeFSM struct {
	active map[int64]bool
	inputs []string
}

func (f *fakeFSM) InProgress(userID int64) bool { return f.active[userID] }
func (f *fakeFSM) ManagerHandler(c tele.Context) error {
	f.inputs = append(f.inputs, c.Text())
	return nil
}

func routeFor(routes []tg.Route, endpoint any) tele.HandlerFunc {
	for _, r := range routes {
		if r.Endpoint == endpoint {
			return r.Handler
		}
	}
	return nil
}

func newRegistry(calls *[]string) *tg.Registry {
	reg := tg.NewRegistry()
	record := func(name string) tele.HandlerFunc {
		return func(tele.Context) error { *calls = append(*calls, name); return nil }
	}
	reg.RegisterCommand("/start", commands.Command{Handler: record("start"), Description: "Menu", Aliases: []string{"🏠 Main menu"}, Interrupts: true})
	reg.RegisterCommand("/orders", commands.Command{Handler: record("orders"), Description: "Orders", Aliases: []string{"🛒 Orders"}})
	reg.RegisterCommand("/admin", commands.Command{Handler: record("admin"), Description: "Admin", AdminOnly: true, Aliases: []string{"Admin"}})
	return reg
}

func TestTextRoutesPrefersConversation(t *testing.T) {
	var calls []string
	fsm := &fakeFSM{active: map[int64]bool{1: true}}
	h := routeFor(TextRoutes(fsm, newRegistry(&calls), TextOptions{}), tele.OnText)
	require.NotNil(t, h)

	require.NoError(t, h(textUpdate(1, "🛒 Orders")))
	assert.Equal(t, []string{"🛒 Orders"}, fsm.inputs, "non-interrupting alias is conversation input")
	assert.Empty(t, calls)

	require.NoError(t, h(textUpdate(1, "🏠 Main menu")))
	assert.Equal(t, []string{"start"}, calls, "interrupting alias bypasses the conversation")

	require.NoError(t, h(textUpdate(2, "🛒 Orders")))
	assert.Equal(t, []string{"start", "orders"}, calls)

	require.NoError(t, h(textUpdate(1, "start")))
	assert.Equal(t, []string{"🛒 Orders", "start"}, fsm.inputs, "a bare command word is conversation input")
	assert.Equal(t, []string{"start", "orders"}, calls)
}

func TestTextRoutesFallbackAndAdmin(t *testing.T) {
	var calls []string
	unknown := 0
	rejected := 0
	opts := TextOptions{
		UnknownText:   func(tele.Context) error { unknown++; return nil },
		AdminID:       99,
		OnAdminReject: func(tele.Context) error { rejected++; return nil },
	}
	h := routeFor(TextRoutes(nil, newRegistry(&calls), opts), tele.OnText)

	require.NoError(t, h(textUpdate(1, "what is this")))
	require.NoError(t, h(textUpdate(1, "orders")))
	assert.Equal(t, 2, unknown)
	assert.Empty(t, calls)

	require.NoError(t, h(textUpdate(1, "Admin")))
	require.NoError(t, h(textUpdate(99, "Admin")))
	assert.Equal(t, 1, rejected)
	assert.Equal(t, []string{"admin"}, calls)
}

func TestFailureIsAnswered(t *testing.T) {
	reg := tg.NewRegistry()
	reg.RegisterCommand("/boom", commands.Command{
		Handler:     func(tele.Context) error { return errors.New("db down") },
		Description: "fails",
	})
	answered := 0
	routes := CommandRoutes(reg, CommandRouteOptions{OnFailure: func(tele.Context) error { answered++; return nil }})
	h := routeFor(routes, "/boom")
	require.NotNil(t, h)
	assert.NoError(t, h(textUpdate(1, "/boom")))
	assert.Equal(t, 1, answered)

	bare := routeFor(CommandRoutes(reg, CommandRouteOptions{}), "/boom")
	assert.Error(t, bare(textUpdate(1, "/boom")))
}

func TestCallbackRouteAnswersOnce(t *testing.T) {
	reg := tg.NewRegistry()
	var payloads []string
	require.NoError(t, reg.RegisterCallback("product", func(c tele.Context) error {
		payloads = append(payloads, c.Callback().Data)
		return nil
	}))
	require.NoError(t, reg.RegisterCallback("alert", func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "expired"})
	}))
	h := CallbackRoute(reg, CallbackOptions{}).Handler

	c := callbackUpdate(1, "\fproduct|42")
	require.NoError(t, h(c))
	assert.Equal(t, []string{"\fproduct|42"}, payloads)
	assert.Equal(t, 1, c.responses)

	c = callbackUpdate(1, "\falert|1")
	require.NoError(t, h(c))
	assert.Equal(t, 1, c.responses, "handler answer is not repeated")

	c = callbackUpdate(1, "\fmissing|1")
	require.NoError(t, h(c))
	assert.Equal(t, 1, c.responses)
}

type codedError struct{}

func (codedError) Error() string { return "storage unavailable" }
func (codedError) Code() string  { return "persistence" }

func TestDeriveErrorCode(t *testing.T) {
	assert.Equal(t, "", deriveErrorCode(nil))
	assert.Equal(t, "PERSISTENCE", deriveErrorCode(fmt.Errorf("create order: %w", codedError{})))
	assert.Equal(t, "ERRORSTRING", deriveErrorCode(errors.New("x")))
}

func TestNormalizeHandlerName(t *testing.T) {
	assert.Equal(t, "orders", normalizeHandlerName("/orders"))
	assert.Equal(t, "my_products", normalizeHandlerName(" My products "))
	assert.Equal(t, "unknown", normalizeHandlerName(""))
}
