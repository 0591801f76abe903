package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/marketbot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/orders", commands.Command{Handler: noop, Description: "Orders", Aliases: []string{"🛒 Orders"}})
	reg.RegisterCommand("/admin", commands.Command{Handler: noop, Description: "Admin", AdminOnly: true})

	for _, text := range []string{"/orders", "🛒 Orders", " 🛒 Orders ", "/orders@marketbot"} {
		name, _, ok := reg.LookupCommand(text)
		require.Truef(t, ok, "lookup %q", text)
		assert.Equal(t, "/orders", name)
	}
	for _, text := range []string{"hello there", "orders", "admin"} {
		_, _, ok := reg.LookupCommand(text)
		assert.Falsef(t, ok, "bare word %q", text)
	}
	_, _, ok := reg.LookupCommand("/unknown")
	assert.False(t, ok)
	_, _, ok = reg.LookupCommand("")
	assert.False(t, ok)
}

func TestRegistryRejectsInvalid(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("help", commands.Command{Handler: noop, Description: "x"})
	reg.RegisterCommand("/nodesc", commands.Command{Handler: noop})
	reg.RegisterCommand("/ok", commands.Command{Handler: noop, Description: "ok", Aliases: []string{"A"}})
	reg.RegisterCommand("/ok", commands.Command{Handler: noop, Description: "again"})
	reg.RegisterCommand("/other", commands.Command{Handler: noop, Description: "other", Aliases: []string{"A"}})
	assert.Len(t, reg.Commands(), 2)
	name, _, _ := reg.LookupCommand("A")
	assert.Equal(t, "/ok", name)
}

func TestListCommandsVisibleOnly(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"})
	reg.RegisterCommand("/help", commands.Command{Handler: noop, Description: "Help"})
	reg.RegisterCommand("/admin", commands.Command{Handler: noop, Description: "Admin", AdminOnly: true})
	reg.RegisterCommand("/secret", commands.Command{Handler: noop, Description: "Secret", Hidden: true})

	assert.Equal(t, []tele.Command{{Text: "help", Description: "Help"}, {Text: "start", Description: "Start"}}, reg.ListCommands(true))
	assert.Len(t, reg.ListCommands(false), 4)
}

func TestRegisterCallback(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("product", noop))
	assert.Error(t, reg.RegisterCallback("product", noop))
	assert.Error(t, reg.RegisterCallback("", noop))
	_, ok := reg.GetCallback("product")
	assert.True(t, ok)
	assert.Equal(t, []string{"product"}, reg.ListCallbacks())
	assert.NotNil(t, reg.CallbackNotFound())
}
