package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyButtons(t *testing.T) {
	m := ReplyButtons([]string{"a", "b"}, []string{"c"})
	require.Len(t, m.ReplyKeyboard, 2)
	assert.Equal(t, "b", m.ReplyKeyboard[0][1].Text)
	assert.True(t, m.ResizeKeyboard)
}

func TestInlineButtonsWithCancel(t *testing.T) {
	m := InlineButtons(
		InlineBtn{Text: "Phone - 500", Unique: "product", Data: "7"},
		CancelButton("cancel"),
	)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Equal(t, "product", m.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "7", m.InlineKeyboard[0][0].Data)
	assert.Equal(t, DefaultCancelText, m.InlineKeyboard[1][0].Text)
	assert.Equal(t, "cancel", m.InlineKeyboard[1][0].Unique)
}

func TestCancelButtonOverrides(t *testing.T) {
	b := CancelButton("cancel", "checkout", "Stop")
	assert.Equal(t, InlineBtn{Text: "Stop", Unique: "cancel", Data: "checkout"}, b)
}
