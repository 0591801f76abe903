package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes one inline button: its label, callback key and payload.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// DefaultCancelText labels cancel buttons.
const DefaultCancelText = "❌ Cancel"

// RemoveKeyboard returns a markup that hides the reply keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons builds a resized reply keyboard from rows of labels.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	keyboard := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tele.Btn, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// InlineButtons builds an inline keyboard with one button per row.
func InlineButtons(buttons ...InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, 0, len(buttons))
	for _, b := range buttons {
		inline = append(inline, []tele.InlineButton{*markup.Data(b.Text, b.Unique, b.Data).Inline()})
	}
	markup.InlineKeyboard = inline
	return markup
}

// CancelButton returns the cancel button for the given callback key.
// Optional arguments override the payload and then the label.
func CancelButton(action string, options ...string) InlineBtn {
	btn := InlineBtn{Text: DefaultCancelText, Unique: action, Data: "cancel"}
	if len(options) > 0 && options[0] != "" {
		btn.Data = options[0]
	}
	if len(options) > 1 && options[1] != "" {
		btn.Text = options[1]
	}
	return btn
}
