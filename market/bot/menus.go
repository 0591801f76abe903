package bot

import (
	"strconv"

	"github.com/m3rciful/marketbot/core/telegram/keyboard"
	"github.com/m3rciful/marketbot/market/flow"

	tele "gopkg.in/telebot.v4"
)

// Reply keyboard labels. Each one is an alias of a command.
const (
	btnRegister   = "🏪 Register as seller"
	btnBuy        = "🛒 Order as buyer"
	btnLogin      = "🔐 Seller login"
	btnHelp       = "ℹ️ Help"
	btnAddProduct = "➕ Add product"
	btnMyProducts = "📋 My products"
	btnOrders     = "🛒 Orders"
	btnStats      = "📊 Stats"
	btnDashboard  = "🔙 Dashboard"
	btnHome       = "🏠 Main menu"
	btnCancel     = keyboard.DefaultCancelText
)

// Inline button keys.
const (
	cbProduct = "product"
	cbCancel  = "cancel"
)

func mainMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{btnRegister, btnBuy},
		[]string{btnLogin, btnHelp},
	)
}

func dashboardMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{btnAddProduct, btnMyProducts},
		[]string{btnOrders, btnStats},
		[]string{btnHome},
	)
}

// markup renders the keyboard of a reply. Product choices become inline
// buttons followed by a cancel button.
func markup(r flow.Reply) *tele.ReplyMarkup {
	if len(r.Choices) > 0 {
		btns := make([]keyboard.InlineBtn, 0, len(r.Choices)+1)
		for _, ch := range r.Choices {
			btns = append(btns, keyboard.InlineBtn{
				Text:   ch.Label,
				Unique: cbProduct,
				Data:   strconv.FormatInt(ch.ProductID, 10),
			})
		}
		return keyboard.InlineButtons(append(btns, keyboard.CancelButton(cbCancel))...)
	}
	switch r.Menu {
	case flow.MenuMain:
		return mainMenu()
	case flow.MenuDashboard:
		return dashboardMenu()
	case flow.MenuCancel:
		return keyboard.ReplyButtons([]string{btnCancel})
	case flow.MenuRemove:
		return keyboard.RemoveKeyboard()
	}
	return nil
}
