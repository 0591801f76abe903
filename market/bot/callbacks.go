package bot

import (
	"github.com/m3rciful/marketbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/marketbot/core/telegram/helpers"
	"github.com/m3rciful/marketbot/core/telegram/middleware"
	"github.com/m3rciful/marketbot/market/flow"

	tele "gopkg.in/telebot.v4"
)

func (b *Bot) registerCallbacks() error {
	guard := middleware.State(b.sessions, flow.CheckoutAwaitProduct, b.Expired())
	if err := b.reg.RegisterCallback(cbProduct, guard(b.selectProduct)); err != nil {
		return err
	}
	return b.reg.RegisterCallback(cbCancel, b.cancelButton)
}

// selectProduct feeds a product button to the checkout. A malformed payload
// selects nothing and the product list is shown again.
func (b *Bot) selectProduct(c tele.Context) error {
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		id = 0
	}
	if err := tghelpers.Respond(c, ""); err != nil {
		return err
	}
	return b.handle(c, flow.ProductSelected(id))
}

func (b *Bot) cancelButton(c tele.Context) error {
	if err := tghelpers.Respond(c, ""); err != nil {
		return err
	}
	return b.run(c, b.cancel)
}
