package flow

import (
	"context"
	"errors"

	"github.com/m3rciful/marketbot/core/telegram/state"
	"github.com/m3rciful/marketbot/market/ledger"
)

// Home ends any conversation and shows the main menu.
func (e *Engine) Home(ctx context.Context, sess state.Session) Result {
	res := Result{Reply: Reply{Text: msgWelcome, Menu: MenuMain}, Outcome: OutcomeOK}
	if sess.Active() {
		res.Patch.End = true
		e.observe(ctx, sess, sess.Conversation, Result{Patch: res.Patch, Outcome: OutcomeCancelled})
	}
	return res
}

// Help returns the usage guide.
func (e *Engine) Help(sess state.Session) Result {
	menu := e.homeMenu(sess)
	if sess.Active() {
		menu = MenuNone
	}
	return Result{Reply: Reply{Text: msgHelp, Menu: menu}, Outcome: OutcomeOK}
}

// Dashboard summarizes the logged in seller's store.
func (e *Engine) Dashboard(ctx context.Context, sess state.Session) (Result, error) {
	id, ok := sellerID(sess)
	if !ok {
		return loginRequired(), nil
	}
	st, err := e.store.Stats(ctx, id)
	if err != nil {
		return Result{}, err
	}
	return Result{Reply: Reply{Text: dashboardText(sess.Attr(AttrStoreName), st), Menu: MenuDashboard}, Outcome: OutcomeOK}, nil
}

// MyProducts lists the logged in seller's products.
func (e *Engine) MyProducts(ctx context.Context, sess state.Session) (Result, error) {
	id, ok := sellerID(sess)
	if !ok {
		return loginRequired(), nil
	}
	products, err := e.store.ListProducts(ctx, id)
	if err != nil {
		return Result{}, err
	}
	text := msgNoProducts
	if len(products) > 0 {
		text = productsText(products, e.opts.Currency)
	}
	return Result{Reply: Reply{Text: text, Menu: MenuDashboard}, Outcome: OutcomeOK}, nil
}

// Orders lists the newest orders for the logged in seller.
func (e *Engine) Orders(ctx context.Context, sess state.Session) (Result, error) {
	id, ok := sellerID(sess)
	if !ok {
		return loginRequired(), nil
	}
	lines, err := e.store.ListOrdersForSeller(ctx, id, e.opts.OrdersLimit)
	if err != nil {
		return Result{}, err
	}
	text := msgNoOrders
	if len(lines) > 0 {
		text = ordersText(lines, e.opts.Currency)
	}
	return Result{Reply: Reply{Text: text, Menu: MenuDashboard}, Outcome: OutcomeOK}, nil
}

// StoreCode reminds an owner of their store code.
func (e *Engine) StoreCode(ctx context.Context, sess state.Session) (Result, error) {
	s, err := e.store.FindSellerByOwner(ctx, sess.UserID)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return Result{Reply: Reply{Text: msgNoStore}, Outcome: OutcomeFail}, nil
	case err != nil:
		return Result{}, err
	}
	return Result{Reply: Reply{Text: storeCodeText(s)}, Outcome: OutcomeOK}, nil
}

// Logout forgets the logged in seller and ends any conversation.
func (e *Engine) Logout(sess state.Session) Result {
	return Result{
		Patch: state.Patch{
			Attrs:         map[string]string{AttrSellerID: "", AttrStoreName: ""},
			Authenticated: state.Bool(false),
			End:           sess.Active(),
		},
		Reply:   Reply{Text: msgLoggedOut, Menu: MenuMain},
		Outcome: OutcomeOK,
	}
}

// AdminStats reports marketplace totals. Callers restrict it to the admin.
func (e *Engine) AdminStats(ctx context.Context) (Result, error) {
	t, err := e.store.AdminTotals(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Reply: Reply{Text: adminText(t)}, Outcome: OutcomeOK}, nil
}

func loginRequired() Result {
	return Result{Reply: Reply{Text: msgLoginRequired, Menu: MenuMain}, Outcome: OutcomeFail}
}
