package flow

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/marketbot/core/telegram/state"
	"github.com/m3rciful/marketbot/market/ledger"
)

func (e *Engine) productName(_ context.Context, _ state.Session, ev Event) (Result, error) {
	name, err := required("product name", textOf(ev), maxNameLen)
	if err != nil {
		return again(err, msgAskProductName), nil
	}
	return next(ProductAwaitPrice, map[string]string{keyProductName: name}, msgAskPrice), nil
}

// productPrice loops on its own step until the price parses.
func (e *Engine) productPrice(_ context.Context, _ state.Session, ev Event) (Result, error) {
	price, err := ParsePrice(textOf(ev))
	if err != nil {
		return again(err, msgAskPrice), nil
	}
	return next(ProductAwaitDescription, map[string]string{keyPrice: price.String()}, msgAskDescription), nil
}

func (e *Engine) productDescription(ctx context.Context, sess state.Session, ev Event) (Result, error) {
	desc, err := parseDescription(textOf(ev))
	if err != nil {
		return again(err, msgAskDescription), nil
	}
	id, ok := sellerID(sess)
	if !ok {
		return end(msgLoginRequired, MenuMain, OutcomeFail), nil
	}
	price, err := decimal.NewFromString(sess.Value(keyPrice))
	if err != nil {
		return end(msgSessionLost, MenuDashboard, OutcomeFail), nil
	}

	p, err := e.store.AddProduct(ctx, id, sess.Value(keyProductName), price, desc)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		res := end(msgStoreGone, MenuMain, OutcomeFail)
		res.Patch.Attrs = map[string]string{AttrSellerID: "", AttrStoreName: ""}
		res.Patch.Authenticated = state.Bool(false)
		return res, nil
	case err != nil:
		return Result{}, err
	}
	return end(productAdded(p, e.opts.Currency), MenuDashboard, OutcomeOK), nil
}
