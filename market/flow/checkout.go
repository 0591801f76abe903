package flow

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/m3rciful/marketbot/core/telegram/state"
	"github.com/m3rciful/marketbot/market/ledger"
)

// checkoutStoreCode opens the store. Unknown or empty stores end the checkout.
func (e *Engine) checkoutStoreCode(ctx context.Context, _ state.Session, ev Event) (Result, error) {
	code := strings.TrimSpace(textOf(ev))
	if code == "" {
		return again(&ValidationError{Field: "store code", Reason: "Please send the store code."}, msgAskStoreCode), nil
	}
	seller, err := e.store.FindSellerByCode(ctx, code)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return end(msgStoreNotFound, MenuMain, OutcomeFail), nil
	case err != nil:
		return Result{}, err
	}
	products, err := e.store.ListProducts(ctx, seller.ID)
	if err != nil {
		return Result{}, err
	}
	if len(products) == 0 {
		return end(msgStoreEmpty, MenuMain, OutcomeFail), nil
	}
	return Result{
		Patch: state.Patch{Next: CheckoutAwaitProduct, Set: map[string]string{
			keyStoreSellerID: idString(seller.ID),
			keyStoreName:     seller.StoreName,
		}},
		Reply:   Reply{Text: storeProducts(seller.StoreName), Choices: productChoices(products, e.opts.Currency)},
		Outcome: OutcomeOK,
	}, nil
}

// checkoutProduct takes a product button. Typed text and products that are
// not in this store show the list again.
func (e *Engine) checkoutProduct(ctx context.Context, sess state.Session, ev Event) (Result, error) {
	storeID, err := strconv.ParseInt(sess.Value(keyStoreSellerID), 10, 64)
	if err != nil {
		return end(msgSessionLost, MenuMain, OutcomeFail), nil
	}
	products, err := e.store.ListProducts(ctx, storeID)
	if err != nil {
		return Result{}, err
	}
	if len(products) == 0 {
		return end(msgStoreEmpty, MenuMain, OutcomeFail), nil
	}

	if ev.Kind == EventProduct {
		for _, p := range products {
			if p.ID != ev.ProductID {
				continue
			}
			price := formatPrice(p.Price, e.opts.Currency)
			return next(CheckoutAwaitName, map[string]string{keyProductID: idString(p.ID)},
				productSelected(p.Name, price)), nil
		}
	}
	return Result{
		Reply:   Reply{Text: storeProducts(sess.Value(keyStoreName)), Choices: productChoices(products, e.opts.Currency)},
		Outcome: OutcomeReprompt,
	}, nil
}

func (e *Engine) checkoutName(_ context.Context, _ state.Session, ev Event) (Result, error) {
	name, err := required("name", textOf(ev), maxNameLen)
	if err != nil {
		return again(err, msgAskCustomerName), nil
	}
	return next(CheckoutAwaitPhone, map[string]string{keyCustomerName: name}, msgAskPhone), nil
}

func (e *Engine) checkoutPhone(_ context.Context, _ state.Session, ev Event) (Result, error) {
	phone, err := parsePhone(textOf(ev))
	if err != nil {
		return again(err, msgAskPhone), nil
	}
	return next(CheckoutAwaitAddress, map[string]string{keyCustomerPhone: phone}, msgAskAddress), nil
}

// checkoutAddress places the order and ends the checkout with a summary.
func (e *Engine) checkoutAddress(ctx context.Context, sess state.Session, ev Event) (Result, error) {
	address, err := required("address", textOf(ev), maxTextLen)
	if err != nil {
		return again(err, msgAskAddress), nil
	}
	productID, err := strconv.ParseInt(sess.Value(keyProductID), 10, 64)
	if err != nil {
		return end(msgSessionLost, MenuMain, OutcomeFail), nil
	}
	product, err := e.store.FindProduct(ctx, productID)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return end(msgProductGone, MenuMain, OutcomeFail), nil
	case err != nil:
		return Result{}, err
	}

	order, err := e.store.CreateOrder(ctx, ledger.NewOrder{
		ProductID:       product.ID,
		CustomerName:    sess.Value(keyCustomerName),
		CustomerPhone:   sess.Value(keyCustomerPhone),
		CustomerAddress: address,
	})
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return end(msgProductGone, MenuMain, OutcomeFail), nil
	case err != nil:
		return Result{}, err
	}
	return end(orderSummary(order, product, e.opts.Currency), e.homeMenu(sess), OutcomeOK), nil
}
