package flow

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/m3rciful/marketbot/core/telegram/state"
	"github.com/m3rciful/marketbot/market/ledger"
)

// loginCode accepts the store code. Owners are logged in directly; anyone
// else must also know the store password. A wrong code ends the login.
func (e *Engine) loginCode(ctx context.Context, sess state.Session, ev Event) (Result, error) {
	code := strings.TrimSpace(textOf(ev))
	if code == "" {
		return again(&ValidationError{Field: "store code", Reason: "Please send your store code."}, msgAskLoginCode), nil
	}
	seller, err := e.store.FindSellerByCode(ctx, code)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return end(msgInvalidCode, MenuMain, OutcomeFail), nil
	case err != nil:
		return Result{}, err
	}
	if seller.OwnerID == sess.UserID {
		return loggedIn(seller), nil
	}
	return next(LoginAwaitPassword, map[string]string{keyLoginSellerID: idString(seller.ID)}, msgAskLoginPass), nil
}

// loginPassword gives the password a single try.
func (e *Engine) loginPassword(ctx context.Context, sess state.Session, ev Event) (Result, error) {
	id, err := strconv.ParseInt(sess.Value(keyLoginSellerID), 10, 64)
	if err != nil {
		return end(msgSessionLost, MenuMain, OutcomeFail), nil
	}
	seller, err := e.store.FindSeller(ctx, id)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return end(msgInvalidCode, MenuMain, OutcomeFail), nil
	case err != nil:
		return Result{}, err
	}
	if !seller.CheckPassword(strings.TrimSpace(textOf(ev))) {
		return end(msgWrongPassword, MenuMain, OutcomeFail), nil
	}
	return loggedIn(seller), nil
}

func loggedIn(s ledger.Seller) Result {
	res := end(loginDone(s), MenuDashboard, OutcomeOK)
	res.Patch.Attrs = map[string]string{
		AttrSellerID:  idString(s.ID),
		AttrStoreName: s.StoreName,
	}
	res.Patch.Authenticated = state.Bool(true)
	return res
}
