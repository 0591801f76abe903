package flow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/marketbot/core/logger"
	"github.com/m3rciful/marketbot/core/telegram/state"
	"github.com/m3rciful/marketbot/market/ledger"
)

func (e *Engine) registerName(_ context.Context, _ state.Session, ev Event) (Result, error) {
	name, err := required("name", textOf(ev), maxNameLen)
	if err != nil {
		return again(err, msgAskSellerName), nil
	}
	return next(RegisterAwaitStoreName, map[string]string{keySellerName: name}, msgAskStoreName), nil
}

func (e *Engine) registerStoreName(_ context.Context, _ state.Session, ev Event) (Result, error) {
	name, err := required("store name", textOf(ev), maxNameLen)
	if err != nil {
		return again(err, msgAskStoreName), nil
	}
	return next(RegisterAwaitPassword, map[string]string{keyStoreName: name}, msgAskPassword), nil
}

// registerPassword creates the store, drawing a fresh code whenever the
// previous one collided with an existing store.
func (e *Engine) registerPassword(ctx context.Context, sess state.Session, ev Event) (Result, error) {
	password, err := parsePassword(textOf(ev))
	if err != nil {
		return again(err, msgAskPassword), nil
	}

	in := ledger.NewSeller{
		OwnerID:   sess.UserID,
		OwnerName: sess.Value(keySellerName),
		StoreName: sess.Value(keyStoreName),
		Password:  password,
	}
	for attempt := 1; attempt <= e.opts.CodeAttempts; attempt++ {
		if in.StoreCode, err = e.opts.NewStoreCode(); err != nil {
			return Result{}, err
		}
		seller, err := e.store.CreateSeller(ctx, in)
		switch {
		case err == nil:
			return end(registrationDone(seller, password), MenuMain, OutcomeOK), nil
		case errors.Is(err, ledger.ErrCodeTaken):
			logger.Debug(ctx, "flow", "register.code_collision",
				slog.String("status", "retry"),
				slog.Int("attempts", attempt),
			)
		case errors.Is(err, ledger.ErrOwnerTaken):
			return end(msgOwnerTaken, MenuMain, OutcomeFail), nil
		default:
			return Result{}, err
		}
	}
	logger.Warn(ctx, "flow", "register.code_exhausted",
		slog.String("status", "fail"),
		slog.Int("attempts", e.opts.CodeAttempts),
	)
	return end(msgCodeExhausted, MenuMain, OutcomeFail), nil
}
