package flow

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/marketbot/core/logger"
	"github.com/m3rciful/marketbot/core/metrics"
	"github.com/m3rciful/marketbot/core/telegram/state"
	"github.com/m3rciful/marketbot/market/ledger"
)

// Store is the part of the ledger the conversations use.
type Store interface {
	CreateSeller(ctx context.Context, in ledger.NewSeller) (ledger.Seller, error)
	FindSeller(ctx context.Context, sellerID int64) (ledger.Seller, error)
	FindSellerByCode(ctx context.Context, code string) (ledger.Seller, error)
	FindSellerByOwner(ctx context.Context, ownerID int64) (ledger.Seller, error)
	AddProduct(ctx context.Context, sellerID int64, name string, price decimal.Decimal, description string) (ledger.Product, error)
	ListProducts(ctx context.Context, sellerID int64) ([]ledger.Product, error)
	FindProduct(ctx context.Context, productID int64) (ledger.Product, error)
	CreateOrder(ctx context.Context, in ledger.NewOrder) (ledger.Order, error)
	ListOrdersForSeller(ctx context.Context, sellerID int64, limit int) ([]ledger.OrderLine, error)
	Stats(ctx context.Context, sellerID int64) (ledger.SellerStats, error)
	AdminTotals(ctx context.Context) (ledger.Totals, error)
}

var _ Store = (*ledger.Ledger)(nil)

// Options tune the engine. Zero values select defaults.
type Options struct {
	Currency    string
	OrdersLimit int
	// CodeAttempts bounds store code regeneration after collisions.
	CodeAttempts int
	// NewStoreCode replaces ledger.GenerateStoreCode in tests.
	NewStoreCode func() (string, error)
}

// Engine runs the conversations against a Store.
type Engine struct {
	store Store
	opts  Options
	convs map[state.Conversation]conversation
}

// step handles one event in one state.
type step func(ctx context.Context, sess state.Session, ev Event) (Result, error)

type conversation struct {
	initial state.State
	prompt  string
	steps   map[state.State]step
}

// New builds an engine over store.
func New(store Store, opts Options) *Engine {
	if opts.Currency == "" {
		opts.Currency = "SAR"
	}
	if opts.OrdersLimit <= 0 {
		opts.OrdersLimit = 10
	}
	if opts.CodeAttempts <= 0 {
		opts.CodeAttempts = 8
	}
	if opts.NewStoreCode == nil {
		opts.NewStoreCode = ledger.GenerateStoreCode
	}
	e := &Engine{store: store, opts: opts}
	e.convs = map[state.Conversation]conversation{
		ConvRegister: {
			initial: RegisterAwaitName,
			prompt:  msgAskSellerName,
			steps: map[state.State]step{
				RegisterAwaitName:      e.registerName,
				RegisterAwaitStoreName: e.registerStoreName,
				RegisterAwaitPassword:  e.registerPassword,
			},
		},
		ConvLogin: {
			initial: LoginAwaitCode,
			prompt:  msgAskLoginCode,
			steps: map[state.State]step{
				LoginAwaitCode:     e.loginCode,
				LoginAwaitPassword: e.loginPassword,
			},
		},
		ConvAddProduct: {
			initial: ProductAwaitName,
			prompt:  msgAskProductName,
			steps: map[state.State]step{
				ProductAwaitName:        e.productName,
				ProductAwaitPrice:       e.productPrice,
				ProductAwaitDescription: e.productDescription,
			},
		},
		ConvCheckout: {
			initial: CheckoutAwaitStoreCode,
			prompt:  msgAskStoreCode,
			steps: map[state.State]step{
				CheckoutAwaitStoreCode: e.checkoutStoreCode,
				CheckoutAwaitProduct:   e.checkoutProduct,
				CheckoutAwaitName:      e.checkoutName,
				CheckoutAwaitPhone:     e.checkoutPhone,
				CheckoutAwaitAddress:   e.checkoutAddress,
			},
		},
	}
	return e
}

// Start enters kind, replacing any conversation in progress. Registration is
// refused for users that already own a store and adding products requires
// login; a refusal leaves the session untouched.
func (e *Engine) Start(ctx context.Context, sess state.Session, kind state.Conversation) (Result, error) {
	conv, ok := e.convs[kind]
	if !ok {
		return Result{}, errors.New("flow: unknown conversation " + string(kind))
	}

	var res Result
	switch kind {
	case ConvRegister:
		s, err := e.store.FindSellerByOwner(ctx, sess.UserID)
		switch {
		case err == nil:
			res = Result{Reply: Reply{Text: alreadySeller(s), Menu: MenuMain}, Outcome: OutcomeFail}
		case !errors.Is(err, ledger.ErrNotFound):
			return Result{}, err
		}
	case ConvAddProduct:
		if _, ok := sellerID(sess); !ok {
			res = Result{Reply: Reply{Text: msgLoginRequired, Menu: MenuMain}, Outcome: OutcomeFail}
		}
	}
	if res.Reply.Text == "" {
		res = Result{
			Patch:   state.Patch{Begin: kind, Next: conv.initial},
			Reply:   Reply{Text: conv.prompt, Menu: MenuCancel},
			Outcome: OutcomeOK,
		}
	}
	e.observe(ctx, sess, kind, res)
	return res, nil
}

// Handle feeds ev to the active conversation.
func (e *Engine) Handle(ctx context.Context, sess state.Session, ev Event) (Result, error) {
	conv, ok := e.convs[sess.Conversation]
	var fn step
	if ok {
		fn = conv.steps[sess.State]
	}
	if fn == nil {
		logger.Warn(ctx, "flow", "flow.unknown_state",
			slog.String("status", "skip"),
			slog.String("conversation", string(sess.Conversation)),
			slog.String("from_state", string(sess.State)),
		)
		res := Result{Patch: state.Patch{End: true}, Reply: Reply{Text: msgSessionLost, Menu: e.homeMenu(sess)}, Outcome: OutcomeFail}
		e.observe(ctx, sess, sess.Conversation, res)
		return res, nil
	}

	res, err := fn(ctx, sess, ev)
	if err != nil {
		metrics.Transitions.WithLabelValues(string(sess.Conversation), OutcomeFail).Inc()
		return Result{}, err
	}
	e.observe(ctx, sess, sess.Conversation, res)
	return res, nil
}

// Cancel abandons the active conversation and returns to the menu.
func (e *Engine) Cancel(ctx context.Context, sess state.Session) Result {
	if !sess.Active() {
		return Result{Reply: Reply{Text: msgNothingToCancel, Menu: e.homeMenu(sess)}, Outcome: OutcomeOK}
	}
	res := Result{Patch: state.Patch{End: true}, Reply: Reply{Text: msgCancelled, Menu: e.homeMenu(sess)}, Outcome: OutcomeCancelled}
	e.observe(ctx, sess, sess.Conversation, res)
	return res
}

func (e *Engine) homeMenu(sess state.Session) Menu {
	if _, ok := sellerID(sess); ok {
		return MenuDashboard
	}
	return MenuMain
}

func (e *Engine) observe(ctx context.Context, sess state.Session, kind state.Conversation, res Result) {
	to := sess.State
	switch {
	case res.Patch.End:
		to = state.StateIdle
	case res.Patch.Next != "":
		to = res.Patch.Next
	}
	metrics.Transitions.WithLabelValues(string(kind), res.Outcome).Inc()
	logger.Debug(ctx, "flow", "flow.transition",
		slog.String("status", "ok"),
		slog.String("conversation", string(kind)),
		slog.String("from_state", string(sess.State)),
		slog.String("to_state", string(to)),
		slog.String("outcome", res.Outcome),
	)
}

// next moves to the following step after storing fields.
func next(to state.State, set map[string]string, text string) Result {
	return Result{
		Patch:   state.Patch{Next: to, Set: set},
		Reply:   Reply{Text: text, Menu: MenuCancel},
		Outcome: OutcomeOK,
	}
}

// again keeps the current step and explains what was wrong.
func again(err error, prompt string) Result {
	return Result{Reply: Reply{Text: reprompt(err, prompt), Menu: MenuCancel}, Outcome: OutcomeReprompt}
}

// end finishes the conversation with a reply.
func end(text string, menu Menu, outcome string) Result {
	return Result{Patch: state.Patch{End: true}, Reply: Reply{Text: text, Menu: menu}, Outcome: outcome}
}

// textOf returns the typed text; button presses count as empty input.
func textOf(ev Event) string {
	if ev.Kind != EventText {
		return ""
	}
	return ev.Text
}

// sellerID returns the logged in seller.
func sellerID(sess state.Session) (int64, bool) {
	if !sess.Authenticated {
		return 0, false
	}
	id, err := strconv.ParseInt(sess.Attr(AttrSellerID), 10, 64)
	return id, err == nil && id > 0
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
