// Package flow implements the marketplace conversations as pure transition
// functions: given a session snapshot and an input event, a step returns the
// session patch to apply and the reply to send. Nothing here talks to Telegram.
package flow

import (
	"fmt"

	"github.com/m3rciful/marketbot/core/telegram/state"
)

// Conversations.
const (
	ConvRegister   state.Conversation = "register"
	ConvLogin      state.Conversation = "login"
	ConvAddProduct state.Conversation = "add_product"
	ConvCheckout   state.Conversation = "checkout"
)

// Seller registration steps.
const (
	RegisterAwaitName      state.State = "register.await_name"
	RegisterAwaitStoreName state.State = "register.await_store_name"
	RegisterAwaitPassword  state.State = "register.await_password"
)

// Seller login steps.
const (
	LoginAwaitCode     state.State = "login.await_code"
	LoginAwaitPassword state.State = "login.await_password"
)

// Add product steps.
const (
	ProductAwaitName        state.State = "add_product.await_name"
	ProductAwaitPrice       state.State = "add_product.await_price"
	ProductAwaitDescription state.State = "add_product.await_description"
)

// Buyer checkout steps.
const (
	CheckoutAwaitStoreCode state.State = "checkout.await_store_code"
	CheckoutAwaitProduct   state.State = "checkout.await_product"
	CheckoutAwaitName      state.State = "checkout.await_name"
	CheckoutAwaitPhone     state.State = "checkout.await_phone"
	CheckoutAwaitAddress   state.State = "checkout.await_address"
)

// Identity attributes kept across conversations.
const (
	AttrSellerID  = "seller_id"
	AttrStoreName = "store_name"
)

// Fields collected while a conversation runs.
const (
	keySellerName    = "seller_name"
	keyStoreName     = "store_name"
	keyLoginSellerID = "login_seller_id"
	keyProductName   = "product_name"
	keyPrice         = "price"
	keyStoreSellerID = "store_seller_id"
	keyProductID     = "product_id"
	keyCustomerName  = "customer_name"
	keyCustomerPhone = "customer_phone"
)

// Outcomes reported for each handled event.
const (
	OutcomeOK        = "ok"
	OutcomeReprompt  = "reprompt"
	OutcomeFail      = "fail"
	OutcomeCancelled = "cancelled"
)

// EventKind tells typed text from a button press.
type EventKind int

const (
	// EventText is a text message. Media arrives as text with an empty body.
	EventText EventKind = iota
	// EventProduct is a product button press carrying ProductID.
	EventProduct
)

// Event is one inbound user action.
type Event struct {
	Kind      EventKind
	Text      string
	ProductID int64
}

// Text builds a text event.
func Text(s string) Event { return Event{Kind: EventText, Text: s} }

// ProductSelected builds a product button event.
func ProductSelected(id int64) Event { return Event{Kind: EventProduct, ProductID: id} }

// Menu selects the reply keyboard shown with a reply.
type Menu int

const (
	// MenuNone leaves the current keyboard untouched.
	MenuNone Menu = iota
	MenuMain
	MenuDashboard
	// MenuCancel offers only the cancel button while input is collected.
	MenuCancel
	MenuRemove
)

// Choice is an inline button selecting a product.
type Choice struct {
	Label     string
	ProductID int64
}

// Reply is the message to send back. Text is legacy Markdown.
// Choices, when present, are sent as inline buttons instead of Menu.
type Reply struct {
	Text    string
	Choices []Choice
	Menu    Menu
}

// Result is the outcome of handling one event.
type Result struct {
	Patch   state.Patch
	Reply   Reply
	Outcome string
}

// ValidationError rejects malformed input; the step is asked again.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
