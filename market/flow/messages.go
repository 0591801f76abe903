package flow

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/marketbot/core/telegram/format"
	"github.com/m3rciful/marketbot/market/ledger"
)

const (
	msgWelcome = "👋 *Welcome to the Marketplace Bot!*\n\n" +
		"Sellers can open a store and add products.\n" +
		"Buyers can order with a store code.\n\n" +
		"Choose an option below:"

	msgHelp = "ℹ️ *How it works*\n\n" +
		"*For sellers*\n" +
		"1. Tap 🏪 Register as seller and answer three questions.\n" +
		"2. Share the store code you receive with your customers.\n" +
		"3. Log in with 🔐 Seller login to add products and see orders.\n\n" +
		"*For buyers*\n" +
		"1. Tap 🛒 Order as buyer.\n" +
		"2. Enter the store code you got from the seller.\n" +
		"3. Pick a product and send your contact details.\n\n" +
		"*Commands*\n" +
		"/start main menu\n" +
		"/help this guide\n" +
		"/dashboard seller dashboard\n" +
		"/orders latest orders\n" +
		"/cancel stop the current step"

	msgAskSellerName   = "🏪 *Seller registration*\n\nWhat is your name?"
	msgAskStoreName    = "What is the name of your store?"
	msgAskPassword     = "Choose a password for your store (at least 4 characters)."
	msgAlreadySeller   = "You already own the store %s (code `%s`).\nUse 🔐 Seller login to manage it."
	msgOwnerTaken      = "❌ You already own a store. Use 🔐 Seller login to manage it."
	msgCodeExhausted   = "❌ Could not allocate a store code right now. Please try again later."
	msgAskLoginCode    = "🔐 *Seller login*\n\nEnter your store code:"
	msgAskLoginPass    = "Enter the store password:"
	msgInvalidCode     = "❌ Invalid store code. Use 🔐 Seller login to try again."
	msgWrongPassword   = "❌ Wrong password. Use 🔐 Seller login to try again."
	msgLoginRequired   = "🔐 Please log in first with 🔐 Seller login."
	msgAskProductName  = "➕ *New product*\n\nWhat is the product name?"
	msgAskPrice        = "What is the price? For example 500 or 19.99."
	msgAskDescription  = "Send a short description, or type *skip*."
	msgStoreGone       = "❌ Your store could not be found. Please log in again."
	msgAskStoreCode    = "🛒 *Order*\n\nEnter the store code you received from the seller:"
	msgStoreNotFound   = "❌ Store not found. Check the code and tap 🛒 Order as buyer to try again."
	msgStoreEmpty      = "This store has no products yet. Please try again later."
	msgPickProduct     = "Please choose one of the products below:"
	msgAskCustomerName = "What is your name?"
	msgAskPhone        = "What is your phone number?"
	msgAskAddress      = "What is your delivery address?"
	msgProductGone     = "❌ That product is no longer available. Tap 🛒 Order as buyer to start again."
	msgCancelled       = "❌ Cancelled."
	msgNothingToCancel = "Nothing to cancel."
	msgLoggedOut       = "👋 You are logged out."
	msgNoStore         = "You do not own a store yet. Tap 🏪 Register as seller to open one."
	msgNoProducts      = "📋 You have no products yet. Tap ➕ Add product to create one."
	msgNoOrders        = "🛒 No orders yet."
	msgSessionLost     = "This step is no longer available. Please start again."
)

// User supplied text is escaped with format.MD and kept outside entities:
// legacy Markdown does not honour escapes inside them.

// formatPrice prints whole amounts without decimals: 500 SAR, 19.90 SAR.
func formatPrice(d decimal.Decimal, currency string) string {
	amount := d.StringFixed(2)
	if d.IsInteger() {
		amount = d.String()
	}
	return strings.TrimSpace(amount + " " + currency)
}

func productLabel(p ledger.Product, currency string) string {
	return p.Name + " - " + formatPrice(p.Price, currency)
}

func productChoices(products []ledger.Product, currency string) []Choice {
	choices := make([]Choice, 0, len(products))
	for _, p := range products {
		choices = append(choices, Choice{Label: productLabel(p, currency), ProductID: p.ID})
	}
	return choices
}

func registrationDone(s ledger.Seller, password string) string {
	return fmt.Sprintf("✅ *Store registered!*\n\n"+
		"🏪 Store: %s\n"+
		"🔑 Store code: `%s`\n"+
		"🔒 Password: %s\n\n"+
		"Share the store code with your customers.\n"+
		"Keep the password private and use 🔐 Seller login to manage your store.",
		format.MD(s.StoreName), s.StoreCode, format.MD(password))
}

func loginDone(s ledger.Seller) string {
	return fmt.Sprintf("✅ *Logged in.*\n\n🏪 Store: %s\n\nUse the buttons below to manage your store.", format.MD(s.StoreName))
}

func productAdded(p ledger.Product, currency string) string {
	desc := ""
	if p.Description != "" {
		desc = "\n📝 " + format.MD(p.Description)
	}
	return fmt.Sprintf("✅ *Product added!*\n\n📦 %s\n💰 %s%s",
		format.MD(p.Name), formatPrice(p.Price, currency), desc)
}

func storeProducts(storeName string) string {
	return fmt.Sprintf("🏪 Store: %s\n\n%s", format.MD(storeName), msgPickProduct)
}

func productSelected(name, price string) string {
	return fmt.Sprintf("📦 You selected: %s - %s\n\n%s", format.MD(name), format.MD(price), msgAskCustomerName)
}

func orderSummary(o ledger.Order, p ledger.Product, currency string) string {
	return fmt.Sprintf("✅ *Order placed!*\n\n"+
		"🆔 Order #%d\n"+
		"📦 Product: %s\n"+
		"💰 Price: %s\n"+
		"👤 Name: %s\n"+
		"📞 Phone: %s\n"+
		"📍 Address: %s\n\n"+
		"The seller will contact you soon.",
		o.ID, format.MD(p.Name), formatPrice(p.Price, currency),
		format.MD(o.CustomerName), format.MD(o.CustomerPhone), format.MD(o.CustomerAddress))
}

func dashboardText(storeName string, st ledger.SellerStats) string {
	return fmt.Sprintf("📊 *Dashboard*\n\n"+
		"🏪 Store: %s\n"+
		"📦 Products: %d\n"+
		"🛒 Orders: %d\n"+
		"⏳ Pending: %d",
		format.MD(storeName), st.Products, st.Orders, st.PendingOrders)
}

func productsText(products []ledger.Product, currency string) string {
	var b strings.Builder
	b.WriteString("📋 *Your products*\n")
	for i, p := range products {
		fmt.Fprintf(&b, "\n%d. %s - %s", i+1, format.MD(p.Name), formatPrice(p.Price, currency))
		if p.Description != "" {
			fmt.Fprintf(&b, "\n   %s", format.MD(p.Description))
		}
	}
	return b.String()
}

var statusLabels = map[ledger.OrderStatus]string{
	ledger.OrderPending:   "⏳ pending",
	ledger.OrderFulfilled: "✅ fulfilled",
	ledger.OrderCancelled: "❌ cancelled",
}

func ordersText(lines []ledger.OrderLine, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🛒 *Latest orders* (%d)\n", len(lines))
	for _, o := range lines {
		status, ok := statusLabels[o.Status]
		if !ok {
			status = string(o.Status)
		}
		fmt.Fprintf(&b, "\n🆔 *Order #%d* · %s\n", o.ID, status)
		fmt.Fprintf(&b, "📦 %s × %d · %s\n", format.MD(o.ProductName), o.Quantity, formatPrice(o.ProductPrice, currency))
		fmt.Fprintf(&b, "👤 %s · 📞 %s\n", format.MD(o.CustomerName), format.MD(o.CustomerPhone))
		fmt.Fprintf(&b, "📍 %s\n", format.MD(o.CustomerAddress))
		fmt.Fprintf(&b, "📅 %s\n", o.CreatedAt.UTC().Format("2006-01-02 15:04"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func storeCodeText(s ledger.Seller) string {
	return fmt.Sprintf("🔑 The code of %s is `%s`.", format.MD(s.StoreName), s.StoreCode)
}

func adminText(t ledger.Totals) string {
	return fmt.Sprintf("🛠 *Admin panel*\n\n"+
		"🏪 Stores: %d\n"+
		"📦 Products: %d\n"+
		"🛒 Orders: %d",
		t.Sellers, t.Products, t.Orders)
}

func reprompt(err error, prompt string) string {
	var reason string
	if ve, ok := err.(*ValidationError); ok {
		reason = ve.Reason
	}
	if reason == "" {
		return prompt
	}
	return "⚠️ " + reason + "\n\n" + prompt
}

func alreadySeller(s ledger.Seller) string {
	return fmt.Sprintf(msgAlreadySeller, format.MD(s.StoreName), s.StoreCode)
}
