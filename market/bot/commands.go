package bot

import (
	"context"

	"github.com/m3rciful/marketbot/core/telegram/commands"
	"github.com/m3rciful/marketbot/core/telegram/state"
	"github.com/m3rciful/marketbot/market/flow"

	tele "gopkg.in/telebot.v4"
)

func (b *Bot) registerCommands() {
	r := b.reg
	r.RegisterCommand("/start", commands.Command{
		Handler:     b.handler(b.home),
		Description: "Main menu",
		Aliases:     []string{btnHome},
		Interrupts:  true,
	})
	r.RegisterCommand("/cancel", commands.Command{
		Handler:     b.handler(b.cancel),
		Description: "Stop the current step",
		Aliases:     []string{btnCancel, "cancel"},
		Interrupts:  true,
	})
	r.RegisterCommand("/help", commands.Command{
		Handler:     b.handler(b.help),
		Description: "How the bot works",
		Aliases:     []string{btnHelp},
	})
	r.RegisterCommand("/register", commands.Command{
		Handler:     b.handler(b.begin(flow.ConvRegister)),
		Description: "Open a store",
		Aliases:     []string{btnRegister},
	})
	r.RegisterCommand("/login", commands.Command{
		Handler:     b.handler(b.begin(flow.ConvLogin)),
		Description: "Seller login",
		Aliases:     []string{btnLogin},
	})
	r.RegisterCommand("/buy", commands.Command{
		Handler:     b.handler(b.begin(flow.ConvCheckout)),
		Description: "Order from a store",
		Aliases:     []string{btnBuy},
	})
	r.RegisterCommand("/addproduct", commands.Command{
		Handler:     b.handler(b.begin(flow.ConvAddProduct)),
		Description: "Add a product",
		Aliases:     []string{btnAddProduct},
	})
	r.RegisterCommand("/dashboard", commands.Command{
		Handler:     b.handler(b.engine.Dashboard),
		Description: "Seller dashboard",
		Aliases:     []string{btnStats, btnDashboard},
	})
	r.RegisterCommand("/products", commands.Command{
		Handler:     b.handler(b.engine.MyProducts),
		Description: "Your products",
		Aliases:     []string{btnMyProducts},
	})
	r.RegisterCommand("/orders", commands.Command{
		Handler:     b.handler(b.engine.Orders),
		Description: "Latest orders",
		Aliases:     []string{btnOrders},
	})
	r.RegisterCommand("/code", commands.Command{
		Handler:     b.handler(b.engine.StoreCode),
		Description: "Show your store code",
	})
	r.RegisterCommand("/logout", commands.Command{
		Handler:     b.handler(b.logout),
		Description: "Log out of your store",
	})
	r.RegisterCommand("/admin", commands.Command{
		Handler:     b.handler(b.admin),
		Description: "Marketplace totals",
		AdminOnly:   true,
	})
}

// handler adapts an action to a telebot handler.
func (b *Bot) handler(fn action) tele.HandlerFunc {
	return func(c tele.Context) error { return b.run(c, fn) }
}

func (b *Bot) begin(kind state.Conversation) action {
	return func(ctx context.Context, sess state.Session) (flow.Result, error) {
		return b.engine.Start(ctx, sess, kind)
	}
}

func (b *Bot) home(ctx context.Context, sess state.Session) (flow.Result, error) {
	return b.engine.Home(ctx, sess), nil
}

func (b *Bot) cancel(ctx context.Context, sess state.Session) (flow.Result, error) {
	return b.engine.Cancel(ctx, sess), nil
}

func (b *Bot) help(_ context.Context, sess state.Session) (flow.Result, error) {
	return b.engine.Help(sess), nil
}

func (b *Bot) logout(_ context.Context, sess state.Session) (flow.Result, error) {
	return b.engine.Logout(sess), nil
}

func (b *Bot) admin(ctx context.Context, _ state.Session) (flow.Result, error) {
	return b.engine.AdminStats(ctx)
}
