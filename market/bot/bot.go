// Package bot connects Telegram updates to the marketplace conversations:
// it registers commands, keyboard aliases and inline buttons, feeds text to
// the active conversation and renders engine results as messages.
package bot

import (
	"context"
	"errors"

	tg "github.com/m3rciful/marketbot/core/telegram"
	tghelpers "github.com/m3rciful/marketbot/core/telegram/helpers"
	"github.com/m3rciful/marketbot/core/telegram/router"
	"github.com/m3rciful/marketbot/core/telegram/state"
	"github.com/m3rciful/marketbot/core/telegram/ui"
	"github.com/m3rciful/marketbot/market/flow"

	tele "gopkg.in/telebot.v4"
)

const (
	msgFailure      = "⚠️ Something went wrong. Please try again later."
	msgUnknownMedia = "Please use the menu buttons or send text."
	msgExpired      = "This button is no longer active."
	msgAdminOnly    = "⛔ This command is for the administrator only."
	msgSlowDown     = "Too many requests, please slow down."
)

// Sessions is the part of the session store the bot drives.
type Sessions interface {
	Get(userID int64) state.Session
	Apply(userID int64, p state.Patch) state.Session
	GetState(userID int64) state.State
	InProgress(userID int64) bool
}

// Options configure a Bot.
type Options struct {
	Engine   *flow.Engine
	Sessions Sessions
	// AdminID may use /admin. Zero disables it.
	AdminID int64
}

// Bot routes marketplace updates.
type Bot struct {
	engine   *flow.Engine
	sessions Sessions
	adminID  int64
	reg      *tg.Registry
}

var (
	_ router.FSM          = (*Bot)(nil)
	_ ui.FallbackProvider = (*Bot)(nil)
)

// New builds the bot and fills its registry.
func New(opts Options) (*Bot, error) {
	if opts.Engine == nil || opts.Sessions == nil {
		return nil, errors.New("bot: engine and sessions are required")
	}
	b := &Bot{
		engine:   opts.Engine,
		sessions: opts.Sessions,
		adminID:  opts.AdminID,
		reg:      tg.NewRegistry(),
	}
	b.registerCommands()
	if err := b.registerCallbacks(); err != nil {
		return nil, err
	}
	b.reg.SetTextFallback(b.UnknownText())
	b.reg.SetCallbackNotFound(b.UnknownCallback())
	return b, nil
}

// Registry returns the commands and callbacks of the bot.
func (b *Bot) Registry() *tg.Registry { return b.reg }

// InProgress reports whether the user is inside a conversation.
func (b *Bot) InProgress(userID int64) bool { return b.sessions.InProgress(userID) }

// ManagerHandler hands the update text to the active conversation.
// Media arrives here with empty text and is re-prompted.
func (b *Bot) ManagerHandler(c tele.Context) error {
	return b.handle(c, flow.Text(c.Text()))
}

func (b *Bot) handle(c tele.Context, ev flow.Event) error {
	return b.run(c, func(ctx context.Context, sess state.Session) (flow.Result, error) {
		return b.engine.Handle(ctx, sess, ev)
	})
}

type action func(ctx context.Context, sess state.Session) (flow.Result, error)

// run executes fn on the sender's session, applies the patch and sends the reply.
// While a conversation keeps running the cancel keyboard stays up.
func (b *Bot) run(c tele.Context, fn action) error {
	u := c.Sender()
	if u == nil {
		return tghelpers.ErrNoSender
	}
	sess := b.sessions.Get(u.ID)
	res, err := fn(tghelpers.BuildContext(c), sess)
	if err != nil {
		return err
	}
	if !res.Patch.Empty() {
		sess = b.sessions.Apply(u.ID, res.Patch)
	}
	if sess.Active() && len(res.Reply.Choices) == 0 && res.Reply.Menu != flow.MenuNone {
		res.Reply.Menu = flow.MenuCancel
	}
	if res.Reply.Text == "" {
		return nil
	}
	return tghelpers.SendMD(c, res.Reply.Text, markup(res.Reply))
}

// UnknownText answers idle free text with the usage guide.
func (b *Bot) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return b.run(c, func(_ context.Context, sess state.Session) (flow.Result, error) {
			return b.engine.Help(sess), nil
		})
	}
}

// UnknownMedia answers media sent outside a conversation.
func (b *Bot) UnknownMedia() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendMD(c, msgUnknownMedia)
	}
}

// UnknownCallback answers buttons with an unregistered key.
func (b *Bot) UnknownCallback() tele.HandlerFunc {
	return b.Expired()
}

// Expired answers buttons pressed after their conversation step passed.
func (b *Bot) Expired() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.Respond(c, msgExpired)
	}
}

// Failure tells the user the request failed.
func (b *Bot) Failure() tele.HandlerFunc {
	return func(c tele.Context) error {
		if err := tghelpers.Respond(c, ""); err != nil {
			return err
		}
		return tghelpers.SendMD(c, msgFailure)
	}
}

// AdminReject answers non-admins trying /admin.
func (b *Bot) AdminReject() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendMD(c, msgAdminOnly)
	}
}

// Limited answers updates dropped by the rate limiter.
func (b *Bot) Limited() tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Callback() != nil {
			return tghelpers.Respond(c, msgSlowDown)
		}
		return tghelpers.SendText(c, msgSlowDown)
	}
}
