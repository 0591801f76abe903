package flow

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/marketbot/core/telegram/format"
	"github.com/m3rciful/marketbot/core/telegram/state"
)

// legacyMarkdownError reports text Telegram would reject or garble in legacy
// Markdown mode: unclosed entities, escapes inside an entity and raw links.
func legacyMarkdownError(text string) error {
	rs := []rune(text)
	for i := 0; i < len(rs); i++ {
		switch r := rs[i]; r {
		case '\\':
			if i+1 < len(rs) && strings.ContainsRune("_*`[", rs[i+1]) {
				i++
			}
		case '[':
			return fmt.Errorf("unescaped [ at %d", i)
		case '*', '_', '`':
			end := -1
			for j := i + 1; j < len(rs); j++ {
				if rs[j] == r {
					end = j
					break
				}
			}
			if end < 0 {
				return fmt.Errorf("unclosed %c at %d", r, i)
			}
			if body := string(rs[i+1 : end]); strings.ContainsRune(body, '\\') {
				return fmt.Errorf("escape inside %c entity: %q", r, body)
			}
			i = end
		}
	}
	return nil
}

func TestLegacyMarkdownCheck(t *testing.T) {
	assert.NoError(t, legacyMarkdownError("*bold* Best\\*Deals `ABC123`"))
	assert.Error(t, legacyMarkdownError("*Best\\*Deals*"))
	assert.Error(t, legacyMarkdownError("You selected *Item\\_1*"))
	assert.Error(t, legacyMarkdownError("*open"))
	assert.Error(t, legacyMarkdownError("[x](y)"))
}

func TestRepliesEscapeMarkdownInNames(t *testing.T) {
	const (
		store    = "Best*Deals_[1]`"
		product  = "Item_1*"
		customer = "Sara*[x]"
		address  = "St_5 `A`"
	)
	h := newHarness(t, Options{})
	var replies []string
	keep := func(res Result) Result {
		replies = append(replies, res.Reply.Text)
		return res
	}

	h.start(sellerUser, ConvRegister)
	keep(h.say(sellerUser, "Omar_X"))
	keep(h.say(sellerUser, store))
	res := keep(h.say(sellerUser, "1234"))
	m := codeRe.FindStringSubmatch(res.Reply.Text)
	require.Len(t, m, 2, res.Reply.Text)
	code := m[1]

	keep(h.start(sellerUser, ConvRegister))
	keep(h.login(sellerUser, code))
	h.start(sellerUser, ConvAddProduct)
	keep(h.say(sellerUser, product))
	keep(h.say(sellerUser, "19.99"))
	keep(h.say(sellerUser, "50% [off] *today*"))

	h.start(buyerUser, ConvCheckout)
	res = keep(h.say(buyerUser, code))
	require.Len(t, res.Reply.Choices, 1)
	keep(h.send(buyerUser, ProductSelected(res.Reply.Choices[0].ProductID)))
	keep(h.say(buyerUser, customer, "0551234567"))
	res = keep(h.say(buyerUser, address))
	require.Equal(t, OutcomeOK, res.Outcome, res.Reply.Text)

	sess := h.mgr.Get(sellerUser)
	for _, view := range []func(state.Session) (Result, error){
		func(s state.Session) (Result, error) { return h.eng.Dashboard(h.ctx, s) },
		func(s state.Session) (Result, error) { return h.eng.MyProducts(h.ctx, s) },
		func(s state.Session) (Result, error) { return h.eng.Orders(h.ctx, s) },
		func(s state.Session) (Result, error) { return h.eng.StoreCode(h.ctx, s) },
	} {
		res, err := view(sess)
		require.NoError(t, err)
		keep(res)
	}

	joined := strings.Join(replies, "\n")
	for _, raw := range []string{store, product, customer, address} {
		assert.Contains(t, joined, format.MD(raw))
	}
	for _, text := range replies {
		assert.NoError(t, legacyMarkdownError(text), text)
	}
}
