package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name        string
		cb          *tele.Callback
		key, params string
	}{
		{"nil", nil, "", ""},
		{"raw", &tele.Callback{Data: "\fproduct|42"}, "product", "42"},
		{"raw no payload", &tele.Callback{Data: "\fcancel"}, "cancel", ""},
		{"payload with separator", &tele.Callback{Data: "\fx|a|b"}, "x", "a|b"},
		{"already split", &tele.Callback{Unique: "product", Data: "7"}, "product", "7"},
		{"plain", &tele.Callback{Data: "legacy"}, "legacy", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, payload := Parse(tc.cb)
			assert.Equal(t, tc.key, key)
			assert.Equal(t, tc.params, payload)
		})
	}
}
