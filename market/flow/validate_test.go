package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	for in, want := range map[string]string{
		"500":    "500",
		" 19.99": "19.99",
		"0":      "0",
		"7,5":    "7.5",
		"10.50":  "10.5",
	} {
		got, err := ParsePrice(in)
		require.NoErrorf(t, err, "price %q", in)
		assert.Equal(t, want, got.String())
	}
	for _, in := range []string{"abc", "", "-1", "1e5", "Inf", "1.234", "1000000000000"} {
		_, err := ParsePrice(in)
		var ve *ValidationError
		assert.ErrorAsf(t, err, &ve, "price %q", in)
	}
}

func TestParseDescription(t *testing.T) {
	for _, skip := range []string{"skip", "SKIP", " Skip ", "-"} {
		got, err := parseDescription(skip)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	got, err := parseDescription("  Brand new  ")
	require.NoError(t, err)
	assert.Equal(t, "Brand new", got)
	_, err = parseDescription("")
	assert.Error(t, err)
}

func TestFormatPrice(t *testing.T) {
	p, _ := ParsePrice("500")
	assert.Equal(t, "500 SAR", formatPrice(p, "SAR"))
	p, _ = ParsePrice("19.9")
	assert.Equal(t, "19.90 SAR", formatPrice(p, "SAR"))
	assert.Equal(t, "19.90", formatPrice(p, ""))
}
