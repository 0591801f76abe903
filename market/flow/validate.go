package flow

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	maxNameLen         = 64
	maxTextLen         = 512
	minPasswordLen     = 4
	maxPasswordLen     = 64
	maxPriceDecimals   = 2
	minPhoneDigits     = 5
	maxPhoneDigits     = 15
	descriptionSkip    = "skip"
	descriptionSkipAlt = "-"
)

var maxPrice = decimal.New(1, 12)

func required(field, text string, max int) (string, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return "", &ValidationError{Field: field, Reason: "Please send some text."}
	case utf8.RuneCountInString(text) > max:
		return "", &ValidationError{Field: field, Reason: "That is too long, please keep it shorter."}
	}
	return text, nil
}

func parsePassword(text string) (string, error) {
	pw := strings.TrimSpace(text)
	switch n := utf8.RuneCountInString(pw); {
	case n == 0:
		return "", &ValidationError{Field: "password", Reason: "Please send a password."}
	case n < minPasswordLen:
		return "", &ValidationError{Field: "password", Reason: "The password must be at least 4 characters."}
	case n > maxPasswordLen:
		return "", &ValidationError{Field: "password", Reason: "The password is too long."}
	}
	return pw, nil
}

// ParsePrice accepts a non-negative decimal with at most two fractional digits.
// A comma is accepted as the decimal separator.
func ParsePrice(text string) (decimal.Decimal, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	invalid := &ValidationError{Field: "price", Reason: "Please send a valid price, for example 500 or 19.99."}
	if raw == "" {
		return decimal.Decimal{}, invalid
	}
	for _, r := range raw {
		if !unicode.IsDigit(r) && r != '.' && r != '-' && r != '+' {
			return decimal.Decimal{}, invalid
		}
	}
	price, err := decimal.NewFromString(raw)
	switch {
	case err != nil:
		return decimal.Decimal{}, invalid
	case price.IsNegative():
		return decimal.Decimal{}, &ValidationError{Field: "price", Reason: "The price cannot be negative."}
	case price.Exponent() < -maxPriceDecimals && !price.Equal(price.Round(maxPriceDecimals)):
		return decimal.Decimal{}, &ValidationError{Field: "price", Reason: "Use at most two decimal places."}
	case price.GreaterThanOrEqual(maxPrice):
		return decimal.Decimal{}, &ValidationError{Field: "price", Reason: "That price is too large."}
	}
	return price, nil
}

// parseDescription maps the skip words to an empty description.
func parseDescription(text string) (string, error) {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, descriptionSkip) || text == descriptionSkipAlt {
		return "", nil
	}
	return required("description", text, maxTextLen)
}

func parsePhone(text string) (string, error) {
	phone := strings.TrimSpace(text)
	invalid := &ValidationError{Field: "phone", Reason: "Please send a valid phone number, for example 0551234567."}
	digits := 0
	for _, r := range phone {
		switch {
		case unicode.IsDigit(r):
			digits++
		case strings.ContainsRune("+-() ", r):
		default:
			return "", invalid
		}
	}
	if digits < minPhoneDigits || digits > maxPhoneDigits {
		return "", invalid
	}
	return phone, nil
}
