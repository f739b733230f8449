package helpers

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var floatPrefix = regexp.MustCompile(`^[-+]?(?:\d+(?:\.\d*)?|\.\d+)`)

// NormalizeWhitespace collapses every run of whitespace (NBSP included) into a
// single space and trims the result.
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ParseCurrencyNumber converts a pt-BR formatted amount such as "R$ 1.234,56"
// into a number. It returns nil when nothing numeric can be recovered.
//
// Thousands separators are removed before the decimal comma is rewritten,
// otherwise "1.234,56" would become 1.234.
func ParseCurrencyNumber(text string) *float64 {
	var b strings.Builder
	for _, r := range text {
		if isDigit(r) || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}

	only := dropThousandsDots(b.String())
	norm := strings.Replace(only, ",", ".", 1)

	prefix := floatPrefix.FindString(norm)
	if prefix == "" {
		return nil
	}
	n, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

// dropThousandsDots removes each '.' immediately followed by exactly three
// digits and then a non-digit or the end of input.
func dropThousandsDots(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '.' && isThousandsGroup(s[i+1:]) {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isThousandsGroup(rest string) bool {
	if len(rest) < 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if !isDigit(rune(rest[i])) {
			return false
		}
	}
	return len(rest) == 3 || !isDigit(rune(rest[3]))
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// FormatBRL renders an amount the way Brazilian stores print it: "R$ 1.234,56".
func FormatBRL(amount float64) string {
	p := message.NewPrinter(language.BrazilianPortuguese)
	return "R$ " + p.Sprintf("%.2f", amount)
}
