package store

import (
	"net/url"
	"strings"
)

// Store labels returned by Classify
const (
	MercadoLivre = "Mercado Livre"
	Amazon       = "Amazon"
	Shopee       = "Shopee"
	Magalu       = "Magalu"
	Kabum        = "KaBuM!"

	// Unknown is used when the URL cannot be parsed at all
	Unknown = "Loja"
)

type rule struct {
	label     string
	fragments []string
}

// Evaluated in order; the first rule with a matching fragment wins.
var rules = []rule{
	{MercadoLivre, []string{"mercadolivre", "mercadolibre", "mlstatic"}},
	{Amazon, []string{"amazon"}},
	{Shopee, []string{"shopee"}},
	{Magalu, []string{"magalu", "magazineluiza"}},
	{Kabum, []string{"kabum"}},
}

// Classify maps the hostname of rawURL to a store label. Hosts that match no
// rule are returned bare, without a leading "www.".
func Classify(rawURL string) string {
	host := Hostname(rawURL)
	if host == "" {
		return Unknown
	}

	for _, r := range rules {
		for _, fragment := range r.fragments {
			if strings.Contains(host, fragment) {
				return r.label
			}
		}
	}

	return strings.TrimPrefix(host, "www.")
}

// Hostname returns the lowercase hostname of rawURL, or "" when it has none.
func Hostname(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Other groups hosts without a dedicated label in metrics
const Other = "other"

// MetricLabel maps a Classify result to a bounded label set: known store
// labels pass through and every bare hostname becomes Other.
func MetricLabel(label string) string {
	switch label {
	case MercadoLivre, Amazon, Shopee, Magalu, Kabum, Unknown:
		return label
	}
	return Other
}
