package resolver

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Canonical returns the first <link rel="canonical"> target of html resolved
// against base, or "" when the page declares none.
func Canonical(html, base string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	href, ok := doc.Find(`link[rel~="canonical"]`).First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		if ref.IsAbs() {
			return ref.String()
		}
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}
