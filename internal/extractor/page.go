package extractor

import (
	"regexp"
	"strings"
	"sync"

	"sjsage522/promolink/helpers"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Page is the HTML of a product page plus a goquery document built on first use.
// Regex rules read HTML directly, DOM rules go through Doc.
type Page struct {
	HTML string

	once sync.Once
	doc  *goquery.Document
}

// NewPage wraps raw HTML
func NewPage(raw string) *Page {
	return &Page{HTML: raw}
}

// Doc returns the parsed document. Unparseable input yields an empty document.
func (p *Page) Doc() *goquery.Document {
	p.once.Do(func() {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
		if err != nil {
			doc = goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
		}
		p.doc = doc
	})
	return p.doc
}

// MetaProperty returns the content of <meta property="name">
func (p *Page) MetaProperty(name string) string {
	content, _ := p.Doc().Find(`meta[property="` + name + `"]`).First().Attr("content")
	return strings.TrimSpace(content)
}

// MetaName returns the content of <meta name="name">
func (p *Page) MetaName(name string) string {
	content, _ := p.Doc().Find(`meta[name="` + name + `"]`).First().Attr("content")
	return strings.TrimSpace(content)
}

// Text returns the normalized text of the first element matching selector
func (p *Page) Text(selector string) string {
	return helpers.NormalizeWhitespace(p.Doc().Find(selector).First().Text())
}

// Attr returns the first non-empty value of attr among elements matching selector
func (p *Page) Attr(selector, attr string) string {
	var value string
	p.Doc().Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			value = strings.TrimSpace(v)
			return false
		}
		return true
	})
	return value
}

// Submatch returns capture group 1 of the first match of re in the page HTML
func (p *Page) Submatch(re *regexp.Regexp) string {
	return submatch(re, p.HTML)
}

func submatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// Shared rules used by more than one store

func ogTitle(p *Page) string {
	return helpers.NormalizeWhitespace(p.MetaProperty("og:title"))
}

func ogImage(p *Page) string {
	return p.MetaProperty("og:image")
}

func documentTitle(p *Page) string {
	return p.Text("title")
}

func itempropPrice(p *Page) *float64 {
	return helpers.ParseCurrencyNumber(p.Attr(`[itemprop="price"]`, "content"))
}

// jsonNumberRule builds a rule reading the value of the first "key": token in
// the raw HTML. The value may be quoted.
func jsonNumberRule(key string, caseInsensitive bool) PriceRule {
	flags := ""
	if caseInsensitive {
		flags = "(?i)"
	}
	re := regexp.MustCompile(flags + `"` + regexp.QuoteMeta(key) + `"\s*:\s*"?([\d.,]+)`)
	return PriceRule{
		Name: key + " token",
		Extract: func(p *Page) *float64 {
			return helpers.ParseCurrencyNumber(p.Submatch(re))
		},
	}
}

// regexPriceRule builds a rule parsing capture group 1 of re as a currency value
func regexPriceRule(name, pattern string) PriceRule {
	re := regexp.MustCompile(pattern)
	return PriceRule{
		Name: name,
		Extract: func(p *Page) *float64 {
			return helpers.ParseCurrencyNumber(p.Submatch(re))
		},
	}
}
