package extractor

import (
	"math"
	"strings"

	"sjsage522/promolink/helpers"
)

// Parse hints identifying the strategy that produced a record
const (
	HintGeneric      = "generic_og"
	HintMercadoLivre = "ml_html_v9"
	HintAmazon       = "amazon_html_v3"
	HintShopee       = "shopee_html"
)

// ProductRecord is the candidate product data recovered from one page.
// Empty strings and nil prices mean the value could not be recovered.
type ProductRecord struct {
	Title       string   `json:"title"`
	Price       *float64 `json:"price"`
	OldPrice    *float64 `json:"oldPrice"`
	Installment string   `json:"installment"`
	Image       string   `json:"image"`
	ParseHint   string   `json:"parseHint"`
}

// IsPriceless reports whether neither price nor installment text was found
func (r ProductRecord) IsPriceless() bool {
	return r.Price == nil && r.OldPrice == nil && r.Installment == ""
}

// Normalize enforces the record invariants. Prices must be finite and not
// negative, and a price above the list price drops the list price. Text
// fields are whitespace-normalized.
func (r ProductRecord) Normalize() ProductRecord {
	r.Title = helpers.NormalizeWhitespace(r.Title)
	r.Installment = helpers.NormalizeWhitespace(r.Installment)
	r.Image = strings.TrimSpace(r.Image)
	r.Price = validPrice(r.Price)
	r.OldPrice = validPrice(r.OldPrice)
	if r.Price != nil && r.OldPrice != nil && *r.Price > *r.OldPrice {
		r.OldPrice = nil
	}
	return r
}

func validPrice(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return nil
	}
	return v
}

// Extractor turns a product page into a ProductRecord. Implementations never
// fail: whatever cannot be found is left empty.
type Extractor interface {
	// Name returns the parse hint reported for records built by this extractor
	Name() string

	// Extract builds a record from the page HTML
	Extract(html string) ProductRecord
}

// TextRule is one named attempt at recovering a string field
type TextRule struct {
	Name    string
	Extract func(*Page) string
}

// PriceRule is one named attempt at recovering a price field
type PriceRule struct {
	Name    string
	Extract func(*Page) *float64
}

// applyTextRules runs rules in order and returns the first non-empty value
func applyTextRules(p *Page, rules []TextRule) string {
	for _, rule := range rules {
		if rule.Extract == nil {
			continue
		}
		if value := rule.Extract(p); value != "" {
			return value
		}
	}
	return ""
}

// applyPriceRules runs rules in order and returns the first positive value.
// Zero is treated as "no price" so the next rule gets a chance.
func applyPriceRules(p *Page, rules []PriceRule) *float64 {
	for _, rule := range rules {
		if rule.Extract == nil {
			continue
		}
		if value := rule.Extract(p); value != nil && *value > 0 {
			return value
		}
	}
	return nil
}

func floatPtr(v float64) *float64 {
	return &v
}
