package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"sjsage522/promolink/helpers"
)

// maxAmazonPriceBlock bounds how far after the price container the closing tag is searched
const maxAmazonPriceBlock = 4000

var (
	amzPriceContainers = []*regexp.Regexp{
		regexp.MustCompile(`(?i)id=["']corePriceDisplay_[^"']+["']`),
		regexp.MustCompile(`(?i)id=["']apex_desktop["']`),
	}
	amzClosingDiv = regexp.MustCompile(`(?i)</div>`)

	amzPriceWhole    = regexp.MustCompile(`(?i)class=["']a-price-whole["'][^>]*>([\d.,]+)`)
	amzPriceFraction = regexp.MustCompile(`(?i)class=["']a-price-fraction["'][^>]*>(\d{1,2})`)

	amzInstallment  = regexp.MustCompile(`(?i)(?:em\s+até\s+)?(\d{1,2})x[^<]{0,80}R\$\s?([\d.,]+)(?:\s+sem\s+juros)?`)
	amzInterestFree = regexp.MustCompile(`(?i)sem\s+juros`)
)

const (
	amzOffscreenPattern = `(?i)a-offscreen[^>]*>(R\$\s?[\d.,]+)<`
	amzTextPricePattern = `(?i)class=["'][^"']*a-text-price[^"']*["'][\s\S]*?a-offscreen[^>]*>(R\$\s?[\d.,]+)<`
	amzStrikePattern    = `(?i)id=["']priceblock_strikeprice["'][^>]*>(R\$\s?[\d.,]+)<`
)

// AmazonExtractor reads Amazon Brazil product pages. Prices are looked up in
// the core price widget first, then anywhere in the page.
type AmazonExtractor struct {
	titleRules         []TextRule
	blockPriceRules    []PriceRule
	priceRules         []PriceRule
	blockOldPriceRules []PriceRule
	oldPriceRules      []PriceRule
	imageRules         []TextRule
}

// NewAmazonExtractor creates the Amazon strategy
func NewAmazonExtractor() *AmazonExtractor {
	return &AmazonExtractor{
		titleRules: []TextRule{
			{Name: "og:title", Extract: ogTitle},
			{Name: "productTitle", Extract: func(p *Page) string { return p.Text("#productTitle") }},
		},
		blockPriceRules: []PriceRule{
			{Name: "whole and fraction", Extract: wholeAndFraction},
			regexPriceRule("offscreen", amzOffscreenPattern),
		},
		priceRules: []PriceRule{
			regexPriceRule("priceblock_dealprice", `(?i)id=["']priceblock_dealprice["'][^>]*>(R\$\s?[\d.,]+)<`),
			regexPriceRule("priceblock_ourprice", `(?i)id=["']priceblock_ourprice["'][^>]*>(R\$\s?[\d.,]+)<`),
			regexPriceRule("offscreen span", `(?i)<span[^>]+class=["'][^"']*a-offscreen[^"']*["'][^>]*>(R\$\s?[\d.,]+)</span>`),
			regexPriceRule("priceAmount", `(?i)"priceAmount"\s*:\s*"?([\d.,]+)`),
			regexPriceRule("amount", `(?i)"amount"\s*:\s*"([\d.,]+)"`),
			regexPriceRule("price", `(?i)"price"\s*:\s*"([\d.,]+)"`),
		},
		blockOldPriceRules: []PriceRule{
			regexPriceRule("text price", amzTextPricePattern),
			regexPriceRule("priceblock_strikeprice", amzStrikePattern),
		},
		oldPriceRules: []PriceRule{
			regexPriceRule("text price", amzTextPricePattern),
			regexPriceRule("list price label", `(?i)(?:De:|Preço\s+de\s+tabela)[^<]*?(R\$\s?[\d.,]+)`),
			regexPriceRule("wasPrice", `(?i)"wasPrice".*?"amount"\s*:\s*"([\d.,]+)"`),
			regexPriceRule("strikePrice", `(?i)"strikePrice"\s*:\s*"([\d.,]+)"`),
		},
		imageRules: []TextRule{
			{Name: "og:image", Extract: ogImage},
			{Name: "data-old-hires", Extract: func(p *Page) string { return p.Attr("[data-old-hires]", "data-old-hires") }},
			{Name: "dynamic image", Extract: dynamicImage},
			{Name: "landingImage", Extract: func(p *Page) string { return p.Attr("#landingImage", "src") }},
		},
	}
}

// Name returns the parse hint
func (e *AmazonExtractor) Name() string {
	return HintAmazon
}

// Extract builds a record from the page HTML
func (e *AmazonExtractor) Extract(html string) ProductRecord {
	p := NewPage(html)
	rec := ProductRecord{
		Title:       applyTextRules(p, e.titleRules),
		Installment: bestInstallmentText(html),
		Image:       applyTextRules(p, e.imageRules),
		ParseHint:   e.Name(),
	}

	if block := priceContainer(html); block != "" {
		bp := NewPage(block)
		rec.Price = applyPriceRules(bp, e.blockPriceRules)
		rec.OldPrice = applyPriceRules(bp, e.blockOldPriceRules)
	}
	if rec.Price == nil {
		rec.Price = applyPriceRules(p, e.priceRules)
	}
	if rec.OldPrice == nil {
		rec.OldPrice = applyPriceRules(p, e.oldPriceRules)
	}
	return rec.Normalize()
}

// priceContainer returns the HTML from the price widget id up to the first
// closing div, provided it closes within maxAmazonPriceBlock bytes.
func priceContainer(html string) string {
	for _, re := range amzPriceContainers {
		for _, loc := range re.FindAllStringIndex(html, -1) {
			window := html[loc[1]:]
			if len(window) > maxAmazonPriceBlock+len("</div>") {
				window = window[:maxAmazonPriceBlock+len("</div>")]
			}
			if end := amzClosingDiv.FindStringIndex(window); end != nil {
				return html[loc[0] : loc[1]+end[1]]
			}
		}
	}
	return ""
}

func wholeAndFraction(p *Page) *float64 {
	whole := strings.TrimRight(p.Submatch(amzPriceWhole), ".,")
	fraction := p.Submatch(amzPriceFraction)
	if whole == "" || fraction == "" {
		return nil
	}
	return helpers.ParseCurrencyNumber(whole + "," + fraction)
}

// bestInstallmentText picks the "Nx de R$ v" offer with the most payments.
// Ties keep the first occurrence.
func bestInstallmentText(html string) string {
	bestN := 0
	bestValue := ""
	for _, m := range amzInstallment.FindAllStringSubmatch(html, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= bestN {
			continue
		}
		bestN = n
		bestValue = strings.TrimRight(m[2], ".,")
	}
	if bestN == 0 || bestValue == "" {
		return ""
	}

	text := fmt.Sprintf("%dx de R$ %s", bestN, bestValue)
	if amzInterestFree.MatchString(html) {
		text += " sem juros"
	}
	return text
}

// dynamicImage returns the first URL of the data-a-dynamic-image map
func dynamicImage(p *Page) string {
	raw := p.Attr("[data-a-dynamic-image]", "data-a-dynamic-image")
	if raw == "" {
		return ""
	}
	root, err := ParseJSON(strings.ReplaceAll(raw, "&quot;", `"`))
	if err != nil {
		return ""
	}
	if keys := root.Keys(); len(keys) > 0 {
		return keys[0]
	}
	return ""
}
