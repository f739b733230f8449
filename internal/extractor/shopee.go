package extractor

// ShopeeExtractor reads the JSON price tokens Shopee inlines in its pages
type ShopeeExtractor struct {
	titleRules    []TextRule
	priceRules    []PriceRule
	oldPriceRules []PriceRule
}

// NewShopeeExtractor creates the Shopee strategy
func NewShopeeExtractor() *ShopeeExtractor {
	return &ShopeeExtractor{
		titleRules: []TextRule{
			{Name: "og:title", Extract: ogTitle},
			{Name: "title tag", Extract: documentTitle},
		},
		priceRules: []PriceRule{
			jsonNumberRule("price", true),
			jsonNumberRule("price_min", true),
		},
		oldPriceRules: []PriceRule{
			jsonNumberRule("price_before_discount", true),
		},
	}
}

// Name returns the parse hint
func (e *ShopeeExtractor) Name() string {
	return HintShopee
}

// Extract builds a record from the page HTML. Shopee shows no installment text.
func (e *ShopeeExtractor) Extract(html string) ProductRecord {
	p := NewPage(html)
	return ProductRecord{
		Title:     applyTextRules(p, e.titleRules),
		Price:     applyPriceRules(p, e.priceRules),
		OldPrice:  applyPriceRules(p, e.oldPriceRules),
		Image:     ogImage(p),
		ParseHint: e.Name(),
	}.Normalize()
}
