package extractor

// GenericExtractor reads Open Graph tags and loose JSON tokens. It is used for
// every store without a dedicated strategy.
type GenericExtractor struct {
	titleRules    []TextRule
	priceRules    []PriceRule
	oldPriceRules []PriceRule
	imageRules    []TextRule
}

// NewGenericExtractor creates the Open Graph fallback strategy
func NewGenericExtractor() *GenericExtractor {
	return &GenericExtractor{
		titleRules: []TextRule{
			{Name: "og:title", Extract: ogTitle},
			{Name: "title tag", Extract: documentTitle},
		},
		priceRules: []PriceRule{
			{Name: "itemprop price", Extract: itempropPrice},
			jsonNumberRule("price", false),
		},
		oldPriceRules: []PriceRule{
			jsonNumberRule("list_price", false),
		},
		imageRules: []TextRule{
			{Name: "og:image", Extract: ogImage},
		},
	}
}

// Name returns the parse hint
func (e *GenericExtractor) Name() string {
	return HintGeneric
}

// Extract builds a record from the page HTML
func (e *GenericExtractor) Extract(html string) ProductRecord {
	p := NewPage(html)
	return ProductRecord{
		Title:     applyTextRules(p, e.titleRules),
		Price:     applyPriceRules(p, e.priceRules),
		OldPrice:  applyPriceRules(p, e.oldPriceRules),
		Image:     applyTextRules(p, e.imageRules),
		ParseHint: e.Name(),
	}.Normalize()
}
