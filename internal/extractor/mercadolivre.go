package extractor

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"sjsage522/promolink/helpers"
	"sjsage522/promolink/internal/store"
	"sjsage522/promolink/logger"
)

const (
	maxPricesBlock       = 60000
	maxInstallmentsBlock = 2000
)

var (
	mlPricesKey       = regexp.MustCompile(`(?i)"prices"\s*:\s*\{`)
	mlInstallmentsKey = regexp.MustCompile(`(?i)"installments"\s*:\s*\{`)
	mlAmountToken     = regexp.MustCompile(`"amount"\s*:\s*"?([\d.,]+)`)
	mlRegularToken    = regexp.MustCompile(`"regular_amount"\s*:\s*"?([\d.,]+)`)
	mlQuantityToken   = regexp.MustCompile(`(?i)"quantity"\s*:\s*"?(\d{1,2})`)
	mlInstAmountToken = regexp.MustCompile(`(?i)"amount"\s*:\s*"?([\d.,]+)`)
	mlRateToken       = regexp.MustCompile(`(?i)"rate"\s*:\s*"?([\d.,]+)`)
	mlInstallmentText = regexp.MustCompile(`(?i)em\s+até\s+\d{1,2}x[^<]{0,120}R\$\s?[\d.,]+(?:\s+sem\s+juros)?`)
	mlSecureURL       = regexp.MustCompile(`"secure_url"\s*:\s*"([^"]+)"`)
	mlOGImageReversed = regexp.MustCompile(`(?i)<meta[^>]+content=["']([^"']+)["'][^>]+(?:property|name)=["']og:image["']`)
)

var slashUnescaper = strings.NewReplacer(`\`+`u002F`, "/", `\`+`u002f`, "/", `\/`, "/")

// MercadoLivreExtractor reads the server-rendered pricing JSON of Mercado Livre
// product pages and falls back to mining the hydration state.
type MercadoLivreExtractor struct {
	titleRules       []TextRule
	priceRules       []PriceRule
	oldPriceRules    []PriceRule
	installmentRules []TextRule
	imageRules       []TextRule
	log              *logger.Logger
}

// NewMercadoLivreExtractor creates the Mercado Livre strategy
func NewMercadoLivreExtractor() *MercadoLivreExtractor {
	return &MercadoLivreExtractor{
		log: logger.ForStore(store.MercadoLivre),
		titleRules: []TextRule{
			{Name: "pdp title", Extract: func(p *Page) string { return p.Text("h1.ui-pdp-title") }},
			{Name: "og:title", Extract: ogTitle},
		},
		priceRules: []PriceRule{
			{Name: "itemprop price", Extract: itempropPrice},
			jsonNumberRule("price", true),
		},
		oldPriceRules: []PriceRule{
			jsonNumberRule("list_price", true),
			jsonNumberRule("original_price", true),
			{Name: "previous price block", Extract: previousPriceBlock},
		},
		installmentRules: []TextRule{
			{Name: "installment phrase", Extract: func(p *Page) string {
				return helpers.NormalizeWhitespace(mlInstallmentText.FindString(p.HTML))
			}},
		},
		imageRules: []TextRule{
			{Name: "og:image", Extract: ogImage},
			{Name: "secure_url", Extract: func(p *Page) string {
				return slashUnescaper.Replace(p.Submatch(mlSecureURL))
			}},
			{Name: "og:image name", Extract: func(p *Page) string { return p.MetaName("og:image") }},
			{Name: "og:image content first", Extract: func(p *Page) string { return p.Submatch(mlOGImageReversed) }},
		},
	}
}

// Name returns the parse hint
func (e *MercadoLivreExtractor) Name() string {
	return HintMercadoLivre
}

// Extract builds a record from the page HTML. Each field falls through the
// pricing block, loose page tokens and finally the embedded JSON payloads.
func (e *MercadoLivreExtractor) Extract(html string) ProductRecord {
	p := NewPage(html)
	rec := ProductRecord{
		Title:     applyTextRules(p, e.titleRules),
		ParseHint: e.Name(),
	}

	block, instBlock := pricesBlock(html)
	if block != "" {
		rec.Price, rec.OldPrice = pricesFromBlock(block)
	}

	rec.Installment = applyTextRules(p, e.installmentRules)
	if rec.Installment == "" {
		if instBlock == "" {
			instBlock = installmentsBlock(html)
		}
		if inst, ok := installmentFromBlock(instBlock); ok {
			rec.Installment = inst.String()
		}
	}

	if rec.Price == nil {
		rec.Price = applyPriceRules(p, e.priceRules)
	}
	if rec.OldPrice == nil {
		rec.OldPrice = applyPriceRules(p, e.oldPriceRules)
	}

	var mined *Harvest
	if (rec.Price == nil && rec.OldPrice == nil) || rec.Installment == "" {
		mined = e.mine(p)
		if rec.Price == nil {
			rec.Price = mined.LowestAmount()
		}
		if rec.OldPrice == nil {
			rec.OldPrice = mined.HighestRegular()
		}
		if rec.Installment == "" {
			if inst, ok := mined.BestInstallment(); ok {
				rec.Installment = inst.String()
			}
		}
	}

	// Price and list price may come from different tiers; an implausible
	// pair is resolved against every amount the page embeds.
	if rec.Price != nil && rec.OldPrice != nil && *rec.Price >= *rec.OldPrice {
		if mined == nil {
			mined = e.mine(p)
		}
		amounts := append([]float64(nil), mined.Amounts...)
		sort.Float64s(amounts)
		rec.Price, rec.OldPrice = coherentPrice(rec.Price, rec.OldPrice, amounts)
	}

	rec.Image = applyTextRules(p, e.imageRules)
	return rec.Normalize()
}

func (e *MercadoLivreExtractor) mine(p *Page) *Harvest {
	h := DeepMine(p)
	e.log.Debug().
		Int("amounts", len(h.Amounts)).
		Int("regulars", len(h.Regulars)).
		Int("installments", len(h.Installments)).
		Msg("mined embedded state")
	return &h
}

// pricesBlock returns the "prices" object of the page with its installment
// sub-objects cut out, and the first installment object it contained.
func pricesBlock(html string) (string, string) {
	loc := mlPricesKey.FindStringIndex(html)
	if loc == nil {
		return "", ""
	}
	block, _ := balancedObject(html, loc[1]-1, maxPricesBlock)

	var instBlock string
	for {
		instLoc := mlInstallmentsKey.FindStringIndex(block)
		if instLoc == nil {
			break
		}
		inst, _ := balancedObject(block, instLoc[1]-1, len(block))
		if instBlock == "" {
			instBlock = inst
		}
		block = block[:instLoc[0]] + block[instLoc[1]-1+len(inst):]
	}
	return block, instBlock
}

// installmentsBlock returns the first "installments" object anywhere in the page
func installmentsBlock(html string) string {
	loc := mlInstallmentsKey.FindStringIndex(html)
	if loc == nil {
		return ""
	}
	block, _ := balancedObject(html, loc[1]-1, maxInstallmentsBlock)
	return block
}

// pricesFromBlock picks the smallest amount as the price and the largest
// regular amount as the list price, then makes the pair coherent.
func pricesFromBlock(block string) (*float64, *float64) {
	amounts := collectNumbers(mlAmountToken, block)
	regulars := collectNumbers(mlRegularToken, block)

	var price, oldPrice *float64
	if len(amounts) > 0 {
		price = floatPtr(amounts[0])
	}
	if len(regulars) > 0 {
		oldPrice = floatPtr(regulars[len(regulars)-1])
	}
	return coherentPrice(price, oldPrice, amounts)
}

// coherentPrice replaces a price that is not below oldPrice with the largest
// amount that is. With no such amount an equal price is kept without its list
// price and a higher one is dropped. amounts must be sorted ascending.
func coherentPrice(price, oldPrice *float64, amounts []float64) (*float64, *float64) {
	if price == nil || oldPrice == nil || *price < *oldPrice {
		return price, oldPrice
	}
	for i := len(amounts) - 1; i >= 0; i-- {
		if amounts[i] < *oldPrice {
			return floatPtr(amounts[i]), oldPrice
		}
	}
	if *price == *oldPrice {
		return price, nil
	}
	return nil, oldPrice
}

// installmentFromBlock reads quantity, amount and rate out of an installments object
func installmentFromBlock(block string) (Installment, bool) {
	if block == "" {
		return Installment{}, false
	}
	var quantity *float64
	if q, err := strconv.Atoi(submatch(mlQuantityToken, block)); err == nil {
		quantity = floatPtr(float64(q))
	}
	amount := helpers.ParseCurrencyNumber(submatch(mlInstAmountToken, block))
	rate := helpers.ParseCurrencyNumber(submatch(mlRateToken, block))
	return newInstallment(quantity, amount, rate)
}

// previousPriceBlock reads the struck-through "De:" price widget
func previousPriceBlock(p *Page) *float64 {
	prev := p.Doc().Find(".ui-pdp-price__second-line .andes-money-amount--previous").First()
	if prev.Length() == 0 {
		prev = p.Doc().Find(".andes-money-amount--previous").First()
	}
	if prev.Length() == 0 {
		return nil
	}

	whole := strings.TrimSpace(prev.Find(".andes-money-amount__fraction").First().Text())
	if whole == "" {
		return nil
	}
	cents := strings.TrimSpace(prev.Find(".andes-money-amount__cents").First().Text())
	if cents == "" {
		cents = "00"
	}
	return helpers.ParseCurrencyNumber(whole + "," + cents)
}

// collectNumbers parses every positive capture of re in s, sorted ascending
func collectNumbers(re *regexp.Regexp, s string) []float64 {
	var values []float64
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		values = appendPositive(values, helpers.ParseCurrencyNumber(m[1]))
	}
	sort.Float64s(values)
	return values
}
