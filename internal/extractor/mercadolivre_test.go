package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mlPricesPage = `<html><head>
<meta property="og:title" content="Fone JBL Tune 520BT">
<meta property="og:image" content="https://http2.mlstatic.com/D_NQ_NP_1.jpg">
</head><body>
<h1 class="ui-pdp-title">Fone de Ouvido   JBL Tune
 520BT Azul</h1>
<script>window.__PRELOADED_STATE__ = {"initialState":{"components":{"price":{"prices":{"prices":[{"type":"promotion","amount":599.40,"regular_amount":899.00,"currency_id":"BRL"}],"installments":{"quantity":10,"amount":60.55,"rate":0}}}}}};</script>
</body></html>`

func TestMercadoLivrePricesBlock(t *testing.T) {
	rec := NewMercadoLivreExtractor().Extract(mlPricesPage)

	require.NotNil(t, rec.Price)
	require.NotNil(t, rec.OldPrice)
	assert.InDelta(t, 599.40, *rec.Price, 1e-9)
	assert.InDelta(t, 899.00, *rec.OldPrice, 1e-9)
	assert.Equal(t, "10x de R$ 60,55 sem juros", rec.Installment)
	assert.Equal(t, "Fone de Ouvido JBL Tune 520BT Azul", rec.Title)
	assert.Equal(t, "https://http2.mlstatic.com/D_NQ_NP_1.jpg", rec.Image)
	assert.Equal(t, HintMercadoLivre, rec.ParseHint)
}

func TestMercadoLivreInstallmentPhraseWins(t *testing.T) {
	html := strings.Replace(mlPricesPage, "</h1>", "</h1><p>em até  12x R$ 49,95 sem juros</p>", 1)
	rec := NewMercadoLivreExtractor().Extract(html)
	assert.Equal(t, "em até 12x R$ 49,95 sem juros", rec.Installment)
}

func TestMercadoLivreInstallmentWithInterest(t *testing.T) {
	html := `<script>var s = {"prices":{"amount":300,"regular_amount":350},"installments":{"quantity":6,"amount":55.9,"rate":2.99}};</script>`
	rec := NewMercadoLivreExtractor().Extract(html)
	assert.Equal(t, "6x de R$ 55,90", rec.Installment)
	require.NotNil(t, rec.Price)
	assert.Equal(t, 300.0, *rec.Price)
}

func TestMercadoLivreTitleFallsBackToOpenGraph(t *testing.T) {
	rec := NewMercadoLivreExtractor().Extract(`<meta property="og:title" content=" Kindle  11ª geração ">`)
	assert.Equal(t, "Kindle 11ª geração", rec.Title)
}

func TestMercadoLivreLooseFallbacks(t *testing.T) {
	html := `<html><body>
<meta itemprop="price" content="129.90">
<script>var data = {"list_price": 199.9};</script>
</body></html>`

	rec := NewMercadoLivreExtractor().Extract(html)
	require.NotNil(t, rec.Price)
	require.NotNil(t, rec.OldPrice)
	assert.InDelta(t, 129.90, *rec.Price, 1e-9)
	assert.InDelta(t, 199.90, *rec.OldPrice, 1e-9)
	assert.Equal(t, "", rec.Installment)
}

func TestMercadoLivrePreviousPriceBlock(t *testing.T) {
	html := `<meta itemprop="price" content="999">
<div class="ui-pdp-price__second-line">
  <s class="andes-money-amount andes-money-amount--previous">
    <span class="andes-money-amount__fraction">1.299</span><span class="andes-money-amount__cents">90</span>
  </s>
</div>`

	rec := NewMercadoLivreExtractor().Extract(html)
	require.NotNil(t, rec.OldPrice)
	assert.InDelta(t, 1299.90, *rec.OldPrice, 1e-9)
}

func TestMercadoLivreDeepMining(t *testing.T) {
	html := `<html><body>
<script type="application/json">{"props":{"pageProps":{"item":{"price":{"amount":"1.049,00","regular_amount":1299},
"installments":[{"quantity":6,"amount":174.83,"rate":0},{"quantity":12,"amount":96.1,"rate":1.99}]}}}}</script>
</body></html>`

	rec := NewMercadoLivreExtractor().Extract(html)
	require.NotNil(t, rec.Price)
	require.NotNil(t, rec.OldPrice)
	assert.InDelta(t, 1049.0, *rec.Price, 1e-9)
	assert.InDelta(t, 1299.0, *rec.OldPrice, 1e-9)
	assert.Equal(t, "12x de R$ 96,10", rec.Installment)
}

func TestMercadoLivreImageFallbacks(t *testing.T) {
	escaped := strings.ReplaceAll(`<script>{"pictures":[{"secure_url":"https:SLASHSLASHhttp2.mlstatic.comSLASHD_2.jpg"}]}</script>`, "SLASH", `\`+`u002F`)
	rec := NewMercadoLivreExtractor().Extract(escaped)
	assert.Equal(t, "https://http2.mlstatic.com/D_2.jpg", rec.Image)

	rec = NewMercadoLivreExtractor().Extract(`<meta name="og:image" content="https://http2.mlstatic.com/D_3.jpg">`)
	assert.Equal(t, "https://http2.mlstatic.com/D_3.jpg", rec.Image)
}

func TestCoherentPrice(t *testing.T) {
	p, o := coherentPrice(floatPtr(100), floatPtr(200), []float64{100})
	assert.Equal(t, 100.0, *p)
	assert.Equal(t, 200.0, *o)

	p, o = coherentPrice(floatPtr(300), floatPtr(250), []float64{120, 240, 300})
	require.NotNil(t, p)
	assert.Equal(t, 240.0, *p)
	assert.Equal(t, 250.0, *o)

	p, o = coherentPrice(floatPtr(950), floatPtr(900), []float64{950})
	assert.Nil(t, p)
	assert.Equal(t, 900.0, *o)

	p, o = coherentPrice(floatPtr(899), floatPtr(899), []float64{899})
	assert.Equal(t, 899.0, *p)
	assert.Nil(t, o)
}

func TestPricesBlockCutsInstallments(t *testing.T) {
	block, inst := pricesBlock(`"prices": {"amount": 10, "installments": {"quantity": 3, "amount": 4}, "regular_amount": 20} trailing`)
	assert.NotContains(t, block, "quantity")
	assert.Contains(t, block, `"regular_amount": 20`)
	assert.Equal(t, `{"quantity": 3, "amount": 4}`, inst)
}

func TestMercadoLivreCrossTierCoherence(t *testing.T) {
	html := `<html><body>
<meta itemprop="price" content="350">
<p>em até 10x de R$ 28,00 sem juros</p>
<script>var data = {"list_price": 300};</script>
<script type="application/json">{"offers":[{"amount":350},{"amount":280}]}</script>
</body></html>`

	rec := NewMercadoLivreExtractor().Extract(html)
	require.NotNil(t, rec.Price)
	require.NotNil(t, rec.OldPrice)
	assert.InDelta(t, 280.0, *rec.Price, 1e-9)
	assert.InDelta(t, 300.0, *rec.OldPrice, 1e-9)

	noAlternative := `<meta itemprop="price" content="350">
<p>em até 10x de R$ 35,00 sem juros</p>
<script>var data = {"list_price": 300};</script>`

	rec = NewMercadoLivreExtractor().Extract(noAlternative)
	assert.Nil(t, rec.Price)
	require.NotNil(t, rec.OldPrice)
	assert.InDelta(t, 300.0, *rec.OldPrice, 1e-9)
}

func TestMercadoLivreSurvivesDeeplyNestedBlob(t *testing.T) {
	const depth = 3000000
	html := `<html><head><meta property="og:title" content="Notebook"></head><body>
<script type="application/json">` + strings.Repeat("[", depth) + strings.Repeat("]", depth) + `</script>
<script type="application/json">{"item":{"amount":2199,"regular_amount":2599}}</script>
</body></html>`

	rec := NewMercadoLivreExtractor().Extract(html)
	assert.Equal(t, "Notebook", rec.Title)
	require.NotNil(t, rec.Price)
	require.NotNil(t, rec.OldPrice)
	assert.InDelta(t, 2199.0, *rec.Price, 1e-9)
	assert.InDelta(t, 2599.0, *rec.OldPrice, 1e-9)
}
