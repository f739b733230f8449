package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const amazonCorePricePage = `<html><head>
<meta property="og:title" content="Echo Dot 5ª geração | Smart speaker com Alexa">
</head><body>
<span id="productTitle">  Echo Dot 5ª geração  </span>
<div id="corePriceDisplay_desktop_feature_div"><span class="a-price"><span class="a-offscreen">R$ 284,05</span><span class="a-price-whole">284<span class="a-price-decimal">,</span></span><span class="a-price-fraction">05</span></span><span class="a-price a-text-price"><span class="a-offscreen">R$ 429,00</span></span></div>
<div>em até 10x de R$ 28,41 sem juros</div>
<div>ou 5x R$ 56,81</div>
<img id="landingImage" data-old-hires="https://m.media-amazon.com/images/I/hires.jpg" src="https://m.media-amazon.com/images/I/small.jpg">
</body></html>`

func TestAmazonCorePriceDisplay(t *testing.T) {
	rec := NewAmazonExtractor().Extract(amazonCorePricePage)

	require.NotNil(t, rec.Price)
	require.NotNil(t, rec.OldPrice)
	assert.InDelta(t, 284.05, *rec.Price, 1e-9)
	assert.InDelta(t, 429.00, *rec.OldPrice, 1e-9)
	assert.Equal(t, "Echo Dot 5ª geração | Smart speaker com Alexa", rec.Title)
	assert.Equal(t, "10x de R$ 28,41 sem juros", rec.Installment)
	assert.Equal(t, "https://m.media-amazon.com/images/I/hires.jpg", rec.Image)
	assert.Equal(t, HintAmazon, rec.ParseHint)
}

func TestAmazonOffscreenInsideBlock(t *testing.T) {
	html := `<div id="apex_desktop"><span class="a-price"><span class="a-offscreen">R$ 1.234,56</span></span></div>`
	rec := NewAmazonExtractor().Extract(html)
	require.NotNil(t, rec.Price)
	assert.InDelta(t, 1234.56, *rec.Price, 1e-9)
}

func TestAmazonLegacyFallbacks(t *testing.T) {
	html := `<html><body>
<span id="productTitle">
   Notebook Lenovo IdeaPad 3
</span>
<span id="priceblock_ourprice">R$ 1.599,00</span>
<p>De: R$ 1.999,00</p>
<div id="imgTagWrapperId"><img data-a-dynamic-image="{&quot;https://img.example/a.jpg&quot;:[500,500],&quot;https://img.example/b.jpg&quot;:[300,300]}"></div>
</body></html>`

	rec := NewAmazonExtractor().Extract(html)
	require.NotNil(t, rec.Price)
	require.NotNil(t, rec.OldPrice)
	assert.InDelta(t, 1599.0, *rec.Price, 1e-9)
	assert.InDelta(t, 1999.0, *rec.OldPrice, 1e-9)
	assert.Equal(t, "Notebook Lenovo IdeaPad 3", rec.Title)
	assert.Equal(t, "", rec.Installment)
	assert.Equal(t, "https://img.example/a.jpg", rec.Image)
}

func TestAmazonJSONFallbacks(t *testing.T) {
	html := `<script>var twister = {"priceAmount": 89.9, "strikePrice": "119,90"};</script>
<img id="landingImage" src="https://img.example/landing.jpg">`

	rec := NewAmazonExtractor().Extract(html)
	require.NotNil(t, rec.Price)
	require.NotNil(t, rec.OldPrice)
	assert.InDelta(t, 89.9, *rec.Price, 1e-9)
	assert.InDelta(t, 119.9, *rec.OldPrice, 1e-9)
	assert.Equal(t, "https://img.example/landing.jpg", rec.Image)
}

func TestBestInstallmentText(t *testing.T) {
	assert.Equal(t, "3x de R$ 10,00", bestInstallmentText(`<p>3x de R$ 10,00</p><p>3x de R$ 11,00</p>`))
	assert.Equal(t, "12x de R$ 8,33 sem juros", bestInstallmentText(`<p>2x de R$ 50,00</p><p>12x R$ 8,33.</p><p>Frete grátis e sem  juros</p>`))
	assert.Equal(t, "", bestInstallmentText(`<p>à vista</p>`))
}

func TestPriceContainerNeedsClosingDiv(t *testing.T) {
	assert.Equal(t, "", priceContainer(`<div id="apex_desktop">no close`))
	assert.Equal(t, `id="apex_desktop">x</div>`, priceContainer(`<div id="apex_desktop">x</div><div>y</div>`))
}
