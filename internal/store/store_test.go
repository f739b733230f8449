package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.mercadolivre.com.br/fone/p/MLB123", MercadoLivre},
		{"https://produto.mercadolivre.com.br/MLB-123-fone", MercadoLivre},
		{"https://articulo.mercadolibre.com.ar/MLA-1", MercadoLivre},
		{"https://http2.mlstatic.com/D_NQ_NP.jpg", MercadoLivre},
		{"https://www.amazon.com.br/dp/B0C1234567", Amazon},
		{"https://shopee.com.br/product/1/2", Shopee},
		{"https://www.magazineluiza.com.br/p/abc", Magalu},
		{"https://www.magalu.com/p/abc", Magalu},
		{"https://www.kabum.com.br/produto/1", Kabum},
		{"https://WWW.Example.COM/item", "example.com"},
		{"https://loja.example.com/item", "loja.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.url))
		})
	}
}

func TestClassifyInvalid(t *testing.T) {
	assert.Equal(t, Unknown, Classify(""))
	assert.Equal(t, Unknown, Classify("::not a url"))
	assert.Equal(t, Unknown, Classify("/relative/path"))
}

func TestClassifyRuleOrder(t *testing.T) {
	// A Mercado Livre host that happens to mention amazon must still match the first rule.
	assert.Equal(t, MercadoLivre, Classify("https://amazon-deals.mercadolivre.com.br/x"))
}

func TestMetricLabel(t *testing.T) {
	for _, label := range []string{MercadoLivre, Amazon, Shopee, Magalu, Kabum, Unknown} {
		assert.Equal(t, label, MetricLabel(label))
	}
	assert.Equal(t, Other, MetricLabel(Classify("https://shop42.example/item")))
	assert.Equal(t, Other, MetricLabel("127.0.0.1"))
	assert.Equal(t, Other, MetricLabel(""))
}
