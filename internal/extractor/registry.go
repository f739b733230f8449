package extractor

import (
	"sync"

	"sjsage522/promolink/internal/store"
)

// Registry maps store labels to the strategy that understands their pages.
// Stores without an entry use the generic strategy.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Extractor
	fallback   Extractor
}

// NewRegistry creates a registry with the built-in store strategies
func NewRegistry() *Registry {
	r := &Registry{
		strategies: make(map[string]Extractor),
		fallback:   NewGenericExtractor(),
	}
	r.Register(store.MercadoLivre, NewMercadoLivreExtractor())
	r.Register(store.Amazon, NewAmazonExtractor())
	r.Register(store.Shopee, NewShopeeExtractor())
	return r
}

// Register sets the strategy used for a store label
func (r *Registry) Register(storeLabel string, e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[storeLabel] = e
}

// For returns the strategy for a store label, falling back to the generic one
func (r *Registry) For(storeLabel string) Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.strategies[storeLabel]; ok {
		return e
	}
	return r.fallback
}

// Stores lists the labels with a dedicated strategy
func (r *Registry) Stores() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	labels := make([]string, 0, len(r.strategies))
	for label := range r.strategies {
		labels = append(labels, label)
	}
	return labels
}
