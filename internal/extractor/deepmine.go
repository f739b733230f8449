package extractor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxMinedBlobs bounds how many embedded payloads one page may contribute
const maxMinedBlobs = 5

var preloadedStateAssign = regexp.MustCompile(`__PRELOADED_STATE__\s*=\s*`)

var blobUnescaper = strings.NewReplacer(`&quot;`, `"`, `\u002F`, `/`, `\u002f`, `/`)

// Harvest collects price-like values found anywhere in embedded JSON
type Harvest struct {
	Amounts      []float64
	Regulars     []float64
	Installments []Installment
}

// Collect walks root and records every interesting key. Keys are compared
// case-insensitively. Installment objects are recorded whole and their
// amounts are not counted as prices.
func (h *Harvest) Collect(root *Node) {
	Walk(root, func(key string, value *Node) bool {
		switch strings.ToLower(key) {
		case "amount", "price":
			h.Amounts = appendPositive(h.Amounts, value.Number())
		case "regular_amount", "list_price", "original_price":
			h.Regulars = appendPositive(h.Regulars, value.Number())
		case "installments":
			h.collectInstallments(value)
			return false
		}
		return true
	})
}

func (h *Harvest) collectInstallments(value *Node) {
	var candidates []*Node
	switch value.Kind {
	case KindObject:
		candidates = append(candidates, value)
	case KindArray:
		candidates = value.Items
	}

	for _, c := range candidates {
		inst, ok := newInstallment(c.Get("quantity").Number(), c.Get("amount").Number(), c.Get("rate").Number())
		if ok {
			h.Installments = append(h.Installments, inst)
		}
	}
}

// LowestAmount returns the smallest amount, the promotional price candidate
func (h Harvest) LowestAmount() *float64 {
	if len(h.Amounts) == 0 {
		return nil
	}
	sorted := append([]float64(nil), h.Amounts...)
	sort.Float64s(sorted)
	return floatPtr(sorted[0])
}

// HighestRegular returns the largest regular amount, the list price candidate
func (h Harvest) HighestRegular() *float64 {
	if len(h.Regulars) == 0 {
		return nil
	}
	sorted := append([]float64(nil), h.Regulars...)
	sort.Float64s(sorted)
	return floatPtr(sorted[len(sorted)-1])
}

// BestInstallment returns the offer with the most payments. Ties keep the first seen.
func (h Harvest) BestInstallment() (Installment, bool) {
	if len(h.Installments) == 0 {
		return Installment{}, false
	}
	best := h.Installments[0]
	for _, inst := range h.Installments[1:] {
		if inst.Quantity > best.Quantity {
			best = inst
		}
	}
	return best, true
}

// DeepMine parses the embedded JSON payloads of a page and harvests every
// price-like value. Payloads that are not valid JSON are skipped.
func DeepMine(p *Page) Harvest {
	var h Harvest
	for _, blob := range candidateBlobs(p) {
		root, err := ParseJSON(blobUnescaper.Replace(blob))
		if err != nil {
			continue
		}
		h.Collect(root)
	}
	return h
}

// candidateBlobs returns up to maxMinedBlobs script payloads: hydration state
// assignments first, then JSON typed scripts, then scripts holding a bare object.
func candidateBlobs(p *Page) []string {
	scripts := p.Doc().Find("script")
	seen := make(map[string]bool)
	var blobs []string

	add := func(blob string) bool {
		blob = strings.TrimSpace(blob)
		if blob == "" || seen[blob] {
			return len(blobs) < maxMinedBlobs
		}
		seen[blob] = true
		blobs = append(blobs, blob)
		return len(blobs) < maxMinedBlobs
	}

	passes := []func(*goquery.Selection) string{
		func(s *goquery.Selection) string {
			text := s.Text()
			loc := preloadedStateAssign.FindStringIndex(text)
			if loc == nil {
				return ""
			}
			obj, closed := balancedObject(text, loc[1], len(text))
			if !closed {
				return ""
			}
			return obj
		},
		func(s *goquery.Selection) string {
			kind, _ := s.Attr("type")
			kind = strings.ToLower(strings.TrimSpace(kind))
			if kind == "application/json" || kind == "application/ld+json" {
				return s.Text()
			}
			return ""
		},
		func(s *goquery.Selection) string {
			text := strings.TrimSuffix(strings.TrimSpace(s.Text()), ";")
			if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
				return text
			}
			return ""
		},
	}

	for _, pass := range passes {
		more := true
		scripts.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if blob := pass(s); blob != "" {
				more = add(blob)
			}
			return more
		})
		if !more {
			break
		}
	}
	return blobs
}

// balancedObject returns the object starting at s[start] == '{' up to its
// matching brace, reading at most limit bytes. String literals are skipped.
// When the object does not close within the limit the truncated text is
// returned with closed set to false.
func balancedObject(s string, start, limit int) (string, bool) {
	if start < 0 || start >= len(s) || s[start] != '{' {
		return "", false
	}
	end := len(s)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < end; i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return s[start:end], false
}

func appendPositive(values []float64, v *float64) []float64 {
	if v != nil && *v > 0 {
		return append(values, *v)
	}
	return values
}
