package extractor

import (
	"fmt"

	"sjsage522/promolink/helpers"
)

// Installment is a structured "N payments of amount" offer
type Installment struct {
	Quantity int
	Amount   float64
	Rate     *float64
}

// InterestFree reports whether the offer has no interest. A missing rate counts as none.
func (i Installment) InterestFree() bool {
	return i.Rate == nil || *i.Rate == 0
}

// String renders the offer the way stores print it, e.g. "10x de R$ 23,74 sem juros"
func (i Installment) String() string {
	text := fmt.Sprintf("%dx de %s", i.Quantity, helpers.FormatBRL(i.Amount))
	if i.InterestFree() {
		text += " sem juros"
	}
	return text
}

// newInstallment validates raw quantity/amount values into an Installment
func newInstallment(quantity, amount, rate *float64) (Installment, bool) {
	if quantity == nil || amount == nil || *quantity < 1 || *amount <= 0 {
		return Installment{}, false
	}
	return Installment{Quantity: int(*quantity), Amount: *amount, Rate: rate}, true
}
