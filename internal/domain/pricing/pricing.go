// Package pricing resolves quantity-tiered unit prices.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/swag-kart/internal/domain/catalog"
)

// UnitPrice returns the price of one unit of item when quantity units are
// ordered together.
func UnitPrice(item catalog.Item, quantity int) decimal.Decimal {
	return Resolve(item.BasePrice, item.PriceBreaks, quantity)
}

// Resolve picks the break with the highest MinQty not exceeding quantity and
// returns its price. Thresholds are inclusive. Breaks need not be sorted; for
// equal thresholds the later break wins. When no break qualifies the base
// price applies.
func Resolve(base decimal.Decimal, breaks []catalog.PriceBreak, quantity int) decimal.Decimal {
	best := -1
	for i, b := range breaks {
		if b.MinQty > quantity {
			continue
		}
		if best < 0 || b.MinQty >= breaks[best].MinQty {
			best = i
		}
	}
	if best < 0 {
		return base
	}
	return breaks[best].Price
}
