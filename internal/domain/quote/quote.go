package quote

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/swag-kart/internal/domain/cart"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// VolumeTier grants Percent off the subtotal once the cart holds at least
// MinItems units.
type VolumeTier struct {
	MinItems int
	Percent  decimal.Decimal
}

// DefaultVolumeTiers is the cart-wide volume discount schedule.
var DefaultVolumeTiers = []VolumeTier{
	{MinItems: 500, Percent: decimal.NewFromInt(5)},
	{MinItems: 200, Percent: decimal.NewFromInt(3)},
	{MinItems: 100, Percent: decimal.NewFromInt(2)},
}

// Breakdown is the priced summary of a cart.
type Breakdown struct {
	TotalItems int
	// Subtotal is the sum of line totals, tier prices already applied.
	Subtotal decimal.Decimal
	// ItemizedDiscount is what tier pricing saved against base prices.
	ItemizedDiscount decimal.Decimal
	// AdditionalRate is the percent of the volume tier applied, zero if none.
	AdditionalRate     decimal.Decimal
	AdditionalDiscount decimal.Decimal
	FinalTotal         decimal.Decimal
	TotalDiscount      decimal.Decimal
	// DiscountPercentage relates TotalDiscount to the cart priced entirely at
	// base prices.
	DiscountPercentage decimal.Decimal
}

// Calculate prices s with DefaultVolumeTiers.
func Calculate(s cart.State) Breakdown {
	return CalculateWith(s, DefaultVolumeTiers)
}

// CalculateWith prices s using the given volume tiers. It reads s only and
// always returns the same breakdown for the same state.
func CalculateWith(s cart.State, tiers []VolumeTier) Breakdown {
	b := Breakdown{
		Subtotal:         zero,
		ItemizedDiscount: zero,
	}
	for _, l := range s.Lines {
		qty := decimal.NewFromInt(int64(l.Quantity))

		b.TotalItems += l.Quantity
		b.Subtotal = b.Subtotal.Add(l.LineTotal)
		b.ItemizedDiscount = b.ItemizedDiscount.Add(l.BasePrice.Mul(qty).Sub(l.LineTotal))
	}

	b.AdditionalRate = volumeRate(tiers, b.TotalItems)
	b.AdditionalDiscount = b.Subtotal.Mul(b.AdditionalRate).Div(hundred)
	b.FinalTotal = b.Subtotal.Sub(b.AdditionalDiscount)
	b.TotalDiscount = b.ItemizedDiscount.Add(b.AdditionalDiscount)

	b.DiscountPercentage = zero
	if full := b.Subtotal.Add(b.ItemizedDiscount); !full.IsZero() {
		b.DiscountPercentage = b.TotalDiscount.Div(full).Mul(hundred)
	}

	return b
}

// volumeRate returns the percent of the highest tier reached by totalItems.
// Tiers are not cumulative.
func volumeRate(tiers []VolumeTier, totalItems int) decimal.Decimal {
	best := -1
	for i, t := range tiers {
		if totalItems < t.MinItems {
			continue
		}
		if best < 0 || t.MinItems > tiers[best].MinItems {
			best = i
		}
	}
	if best < 0 {
		return zero
	}
	return tiers[best].Percent
}
