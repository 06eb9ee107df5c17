package quote

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xenking/swag-kart/internal/domain/cart"
	"github.com/xenking/swag-kart/internal/domain/catalog"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// line builds a priced line the way the cart store would.
func line(id int, base, unit string, qty int) cart.LineItem {
	u := d(unit)
	return cart.LineItem{
		Item: catalog.Item{
			ID:        id,
			Name:      "item",
			SKU:       "SKU",
			BasePrice: d(base),
			Status:    catalog.StatusActive,
		},
		Quantity:  qty,
		UnitPrice: u,
		LineTotal: u.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestCalculate_EmptyCart(t *testing.T) {
	b := Calculate(cart.NewState(nil))

	assert.Zero(t, b.TotalItems)
	assertDec(t, "0", b.Subtotal, "subtotal")
	assertDec(t, "0", b.ItemizedDiscount, "itemized")
	assertDec(t, "0", b.AdditionalDiscount, "additional")
	assertDec(t, "0", b.FinalTotal, "final")
	assertDec(t, "0", b.DiscountPercentage, "percentage")
}

func TestCalculate_VolumeTiers(t *testing.T) {
	tests := []struct {
		name       string
		lines      []cart.LineItem
		rate       string
		additional string
		final      string
	}{
		{
			name:       "150 items takes the 2% bracket",
			lines:      []cart.LineItem{line(1, "5000", "5000", 100), line(2, "10000", "10000", 50)},
			rate:       "2",
			additional: "20000",
			final:      "980000",
		},
		{
			name:       "exactly 500 items takes 5%",
			lines:      []cart.LineItem{line(1, "1000", "1000", 500)},
			rate:       "5",
			additional: "25000",
			final:      "475000",
		},
		{
			name:       "499 items takes 3%",
			lines:      []cart.LineItem{line(1, "1000", "1000", 499)},
			rate:       "3",
			additional: "14970",
			final:      "484030",
		},
		{
			name:       "exactly 200 items takes 3%",
			lines:      []cart.LineItem{line(1, "1000", "1000", 200)},
			rate:       "3",
			additional: "6000",
			final:      "194000",
		},
		{
			name:       "exactly 100 items takes 2%",
			lines:      []cart.LineItem{line(1, "1000", "1000", 60), line(2, "500", "500", 40)},
			rate:       "2",
			additional: "1600",
			final:      "78400",
		},
		{
			name:       "99 items has no volume discount",
			lines:      []cart.LineItem{line(1, "1000", "1000", 99)},
			rate:       "0",
			additional: "0",
			final:      "99000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Calculate(cart.NewState(tt.lines))

			assertDec(t, tt.rate, b.AdditionalRate, "rate")
			assertDec(t, tt.additional, b.AdditionalDiscount, "additional")
			assertDec(t, tt.final, b.FinalTotal, "final")
			assertDec(t, tt.additional, b.TotalDiscount, "total discount")
		})
	}
}

func TestCalculate_ItemizedDiscount(t *testing.T) {
	s := cart.NewState([]cart.LineItem{
		line(1, "110", "90", 60),
		line(2, "50", "50", 4),
	})

	b := Calculate(s)

	assert.Equal(t, 64, b.TotalItems)
	assertDec(t, "5600", b.Subtotal, "subtotal")
	assertDec(t, "1200", b.ItemizedDiscount, "itemized")
	assertDec(t, "0", b.AdditionalDiscount, "additional")
	assertDec(t, "5600", b.FinalTotal, "final")
	assertDec(t, "1200", b.TotalDiscount, "total discount")
	// 1200 / (5600 + 1200) * 100
	assertDec(t, "17.65", b.DiscountPercentage.Round(2), "percentage")
}

func TestCalculate_CombinedDiscounts(t *testing.T) {
	s := cart.NewState([]cart.LineItem{line(1, "1000", "800", 250)})

	b := Calculate(s)

	assertDec(t, "200000", b.Subtotal, "subtotal")
	assertDec(t, "50000", b.ItemizedDiscount, "itemized")
	assertDec(t, "6000", b.AdditionalDiscount, "additional")
	assertDec(t, "194000", b.FinalTotal, "final")
	assertDec(t, "56000", b.TotalDiscount, "total discount")
	assertDec(t, "22.4", b.DiscountPercentage, "percentage")
}

func TestCalculate_ZeroPricedCart(t *testing.T) {
	b := Calculate(cart.NewState([]cart.LineItem{line(1, "0", "0", 3)}))

	assert.Equal(t, 3, b.TotalItems)
	assertDec(t, "0", b.DiscountPercentage, "percentage")
}

func TestCalculate_Idempotent(t *testing.T) {
	s := cart.NewState([]cart.LineItem{line(1, "110", "90", 60), line(2, "1000", "1000", 150)})

	first := Calculate(s)
	second := Calculate(s)

	assert.Equal(t, first, second)
	assert.Len(t, s.Lines, 2)
}

func TestCalculateWith_CustomTiers(t *testing.T) {
	tiers := []VolumeTier{
		{MinItems: 10, Percent: d("1")},
		{MinItems: 20, Percent: d("10")},
	}
	s := cart.NewState([]cart.LineItem{line(1, "100", "100", 25)})

	b := CalculateWith(s, tiers)

	assertDec(t, "10", b.AdditionalRate, "rate")
	assertDec(t, "250", b.AdditionalDiscount, "additional")

	b = CalculateWith(s, nil)
	assertDec(t, "0", b.AdditionalDiscount, "no tiers")
}
