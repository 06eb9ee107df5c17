package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xenking/swag-kart/internal/domain/catalog"
)

// Storage persists cart lines in named slots.
type Storage interface {
	// Load returns the lines saved in slot, ErrNoSavedCart when the slot is
	// empty, or *CorruptCartError when the saved data cannot be decoded.
	Load(ctx context.Context, slot string) ([]LineItem, error)
	// Save replaces the contents of slot with lines.
	Save(ctx context.Context, slot string, lines []LineItem) error
}

// ValidateLines checks that lines could have been produced by cart commands.
func ValidateLines(lines []LineItem) error {
	seen := make(map[Identity]struct{}, len(lines))
	for i, l := range lines {
		var reason string
		switch {
		case l.ID == 0:
			reason = "missing item id"
		case l.Quantity <= 0:
			reason = fmt.Sprintf("quantity %d is not positive", l.Quantity)
		case l.Quantity > MaxQuantity:
			reason = fmt.Sprintf("quantity %d exceeds %d", l.Quantity, MaxQuantity)
		case l.UnitPrice.IsNegative():
			reason = "negative unit price"
		case l.BasePrice.IsNegative():
			reason = "negative base price"
		case !l.LineTotal.Equal(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))):
			reason = fmt.Sprintf("line total %s does not match %s x %d", l.LineTotal, l.UnitPrice, l.Quantity)
		default:
			reason = priceBreaksReason(l.PriceBreaks)
		}
		if reason == "" {
			if _, dup := seen[l.Identity()]; dup {
				reason = "duplicate line identity"
			}
		}
		if reason != "" {
			return &CorruptCartError{Line: i, Reason: reason}
		}
		seen[l.Identity()] = struct{}{}
	}
	return nil
}

// priceBreaksReason explains the first break that pricing could not use, or
// returns "".
func priceBreaksReason(breaks []catalog.PriceBreak) string {
	for j, b := range breaks {
		switch {
		case b.MinQty <= 0:
			return fmt.Sprintf("price break %d has non-positive minimum quantity %d", j, b.MinQty)
		case b.Price.IsNegative():
			return fmt.Sprintf("price break %d has negative price %s", j, b.Price)
		}
	}
	return ""
}
