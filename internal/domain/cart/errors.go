package cart

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrNoSavedCart is returned by Storage.Load when the slot holds nothing.
var ErrNoSavedCart = errors.New("no saved cart")

// InvalidQuantityError indicates a quantity outside 1..MaxQuantity was given
// on add.
type InvalidQuantityError struct {
	ItemID   int
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	if e.Quantity > MaxQuantity {
		return fmt.Sprintf("quantity must not exceed %d for item %d, got %d", MaxQuantity, e.ItemID, e.Quantity)
	}
	return fmt.Sprintf("quantity must be greater than 0 for item %d, got %d", e.ItemID, e.Quantity)
}

// CorruptCartError indicates persisted cart data that commands could not have
// produced.
type CorruptCartError struct {
	// Line is the zero-based index of the offending line, or -1 when the
	// payload itself is malformed.
	Line   int
	Reason string
	Err    error
}

func (e *CorruptCartError) Error() string {
	msg := "corrupt cart"
	if e.Line >= 0 {
		msg = fmt.Sprintf("corrupt cart line %d", e.Line)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CorruptCartError) Unwrap() error {
	return e.Err
}
