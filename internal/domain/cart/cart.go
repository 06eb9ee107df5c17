package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/xenking/swag-kart/internal/domain/catalog"
)

// MaxQuantity is the largest quantity a single line can hold. Commands clamp
// to it and ValidateLines rejects persisted lines above it.
const MaxQuantity = 1_000_000

// Identity decides whether two additions merge into one line.
type Identity struct {
	ID    int
	Color string
	Size  string
}

// LineItem is one cart entry: a copy of the catalog item taken when it was
// added, the selected variant and the priced quantity.
type LineItem struct {
	catalog.Item

	Quantity  int
	Color     string
	Size      string
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Identity returns the merge key of the line.
func (l LineItem) Identity() Identity {
	return Identity{ID: l.ID, Color: l.Color, Size: l.Size}
}

// State is an immutable cart snapshot. Aggregates are computed by NewState and
// always equal the reduction over Lines.
type State struct {
	Lines      []LineItem
	TotalItems int
	TotalPrice decimal.Decimal
}

// NewState builds a State over lines, computing the aggregates.
func NewState(lines []LineItem) State {
	s := State{
		Lines:      lines,
		TotalPrice: decimal.Zero,
	}
	for _, l := range lines {
		s.TotalItems += l.Quantity
		s.TotalPrice = s.TotalPrice.Add(l.LineTotal)
	}
	return s
}

// Empty reports whether the cart has no lines.
func (s State) Empty() bool {
	return len(s.Lines) == 0
}

// Clone returns a copy of s that shares no slices with s, including the
// slices of each line's item.
func (s State) Clone() State {
	s.Lines = slices.Clone(s.Lines)
	for i := range s.Lines {
		s.Lines[i].Item = s.Lines[i].Item.Clone()
	}
	return s
}

// Find returns the line with the given identity.
func (s State) Find(id Identity) (LineItem, bool) {
	for _, l := range s.Lines {
		if l.Identity() == id {
			return l, true
		}
	}
	return LineItem{}, false
}

func lineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}
