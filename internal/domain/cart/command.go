package cart

import (
	"slices"

	"github.com/xenking/swag-kart/internal/domain/catalog"
	"github.com/xenking/swag-kart/internal/domain/pricing"
)

// Command is a cart mutation. The set of commands is closed.
type Command interface {
	// Name identifies the command kind in logs and metrics.
	Name() string

	command()
}

// AddItem adds Quantity units of Item with the selected variant, merging into
// an existing line of the same identity.
type AddItem struct {
	Item     catalog.Item
	Quantity int
	Color    string
	Size     string
}

// UpdateQuantity sets the quantity of every line of catalog item ID. A
// non-positive quantity removes the lines.
type UpdateQuantity struct {
	ID       int
	Quantity int
}

// RemoveItem drops every line of catalog item ID.
type RemoveItem struct {
	ID int
}

// Clear empties the cart.
type Clear struct{}

// Load replaces the cart contents wholesale, typically from storage.
type Load struct {
	Lines []LineItem
}

func (AddItem) Name() string        { return "add_item" }
func (UpdateQuantity) Name() string { return "update_quantity" }
func (RemoveItem) Name() string     { return "remove_item" }
func (Clear) Name() string          { return "clear" }
func (Load) Name() string           { return "load" }

func (AddItem) command()        {}
func (UpdateQuantity) command() {}
func (RemoveItem) command()     {}
func (Clear) command()          {}
func (Load) command()           {}

// Reduce applies cmd to s and returns the next state. It never modifies s.
// An AddItem with a non-positive quantity leaves the state unchanged. Line
// quantities are clamped to MaxQuantity.
func Reduce(s State, cmd Command) State {
	switch c := cmd.(type) {
	case AddItem:
		return reduceAdd(s, c)
	case UpdateQuantity:
		if c.Quantity <= 0 {
			return Reduce(s, RemoveItem{ID: c.ID})
		}
		return reduceUpdate(s, c)
	case RemoveItem:
		return reduceRemove(s, c)
	case Clear:
		return NewState(nil)
	case Load:
		return NewState(slices.Clone(c.Lines))
	default:
		return s
	}
}

func reduceAdd(s State, c AddItem) State {
	if c.Quantity <= 0 {
		return s
	}

	key := Identity{ID: c.Item.ID, Color: c.Color, Size: c.Size}
	lines := slices.Clone(s.Lines)

	idx := slices.IndexFunc(lines, func(l LineItem) bool { return l.Identity() == key })
	if idx >= 0 {
		// Price the merged quantity, not only the added units.
		line := lines[idx]
		line.Quantity = min(line.Quantity+min(c.Quantity, MaxQuantity), MaxQuantity)
		line.UnitPrice = pricing.UnitPrice(line.Item, line.Quantity)
		line.LineTotal = lineTotal(line.UnitPrice, line.Quantity)
		lines[idx] = line
		return NewState(lines)
	}

	qty := min(c.Quantity, MaxQuantity)
	unit := pricing.UnitPrice(c.Item, qty)
	lines = append(lines, LineItem{
		Item:      c.Item.Clone(),
		Quantity:  qty,
		Color:     c.Color,
		Size:      c.Size,
		UnitPrice: unit,
		LineTotal: lineTotal(unit, qty),
	})
	return NewState(lines)
}

func reduceUpdate(s State, c UpdateQuantity) State {
	lines := slices.Clone(s.Lines)
	for i, line := range lines {
		if line.ID != c.ID {
			continue
		}
		line.Quantity = min(c.Quantity, MaxQuantity)
		line.UnitPrice = pricing.UnitPrice(line.Item, line.Quantity)
		line.LineTotal = lineTotal(line.UnitPrice, line.Quantity)
		lines[i] = line
	}
	return NewState(lines)
}

func reduceRemove(s State, c RemoveItem) State {
	if !slices.ContainsFunc(s.Lines, func(l LineItem) bool { return l.ID == c.ID }) {
		return s
	}
	lines := slices.DeleteFunc(slices.Clone(s.Lines), func(l LineItem) bool { return l.ID == c.ID })
	return NewState(lines)
}
