package catalog

import (
	"fmt"
	"slices"
	"sort"

	"github.com/shopspring/decimal"
)

// Status is the availability status of a catalog item.
type Status string

const (
	// StatusActive marks an item that can be ordered.
	StatusActive Status = "active"
	// StatusInactive marks an item withdrawn from sale.
	StatusInactive Status = "inactive"
	// StatusPending marks an item that is listed but not yet orderable.
	StatusPending Status = "pending"
)

// PriceBreak is a quantity tier: at MinQty units or more, each unit costs Price.
type PriceBreak struct {
	MinQty int
	Price  decimal.Decimal
}

// Item represents a catalog entry available for quoting.
type Item struct {
	ID          int
	Name        string
	SKU         string
	Category    string
	Supplier    string
	Description string
	Image       string
	BasePrice   decimal.Decimal
	Stock       int
	Status      Status
	PriceBreaks []PriceBreak
	Colors      []string
	Sizes       []string
	Features    []string
}

// Available reports whether the item may be added to a cart. The cart store
// itself does not check this; callers are expected to.
func (i Item) Available() bool {
	return i.Status == StatusActive && i.Stock > 0
}

// HasColor reports whether color is one of the item's offered colors. Items
// without color variants accept only the empty selection.
func (i Item) HasColor(color string) bool {
	return hasVariant(i.Colors, color)
}

// HasSize reports whether size is one of the item's offered sizes.
func (i Item) HasSize(size string) bool {
	return hasVariant(i.Sizes, size)
}

// Clone returns a copy of i that shares no slices with it.
func (i Item) Clone() Item {
	i.PriceBreaks = slices.Clone(i.PriceBreaks)
	i.Colors = slices.Clone(i.Colors)
	i.Sizes = slices.Clone(i.Sizes)
	i.Features = slices.Clone(i.Features)
	return i
}

func hasVariant(offered []string, v string) bool {
	if v == "" {
		return true
	}
	return slices.Contains(offered, v)
}

// NotFoundError indicates a requested item does not exist in the catalog.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("catalog item %d not found", e.ID)
}

// InvalidItemError indicates a catalog record that cannot be priced.
type InvalidItemError struct {
	ID     int
	Reason string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("invalid catalog item %d: %s", e.ID, e.Reason)
}

// DuplicateItemError indicates two catalog records share the same ID.
type DuplicateItemError struct {
	ID int
}

func (e *DuplicateItemError) Error() string {
	return fmt.Sprintf("duplicate catalog item id %d", e.ID)
}

// Catalog is a read-only, ordered set of items supplied once at startup.
type Catalog struct {
	items []Item
	byID  map[int]int
}

// New builds a Catalog from items, preserving their order. Price breaks are
// copied and sorted ascending by MinQty.
func New(items []Item) (*Catalog, error) {
	c := &Catalog{
		items: make([]Item, 0, len(items)),
		byID:  make(map[int]int, len(items)),
	}
	for _, it := range items {
		if _, ok := c.byID[it.ID]; ok {
			return nil, &DuplicateItemError{ID: it.ID}
		}
		if err := checkPricing(it); err != nil {
			return nil, err
		}
		it = it.Clone()
		sort.SliceStable(it.PriceBreaks, func(a, b int) bool {
			return it.PriceBreaks[a].MinQty < it.PriceBreaks[b].MinQty
		})
		c.byID[it.ID] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

// Len returns the number of items in the catalog.
func (c *Catalog) Len() int {
	return len(c.items)
}

// List returns copies of all items in catalog order.
func (c *Catalog) List() []Item {
	out := make([]Item, len(c.items))
	for i, it := range c.items {
		out[i] = it.Clone()
	}
	return out
}

// Get returns a copy of the item with the given ID.
func (c *Catalog) Get(id int) (Item, error) {
	idx, ok := c.byID[id]
	if !ok {
		return Item{}, &NotFoundError{ID: id}
	}
	return c.items[idx].Clone(), nil
}

// Categories returns the distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	return c.distinct(func(it Item) string { return it.Category })
}

// Suppliers returns the distinct suppliers in first-seen order.
func (c *Catalog) Suppliers() []string {
	return c.distinct(func(it Item) string { return it.Supplier })
}

func (c *Catalog) distinct(field func(Item) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, it := range c.items {
		v := field(it)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func checkPricing(it Item) error {
	if it.BasePrice.IsNegative() {
		return &InvalidItemError{ID: it.ID, Reason: "negative base price"}
	}
	for i, b := range it.PriceBreaks {
		if b.MinQty <= 0 {
			return &InvalidItemError{ID: it.ID, Reason: fmt.Sprintf("price break %d has non-positive minimum quantity %d", i, b.MinQty)}
		}
		if b.Price.IsNegative() {
			return &InvalidItemError{ID: it.ID, Reason: fmt.Sprintf("price break %d has negative price %s", i, b.Price)}
		}
	}
	return nil
}
