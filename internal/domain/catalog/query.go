package catalog

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// SortKey selects the ordering of query results.
type SortKey string

const (
	// SortByName orders by name, case-insensitively.
	SortByName SortKey = "name"
	// SortByPrice orders by base price, cheapest first.
	SortByPrice SortKey = "price"
	// SortByStock orders by stock, largest first.
	SortByStock SortKey = "stock"
)

// AllCategories matches every category.
const AllCategories = "all"

// Query filters and orders catalog items. Zero values match everything.
type Query struct {
	Category string
	// Search matches name or SKU, case-insensitively.
	Search   string
	Supplier string
	// MinPrice and MaxPrice bound the base price inclusively; nil leaves the
	// bound open.
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     SortKey
}

// Query returns the items matching q in the requested order. An unknown sort
// key keeps catalog order.
func (c *Catalog) Query(q Query) []Item {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		if q.Category != "" && q.Category != AllCategories && it.Category != q.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(it.Name), search) &&
			!strings.Contains(strings.ToLower(it.SKU), search) {
			continue
		}
		if q.Supplier != "" && it.Supplier != q.Supplier {
			continue
		}
		if q.MinPrice != nil && it.BasePrice.LessThan(*q.MinPrice) {
			continue
		}
		if q.MaxPrice != nil && it.BasePrice.GreaterThan(*q.MaxPrice) {
			continue
		}
		out = append(out, it.Clone())
	}

	switch q.Sort {
	case SortByName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	case SortByPrice:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].BasePrice.LessThan(out[j].BasePrice)
		})
	case SortByStock:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Stock > out[j].Stock
		})
	}

	return out
}
