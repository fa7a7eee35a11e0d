package catalog

import (
	"github.com/shopspring/decimal"
)

// Catalog is an immutable, indexed snapshot of the product list.
// Patching returns a new snapshot so readers never observe a half-applied update.
type Catalog struct {
	revision uint64
	order    []string
	byID     map[string]Product
}

// New indexes products. Later duplicates of an id replace earlier ones.
func New(revision uint64, products []Product) *Catalog {
	c := &Catalog{
		revision: revision,
		order:    make([]string, 0, len(products)),
		byID:     make(map[string]Product, len(products)),
	}
	for _, p := range products {
		if _, seen := c.byID[p.ID]; !seen {
			c.order = append(c.order, p.ID)
		}
		c.byID[p.ID] = p
	}
	return c
}

// Empty is the catalog before the first fetch resolves.
func Empty() *Catalog {
	return New(0, nil)
}

func (c *Catalog) Revision() uint64 {
	if c == nil {
		return 0
	}
	return c.revision
}

// Lookup resolves a product by id. A nil catalog resolves nothing.
func (c *Catalog) Lookup(id string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	p, ok := c.byID[id]
	return p, ok
}

// Products returns the products in server order.
func (c *Catalog) Products() []Product {
	if c == nil {
		return nil
	}
	out := make([]Product, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// With returns a copy of the catalog where p replaces (or is appended as) the product with p.ID.
func (c *Catalog) With(revision uint64, p Product) *Catalog {
	products := c.Products()
	replaced := false
	for i := range products {
		if products[i].ID == p.ID {
			products[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		products = append(products, p)
	}
	return New(revision, products)
}

// RegionTable maps region name to its base shipping fee.
type RegionTable map[string]decimal.Decimal

// NewRegionTable indexes regions by name.
func NewRegionTable(regions []Region) RegionTable {
	t := make(RegionTable, len(regions))
	for _, r := range regions {
		t[r.Name] = r.Fee
	}
	return t
}

// Fee returns the region's base fee, or zero when the region is unknown.
func (t RegionTable) Fee(region string) decimal.Decimal {
	if fee, ok := t[region]; ok {
		return fee
	}
	return decimal.Zero
}
