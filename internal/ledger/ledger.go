// Package ledger owns the mutable line items of an invoice draft and derives
// their subtotal.
package ledger

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultQuantity  = 1
	DefaultUnitPrice = "0"
)

// LineItem is one billable entry. UnitPrice is kept as text so partial input
// such as "12." survives until the amount is computed.
type LineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   string  `json:"unit_price"`
}

// HasDescription reports whether the description is non-empty after trimming.
func (it LineItem) HasDescription() bool {
	return strings.TrimSpace(it.Description) != ""
}

// Billable reports whether the item has a description and a positive quantity.
func (it LineItem) Billable() bool {
	return it.HasDescription() && Quantity(it.Quantity) > 0
}

// Amount returns quantity × unit price with both operands coerced.
func (it LineItem) Amount() float64 {
	return Quantity(it.Quantity) * Price(it.UnitPrice)
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Description *string  `json:"description"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *string  `json:"unit_price"`
}

// IDGenerator supplies identifiers unique within one ledger.
type IDGenerator func() string

// Ledger is an ordered, id-indexed collection of line items. It always holds
// at least one item.
type Ledger struct {
	order []string
	items map[string]*LineItem
	genID IDGenerator
}

// New returns a ledger seeded with one blank item.
func New(genID IDGenerator) *Ledger {
	if genID == nil {
		genID = NewULID
	}
	l := &Ledger{
		items: make(map[string]*LineItem),
		genID: genID,
	}
	l.AddItem()
	return l
}

// AddItem appends a blank item and returns a copy of it.
func (l *Ledger) AddItem() LineItem {
	id := l.genID()
	for {
		if _, dup := l.items[id]; !dup {
			break
		}
		id = l.genID()
	}
	item := &LineItem{
		ID:        id,
		Quantity:  DefaultQuantity,
		UnitPrice: DefaultUnitPrice,
	}
	l.items[id] = item
	l.order = append(l.order, id)
	return *item
}

// RemoveItem deletes the item with the given id. Removing the last remaining
// item or an unknown id does nothing. It reports whether an item was removed.
func (l *Ledger) RemoveItem(id string) bool {
	if len(l.order) <= 1 {
		return false
	}
	if _, ok := l.items[id]; !ok {
		return false
	}
	delete(l.items, id)
	for i, existing := range l.order {
		if existing == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return true
}

// UpdateItem merges the patch into the item with the given id. Values are
// stored as given; coercion happens when amounts are computed.
func (l *Ledger) UpdateItem(id string, p Patch) (LineItem, bool) {
	item, ok := l.items[id]
	if !ok {
		return LineItem{}, false
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.UnitPrice != nil {
		item.UnitPrice = *p.UnitPrice
	}
	return *item, true
}

// Get returns a copy of the item with the given id.
func (l *Ledger) Get(id string) (LineItem, bool) {
	item, ok := l.items[id]
	if !ok {
		return LineItem{}, false
	}
	return *item, true
}

// Len returns the number of items.
func (l *Ledger) Len() int {
	return len(l.order)
}

// Items returns copies of all items in insertion order.
func (l *Ledger) Items() []LineItem {
	out := make([]LineItem, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.items[id])
	}
	return out
}

// Described returns copies of the items whose description is not blank.
func (l *Ledger) Described() []LineItem {
	out := make([]LineItem, 0, len(l.order))
	for _, id := range l.order {
		if item := l.items[id]; item.HasDescription() {
			out = append(out, *item)
		}
	}
	return out
}

// HasBillableItem reports whether any item has a description and a positive quantity.
func (l *Ledger) HasBillableItem() bool {
	for _, id := range l.order {
		if l.items[id].Billable() {
			return true
		}
	}
	return false
}

// Subtotal sums quantity × unit price over every item.
func (l *Ledger) Subtotal() float64 {
	return Subtotal(l.Items())
}

// Subtotal sums the coerced amounts of items. Unparseable or non-finite
// operands count as zero.
func Subtotal(items []LineItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Amount()
	}
	return sum
}

// Quantity coerces a quantity: anything that is not a finite positive number is zero.
func Quantity(q float64) float64 {
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return 0
	}
	return q
}

// Price parses a unit price. Blank, unparseable and non-finite input is zero.
func Price(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
