// Package inventory implements the nightly update of the item stock.
//
// An Inventory owns an ordered list of items. Each call to AdvanceOneDay
// ages every item by exactly one day according to its category:
//
//   - quality is adjusted using the sell-in before it is decremented,
//   - sell-in is decremented,
//   - if sell-in just became negative, a post-expiry correction applies.
//
// Legendary items are never touched. The type holds no lock and is meant
// to be driven from a single goroutine.
package inventory

import "github.com/vyrodovalexey/gildedrose/internal/model"

// Inventory is the update engine over an owned, ordered item list.
type Inventory struct {
	items []*model.Item
}

// New takes ownership of items. Items whose category is still unknown get
// it derived from their name here, once.
func New(items []*model.Item) *Inventory {
	if items == nil {
		items = make([]*model.Item, 0)
	}
	for _, item := range items {
		classify(item)
	}
	return &Inventory{items: items}
}

// Items returns the owned item list. The list never grows, shrinks or
// reorders; elements are updated in place, so a caller holding the slice
// observes every subsequent day. Stock changes are made by building a new
// Inventory.
func (inv *Inventory) Items() []*model.Item {
	return inv.items
}

// Len returns the number of owned items.
func (inv *Inventory) Len() int {
	return len(inv.items)
}

// AdvanceOneDay ages every owned item by one day, in order.
func (inv *Inventory) AdvanceOneDay() {
	for _, item := range inv.items {
		if item == nil {
			continue
		}
		item.SellIn, item.Quality = Next(item.Category, item.SellIn, item.Quality)
	}
}

func classify(item *model.Item) {
	if item != nil && item.Category == model.CategoryUnknown {
		item.Category = model.CategoryOf(item.Name)
	}
}
