// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/gildedrose/internal/model"
)

// Store errors.
var (
	ErrNotFound    = errors.New("item not found")
	ErrInvalidID   = errors.New("invalid item ID")
	ErrNilItem     = errors.New("item cannot be nil")
	ErrInvalidDays = errors.New("days must be between 1 and 365")
)

// MaxAdvanceDays bounds a single Advance call.
const MaxAdvanceDays = 365

// Store defines the operations on the shop inventory.
type Store interface {
	// List returns all items in inventory order.
	List(ctx context.Context) ([]model.StockItem, error)

	// Get retrieves an item by its ID.
	Get(ctx context.Context, id string) (*model.StockItem, error)

	// Create hands a new item to the inventory and returns it with a generated ID.
	Create(ctx context.Context, item *model.Item) (*model.StockItem, error)

	// Delete removes an item from the inventory by its ID.
	Delete(ctx context.Context, id string) error

	// Advance ages the whole inventory by the given number of days.
	Advance(ctx context.Context, days int) (*model.DayReport, error)

	// Day returns how many days have elapsed since the store was created.
	Day(ctx context.Context) (int, error)

	// Report returns the day counter and the items as one consistent view.
	Report(ctx context.Context) (*model.DayReport, error)
}
