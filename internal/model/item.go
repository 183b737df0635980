// Package model defines data structures used throughout the application.
package model

import (
	"errors"
	"time"
)

// Validation errors for Item.
var (
	ErrEmptyName   = errors.New("name cannot be empty")
	ErrNameTooLong = errors.New("name cannot exceed 255 characters")
)

// MaxNameLength bounds item names accepted over the API.
const MaxNameLength = 255

// Reserved item names. Any other name is a normal item.
const (
	NameAgedBrie      = "Aged Brie"
	NameSulfuras      = "Sulfuras, Hand of Ragnaros"
	NameBackstagePass = "Backstage passes to a TAFKAL80ETC concert"
)

// Category selects the update rule applied to an item.
type Category int

// Item categories. CategoryUnknown is the zero value and marks an item
// whose category has not been derived from its name yet.
const (
	CategoryUnknown Category = iota
	CategoryNormal
	CategoryAgedBrie
	CategoryLegendary
	CategoryBackstagePass
)

// String returns the lowercase category label used in logs and metrics.
func (c Category) String() string {
	switch c {
	case CategoryNormal:
		return "normal"
	case CategoryAgedBrie:
		return "aged_brie"
	case CategoryLegendary:
		return "legendary"
	case CategoryBackstagePass:
		return "backstage_pass"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognized labels
// decode to CategoryUnknown so the engine re-derives the category from the name.
func (c *Category) UnmarshalText(text []byte) error {
	switch string(text) {
	case "normal":
		*c = CategoryNormal
	case "aged_brie":
		*c = CategoryAgedBrie
	case "legendary":
		*c = CategoryLegendary
	case "backstage_pass":
		*c = CategoryBackstagePass
	default:
		*c = CategoryUnknown
	}
	return nil
}

// CategoryOf maps an item name to its category by exact match.
func CategoryOf(name string) Category {
	switch name {
	case NameAgedBrie:
		return CategoryAgedBrie
	case NameSulfuras:
		return CategoryLegendary
	case NameBackstagePass:
		return CategoryBackstagePass
	default:
		return CategoryNormal
	}
}

// Item is a single stocked good. SellIn and Quality are mutated in place
// by the inventory engine; Name never changes after creation.
type Item struct {
	Name     string   `json:"name"`
	SellIn   int      `json:"sell_in"`
	Quality  int      `json:"quality"`
	Category Category `json:"category"`
}

// NewItem creates an item with its category derived from name.
// No range checks are made on sellIn or quality.
func NewItem(name string, sellIn, quality int) *Item {
	return &Item{
		Name:     name,
		SellIn:   sellIn,
		Quality:  quality,
		Category: CategoryOf(name),
	}
}

// Validate checks the item name. SellIn and Quality are deliberately
// left unchecked: an out-of-range starting quality is accepted as given.
func (i *Item) Validate() error {
	if i.Name == "" {
		return ErrEmptyName
	}

	if len(i.Name) > MaxNameLength {
		return ErrNameTooLong
	}

	return nil
}

// StockItem is an item as held by the store, with its identifier.
type StockItem struct {
	ID      string    `json:"id"`
	AddedAt time.Time `json:"added_at"`
	Item
}

// DayReport summarizes the inventory after one or more days advanced.
type DayReport struct {
	Day      int         `json:"day"`
	Advanced int         `json:"advanced"`
	Expired  int         `json:"expired"`
	Items    []StockItem `json:"items"`
}

// APIResponse is a generic wrapper for API responses.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewSuccessResponse creates a successful API response.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error API response.
func NewErrorResponse[T any](errMsg string) APIResponse[T] {
	return APIResponse[T]{
		Success: false,
		Error:   errMsg,
	}
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// WebSocketMessage represents a message sent over WebSocket connection.
type WebSocketMessage struct {
	Type      string     `json:"type"`
	Report    *DayReport `json:"report,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// WebSocket message types.
const (
	WSMessageTypeSnapshot    = "snapshot"
	WSMessageTypeDayAdvanced = "day_advanced"
	WSMessageTypeError       = "error"
)

// NewDayAdvancedMessage creates a WebSocket message announcing a new day.
func NewDayAdvancedMessage(report DayReport) WebSocketMessage {
	return WebSocketMessage{
		Type:      WSMessageTypeDayAdvanced,
		Report:    &report,
		Timestamp: time.Now().UTC(),
	}
}

// NewSnapshotMessage creates a WebSocket message with the current inventory.
func NewSnapshotMessage(report DayReport) WebSocketMessage {
	return WebSocketMessage{
		Type:      WSMessageTypeSnapshot,
		Report:    &report,
		Timestamp: time.Now().UTC(),
	}
}
