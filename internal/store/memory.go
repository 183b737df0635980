package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/gildedrose/internal/inventory"
	"github.com/vyrodovalexey/gildedrose/internal/model"
)

// AdvanceListener is notified after every successful Advance.
type AdvanceListener func(report model.DayReport)

type entry struct {
	id      string
	addedAt time.Time
	item    *model.Item
}

// MemoryStore implements Store on top of an in-memory inventory engine.
// The engine itself is not safe for concurrent use; MemoryStore serializes
// every access to it.
type MemoryStore struct {
	// advanceMu orders whole advances, notification included, so listeners
	// see days in increasing order. It is taken before mu.
	advanceMu sync.Mutex
	mu        sync.RWMutex
	inventory *inventory.Inventory
	entries   []entry
	byID      map[string]int
	day       int
	logger    *zap.Logger
	listeners []AdvanceListener
}

// NewMemoryStore creates a MemoryStore that takes ownership of items.
func NewMemoryStore(items []*model.Item, logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &MemoryStore{
		entries: make([]entry, 0, len(items)),
		byID:    make(map[string]int, len(items)),
		logger:  logger,
	}

	for _, item := range items {
		if item != nil {
			s.add(item)
		}
	}
	s.rebuild()
	observeInventory(s.inventory.Items(), s.day)

	return s
}

// OnAdvance registers a listener called after each Advance. Listeners run
// outside the data lock but one advance at a time, in day order; they must
// not call Advance themselves.
func (s *MemoryStore) OnAdvance(l AdvanceListener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, l)
}

// List returns all items in inventory order.
func (s *MemoryStore) List(ctx context.Context) ([]model.StockItem, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list items: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot(), nil
}

// Get retrieves an item by its ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*model.StockItem, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get item: %w", ctx.Err())
	default:
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, exists := s.byID[id]
	if !exists {
		return nil, ErrNotFound
	}

	stock := s.entries[idx].stock()
	return &stock, nil
}

// Create hands a copy of item to the inventory engine.
func (s *MemoryStore) Create(ctx context.Context, item *model.Item) (*model.StockItem, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create item: %w", ctx.Err())
	default:
	}

	if item == nil {
		return nil, fmt.Errorf("create item: %w", ErrNilItem)
	}

	owned := model.NewItem(item.Name, item.SellIn, item.Quality)

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.add(owned)
	s.rebuild()
	observeInventory(s.inventory.Items(), s.day)

	stock := e.stock()
	return &stock, nil
}

// Delete removes an item by its ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("delete item: %w", ctx.Err())
	default:
	}

	if id == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.byID[id]
	if !exists {
		return ErrNotFound
	}

	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	delete(s.byID, id)
	for i := idx; i < len(s.entries); i++ {
		s.byID[s.entries[i].id] = i
	}
	s.rebuild()
	observeInventory(s.inventory.Items(), s.day)

	return nil
}

// Advance runs the engine's daily update days times.
func (s *MemoryStore) Advance(ctx context.Context, days int) (*model.DayReport, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("advance inventory: %w", ctx.Err())
	default:
	}

	if days < 1 || days > MaxAdvanceDays {
		return nil, ErrInvalidDays
	}

	start := time.Now()

	s.advanceMu.Lock()
	defer s.advanceMu.Unlock()

	s.mu.Lock()
	for range days {
		s.inventory.AdvanceOneDay()
		s.day++
	}
	report := model.DayReport{
		Day:      s.day,
		Advanced: days,
		Expired:  countExpired(s.inventory.Items()),
		Items:    s.snapshot(),
	}
	observeInventory(s.inventory.Items(), s.day)
	listeners := append([]AdvanceListener(nil), s.listeners...)
	s.mu.Unlock()

	daysAdvancedTotal.Add(float64(days))
	advanceDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("inventory advanced",
		zap.Int("day", report.Day),
		zap.Int("days", days),
		zap.Int("items", len(report.Items)),
		zap.Int("expired", report.Expired),
	)

	for _, l := range listeners {
		l(report)
	}

	return &report, nil
}

// Day returns the number of days advanced so far.
func (s *MemoryStore) Day(ctx context.Context) (int, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("get day: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.day, nil
}

// Report returns the current day and items read under one lock.
func (s *MemoryStore) Report(ctx context.Context) (*model.DayReport, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get report: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return &model.DayReport{
		Day:     s.day,
		Expired: countExpired(s.inventory.Items()),
		Items:   s.snapshot(),
	}, nil
}

// add must be called with the write lock held or before the store is shared.
// The engine does not see the item until rebuild.
func (s *MemoryStore) add(item *model.Item) entry {
	e := entry{
		id:      uuid.New().String(),
		addedAt: time.Now().UTC(),
		item:    item,
	}
	s.byID[e.id] = len(s.entries)
	s.entries = append(s.entries, e)
	return e
}

// rebuild hands the current entries to a fresh engine. An engine's item
// list is fixed for its lifetime, so every stock change replaces it.
func (s *MemoryStore) rebuild() {
	items := make([]*model.Item, len(s.entries))
	for i, e := range s.entries {
		items[i] = e.item
	}
	s.inventory = inventory.New(items)
}

func (s *MemoryStore) snapshot() []model.StockItem {
	items := make([]model.StockItem, 0, len(s.entries))
	for _, e := range s.entries {
		items = append(items, e.stock())
	}
	return items
}

func (e entry) stock() model.StockItem {
	return model.StockItem{
		ID:      e.id,
		AddedAt: e.addedAt,
		Item:    *e.item,
	}
}

func countExpired(items []*model.Item) int {
	n := 0
	for _, item := range items {
		if item.Category != model.CategoryLegendary && item.SellIn < 0 {
			n++
		}
	}
	return n
}
