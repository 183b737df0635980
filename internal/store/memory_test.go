package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/gildedrose/internal/model"
)

func newTestStore(items ...*model.Item) *MemoryStore {
	return NewMemoryStore(items, zap.NewNop())
}

func TestNewMemoryStore(t *testing.T) {
	// Act
	store := newTestStore(model.NewItem("foo", 5, 10), nil, model.NewItem(model.NameAgedBrie, 2, 0))

	// Assert
	if store == nil {
		t.Fatal("NewMemoryStore() returned nil")
	}
	if store.byID == nil {
		t.Error("byID map should be initialized")
	}
	if len(store.entries) != 2 {
		t.Errorf("entries = %d, want 2 (nil item skipped)", len(store.entries))
	}
	if store.inventory.Len() != 2 {
		t.Errorf("inventory length = %d, want 2", store.inventory.Len())
	}
}

func TestNewMemoryStore_NilLogger(t *testing.T) {
	// Act
	store := NewMemoryStore(nil, nil)

	// Assert
	if store.logger == nil {
		t.Error("logger should default to a no-op logger")
	}
}

func TestMemoryStore_Create(t *testing.T) {
	tests := []struct {
		name         string
		item         *model.Item
		wantErr      bool
		wantCategory model.Category
	}{
		{
			name:         "normal item",
			item:         &model.Item{Name: "+5 Dexterity Vest", SellIn: 10, Quality: 20},
			wantCategory: model.CategoryNormal,
		},
		{
			name:         "aged brie",
			item:         &model.Item{Name: model.NameAgedBrie, SellIn: 2, Quality: 0},
			wantCategory: model.CategoryAgedBrie,
		},
		{
			name:         "category in input is ignored",
			item:         &model.Item{Name: model.NameSulfuras, Quality: 80, Category: model.CategoryNormal},
			wantCategory: model.CategoryLegendary,
		},
		{
			name:         "quality above 50 is kept",
			item:         &model.Item{Name: "foo", SellIn: 1, Quality: 75},
			wantCategory: model.CategoryNormal,
		},
		{
			name:    "nil item",
			item:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			store := newTestStore()
			ctx := context.Background()

			// Act
			created, err := store.Create(ctx, tt.item)

			// Assert
			if tt.wantErr {
				if !errors.Is(err, ErrNilItem) {
					t.Errorf("Create() error = %v, want %v", err, ErrNilItem)
				}
				return
			}

			if err != nil {
				t.Fatalf("Create() unexpected error: %v", err)
			}
			if created.ID == "" {
				t.Error("Create() should generate an ID")
			}
			if created.Name != tt.item.Name {
				t.Errorf("Name = %s, want %s", created.Name, tt.item.Name)
			}
			if created.SellIn != tt.item.SellIn {
				t.Errorf("SellIn = %d, want %d", created.SellIn, tt.item.SellIn)
			}
			if created.Quality != tt.item.Quality {
				t.Errorf("Quality = %d, want %d", created.Quality, tt.item.Quality)
			}
			if created.Category != tt.wantCategory {
				t.Errorf("Category = %v, want %v", created.Category, tt.wantCategory)
			}
			if created.AddedAt.IsZero() {
				t.Error("AddedAt should be set")
			}
		})
	}
}

func TestMemoryStore_Create_DoesNotAliasInput(t *testing.T) {
	// Arrange
	store := newTestStore()
	ctx := context.Background()
	input := &model.Item{Name: "foo", SellIn: 5, Quality: 10}

	// Act
	created, _ := store.Create(ctx, input)
	_, _ = store.Advance(ctx, 1)

	// Assert
	if input.SellIn != 5 || input.Quality != 10 {
		t.Errorf("input mutated to %+v", input)
	}
	got, _ := store.Get(ctx, created.ID)
	if got.SellIn != 4 || got.Quality != 9 {
		t.Errorf("stored item = (%d, %d), want (4, 9)", got.SellIn, got.Quality)
	}
}

func TestMemoryStore_Get(t *testing.T) {
	// Arrange
	store := newTestStore()
	ctx := context.Background()
	created, _ := store.Create(ctx, &model.Item{Name: "foo", SellIn: 5, Quality: 10})

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{name: "existing item", id: created.ID},
		{name: "non-existing item", id: "non-existent-id", wantErr: ErrNotFound},
		{name: "empty id", id: "", wantErr: ErrInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got, err := store.Get(ctx, tt.id)

			// Assert
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("Get() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("Get() unexpected error: %v", err)
			}
			if got.ID != created.ID {
				t.Errorf("ID = %s, want %s", got.ID, created.ID)
			}
		})
	}
}

func TestMemoryStore_List_PreservesOrder(t *testing.T) {
	// Arrange
	names := []string{"a", model.NameAgedBrie, "c", model.NameSulfuras, "e"}
	items := make([]*model.Item, 0, len(names))
	for _, n := range names {
		items = append(items, model.NewItem(n, 5, 5))
	}
	store := newTestStore(items...)

	// Act
	got, err := store.List(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(got) != len(names) {
		t.Fatalf("List() returned %d items, want %d", len(got), len(names))
	}
	for i, n := range names {
		if got[i].Name != n {
			t.Errorf("item %d = %s, want %s", i, got[i].Name, n)
		}
	}
}

func TestMemoryStore_List_ReturnsCopies(t *testing.T) {
	// Arrange
	store := newTestStore(model.NewItem("foo", 5, 10))
	ctx := context.Background()

	// Act
	items, _ := store.List(ctx)
	items[0].Quality = 0
	again, _ := store.List(ctx)

	// Assert
	if again[0].Quality != 10 {
		t.Errorf("Quality = %d, want 10", again[0].Quality)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	// Arrange
	store := newTestStore()
	ctx := context.Background()
	a, _ := store.Create(ctx, &model.Item{Name: "a", SellIn: 1, Quality: 1})
	b, _ := store.Create(ctx, &model.Item{Name: "b", SellIn: 1, Quality: 1})
	c, _ := store.Create(ctx, &model.Item{Name: "c", SellIn: 1, Quality: 1})

	// Act
	err := store.Delete(ctx, b.ID)

	// Assert
	if err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, b.ID); err != ErrNotFound {
		t.Errorf("Get() after delete error = %v, want %v", err, ErrNotFound)
	}
	gotC, err := store.Get(ctx, c.ID)
	if err != nil || gotC.Name != "c" {
		t.Errorf("Get(c) = %+v, %v", gotC, err)
	}
	items, _ := store.List(ctx)
	if len(items) != 2 || items[0].ID != a.ID || items[1].ID != c.ID {
		t.Errorf("List() after delete = %+v", items)
	}
	if store.inventory.Len() != 2 {
		t.Errorf("inventory length = %d, want 2", store.inventory.Len())
	}
	if err := store.Delete(ctx, b.ID); err != ErrNotFound {
		t.Errorf("second Delete() error = %v, want %v", err, ErrNotFound)
	}
	if err := store.Delete(ctx, ""); err != ErrInvalidID {
		t.Errorf("Delete(\"\") error = %v, want %v", err, ErrInvalidID)
	}
}

func TestMemoryStore_Advance(t *testing.T) {
	tests := []struct {
		name        string
		item        *model.Item
		days        int
		wantSellIn  int
		wantQuality int
	}{
		{"normal two days", model.NewItem("foo", 5, 10), 2, 3, 8},
		{"normal past date", model.NewItem("foo", 1, 10), 3, -2, 5},
		{"normal never negative", model.NewItem("foo", 1, 2), 3, -2, 0},
		{"aged brie", model.NewItem(model.NameAgedBrie, 1, 2), 3, -2, 7},
		{"aged brie capped", model.NewItem(model.NameAgedBrie, 2, 49), 3, -1, 50},
		{"sulfuras", model.NewItem(model.NameSulfuras, 0, 80), 3, 0, 80},
		{"backstage one day", model.NewItem(model.NameBackstagePass, 12, 20), 1, 11, 21},
		{"backstage four days", model.NewItem(model.NameBackstagePass, 12, 20), 4, 8, 26},
		{"backstage concert day", model.NewItem(model.NameBackstagePass, 12, 20), 12, 0, 47},
		{"backstage after concert", model.NewItem(model.NameBackstagePass, 12, 20), 13, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			store := newTestStore(tt.item)

			// Act
			report, err := store.Advance(context.Background(), tt.days)

			// Assert
			if err != nil {
				t.Fatalf("Advance() unexpected error: %v", err)
			}
			if report.Day != tt.days {
				t.Errorf("Day = %d, want %d", report.Day, tt.days)
			}
			if report.Advanced != tt.days {
				t.Errorf("Advanced = %d, want %d", report.Advanced, tt.days)
			}
			got := report.Items[0]
			if got.SellIn != tt.wantSellIn || got.Quality != tt.wantQuality {
				t.Errorf("item = (%d, %d), want (%d, %d)",
					got.SellIn, got.Quality, tt.wantSellIn, tt.wantQuality)
			}
		})
	}
}

func TestMemoryStore_Advance_InvalidDays(t *testing.T) {
	store := newTestStore()

	for _, days := range []int{-1, 0, MaxAdvanceDays + 1} {
		// Act
		report, err := store.Advance(context.Background(), days)

		// Assert
		if err != ErrInvalidDays {
			t.Errorf("Advance(%d) error = %v, want %v", days, err, ErrInvalidDays)
		}
		if report != nil {
			t.Errorf("Advance(%d) report should be nil", days)
		}
	}
}

func TestMemoryStore_Advance_CountsExpired(t *testing.T) {
	// Arrange
	store := newTestStore(
		model.NewItem("foo", 0, 10),
		model.NewItem(model.NameSulfuras, -1, 80),
		model.NewItem(model.NameAgedBrie, 3, 10),
	)

	// Act
	report, _ := store.Advance(context.Background(), 1)

	// Assert
	if report.Expired != 1 {
		t.Errorf("Expired = %d, want 1", report.Expired)
	}
}

func TestMemoryStore_OnAdvance(t *testing.T) {
	// Arrange
	store := newTestStore(model.NewItem("foo", 5, 10))
	var got []model.DayReport
	store.OnAdvance(func(r model.DayReport) {
		got = append(got, r)
	})

	// Act
	_, _ = store.Advance(context.Background(), 1)
	_, _ = store.Advance(context.Background(), 2)

	// Assert
	if len(got) != 2 {
		t.Fatalf("listener called %d times, want 2", len(got))
	}
	if got[0].Day != 1 || got[1].Day != 3 {
		t.Errorf("days = %d, %d, want 1, 3", got[0].Day, got[1].Day)
	}
}

func TestMemoryStore_Day(t *testing.T) {
	// Arrange
	store := newTestStore()
	ctx := context.Background()

	// Act
	_, _ = store.Advance(ctx, 4)
	day, err := store.Day(ctx)

	// Assert
	if err != nil {
		t.Fatalf("Day() unexpected error: %v", err)
	}
	if day != 4 {
		t.Errorf("Day() = %d, want 4", day)
	}
}

func TestMemoryStore_ContextCancellation(t *testing.T) {
	// Arrange
	store := newTestStore(model.NewItem("foo", 5, 10))
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	// Act & Assert
	if _, err := store.List(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("List() error = %v, want context.Canceled", err)
	}
	if _, err := store.Get(ctx, "id"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
	if _, err := store.Create(ctx, &model.Item{Name: "x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Create() error = %v, want context.Canceled", err)
	}
	if err := store.Delete(ctx, "id"); !errors.Is(err, context.Canceled) {
		t.Errorf("Delete() error = %v, want context.Canceled", err)
	}
	if _, err := store.Advance(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("Advance() error = %v, want context.Canceled", err)
	}
	if _, err := store.Day(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Day() error = %v, want context.Canceled", err)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	// Arrange
	store := newTestStore(model.NewItem(model.NameAgedBrie, 10, 0))
	ctx := context.Background()
	numGoroutines := 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	// Act
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			created, err := store.Create(ctx, &model.Item{Name: "foo", SellIn: 10, Quality: 10})
			if err != nil {
				return
			}
			_, _ = store.List(ctx)
			_, _ = store.Advance(ctx, 1)
			_, _ = store.Get(ctx, created.ID)
			_ = store.Delete(ctx, created.ID)
		}()
	}

	wg.Wait()

	// Assert
	day, _ := store.Day(ctx)
	if day != numGoroutines {
		t.Errorf("Day() = %d, want %d", day, numGoroutines)
	}
	items, _ := store.List(ctx)
	if len(items) != 1 {
		t.Fatalf("List() returned %d items, want 1", len(items))
	}
	if items[0].Quality != 50 {
		t.Errorf("brie quality = %d, want 50", items[0].Quality)
	}
}

func TestMemoryStore_AddedAt(t *testing.T) {
	// Arrange
	store := newTestStore()
	before := time.Now().UTC()

	// Act
	created, _ := store.Create(context.Background(), &model.Item{Name: "foo"})
	after := time.Now().UTC()

	// Assert
	if created.AddedAt.Before(before) || created.AddedAt.After(after) {
		t.Errorf("AddedAt = %v, should be between %v and %v", created.AddedAt, before, after)
	}
}

func TestMemoryStore_ImplementsInterface(t *testing.T) {
	var _ Store = (*MemoryStore)(nil)
}

func TestMemoryStore_DeleteThenAdvance(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := newTestStore()
	a, _ := store.Create(ctx, model.NewItem("a", 5, 10))
	b, _ := store.Create(ctx, model.NewItem("b", 5, 10))
	c, _ := store.Create(ctx, model.NewItem(model.NameAgedBrie, 5, 10))
	held := store.inventory.Items()

	// Act
	if err := store.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	report, err := store.Advance(ctx, 1)

	// Assert
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if len(report.Items) != 2 || report.Items[0].ID != a.ID || report.Items[1].ID != c.ID {
		t.Fatalf("Items = %+v, want a then c", report.Items)
	}
	if report.Items[0].Quality != 9 || report.Items[1].Quality != 11 {
		t.Errorf("qualities = %d, %d, want 9, 11", report.Items[0].Quality, report.Items[1].Quality)
	}
	if len(held) != 3 || held[1].Name != "b" || held[2].Name != model.NameAgedBrie {
		t.Errorf("engine list held before the delete changed: %v", held)
	}
	if got, _ := store.Get(ctx, c.ID); got.SellIn != 4 {
		t.Errorf("SellIn = %d, want 4", got.SellIn)
	}
}

func TestMemoryStore_Report(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := newTestStore(model.NewItem("foo", 0, 10), model.NewItem(model.NameSulfuras, -1, 80))
	_, _ = store.Advance(ctx, 2)

	// Act
	report, err := store.Report(ctx)

	// Assert
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report.Day != 2 || report.Advanced != 0 || report.Expired != 1 {
		t.Errorf("report = day %d advanced %d expired %d, want 2/0/1", report.Day, report.Advanced, report.Expired)
	}
	if len(report.Items) != 2 || report.Items[0].Quality != 6 {
		t.Errorf("Items = %+v", report.Items)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.Report(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("Report() with cancelled context error = %v, want %v", err, context.Canceled)
	}
}

func TestMemoryStore_OnAdvance_InDayOrder(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := newTestStore(model.NewItem("foo", 50, 50))
	var (
		mu   sync.Mutex
		days []int
	)
	store.OnAdvance(func(report model.DayReport) {
		// Widen the window between unlocking and notifying.
		time.Sleep(time.Millisecond)
		mu.Lock()
		days = append(days, report.Day)
		mu.Unlock()
	})

	// Act
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Advance(ctx, 1)
		}()
	}
	wg.Wait()

	// Assert
	if len(days) != 20 {
		t.Fatalf("notified %d times, want 20", len(days))
	}
	for i, day := range days {
		if day != i+1 {
			t.Fatalf("notifications out of order: %v", days)
		}
	}
}
