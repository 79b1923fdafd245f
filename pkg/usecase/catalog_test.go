package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sokoide/workshop/storefront/pkg/domain"
)

func newFakeCatalog() *fakeCatalog {
	unavailable := item("104", "1", "Vegetable Biryani", "12.99")
	unavailable.Available = false
	return &fakeCatalog{
		restaurants: []domain.Restaurant{{ID: "1", Name: "Maharaja Palace"}, {ID: "2", Name: "Bombay Bites"}},
		menus: map[string][]domain.MenuItem{
			"1": {butterChicken, dalMakhani, unavailable},
			"2": {vadaPav},
		},
	}
}

func TestCatalogBrowserCachesWithinTTL(t *testing.T) {
	cat := newFakeCatalog()
	b, err := NewCatalogBrowser(cat, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rs, err := b.Restaurants(ctx)
		if err != nil || len(rs) != 2 {
			t.Fatalf("unexpected restaurants: %v %v", rs, err)
		}
	}
	if cat.listCalls != 1 {
		t.Errorf("expected one provider call, got %d", cat.listCalls)
	}

	b.Invalidate()
	_, _ = b.Restaurants(ctx)
	if cat.listCalls != 2 {
		t.Errorf("expected a refetch after invalidate, got %d calls", cat.listCalls)
	}
}

func TestCatalogBrowserExpires(t *testing.T) {
	cat := newFakeCatalog()
	b, _ := NewCatalogBrowser(cat, time.Minute)
	now := time.Now()
	b.cache.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = b.Menu(ctx, "1")
	now = now.Add(30 * time.Second)
	_, _ = b.Menu(ctx, "1")
	if cat.menuCalls != 1 {
		t.Errorf("expected cached menu, got %d calls", cat.menuCalls)
	}
	now = now.Add(time.Minute)
	_, _ = b.Menu(ctx, "1")
	if cat.menuCalls != 2 {
		t.Errorf("expected refetch after ttl, got %d calls", cat.menuCalls)
	}
}

func TestCatalogBrowserCollapsesConcurrentMisses(t *testing.T) {
	cat := newFakeCatalog()
	cat.delay = 50 * time.Millisecond
	b, _ := NewCatalogBrowser(cat, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := b.Menu(context.Background(), "2"); err != nil {
				t.Errorf("menu: %v", err)
			}
		}()
	}
	wg.Wait()

	cat.mu.Lock()
	defer cat.mu.Unlock()
	if cat.menuCalls != 1 {
		t.Errorf("expected one provider call, got %d", cat.menuCalls)
	}
}

func TestCatalogBrowserDoesNotCacheErrors(t *testing.T) {
	cat := newFakeCatalog()
	cat.err = errors.New("boom")
	b, _ := NewCatalogBrowser(cat, time.Minute)
	ctx := context.Background()

	if _, err := b.Restaurants(ctx); err == nil {
		t.Fatal("expected error")
	}
	cat.err = nil
	if rs, err := b.Restaurants(ctx); err != nil || len(rs) != 2 {
		t.Errorf("expected recovery, got %v %v", rs, err)
	}
}

func TestCatalogBrowserRestaurant(t *testing.T) {
	b, _ := NewCatalogBrowser(newFakeCatalog(), time.Minute)
	ctx := context.Background()

	r, err := b.Restaurant(ctx, "2")
	if err != nil || r.Name != "Bombay Bites" {
		t.Errorf("unexpected restaurant: %+v %v", r, err)
	}
	if _, err := b.Restaurant(ctx, "9"); !errors.Is(err, domain.ErrRestaurantNotFound) {
		t.Errorf("expected ErrRestaurantNotFound, got %v", err)
	}
}

func TestFindMenuItem(t *testing.T) {
	b, _ := NewCatalogBrowser(newFakeCatalog(), time.Minute)
	ctx := context.Background()

	it, err := b.FindMenuItem(ctx, "1", "103")
	if err != nil || it.Name != "Dal Makhani" {
		t.Errorf("unexpected item: %+v %v", it, err)
	}
	if _, err := b.FindMenuItem(ctx, "1", "104"); !errors.Is(err, domain.ErrItemUnavailable) {
		t.Errorf("expected ErrItemUnavailable, got %v", err)
	}
	if _, err := b.FindMenuItem(ctx, "1", "201"); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestCatalogBrowserTimeout(t *testing.T) {
	cat := newFakeCatalog()
	cat.delay = time.Second
	b, _ := NewCatalogBrowser(cat, time.Minute, WithProviderTimeout(20*time.Millisecond))

	if _, err := b.Restaurants(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
