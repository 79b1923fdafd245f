package sqlite

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func openTestStore(t *testing.T, dir string) *SQLiteStore {
	t.Helper()
	s, err := Open(dir, discard)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "storefront.user"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "storefront.user", `{"id":"user123"}`); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := s.Set(ctx, "storefront.user", `{"id":"user456"}`); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	v, ok, err := s.Get(ctx, "storefront.user")
	if err != nil || !ok || v != `{"id":"user456"}` {
		t.Errorf("expected overwritten value, got %q %v %v", v, ok, err)
	}

	if err := s.Remove(ctx, "storefront.user"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "storefront.user"); ok {
		t.Error("expected key to be removed")
	}
	if err := s.Remove(ctx, "missing"); err != nil {
		t.Errorf("removing a missing key should not fail: %v", err)
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := Open(dir, discard)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Set(ctx, "storefront.cart_restaurant", "1"); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second := openTestStore(t, dir)
	v, ok, err := second.Get(ctx, "storefront.cart_restaurant")
	if err != nil || !ok || v != "1" {
		t.Errorf("expected persisted value, got %q %v %v", v, ok, err)
	}
}

func TestCorruptDatabaseIsMovedAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(strings.Repeat("{garbage", 512)), 0o644); err != nil {
		t.Fatal(err)
	}

	s := openTestStore(t, dir)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := s.Set(ctx, "storefront.cart", "[]"); err != nil {
			t.Fatalf("write %d after recovery failed: %v", i, err)
		}
	}

	moved, _ := filepath.Glob(path + ".corrupt-*")
	if len(moved) != 1 {
		t.Errorf("expected the corrupt file to be kept aside, found %v", moved)
	}
}
