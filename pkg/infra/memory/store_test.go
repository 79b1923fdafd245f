package memory

import (
	"context"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "storefront.user"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "storefront.user", `{"id":"user123"}`); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	v, ok, err := s.Get(ctx, "storefront.user")
	if err != nil || !ok || v != `{"id":"user123"}` {
		t.Errorf("unexpected get: %q %v %v", v, ok, err)
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
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d keys", s.Len())
	}
}
