package kv

import (
	"context"
	"testing"
)

func TestMemoryMap(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, ok, err := m.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v, want absent", ok, err)
	}

	if err := m.Set(ctx, "k", "1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := m.Get(ctx, "k")
	if err != nil || !ok || v != "1" {
		t.Fatalf("Get(k) = %q ok=%v err=%v", v, ok, err)
	}

	if err := m.Set(ctx, "k", "2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if v, _, _ := m.Get(ctx, "k"); v != "2" {
		t.Fatalf("Get after overwrite = %q, want 2", v)
	}

	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("key still present after delete")
	}

	// deleting an absent key is not an error
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
}
