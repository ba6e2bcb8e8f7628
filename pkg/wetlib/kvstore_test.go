package wetlib

import "testing"

func TestMemStoreRoundTrip(t *testing.T) {
	m := NewMemStore()

	_, ok, err := m.Get("missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("expected miss for absent key")
	}

	if err := m.Set("k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set("k", "v2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, ok, err := m.Get("k")
	if err != nil || !ok {
		t.Fatalf("Get after Set: v=%q ok=%v err=%v", v, ok, err)
	}
	if v != "v2" {
		t.Fatalf("Get = %q, want v2", v)
	}

	if err := m.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := m.Delete("k"); err != nil {
		t.Fatalf("Delete absent key: %v", err)
	}
	_, ok, _ = m.Get("k")
	if ok {
		t.Fatalf("expected miss after delete")
	}
}
