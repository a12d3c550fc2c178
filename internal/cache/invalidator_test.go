package cache

import "testing"

func TestInvalidateMarksStale(t *testing.T) {
	inv := New()

	if inv.IsStale(KeyExtensionsInstalled) {
		t.Error("fresh key should not be stale")
	}

	inv.Invalidate(KeyExtensionsInstalled)
	if !inv.IsStale(KeyExtensionsInstalled) {
		t.Error("invalidated key should be stale")
	}

	inv.MarkFresh(KeyExtensionsInstalled)
	if inv.IsStale(KeyExtensionsInstalled) {
		t.Error("refreshed key should not be stale")
	}
}

func TestOnInvalidateHooks(t *testing.T) {
	inv := New()

	var fired int
	cancel := inv.OnInvalidate(KeyExtensionsInstalled, func() { fired++ })

	inv.Invalidate(KeyExtensionsInstalled)
	if fired != 1 {
		t.Fatalf("expected 1 hook call, got %d", fired)
	}

	// Unrelated keys do not fire the hook.
	inv.Invalidate("other-key")
	if fired != 1 {
		t.Errorf("unrelated key fired the hook, got %d calls", fired)
	}

	cancel()
	cancel() // idempotent
	inv.Invalidate(KeyExtensionsInstalled)
	if fired != 1 {
		t.Error("cancelled hook should not fire")
	}
}
