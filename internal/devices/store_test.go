package devices

import (
	"testing"
	"time"
)

func TestStoreUpsertInsertsAndUpdates(t *testing.T) {
	store := NewStore()

	dev := store.Upsert("ABC123", "10.0.0.5", "Attic")
	if dev.ID != "ABC123" || dev.Address != "10.0.0.5" || dev.FriendlyName != "Attic" {
		t.Errorf("Upsert() = %+v", dev)
	}
	if !dev.Present {
		t.Error("new device should be present")
	}
	if dev.LastSeen.IsZero() {
		t.Error("LastSeen should be set")
	}
	if !dev.LastSynced.IsZero() {
		t.Error("LastSynced should be zero before first reconciliation")
	}

	// Re-discovery with a changed address updates in place.
	dev = store.Upsert("ABC123", "10.0.0.99", "Attic")
	if dev.Address != "10.0.0.99" {
		t.Errorf("Address = %s, want updated 10.0.0.99", dev.Address)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want exactly one record after re-discovery", store.Len())
	}
}

func TestStoreUpsertKeepsNameWhenOmitted(t *testing.T) {
	store := NewStore()
	store.Upsert("ABC123", "10.0.0.5", "Attic")
	dev := store.Upsert("ABC123", "10.0.0.5", "")

	if dev.FriendlyName != "Attic" {
		t.Errorf("FriendlyName = %q, empty upsert should keep existing name", dev.FriendlyName)
	}
}

func TestStoreMarkLost(t *testing.T) {
	store := NewStore()
	store.Upsert("ABC123", "10.0.0.5", "Attic")

	store.MarkLost("ABC123")

	dev, ok := store.Get("ABC123")
	if !ok {
		t.Fatal("lost device should keep its record")
	}
	if dev.Present {
		t.Error("lost device should not be present")
	}

	// Unknown ids are a no-op.
	store.MarkLost("UNKNOWN")
	if store.Len() != 1 {
		t.Errorf("Len() = %d after MarkLost of unknown id", store.Len())
	}
}

func TestStoreMarkSynced(t *testing.T) {
	store := NewStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	store.Upsert("ABC123", "10.0.0.5", "Attic")
	store.now = func() time.Time { return base.Add(time.Minute) }
	store.MarkSynced("ABC123")

	dev, _ := store.Get("ABC123")
	if !dev.LastSynced.Equal(base.Add(time.Minute)) {
		t.Errorf("LastSynced = %v", dev.LastSynced)
	}

	store.MarkSynced("UNKNOWN") // must not panic
}

func TestStoreListSortedByID(t *testing.T) {
	store := NewStore()
	store.Upsert("ZZZ", "10.0.0.7", "")
	store.Upsert("AAA", "10.0.0.5", "")
	store.Upsert("MMM", "10.0.0.6", "")

	list := store.List()
	if len(list) != 3 {
		t.Fatalf("List() returned %d devices, want 3", len(list))
	}
	if list[0].ID != "AAA" || list[1].ID != "MMM" || list[2].ID != "ZZZ" {
		t.Errorf("List() order = %s, %s, %s", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestStoreListIsSnapshot(t *testing.T) {
	store := NewStore()
	store.Upsert("AAA", "10.0.0.5", "Attic")

	list := store.List()
	list[0].Address = "mutated"

	dev, _ := store.Get("AAA")
	if dev.Address != "10.0.0.5" {
		t.Error("mutating a List() snapshot must not affect the store")
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore()
	done := make(chan struct{})

	go func() {
		for i := 0; i < 500; i++ {
			store.Upsert("ABC123", "10.0.0.5", "Attic")
			store.MarkLost("ABC123")
		}
		close(done)
	}()

	for i := 0; i < 500; i++ {
		store.List()
		store.Get("ABC123")
	}
	<-done

	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestReidentifyRekeysRecord(t *testing.T) {
	store := NewStore()
	store.Upsert("static:10.0.0.9", "10.0.0.9", "Attic")

	store.Reidentify("static:10.0.0.9", "1052D6A8")

	if _, ok := store.Get("static:10.0.0.9"); ok {
		t.Error("old ID should no longer resolve")
	}
	dev, ok := store.Get("1052D6A8")
	if !ok {
		t.Fatal("record should be reachable under the new ID")
	}
	if dev.ID != "1052D6A8" {
		t.Errorf("dev.ID = %q, want the new ID", dev.ID)
	}
	if dev.Address != "10.0.0.9" || dev.FriendlyName != "Attic" {
		t.Errorf("record state lost in rekey: %+v", dev)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestReidentifyMergesIntoExistingRecord(t *testing.T) {
	store := NewStore()
	store.Upsert("static:10.0.0.9", "10.0.0.9", "")
	store.Upsert("1052D6A8", "10.0.0.9:80", "Attic")

	store.Reidentify("static:10.0.0.9", "1052D6A8")

	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (provisional dropped, existing kept)", store.Len())
	}
	dev, _ := store.Get("1052D6A8")
	if dev.FriendlyName != "Attic" {
		t.Errorf("existing record should win the merge, got %+v", dev)
	}
}

func TestReidentifyNoops(t *testing.T) {
	store := NewStore()
	store.Upsert("ABC123", "10.0.0.5", "")

	store.Reidentify("missing", "ABC123")
	store.Reidentify("ABC123", "ABC123")

	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
	if _, ok := store.Get("ABC123"); !ok {
		t.Error("record should be untouched by no-op calls")
	}
}
