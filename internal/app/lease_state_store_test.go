package app

import (
	"path/filepath"
	"testing"
	"time"

	"homeseeker/go-backend/pkg/models"
)

func snapshotFor(houseAddr string, stage models.LeaseStage) models.LeaseSnapshot {
	return models.LeaseSnapshot{
		HouseAddr: houseAddr,
		Stage:     stage,
		Balance:   "0",
		FetchedAt: time.Now().UTC(),
	}
}

func TestLeaseStateStoreIsPerViewer(t *testing.T) {
	store := NewLeaseStateStore()
	if err := store.Put("0xAAA", snapshotFor("12 Main St", models.StageApplied)); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := store.Put("0xBBB", snapshotFor("12 Main St", models.StageListed)); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	a, ok := store.Get("0xaaa", "12 main st")
	if !ok || a.Stage != models.StageApplied {
		t.Fatalf("viewer A lookup: %+v ok=%v", a, ok)
	}
	b, ok := store.Get("0xBBB", "12 Main St")
	if !ok || b.Stage != models.StageListed {
		t.Fatalf("viewer B lookup: %+v ok=%v", b, ok)
	}
}

func TestLeaseStateStorePutOverwrites(t *testing.T) {
	store := NewLeaseStateStore()
	first := snapshotFor("12 Main St", models.StageApplied)
	first.Application = &models.Application{Tenant: "0xAAA"}
	if err := store.Put("0xAAA", first); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	// The refreshed snapshot replaces the old one wholesale.
	second := snapshotFor("12 Main St", models.StageReclaimed)
	if err := store.Put("0xAAA", second); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, _ := store.Get("0xAAA", "12 Main St")
	if got.Stage != models.StageReclaimed || got.Application != nil {
		t.Fatalf("snapshot merged instead of overwritten: %+v", got)
	}
}

func TestLeaseStateStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leases.json")
	store, err := NewPersistentLeaseStateStore(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := store.Put("0xAAA", snapshotFor("12 Main St", models.StageApproved)); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	reopened, err := NewPersistentLeaseStateStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, ok := reopened.Get("0xAAA", "12 Main St")
	if !ok || got.Stage != models.StageApproved {
		t.Fatalf("persisted snapshot lost: %+v ok=%v", got, ok)
	}

	if err := reopened.Delete("0xAAA", "12 Main St"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok := reopened.Get("0xAAA", "12 Main St"); ok {
		t.Fatal("snapshot should be gone after delete")
	}
}

func TestLeaseStateStoreListSorted(t *testing.T) {
	store := NewLeaseStateStore()
	for _, addr := range []string{"9 Pine St", "1 Ash Ct", "5 Birch Ave"} {
		if err := store.Put("0xAAA", snapshotFor(addr, models.StageListed)); err != nil {
			t.Fatalf("put failed: %v", err)
		}
	}
	list := store.List("0xAAA")
	if len(list) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(list))
	}
	if list[0].HouseAddr != "1 Ash Ct" || list[2].HouseAddr != "9 Pine St" {
		t.Fatalf("list not sorted: %+v", list)
	}
}
