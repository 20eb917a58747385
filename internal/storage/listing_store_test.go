package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"homeseeker/go-backend/internal/testutil/fsperm"
	"homeseeker/go-backend/pkg/models"
)

func sampleListing(houseAddr string) models.Listing {
	return models.Listing{
		Title:       "Sunny two-bedroom",
		HouseAddr:   houseAddr,
		MonthlyRent: "1500000000",
		Bedrooms:    "2",
		Bathrooms:   "1",
		Sqft:        860,
		LeaseTerm:   "12 months",
		Available:   "2026-10-01",
		Description: "Close to the lake.",
	}
}

func TestAddAssignsShareCode(t *testing.T) {
	store := NewListingStore()
	listing, err := store.Add(sampleListing("12 Main St, Springfield"))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if listing.ShareCode == "" {
		t.Fatal("expected a generated share code")
	}
	if listing.PostedAt.IsZero() {
		t.Fatal("expected PostedAt to be stamped")
	}
	got, ok := store.Get(listing.ShareCode)
	if !ok || got.HouseAddr != listing.HouseAddr {
		t.Fatalf("lookup by share code failed: %+v ok=%v", got, ok)
	}
}

func TestAddRejectsDuplicateHouseAddr(t *testing.T) {
	store := NewListingStore()
	if _, err := store.Add(sampleListing("12 Main St")); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := store.Add(sampleListing("12 MAIN ST")); !errors.Is(err, ErrListingConflict) {
		t.Fatalf("expected ErrListingConflict, got %v", err)
	}
}

func TestBindToken(t *testing.T) {
	store := NewListingStore()
	listing, err := store.Add(sampleListing("12 Main St"))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := store.BindToken(listing.ShareCode, 7); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	got, _ := store.Get(listing.ShareCode)
	if got.TokenID != 7 {
		t.Fatalf("token not bound: %+v", got)
	}
	if err := store.BindToken("missing", 1); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}

func TestPersistenceRoundtrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	path := filepath.Join(dir, "listings.json")
	store, err := NewPersistentListingStore(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	listing, err := store.Add(sampleListing("12 Main St"))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	fsperm.AssertPrivateDirPerm(t, dir)

	reopened, err := NewPersistentListingStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, ok := reopened.Get(listing.ShareCode)
	if !ok || got.Title != listing.Title {
		t.Fatalf("persisted listing lost: %+v ok=%v", got, ok)
	}
}

func TestEncryptedPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.enc")
	store, err := NewEncryptedPersistentListingStore(path, "secret")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	listing, err := store.Add(sampleListing("12 Main St"))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if _, err := NewEncryptedPersistentListingStore(path, "wrong"); err == nil {
		t.Fatal("expected reopen with wrong passphrase to fail")
	}
	reopened, err := NewEncryptedPersistentListingStore(path, "secret")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if _, ok := reopened.Get(listing.ShareCode); !ok {
		t.Fatal("persisted listing lost after encrypted reopen")
	}
}
