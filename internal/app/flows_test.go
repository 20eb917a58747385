package app

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"homeseeker/go-backend/pkg/models"
)

func TestNormalizeStartDate(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)

	start, err := NormalizeStartDate("2026-09-01", now)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if !start.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %s", start)
	}

	// Today is allowed, yesterday is not.
	if _, err := NormalizeStartDate("2026-08-28", now); err != nil {
		t.Fatalf("same-day start rejected: %v", err)
	}
	if _, err := NormalizeStartDate("2026-08-27", now); Classify(err) != KindValidation {
		t.Fatalf("expected validation error for past date, got %v", err)
	}
	if _, err := NormalizeStartDate("September 1", now); Classify(err) != KindValidation {
		t.Fatalf("expected validation error for bad format, got %v", err)
	}
}

func TestAmountParsing(t *testing.T) {
	v, err := ParsePositiveAmount("1500000000")
	if err != nil || v.String() != "1500000000" {
		t.Fatalf("parse: %v err=%v", v, err)
	}
	if _, err := ParsePositiveAmount("0"); Classify(err) != KindValidation {
		t.Fatalf("zero must be rejected, got %v", err)
	}
	if _, err := ParsePositiveAmount("-5"); Classify(err) != KindValidation {
		t.Fatalf("negative must be rejected, got %v", err)
	}
	if _, err := ParseAmount("12.5"); Classify(err) != KindValidation {
		t.Fatalf("decimal point is not a smallest-unit amount, got %v", err)
	}
}

func TestDisplayAmountConversion(t *testing.T) {
	cases := []struct {
		units   string
		display string
	}{
		{"1500000000", "1500"},
		{"500250000", "500.25"},
		{"1", "0.000001"},
		{"0", "0"},
		{"-2500000", "-2.5"},
	}
	for _, tc := range cases {
		v, _ := new(big.Int).SetString(tc.units, 10)
		if got := FormatDisplayAmount(v); got != tc.display {
			t.Fatalf("format %s: got %q, want %q", tc.units, got, tc.display)
		}
		back, err := ParseDisplayAmount(tc.display)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.display, err)
		}
		if back.Cmp(v) != 0 {
			t.Fatalf("roundtrip %q: got %s, want %s", tc.display, back, v)
		}
	}

	if _, err := ParseDisplayAmount("1.1234567"); Classify(err) != KindValidation {
		t.Fatalf("excess precision must be rejected, got %v", err)
	}
}

func TestSecurityDepositExactArithmetic(t *testing.T) {
	rent, _ := new(big.Int).SetString("333333333333333333", 10)
	deposit := SecurityDeposit(rent, 3)
	want, _ := new(big.Int).SetString("999999999999999999", 10)
	if deposit.Cmp(want) != 0 {
		t.Fatalf("deposit: got %s, want %s", deposit, want)
	}
	if SecurityDeposit(nil, 3).Sign() != 0 {
		t.Fatal("nil rent must yield zero deposit")
	}
}

func TestResolveStage(t *testing.T) {
	agreement := &models.Agreement{Tenant: "0xabc"}

	cases := []struct {
		name          string
		prev          models.LeaseStage
		hasLease      bool
		viewerApplied bool
		agreement     *models.Agreement
		want          models.LeaseStage
	}{
		{"no lease", "", false, false, nil, models.StageUnlisted},
		{"fresh lease", "", true, false, nil, models.StageListed},
		{"viewer applied", models.StageListed, true, true, nil, models.StageApplied},
		{"approved", models.StageApplied, true, true, agreement, models.StageApproved},
		{"agreement gone after approval", models.StageApproved, true, false, nil, models.StageReclaimed},
		{"reclaimed stays terminal", models.StageReclaimed, true, false, nil, models.StageReclaimed},
		{"owner watching someone else's application", models.StageListed, true, false, nil, models.StageListed},
	}
	for _, tc := range cases {
		got := ResolveStage(tc.prev, tc.hasLease, tc.viewerApplied, tc.agreement)
		if got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestAffordanceGates(t *testing.T) {
	if err := EnsureTermsMutable(true); Classify(err) != KindValidation {
		t.Fatalf("terms must be frozen with a tenant, got %v", err)
	}
	if err := EnsureTermsMutable(false); err != nil {
		t.Fatalf("terms should be mutable without a tenant: %v", err)
	}
	if err := EnsureApprovable(false); err == nil {
		t.Fatal("approval requires an application")
	}
	if err := EnsureReclaimable(false); Classify(err) != KindValidation {
		t.Fatalf("reclaim requires an approved tenant, got %v", err)
	}
}

func TestValidateListingInput(t *testing.T) {
	listing := models.Listing{Title: "  Loft ", HouseAddr: " 9 Pine St ", MonthlyRent: "1000000"}
	validated, err := ValidateListingInput(listing)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if validated.Title != "Loft" || validated.HouseAddr != "9 Pine St" {
		t.Fatalf("fields not trimmed: %+v", validated)
	}
	if _, err := ValidateListingInput(models.Listing{Title: "x", HouseAddr: "y", MonthlyRent: "nope"}); err == nil {
		t.Fatal("bad rent must be rejected")
	}
}

func TestClassifyDefaultsToNetwork(t *testing.T) {
	if Classify(Failf(KindPaymentNotApplied, "x")) != KindPaymentNotApplied {
		t.Fatal("classified error lost its kind")
	}
	if Classify(errors.New("plain")) != KindNetwork {
		t.Fatal("uncategorized errors must default to network")
	}
}
