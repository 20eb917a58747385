package app

import (
	"math/big"
	"strings"
	"time"

	"homeseeker/go-backend/pkg/models"
)

// TokenDecimals is the fixed-point scale of the payment token (USDC).
const TokenDecimals = 6

// RegistryWaitBound is the default bounded wait for a HouseMinted event after
// a creation transaction. Exceeding it means "mint status unknown", not
// "mint failed".
const RegistryWaitBound = 90 * time.Second

func ValidateHouseAddr(houseAddr string) (string, error) {
	houseAddr = strings.TrimSpace(houseAddr)
	if houseAddr == "" {
		return "", Failf(KindValidation, "house address is required")
	}
	return houseAddr, nil
}

// NormalizeStartDate parses a calendar date ("2006-01-02") and normalizes it
// to midnight UTC. Present-day dates are accepted, past dates are not.
func NormalizeStartDate(date string, now time.Time) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, Failf(KindValidation, "intended start date is required")
	}
	start, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return time.Time{}, Failf(KindValidation, "invalid start date %q: expected YYYY-MM-DD", date)
	}
	today := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)
	if start.Before(today) {
		return time.Time{}, Failf(KindValidation, "start date %s is in the past", date)
	}
	return start, nil
}

// ParseAmount parses a smallest-unit integer amount string.
func ParseAmount(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, Failf(KindValidation, "amount is required")
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, Failf(KindValidation, "invalid amount %q", raw)
	}
	return v, nil
}

func ParsePositiveAmount(raw string) (*big.Int, error) {
	v, err := ParseAmount(raw)
	if err != nil {
		return nil, err
	}
	if v.Sign() <= 0 {
		return nil, Failf(KindValidation, "amount must be positive")
	}
	return v, nil
}

func FormatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// FormatDisplayAmount renders a smallest-unit integer as a decimal string for
// the presentation edge. Internal arithmetic never uses this form.
func FormatDisplayAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	neg := v.Sign() < 0
	abs := new(big.Int).Abs(v)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(TokenDecimals), nil)
	whole, frac := new(big.Int).QuoRem(abs, scale, new(big.Int))
	out := whole.String()
	if frac.Sign() != 0 {
		digits := frac.String()
		for len(digits) < TokenDecimals {
			digits = "0" + digits
		}
		digits = strings.TrimRight(digits, "0")
		out += "." + digits
	}
	if neg {
		out = "-" + out
	}
	return out
}

// ParseDisplayAmount converts a decimal display string ("500.25") to the
// smallest-unit integer, rejecting excess precision.
func ParseDisplayAmount(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, Failf(KindValidation, "amount is required")
	}
	neg := strings.HasPrefix(raw, "-")
	if neg {
		raw = raw[1:]
	}
	whole, frac, _ := strings.Cut(raw, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > TokenDecimals {
		return nil, Failf(KindValidation, "amount has more than %d decimal places", TokenDecimals)
	}
	for len(frac) < TokenDecimals {
		frac += "0"
	}
	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, Failf(KindValidation, "invalid amount %q", raw)
	}
	if neg {
		v.Neg(v)
	}
	return v, nil
}

// SecurityDeposit computes monthlyRent * depositMonths with exact integer
// arithmetic.
func SecurityDeposit(monthlyRent *big.Int, depositMonths uint32) *big.Int {
	if monthlyRent == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Mul(monthlyRent, big.NewInt(int64(depositMonths)))
}

func ValidateTermsInput(rent string, durationMonths, depositMonths uint32) (*big.Int, error) {
	monthlyRent, err := ParsePositiveAmount(rent)
	if err != nil {
		return nil, err
	}
	if durationMonths == 0 {
		return nil, Failf(KindValidation, "duration must be at least one month")
	}
	return monthlyRent, nil
}

// ResolveStage derives the viewer's workflow stage from freshly fetched chain
// state. viewerApplied must hold only when the viewer's own application is
// pending; an owner watching someone else's application stays Listed. prev is
// the previously projected stage: once a viewer was Approved, a vanished
// agreement means Reclaimed (terminal for this viewer), not Listed.
func ResolveStage(prev models.LeaseStage, hasLease, viewerApplied bool, agreement *models.Agreement) models.LeaseStage {
	if !hasLease {
		return models.StageUnlisted
	}
	if agreement != nil {
		return models.StageApproved
	}
	if prev == models.StageApproved || prev == models.StageReclaimed {
		return models.StageReclaimed
	}
	if viewerApplied {
		return models.StageApplied
	}
	return models.StageListed
}

// HasPendingApplication reports whether the viewer already has an application
// projected for this property; re-applying in that state is a local no-op.
func HasPendingApplication(snapshot models.LeaseSnapshot, found bool) bool {
	return found && snapshot.Stage == models.StageApplied && snapshot.Application != nil
}

// EnsureTermsMutable gates the owner-side setRentalTerms affordance: terms
// are frozen while any tenant is approved. The contract enforces this for
// real; the controller only avoids submitting a doomed transaction.
func EnsureTermsMutable(tenantApproved bool) error {
	if tenantApproved {
		return ErrTenantStillLeasing
	}
	return nil
}

func EnsureApprovable(hasApplication bool) error {
	if !hasApplication {
		return ErrTenantNotApplied
	}
	return nil
}

func EnsureReclaimable(tenantApproved bool) error {
	if !tenantApproved {
		return Failf(KindValidation, "no approved tenant to reclaim from")
	}
	return nil
}

func ValidateTenantAddr(tenant string) (string, error) {
	tenant = strings.TrimSpace(tenant)
	if tenant == "" {
		return "", Failf(KindValidation, "tenant address is required")
	}
	return tenant, nil
}

// BuildSnapshot assembles a fresh projection. debt is the lease contract's
// outstanding ledger for the viewer, positive when rent is owed. The caller
// stores the snapshot wholesale; snapshots are overwritten, never merged,
// because consecutive reads are not guaranteed monotonic.
func BuildSnapshot(prev models.LeaseStage, ref LeaseRef, houseAddr, owner string, terms models.LeaseTerms, application *models.Application, viewerApplied bool, agreement *models.Agreement, debt *big.Int, now time.Time) models.LeaseSnapshot {
	snap := models.LeaseSnapshot{
		HouseAddr:     houseAddr,
		TokenID:       ref.TokenID,
		LeaseContract: ref.Contract,
		Owner:         owner,
		Terms:         terms,
		Application:   application,
		Agreement:     agreement,
		Balance:       FormatAmount(debt),
		FetchedAt:     now.UTC(),
	}
	snap.Stage = ResolveStage(prev, ref.Contract != "", viewerApplied, agreement)
	return snap
}

// ValidateListingInput checks the posted listing form fields the controller
// actually depends on; everything else is carried through as-is.
func ValidateListingInput(listing models.Listing) (models.Listing, error) {
	listing.Title = strings.TrimSpace(listing.Title)
	listing.HouseAddr = strings.TrimSpace(listing.HouseAddr)
	if listing.Title == "" || listing.HouseAddr == "" {
		return models.Listing{}, Failf(KindValidation, "listing title and house address are required")
	}
	if _, err := ParsePositiveAmount(listing.MonthlyRent); err != nil {
		return models.Listing{}, err
	}
	return listing, nil
}
