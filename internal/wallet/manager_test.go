package wallet

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"homeseeker/go-backend/internal/testutil/fsperm"
	"homeseeker/go-backend/pkg/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(filepath.Join(t.TempDir(), "keystore", "wallet.enc"))
}

func TestCreateUnlockRoundtrip(t *testing.T) {
	m := newTestManager(t)
	address, mnemonic, err := m.Create("pass")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if address == "" || mnemonic == "" {
		t.Fatalf("expected address and mnemonic, got %q / %q", address, mnemonic)
	}
	fsperm.AssertPrivateDirPerm(t, filepath.Dir(m.path))
	m.Lock()
	if _, ok := m.CurrentAccount(); ok {
		t.Fatal("expected locked wallet after Lock")
	}
	unlocked, err := m.Unlock("pass")
	if err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if unlocked != address {
		t.Fatalf("unlock restored %q, created %q", unlocked, address)
	}
}

func TestDerivationIsDeterministic(t *testing.T) {
	m := newTestManager(t)
	_, mnemonic, err := m.Create("pass")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	first, _ := m.CurrentAccount()

	other := newTestManager(t)
	imported, err := other.Import(mnemonic, "different-pass")
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if imported != first {
		t.Fatalf("same mnemonic derived %q and %q", first, imported)
	}
}

func TestUnlockWrongPassword(t *testing.T) {
	m := newTestManager(t)
	if _, _, err := m.Create("pass"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	m.Lock()
	if _, err := m.Unlock("wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestFailedAttemptsBackOff(t *testing.T) {
	m := newTestManager(t)
	current := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return current }
	if _, _, err := m.Create("pass"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := m.Unlock("wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if _, err := m.Unlock("pass"); !errors.Is(err, ErrPasswordLocked) {
		t.Fatalf("expected ErrPasswordLocked during backoff, got %v", err)
	}
	current = current.Add(2 * time.Second)
	if _, err := m.Unlock("pass"); err != nil {
		t.Fatalf("unlock after backoff failed: %v", err)
	}
}

func TestExportRequiresCorrectPassword(t *testing.T) {
	m := newTestManager(t)
	_, mnemonic, err := m.Create("pass")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	exported, err := m.Export("pass")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if exported != mnemonic {
		t.Fatalf("exported mnemonic differs from the created one")
	}
	if _, err := m.Export("wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	m := newTestManager(t)
	if _, _, err := m.Create("pass"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := m.ChangePassword("pass", "better"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	m.Lock()
	if _, err := m.Unlock("better"); err != nil {
		t.Fatalf("unlock with new password failed: %v", err)
	}
	m.Lock()
	if _, err := m.Unlock("pass"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("old password must stop working, got %v", err)
	}
}

func TestEpochBumpsOnAccountChange(t *testing.T) {
	m := newTestManager(t)
	if _, _, err := m.Create("pass"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	epoch := m.Epoch()

	var notified []models.WalletStatus
	unsubscribe := m.OnAccountChanged(func(status models.WalletStatus) {
		notified = append(notified, status)
	})
	defer unsubscribe()

	if _, _, err := m.Create("pass"); err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if m.Epoch() <= epoch {
		t.Fatalf("epoch did not advance: %d -> %d", epoch, m.Epoch())
	}
	if len(notified) != 1 {
		t.Fatalf("expected one account-change notification, got %d", len(notified))
	}
	if !notified[0].Connected {
		t.Fatal("notification should carry the connected status")
	}

	m.Lock()
	if len(notified) != 2 || notified[1].Connected {
		t.Fatalf("expected disconnect notification, got %+v", notified)
	}
}

func TestNoWallet(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Unlock("pass"); !errors.Is(err, ErrNoWallet) {
		t.Fatalf("expected ErrNoWallet, got %v", err)
	}
}
