package wallet

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"

	"homeseeker/go-backend/internal/securestore"
	"homeseeker/go-backend/pkg/models"
)

var (
	ErrInvalidMnemonic  = errors.New("invalid mnemonic")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordRequired = errors.New("password is required")
	ErrMnemonicRequired = errors.New("mnemonic is required")
	ErrNoWallet         = errors.New("no wallet configured")
	ErrLocked           = errors.New("wallet is locked")
	ErrPasswordLocked   = errors.New("password attempts are temporarily locked")
)

// Manager holds the viewer's account key for one daemon process. The mnemonic
// is persisted encrypted; the derived key lives only in memory while the
// wallet is unlocked. Every account change bumps the epoch so in-flight
// operations can detect that the signer they started with is gone.
type Manager struct {
	mu       sync.RWMutex
	key      *ecdsa.PrivateKey
	address  common.Address
	epoch    uint64
	path     string
	subs     map[int]func(models.WalletStatus)
	nextSub  int
	attempts int
	lockedAt time.Time
	now      func() time.Time
}

func NewManager(path string) *Manager {
	return &Manager{
		path: path,
		subs: make(map[int]func(models.WalletStatus)),
		now:  time.Now,
	}
}

// Create generates a fresh mnemonic, derives the account, and persists the
// encrypted mnemonic. Returns the checksummed address and the mnemonic for
// one-time display.
func (m *Manager) Create(password string) (string, string, error) {
	if strings.TrimSpace(password) == "" {
		return "", "", ErrPasswordRequired
	}
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", "", err
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", "", err
	}
	address, err := m.Import(mnemonic, password)
	if err != nil {
		return "", "", err
	}
	return address, mnemonic, nil
}

func (m *Manager) Import(mnemonic, password string) (string, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return "", ErrMnemonicRequired
	}
	if strings.TrimSpace(password) == "" {
		return "", ErrPasswordRequired
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return "", ErrInvalidMnemonic
	}
	key, err := DeriveKey(mnemonic)
	if err != nil {
		return "", err
	}
	if err := m.persistMnemonic(mnemonic, password); err != nil {
		return "", err
	}

	m.mu.Lock()
	status, notify := m.setKeyLocked(key)
	m.resetAttemptsLocked()
	m.mu.Unlock()
	m.notify(status, notify)
	return status.Address, nil
}

// Unlock decrypts the persisted mnemonic and restores the account key.
func (m *Manager) Unlock(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrPasswordRequired
	}
	m.mu.Lock()
	if err := m.ensureAttemptsAllowedLocked(); err != nil {
		m.mu.Unlock()
		return "", err
	}
	m.mu.Unlock()

	raw, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoWallet
		}
		return "", err
	}
	plaintext, err := securestore.Decrypt(password, raw)
	if err != nil {
		m.mu.Lock()
		m.onFailedAttemptLocked()
		m.mu.Unlock()
		return "", ErrInvalidPassword
	}
	mnemonic := strings.TrimSpace(string(plaintext))
	if !bip39.IsMnemonicValid(mnemonic) {
		return "", ErrInvalidMnemonic
	}
	key, err := DeriveKey(mnemonic)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	status, notify := m.setKeyLocked(key)
	m.resetAttemptsLocked()
	m.mu.Unlock()
	m.notify(status, notify)
	return status.Address, nil
}

// Lock drops the in-memory key. The epoch bumps because the signer is gone.
func (m *Manager) Lock() {
	m.mu.Lock()
	if m.key == nil {
		m.mu.Unlock()
		return
	}
	m.key = nil
	m.address = common.Address{}
	m.epoch++
	status := m.statusLocked()
	m.mu.Unlock()
	m.notify(status, true)
}

func (m *Manager) Export(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrPasswordRequired
	}
	m.mu.Lock()
	if err := m.ensureAttemptsAllowedLocked(); err != nil {
		m.mu.Unlock()
		return "", err
	}
	m.mu.Unlock()

	raw, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoWallet
		}
		return "", err
	}
	plaintext, err := securestore.Decrypt(password, raw)
	if err != nil {
		m.mu.Lock()
		m.onFailedAttemptLocked()
		m.mu.Unlock()
		return "", ErrInvalidPassword
	}
	m.mu.Lock()
	m.resetAttemptsLocked()
	m.mu.Unlock()
	return strings.TrimSpace(string(plaintext)), nil
}

func (m *Manager) ChangePassword(oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return ErrPasswordRequired
	}
	mnemonic, err := m.Export(oldPassword)
	if err != nil {
		return err
	}
	return m.persistMnemonic(mnemonic, newPassword)
}

func (m *Manager) ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(strings.TrimSpace(mnemonic))
}

func (m *Manager) Status() models.WalletStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusLocked()
}

func (m *Manager) CurrentAccount() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.key == nil {
		return "", false
	}
	return m.address.Hex(), true
}

func (m *Manager) Epoch() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epoch
}

func (m *Manager) OnAccountChanged(fn func(models.WalletStatus)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Address implements the chain signer surface.
func (m *Manager) Address() (common.Address, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.key == nil {
		return common.Address{}, false
	}
	return m.address, true
}

func (m *Manager) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	m.mu.RLock()
	key := m.key
	m.mu.RUnlock()
	if key == nil {
		return nil, ErrLocked
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
}

func (m *Manager) persistMnemonic(mnemonic, password string) error {
	if m.path == "" {
		return nil
	}
	encrypted, err := securestore.Encrypt(password, []byte(mnemonic))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(m.path, encrypted, 0o600)
}

func (m *Manager) setKeyLocked(key *ecdsa.PrivateKey) (models.WalletStatus, bool) {
	address := gethcrypto.PubkeyToAddress(key.PublicKey)
	changed := m.key == nil || address != m.address
	m.key = key
	m.address = address
	if changed {
		m.epoch++
	}
	return m.statusLocked(), changed
}

func (m *Manager) statusLocked() models.WalletStatus {
	status := models.WalletStatus{Connected: m.key != nil, Epoch: m.epoch}
	if m.key != nil {
		status.Address = m.address.Hex()
	}
	return status
}

func (m *Manager) notify(status models.WalletStatus, changed bool) {
	if !changed {
		return
	}
	m.mu.RLock()
	fns := make([]func(models.WalletStatus), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()
	for _, fn := range fns {
		fn(status)
	}
}

func (m *Manager) ensureAttemptsAllowedLocked() error {
	if m.lockedAt.IsZero() {
		return nil
	}
	if m.now().Before(m.lockedAt) {
		return ErrPasswordLocked
	}
	return nil
}

func (m *Manager) onFailedAttemptLocked() {
	m.attempts++
	m.lockedAt = m.now().Add(attemptBackoff(m.attempts))
}

func (m *Manager) resetAttemptsLocked() {
	m.attempts = 0
	m.lockedAt = time.Time{}
}

func attemptBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	// 1s, 2s, 4s... up to 32s max.
	shift := attempt - 1
	if shift > 5 {
		shift = 5
	}
	return time.Second * time.Duration(1<<shift)
}
