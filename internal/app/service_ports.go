package app

import (
	"context"
	"math/big"
	"time"

	"homeseeker/go-backend/pkg/models"
)

// LeaseRef identifies one property's lease contract in the registry.
type LeaseRef struct {
	TokenID  uint64
	Contract string
}

type MintedEvent struct {
	HouseAddr string
	TokenID   uint64
	Owner     string
	Block     uint64
}

// RegistryGateway is the property registry capability (the lease notary
// contract). Lookup before create keeps minting idempotent.
type RegistryGateway interface {
	Lookup(ctx context.Context, houseAddr string) (LeaseRef, bool, error)
	Mint(ctx context.Context, houseAddr string) (string, error)
	// WaitMinted blocks until the registry reflects the creation or the
	// bound elapses, in which case it fails with KindRegistryLookupTimeout.
	WaitMinted(ctx context.Context, houseAddr string, bound time.Duration) (LeaseRef, error)
	EventsSince(ctx context.Context, fromBlock uint64) ([]MintedEvent, error)
}

// LeaseGateway is one property's lease contract capability. All tenant
// parameters are hex account addresses; all amounts smallest-unit integers.
type LeaseGateway interface {
	HouseAddr(ctx context.Context) (string, error)
	Owner(ctx context.Context) (string, error)
	Terms(ctx context.Context) (models.LeaseTerms, error)
	SetTerms(ctx context.Context, monthlyRent *big.Int, durationMonths, depositMonths uint32) (string, error)
	ApplyToRent(ctx context.Context, startDate time.Time) (string, error)
	Applications(ctx context.Context) ([]models.Application, error)
	ApproveTenant(ctx context.Context, tenant string) (string, error)
	// Agreement returns (nil, nil) when no active agreement exists for the
	// tenant.
	Agreement(ctx context.Context, tenant string) (*models.Agreement, error)
	Debt(ctx context.Context, tenant string) (*big.Int, error)
	PayRent(ctx context.Context, amount *big.Int) (string, error)
	Reclaim(ctx context.Context) (string, error)
	PaymentToken(ctx context.Context) (string, error)
}

// TokenGateway is the payment-token (ERC-20) capability used by the
// authorize half of a payment.
type TokenGateway interface {
	Allowance(ctx context.Context, owner, spender string) (*big.Int, error)
	Approve(ctx context.Context, spender string, amount *big.Int) (string, error)
	BalanceOf(ctx context.Context, account string) (*big.Int, error)
}

// ChainDomain aggregates the on-chain collaborators behind one session.
type ChainDomain interface {
	Start(ctx context.Context) error
	Stop()
	Status(ctx context.Context) models.ChainStatus
	Registry() RegistryGateway
	LeaseAt(contract string) LeaseGateway
	TokenAt(contract string) TokenGateway
	// WaitTx blocks until the transaction is mined, failing with
	// KindTransactionRejected when it reverted.
	WaitTx(ctx context.Context, txHash string) error
}

// WalletDomain is the viewer's identity session. The epoch increases on every
// account change so in-flight operations can detect a switch.
type WalletDomain interface {
	Status() models.WalletStatus
	CurrentAccount() (string, bool)
	Epoch() uint64
	OnAccountChanged(fn func(models.WalletStatus)) (unsubscribe func())
}

type LeaseProjectionStore interface {
	Get(viewer, houseAddr string) (models.LeaseSnapshot, bool)
	Put(viewer string, snapshot models.LeaseSnapshot) error
	List(viewer string) []models.LeaseSnapshot
	Delete(viewer, houseAddr string) error
}

type ListingRepository interface {
	Add(listing models.Listing) (models.Listing, error)
	Get(shareCode string) (models.Listing, bool)
	List() []models.Listing
	BindToken(shareCode string, tokenID uint64) error
}

type NotificationBus interface {
	Subscribe(fromSeq int64) ([]NotificationEvent, <-chan NotificationEvent, func())
	Publish(method string, payload any) NotificationEvent
	BacklogSize() int
}
