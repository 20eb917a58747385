package app

import (
	"context"

	"homeseeker/go-backend/pkg/models"
)

type CoreAPI interface {
	WalletStatus() models.WalletStatus
	CreateWallet(password string) (models.WalletStatus, string, error)
	ImportWallet(mnemonic, password string) (models.WalletStatus, error)
	ValidateMnemonic(mnemonic string) bool
	UnlockWallet(password string) (models.WalletStatus, error)
	LockWallet()
	ExportWallet(password string) (string, error)
	ChangeWalletPassword(oldPassword, newPassword string) error

	ChainStatus(ctx context.Context) models.ChainStatus

	MintHouse(ctx context.Context, houseAddr string) (models.MintResult, error)
	RefreshLease(ctx context.Context, houseAddr string) (models.LeaseSnapshot, error)
	GetLease(houseAddr string) (models.LeaseSnapshot, bool)
	ListLeases() []models.LeaseSnapshot
	ApplyToRent(ctx context.Context, houseAddr, startDate string) (models.LeaseSnapshot, error)
	PayRent(ctx context.Context, houseAddr, amount string) (models.PaymentResult, error)

	SetRentalTerms(ctx context.Context, houseAddr, monthlyRent string, durationMonths, depositMonths uint32) (models.LeaseSnapshot, error)
	ApproveTenant(ctx context.Context, houseAddr, tenant string) (models.LeaseSnapshot, error)
	ReclaimHouse(ctx context.Context, houseAddr string) (models.LeaseSnapshot, error)
	ListApplications(ctx context.Context, houseAddr string) ([]models.Application, error)

	PostListing(listing models.Listing) (models.Listing, error)
	GetListing(shareCode string) (models.Listing, bool)
	GetListings() []models.Listing

	GetMetrics() models.MetricsSnapshot
}
