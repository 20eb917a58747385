package api

import (
	"log/slog"

	"homeseeker/go-backend/internal/app"
	"homeseeker/go-backend/internal/chain"
	"homeseeker/go-backend/internal/config"
	"homeseeker/go-backend/internal/securestore"
	"homeseeker/go-backend/internal/storage"
	"homeseeker/go-backend/internal/wallet"
)

// NewServiceForDaemon composes the full daemon service: wallet keystore,
// chain client, and persistent stores rooted under the configured data dir.
func NewServiceForDaemon(cfg config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = app.DefaultLogger()
	}
	walletManager := wallet.NewManager(cfg.Storage.WalletPath())
	client, err := chain.NewClient(cfg.Chain, walletManager, logger)
	if err != nil {
		return nil, err
	}
	leases, err := app.NewPersistentLeaseStateStore(cfg.Storage.LeasesPath())
	if err != nil {
		return nil, err
	}
	var listings *storage.ListingStore
	if securestore.IsStorageConfigured(cfg.Storage.ListingsPath(), cfg.Storage.Secret) {
		listings, err = storage.NewEncryptedPersistentListingStore(cfg.Storage.ListingsPath(), cfg.Storage.Secret)
	} else {
		listings, err = storage.NewPersistentListingStore(cfg.Storage.ListingsPath())
	}
	if err != nil {
		return nil, err
	}
	return NewService(walletManager, client, ServiceOptions{
		Leases:       leases,
		Listings:     listings,
		Logger:       logger,
		RegistryWait: cfg.Chain.RegistryWaitBound,
	}), nil
}
