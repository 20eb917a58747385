package api

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"homeseeker/go-backend/internal/app"
	"homeseeker/go-backend/internal/storage"
	"homeseeker/go-backend/pkg/models"
)

// WalletManager is the wallet surface the service drives. *wallet.Manager
// satisfies it.
type WalletManager interface {
	app.WalletDomain
	Create(password string) (address, mnemonic string, err error)
	Import(mnemonic, password string) (string, error)
	Unlock(password string) (string, error)
	Lock()
	ValidateMnemonic(mnemonic string) bool
	Export(password string) (string, error)
	ChangePassword(oldPassword, newPassword string) error
}

// Service is the lease workflow controller. It owns no lease state: every
// mutation goes to the chain collaborators and every projection is rebuilt
// from a fresh fetch. The stores underneath only cache the last fetch and the
// daemon-local listing text.
type Service struct {
	wallet   WalletManager
	chain    app.ChainDomain
	leases   app.LeaseProjectionStore
	listings app.ListingRepository
	notifier app.NotificationBus
	logger   *slog.Logger
	metrics  *app.ServiceMetricsState
	guard    *app.ActionGuard

	registryWait time.Duration

	startStopMu  sync.Mutex
	chainStarted bool

	unsubscribeWallet func()
}

type ServiceOptions struct {
	Leases       app.LeaseProjectionStore
	Listings     app.ListingRepository
	Logger       *slog.Logger
	RegistryWait time.Duration
}

func NewService(wallet WalletManager, chainDomain app.ChainDomain, opts ServiceOptions) *Service {
	if opts.Leases == nil {
		opts.Leases = app.NewLeaseStateStore()
	}
	if opts.Listings == nil {
		opts.Listings = storage.NewListingStore()
	}
	if opts.Logger == nil {
		opts.Logger = app.DefaultLogger()
	}
	if opts.RegistryWait <= 0 {
		opts.RegistryWait = app.RegistryWaitBound
	}
	s := &Service{
		wallet:       wallet,
		chain:        chainDomain,
		leases:       opts.Leases,
		listings:     opts.Listings,
		notifier:     newNotificationHub(2048),
		logger:       opts.Logger,
		metrics:      app.NewServiceMetricsState(),
		guard:        app.NewActionGuard(),
		registryWait: opts.RegistryWait,
	}
	s.unsubscribeWallet = wallet.OnAccountChanged(func(status models.WalletStatus) {
		s.notify("notify.wallet.status", status)
	})
	return s
}

func (s *Service) Close() {
	if s.unsubscribeWallet != nil {
		s.unsubscribeWallet()
	}
	s.StopChainSession()
}

// Wallet surface.

func (s *Service) WalletStatus() models.WalletStatus {
	return s.wallet.Status()
}

func (s *Service) CreateWallet(password string) (models.WalletStatus, string, error) {
	_, mnemonic, err := s.wallet.Create(strings.TrimSpace(password))
	if err != nil {
		return models.WalletStatus{}, "", err
	}
	return s.wallet.Status(), mnemonic, nil
}

func (s *Service) ImportWallet(mnemonic, password string) (models.WalletStatus, error) {
	if _, err := s.wallet.Import(mnemonic, strings.TrimSpace(password)); err != nil {
		return models.WalletStatus{}, err
	}
	return s.wallet.Status(), nil
}

func (s *Service) ValidateMnemonic(mnemonic string) bool {
	return s.wallet.ValidateMnemonic(mnemonic)
}

func (s *Service) UnlockWallet(password string) (models.WalletStatus, error) {
	if _, err := s.wallet.Unlock(strings.TrimSpace(password)); err != nil {
		return models.WalletStatus{}, err
	}
	return s.wallet.Status(), nil
}

func (s *Service) LockWallet() {
	s.wallet.Lock()
}

// ExportWallet reveals the recovery phrase. The password is re-checked even
// when the wallet is unlocked.
func (s *Service) ExportWallet(password string) (string, error) {
	return s.wallet.Export(strings.TrimSpace(password))
}

func (s *Service) ChangeWalletPassword(oldPassword, newPassword string) error {
	return s.wallet.ChangePassword(strings.TrimSpace(oldPassword), strings.TrimSpace(newPassword))
}

// Chain session.

func (s *Service) StartChainSession(ctx context.Context) error {
	s.startStopMu.Lock()
	defer s.startStopMu.Unlock()
	if s.chainStarted {
		return nil
	}
	if err := s.chain.Start(ctx); err != nil {
		s.recordError(app.KindNetwork, err)
		return err
	}
	s.chainStarted = true
	s.notify("notify.chain.status", s.chain.Status(ctx))
	return nil
}

func (s *Service) StopChainSession() {
	s.startStopMu.Lock()
	defer s.startStopMu.Unlock()
	if !s.chainStarted {
		return
	}
	s.chain.Stop()
	s.chainStarted = false
}

func (s *Service) ChainStatus(ctx context.Context) models.ChainStatus {
	return s.chain.Status(ctx)
}

// Lease workflow.

func (s *Service) MintHouse(ctx context.Context, houseAddr string) (result models.MintResult, err error) {
	defer s.trackOperation("lease.mint", &err)()
	houseAddr, err = app.ValidateHouseAddr(houseAddr)
	if err != nil {
		return models.MintResult{}, err
	}
	viewer, epoch, err := s.viewer()
	if err != nil {
		return models.MintResult{}, err
	}
	if !s.guard.TryBegin("mint", houseAddr) {
		return models.MintResult{}, app.ErrOperationInFlight
	}
	defer s.guard.End("mint", houseAddr)

	registry := s.chain.Registry()
	ref, found, err := registry.Lookup(ctx, houseAddr)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.MintResult{}, err
	}
	if found {
		// Minting is idempotent: an existing registration is success.
		if _, err := s.refreshProjection(ctx, viewer, epoch, houseAddr); err != nil {
			return models.MintResult{}, err
		}
		return models.MintResult{TokenID: ref.TokenID, LeaseContract: ref.Contract, AlreadyMinted: true}, nil
	}

	txHash, err := registry.Mint(ctx, houseAddr)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.MintResult{}, err
	}
	if err := s.chain.WaitTx(ctx, txHash); err != nil {
		s.recordError(app.Classify(err), err)
		return models.MintResult{}, err
	}
	ref, err = registry.WaitMinted(ctx, houseAddr, s.registryWait)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.MintResult{}, err
	}
	if err := s.ensureEpoch(epoch); err != nil {
		return models.MintResult{}, err
	}

	s.bindListingToken(houseAddr, ref.TokenID)
	if _, err := s.refreshProjection(ctx, viewer, epoch, houseAddr); err != nil {
		return models.MintResult{}, err
	}
	s.notify("notify.lease.update", map[string]any{"house_addr": houseAddr, "token_id": ref.TokenID})
	return models.MintResult{TokenID: ref.TokenID, LeaseContract: ref.Contract, TxHash: txHash}, nil
}

func (s *Service) RefreshLease(ctx context.Context, houseAddr string) (snapshot models.LeaseSnapshot, err error) {
	defer s.trackOperation("lease.refresh", &err)()
	houseAddr, err = app.ValidateHouseAddr(houseAddr)
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	viewer, epoch, err := s.viewer()
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	return s.refreshProjection(ctx, viewer, epoch, houseAddr)
}

func (s *Service) GetLease(houseAddr string) (models.LeaseSnapshot, bool) {
	viewer, ok := s.wallet.CurrentAccount()
	if !ok {
		return models.LeaseSnapshot{}, false
	}
	return s.leases.Get(viewer, houseAddr)
}

func (s *Service) ListLeases() []models.LeaseSnapshot {
	viewer, ok := s.wallet.CurrentAccount()
	if !ok {
		return nil
	}
	return s.leases.List(viewer)
}

func (s *Service) ApplyToRent(ctx context.Context, houseAddr, startDate string) (snapshot models.LeaseSnapshot, err error) {
	defer s.trackOperation("lease.apply", &err)()
	houseAddr, err = app.ValidateHouseAddr(houseAddr)
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	start, err := app.NormalizeStartDate(startDate, time.Now())
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	viewer, epoch, err := s.viewer()
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	if !s.guard.TryBegin("apply", houseAddr) {
		return models.LeaseSnapshot{}, app.ErrOperationInFlight
	}
	defer s.guard.End("apply", houseAddr)

	if prev, found := s.leases.Get(viewer, houseAddr); app.HasPendingApplication(prev, found) {
		// Re-applying with an application already projected is a no-op.
		return prev, nil
	}
	ref, err := s.requireLease(ctx, houseAddr)
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	lease := s.chain.LeaseAt(ref.Contract)
	txHash, err := lease.ApplyToRent(ctx, start)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.LeaseSnapshot{}, err
	}
	if err := s.chain.WaitTx(ctx, txHash); err != nil {
		s.recordError(app.Classify(err), err)
		return models.LeaseSnapshot{}, err
	}
	if err := s.ensureEpoch(epoch); err != nil {
		return models.LeaseSnapshot{}, err
	}
	snapshot, err = s.refreshProjection(ctx, viewer, epoch, houseAddr)
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	s.notify("notify.lease.update", map[string]any{"house_addr": houseAddr, "stage": snapshot.Stage})
	return snapshot, nil
}

// PayRent runs the two-transaction payment: authorize the lease contract on
// the payment token, then settle. A failure after a settled authorization is
// reported as payment-not-applied so the caller knows the allowance moved but
// the rent did not.
func (s *Service) PayRent(ctx context.Context, houseAddr, amount string) (result models.PaymentResult, err error) {
	defer s.trackOperation("lease.pay", &err)()
	houseAddr, err = app.ValidateHouseAddr(houseAddr)
	if err != nil {
		return models.PaymentResult{}, err
	}
	value, err := app.ParsePositiveAmount(amount)
	if err != nil {
		return models.PaymentResult{}, err
	}
	viewer, epoch, err := s.viewer()
	if err != nil {
		return models.PaymentResult{}, err
	}
	if !s.guard.TryBegin("payRent", houseAddr) {
		return models.PaymentResult{}, app.ErrOperationInFlight
	}
	defer s.guard.End("payRent", houseAddr)

	ref, err := s.requireLease(ctx, houseAddr)
	if err != nil {
		return models.PaymentResult{}, err
	}
	lease := s.chain.LeaseAt(ref.Contract)

	// Local gate: paying without an approved agreement would revert anyway,
	// so fail before touching the token.
	agreement, err := lease.Agreement(ctx, viewer)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.PaymentResult{}, err
	}
	if agreement == nil {
		return models.PaymentResult{}, app.ErrNotApproved
	}

	tokenAddr, err := lease.PaymentToken(ctx)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.PaymentResult{}, err
	}
	token := s.chain.TokenAt(tokenAddr)

	approveTx, err := token.Approve(ctx, ref.Contract, value)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.PaymentResult{}, err
	}
	if err := s.chain.WaitTx(ctx, approveTx); err != nil {
		s.recordError(app.Classify(err), err)
		return models.PaymentResult{}, err
	}
	if err := s.ensureEpoch(epoch); err != nil {
		return models.PaymentResult{}, err
	}

	payTx, err := lease.PayRent(ctx, value)
	if err != nil {
		err = app.Failf(app.KindPaymentNotApplied, "authorization settled but rent payment was not applied: %v", err)
		s.recordError(app.KindPaymentNotApplied, err)
		return models.PaymentResult{}, err
	}
	if err := s.chain.WaitTx(ctx, payTx); err != nil {
		err = app.Failf(app.KindPaymentNotApplied, "authorization settled but rent payment was not applied: %v", err)
		s.recordError(app.KindPaymentNotApplied, err)
		return models.PaymentResult{}, err
	}
	if err := s.ensureEpoch(epoch); err != nil {
		return models.PaymentResult{}, err
	}

	snapshot, err := s.refreshProjection(ctx, viewer, epoch, houseAddr)
	if err != nil {
		return models.PaymentResult{}, err
	}
	s.notify("notify.payment", map[string]any{"house_addr": houseAddr, "amount": value.String()})
	return models.PaymentResult{ApproveTxHash: approveTx, PayTxHash: payTx, Balance: snapshot.Balance}, nil
}

// Owner operations.

func (s *Service) SetRentalTerms(ctx context.Context, houseAddr, monthlyRent string, durationMonths, depositMonths uint32) (snapshot models.LeaseSnapshot, err error) {
	defer s.trackOperation("lease.set_terms", &err)()
	houseAddr, err = app.ValidateHouseAddr(houseAddr)
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	rent, err := app.ValidateTermsInput(monthlyRent, durationMonths, depositMonths)
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	viewer, epoch, err := s.viewer()
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	if !s.guard.TryBegin("setTerms", houseAddr) {
		return models.LeaseSnapshot{}, app.ErrOperationInFlight
	}
	defer s.guard.End("setTerms", houseAddr)

	ref, lease, err := s.requireOwnedLease(ctx, viewer, houseAddr)
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	agreement, err := lease.Agreement(ctx, viewer)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.LeaseSnapshot{}, err
	}
	if err := app.EnsureTermsMutable(agreement != nil); err != nil {
		return models.LeaseSnapshot{}, err
	}

	txHash, err := lease.SetTerms(ctx, rent, durationMonths, depositMonths)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.LeaseSnapshot{}, err
	}
	if err := s.chain.WaitTx(ctx, txHash); err != nil {
		s.recordError(app.Classify(err), err)
		return models.LeaseSnapshot{}, err
	}
	if err := s.ensureEpoch(epoch); err != nil {
		return models.LeaseSnapshot{}, err
	}
	snapshot, err = s.refreshProjection(ctx, viewer, epoch, houseAddr)
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	s.notify("notify.lease.update", map[string]any{"house_addr": houseAddr, "token_id": ref.TokenID})
	return snapshot, nil
}

func (s *Service) ApproveTenant(ctx context.Context, houseAddr, tenant string) (snapshot models.LeaseSnapshot, err error) {
	defer s.trackOperation("lease.approve", &err)()
	houseAddr, err = app.ValidateHouseAddr(houseAddr)
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	tenant, err = app.ValidateTenantAddr(tenant)
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	viewer, epoch, err := s.viewer()
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	if !s.guard.TryBegin("approve", houseAddr) {
		return models.LeaseSnapshot{}, app.ErrOperationInFlight
	}
	defer s.guard.End("approve", houseAddr)

	_, lease, err := s.requireOwnedLease(ctx, viewer, houseAddr)
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	applications, err := lease.Applications(ctx)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.LeaseSnapshot{}, err
	}
	if err := app.EnsureApprovable(hasApplicationFrom(applications, tenant)); err != nil {
		return models.LeaseSnapshot{}, err
	}

	txHash, err := lease.ApproveTenant(ctx, tenant)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.LeaseSnapshot{}, err
	}
	if err := s.chain.WaitTx(ctx, txHash); err != nil {
		s.recordError(app.Classify(err), err)
		return models.LeaseSnapshot{}, err
	}
	if err := s.ensureEpoch(epoch); err != nil {
		return models.LeaseSnapshot{}, err
	}
	snapshot, err = s.refreshProjection(ctx, viewer, epoch, houseAddr)
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	s.notify("notify.lease.update", map[string]any{"house_addr": houseAddr, "tenant": tenant})
	return snapshot, nil
}

func (s *Service) ReclaimHouse(ctx context.Context, houseAddr string) (snapshot models.LeaseSnapshot, err error) {
	defer s.trackOperation("lease.reclaim", &err)()
	houseAddr, err = app.ValidateHouseAddr(houseAddr)
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	viewer, epoch, err := s.viewer()
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	if !s.guard.TryBegin("reclaim", houseAddr) {
		return models.LeaseSnapshot{}, app.ErrOperationInFlight
	}
	defer s.guard.End("reclaim", houseAddr)

	_, lease, err := s.requireOwnedLease(ctx, viewer, houseAddr)
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	agreement, err := lease.Agreement(ctx, viewer)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.LeaseSnapshot{}, err
	}
	if err := app.EnsureReclaimable(agreement != nil); err != nil {
		return models.LeaseSnapshot{}, err
	}

	txHash, err := lease.Reclaim(ctx)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.LeaseSnapshot{}, err
	}
	if err := s.chain.WaitTx(ctx, txHash); err != nil {
		s.recordError(app.Classify(err), err)
		return models.LeaseSnapshot{}, err
	}
	if err := s.ensureEpoch(epoch); err != nil {
		return models.LeaseSnapshot{}, err
	}
	snapshot, err = s.refreshProjection(ctx, viewer, epoch, houseAddr)
	if err != nil {
		return models.LeaseSnapshot{}, err
	}
	s.notify("notify.lease.update", map[string]any{"house_addr": houseAddr, "stage": snapshot.Stage})
	return snapshot, nil
}

func (s *Service) ListApplications(ctx context.Context, houseAddr string) (applications []models.Application, err error) {
	defer s.trackOperation("lease.applications", &err)()
	houseAddr, err = app.ValidateHouseAddr(houseAddr)
	if err != nil {
		return nil, err
	}
	viewer, _, err := s.viewer()
	if err != nil {
		return nil, err
	}
	_, lease, err := s.requireOwnedLease(ctx, viewer, houseAddr)
	if err != nil {
		return nil, err
	}
	applications, err = lease.Applications(ctx)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return nil, err
	}
	return applications, nil
}

// Listings.

func (s *Service) PostListing(listing models.Listing) (models.Listing, error) {
	validated, err := app.ValidateListingInput(listing)
	if err != nil {
		return models.Listing{}, err
	}
	posted, err := s.listings.Add(validated)
	if err != nil {
		s.recordError(app.KindValidation, err)
		return models.Listing{}, err
	}
	s.notify("notify.listing.posted", map[string]any{"share_code": posted.ShareCode, "house_addr": posted.HouseAddr})
	return posted, nil
}

func (s *Service) GetListing(shareCode string) (models.Listing, bool) {
	return s.listings.Get(shareCode)
}

func (s *Service) GetListings() []models.Listing {
	return s.listings.List()
}

// Metrics and notifications.

func (s *Service) GetMetrics() models.MetricsSnapshot {
	counters, opStats, lastAt := s.metrics.Snapshot()
	return models.MetricsSnapshot{
		ErrorCounters:       counters,
		OperationStats:      opStats,
		NotificationBacklog: s.notifier.BacklogSize(),
		LastUpdatedAt:       lastAt,
	}
}

func (s *Service) SubscribeNotifications(cursor int64) ([]NotificationEvent, <-chan NotificationEvent, func()) {
	return s.notifier.Subscribe(cursor)
}

func (s *Service) notify(method string, payload any) {
	s.notifier.Publish(method, payload)
}

// Internals.

func (s *Service) viewer() (string, uint64, error) {
	account, ok := s.wallet.CurrentAccount()
	if !ok {
		return "", 0, app.ErrWalletLocked
	}
	return account, s.wallet.Epoch(), nil
}

// ensureEpoch re-checks the identity captured at operation start. Results
// produced under a different account must not be attributed to the new one.
func (s *Service) ensureEpoch(epoch uint64) error {
	if s.wallet.Epoch() != epoch {
		return app.ErrIdentityChanged
	}
	return nil
}

func (s *Service) requireLease(ctx context.Context, houseAddr string) (app.LeaseRef, error) {
	ref, found, err := s.chain.Registry().Lookup(ctx, houseAddr)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return app.LeaseRef{}, err
	}
	if !found {
		return app.LeaseRef{}, app.ErrPropertyNotListed
	}
	return ref, nil
}

func (s *Service) requireOwnedLease(ctx context.Context, viewer, houseAddr string) (app.LeaseRef, app.LeaseGateway, error) {
	ref, err := s.requireLease(ctx, houseAddr)
	if err != nil {
		return app.LeaseRef{}, nil, err
	}
	lease := s.chain.LeaseAt(ref.Contract)
	owner, err := lease.Owner(ctx)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return app.LeaseRef{}, nil, err
	}
	if !strings.EqualFold(owner, viewer) {
		return app.LeaseRef{}, nil, app.Failf(app.KindValidation, "only the property owner may perform this operation")
	}
	return ref, lease, nil
}

// refreshProjection rebuilds the viewer's snapshot from a full fetch and
// overwrites the cached one. It never merges with stale state.
func (s *Service) refreshProjection(ctx context.Context, viewer string, epoch uint64, houseAddr string) (models.LeaseSnapshot, error) {
	prevStage := models.LeaseStage("")
	if prev, found := s.leases.Get(viewer, houseAddr); found {
		prevStage = prev.Stage
	}

	ref, found, err := s.chain.Registry().Lookup(ctx, houseAddr)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.LeaseSnapshot{}, err
	}
	if !found {
		snapshot := models.LeaseSnapshot{
			HouseAddr: houseAddr,
			Stage:     models.StageUnlisted,
			FetchedAt: time.Now().UTC(),
		}
		if err := s.leases.Put(viewer, snapshot); err != nil {
			s.recordError(app.KindNetwork, err)
		}
		return snapshot, nil
	}

	lease := s.chain.LeaseAt(ref.Contract)
	owner, err := lease.Owner(ctx)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.LeaseSnapshot{}, err
	}
	terms, err := lease.Terms(ctx)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.LeaseSnapshot{}, err
	}
	applications, err := lease.Applications(ctx)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.LeaseSnapshot{}, err
	}
	application, viewerApplied := selectApplication(applications, viewer, owner)
	agreement, err := lease.Agreement(ctx, viewer)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.LeaseSnapshot{}, err
	}
	// Balance is the lease contract's debt ledger, not the viewer's token
	// holdings. Positive means rent is owed.
	debt, err := lease.Debt(ctx, viewer)
	if err != nil {
		s.recordError(app.Classify(err), err)
		return models.LeaseSnapshot{}, err
	}

	if err := s.ensureEpoch(epoch); err != nil {
		return models.LeaseSnapshot{}, err
	}
	snapshot := app.BuildSnapshot(prevStage, ref, houseAddr, owner, terms, application, viewerApplied, agreement, debt, time.Now())
	if err := s.leases.Put(viewer, snapshot); err != nil {
		s.recordError(app.KindNetwork, err)
	}
	return snapshot, nil
}

// selectApplication picks the application to project: the viewer's own, or
// for the owner the oldest pending one. The second result reports whether the
// viewer themselves applied, which is what drives the stage; the owner sees
// pending applications without their own view becoming Applied.
func selectApplication(applications []models.Application, viewer, owner string) (*models.Application, bool) {
	for _, candidate := range applications {
		if strings.EqualFold(candidate.Tenant, viewer) {
			matched := candidate
			return &matched, true
		}
	}
	if strings.EqualFold(viewer, owner) && len(applications) > 0 {
		oldest := applications[0]
		for _, candidate := range applications[1:] {
			if candidate.SubmittedAt.Before(oldest.SubmittedAt) {
				oldest = candidate
			}
		}
		return &oldest, false
	}
	return nil, false
}

func hasApplicationFrom(applications []models.Application, tenant string) bool {
	for _, candidate := range applications {
		if strings.EqualFold(candidate.Tenant, tenant) {
			return true
		}
	}
	return false
}

func (s *Service) bindListingToken(houseAddr string, tokenID uint64) {
	if s.listings == nil {
		return
	}
	for _, listing := range s.listings.List() {
		if strings.EqualFold(listing.HouseAddr, houseAddr) {
			if err := s.listings.BindToken(listing.ShareCode, tokenID); err != nil {
				s.logger.Warn("listing token bind failed", "share_code", listing.ShareCode, "error", err.Error())
			}
			return
		}
	}
}

func (s *Service) recordError(kind app.ErrorKind, err error) {
	s.metrics.RecordError(kind)
	s.logger.Error("service error", "kind", string(kind), "error", err.Error())
}

func (s *Service) recordOp(operation string, started time.Time) {
	s.metrics.RecordOp(operation, started)
}

func (s *Service) recordOpError(operation string) {
	s.metrics.RecordOpError(operation)
}

func (s *Service) trackOperation(operation string, errRef *error) func() {
	started := time.Now()
	return func() {
		s.recordOp(operation, started)
		if errRef != nil && *errRef != nil {
			s.recordOpError(operation)
		}
	}
}
