package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"homeseeker/go-backend/pkg/models"
)

// SimBackend is an in-process chain with the notary, lease, and payment-token
// contracts interpreted natively. It decodes real packed calldata by selector
// and recovers senders from real signatures, so everything above it exercises
// the same encode/sign/decode paths as a live node. Accounts are faucet-funded
// with payment tokens on first touch, like a dev chain.
type SimBackend struct {
	chainID *big.Int

	mu          sync.Mutex
	blockNumber uint64
	notaryAddr  common.Address
	tokenAddr   common.Address

	tokenCounter uint64
	houses       map[uint64]*simHouse
	housesByAddr map[string]uint64
	leasesByAddr map[common.Address]*simHouse

	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int

	receipts map[common.Hash]*types.Receipt
	logs     []types.Log
}

type simHouse struct {
	tokenID   uint64
	houseAddr string
	leaseAddr common.Address
	owner     common.Address

	monthlyRent    *big.Int
	durationMonths uint64
	depositMonths  uint64

	applications map[common.Address]models.Application
	appOrder     []common.Address

	tenant         common.Address
	agreementStart time.Time
	agreedRent     *big.Int
	agreedDuration uint64
	agreedDeposit  uint64
	debt           *big.Int
}

var simFaucetGrant = new(big.Int).Mul(big.NewInt(10_000), big.NewInt(1_000_000))

func NewSimBackend(chainID uint64) *SimBackend {
	if chainID == 0 {
		chainID = 31337
	}
	return &SimBackend{
		chainID:      new(big.Int).SetUint64(chainID),
		blockNumber:  1,
		notaryAddr:   common.HexToAddress("0x1000000000000000000000000000000000000001"),
		tokenAddr:    common.HexToAddress("0x1000000000000000000000000000000000000002"),
		houses:       make(map[uint64]*simHouse),
		housesByAddr: make(map[string]uint64),
		leasesByAddr: make(map[common.Address]*simHouse),
		balances:     make(map[common.Address]*big.Int),
		allowances:   make(map[common.Address]map[common.Address]*big.Int),
		receipts:     make(map[common.Hash]*types.Receipt),
	}
}

func (s *SimBackend) NotaryAddress() common.Address { return s.notaryAddr }
func (s *SimBackend) TokenAddress() common.Address  { return s.tokenAddr }

// Fund credits an account directly; tests use it to set up exact balances.
func (s *SimBackend) Fund(account common.Address, amount *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[account] = new(big.Int).Set(amount)
}

func (s *SimBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(s.chainID), nil
}

func (s *SimBackend) BlockNumber(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockNumber, nil
}

func (s *SimBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.receipts)), nil
}

func (s *SimBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (s *SimBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.To == nil {
		return nil, errors.New("contract creation is not supported")
	}
	return s.viewLocked(msg.From, *msg.To, msg.Data)
}

func (s *SimBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.To == nil {
		return 0, errors.New("contract creation is not supported")
	}
	if _, err := s.executeLocked(msg.From, *msg.To, msg.Data, false); err != nil {
		return 0, fmt.Errorf("execution reverted: %w", err)
	}
	return 21_000 + uint64(len(msg.Data))*16, nil
}

func (s *SimBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	from, err := types.Sender(types.LatestSignerForChainID(s.chainID), tx)
	if err != nil {
		return fmt.Errorf("sender recovery: %w", err)
	}
	if tx.To() == nil {
		return errors.New("contract creation is not supported")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blockNumber++
	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(s.blockNumber),
	}
	emitted, err := s.executeLocked(from, *tx.To(), tx.Data(), true)
	if err != nil {
		receipt.Status = types.ReceiptStatusFailed
	} else {
		for i := range emitted {
			emitted[i].BlockNumber = s.blockNumber
			emitted[i].TxHash = tx.Hash()
		}
		s.logs = append(s.logs, emitted...)
		receipt.Logs = make([]*types.Log, len(emitted))
		for i := range emitted {
			receipt.Logs[i] = &emitted[i]
		}
	}
	s.receipts[tx.Hash()] = receipt
	return nil
}

func (s *SimBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	receipt, ok := s.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (s *SimBackend) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := uint64(0)
	if q.FromBlock != nil {
		from = q.FromBlock.Uint64()
	}
	var out []types.Log
	for _, entry := range s.logs {
		if entry.BlockNumber < from {
			continue
		}
		if len(q.Addresses) > 0 && !containsAddress(q.Addresses, entry.Address) {
			continue
		}
		if len(q.Topics) > 0 && len(q.Topics[0]) > 0 {
			if len(entry.Topics) == 0 || !containsHash(q.Topics[0], entry.Topics[0]) {
				continue
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *SimBackend) Close() {}

func containsAddress(list []common.Address, want common.Address) bool {
	for _, a := range list {
		if a == want {
			return true
		}
	}
	return false
}

func containsHash(list []common.Hash, want common.Hash) bool {
	for _, h := range list {
		if h == want {
			return true
		}
	}
	return false
}

// viewLocked answers read-only calls.
func (s *SimBackend) viewLocked(from, to common.Address, data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, errors.New("calldata too short")
	}
	switch {
	case to == s.notaryAddr:
		method, err := notaryABI.MethodById(data[:4])
		if err != nil {
			return nil, err
		}
		args, err := method.Inputs.Unpack(data[4:])
		if err != nil {
			return nil, err
		}
		switch method.Name {
		case "tokenIdCounter":
			return method.Outputs.Pack(new(big.Int).SetUint64(s.tokenCounter))
		case "leases":
			tokenID := args[0].(*big.Int).Uint64()
			house, ok := s.houses[tokenID]
			if !ok {
				return method.Outputs.Pack(common.Address{})
			}
			return method.Outputs.Pack(house.leaseAddr)
		}
		return nil, fmt.Errorf("notary has no view %s", method.Name)

	case to == s.tokenAddr:
		method, err := erc20ABI.MethodById(data[:4])
		if err != nil {
			return nil, err
		}
		args, err := method.Inputs.Unpack(data[4:])
		if err != nil {
			return nil, err
		}
		switch method.Name {
		case "balanceOf":
			return method.Outputs.Pack(s.balanceLocked(args[0].(common.Address)))
		case "allowance":
			return method.Outputs.Pack(s.allowanceLocked(args[0].(common.Address), args[1].(common.Address)))
		}
		return nil, fmt.Errorf("token has no view %s", method.Name)
	}

	house, ok := s.leasesByAddr[to]
	if !ok {
		return nil, fmt.Errorf("no contract at %s", to.Hex())
	}
	method, err := leaseABI.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "houseAddr":
		return method.Outputs.Pack(house.houseAddr)
	case "owner":
		return method.Outputs.Pack(house.owner)
	case "monthlyRent":
		return method.Outputs.Pack(bigOrZero(house.monthlyRent))
	case "durationMonths":
		return method.Outputs.Pack(new(big.Int).SetUint64(house.durationMonths))
	case "depositInMonths":
		return method.Outputs.Pack(new(big.Int).SetUint64(house.depositMonths))
	case "USDC":
		return method.Outputs.Pack(s.tokenAddr)
	case "checkAgreement":
		if house.tenant == (common.Address{}) || (from != house.tenant && from != house.owner) {
			zero := big.NewInt(0)
			return method.Outputs.Pack(common.Address{}, zero, zero, zero, zero)
		}
		return method.Outputs.Pack(
			house.tenant,
			big.NewInt(house.agreementStart.Unix()),
			bigOrZero(house.agreedRent),
			new(big.Int).SetUint64(house.agreedDuration),
			new(big.Int).SetUint64(house.agreedDeposit))
	case "checkDebt":
		if from != house.tenant && from != house.owner {
			return method.Outputs.Pack(big.NewInt(0))
		}
		return method.Outputs.Pack(bigOrZero(house.debt))
	}
	return nil, fmt.Errorf("lease has no view %s", method.Name)
}

// executeLocked runs a state-changing call; with commit=false it only checks
// preconditions, which is what gas estimation observes.
func (s *SimBackend) executeLocked(from, to common.Address, data []byte, commit bool) ([]types.Log, error) {
	if len(data) < 4 {
		return nil, errors.New("calldata too short")
	}
	s.ensureFundedLocked(from)

	if to == s.notaryAddr {
		method, err := notaryABI.MethodById(data[:4])
		if err != nil {
			return nil, err
		}
		if method.Name != "mint" {
			return nil, fmt.Errorf("notary has no mutator %s", method.Name)
		}
		args, err := method.Inputs.Unpack(data[4:])
		if err != nil {
			return nil, err
		}
		return s.mintLocked(from, args[0].(string), commit)
	}

	if to == s.tokenAddr {
		method, err := erc20ABI.MethodById(data[:4])
		if err != nil {
			return nil, err
		}
		if method.Name != "approve" {
			return nil, fmt.Errorf("token has no mutator %s", method.Name)
		}
		args, err := method.Inputs.Unpack(data[4:])
		if err != nil {
			return nil, err
		}
		if commit {
			s.setAllowanceLocked(from, args[0].(common.Address), args[1].(*big.Int))
		}
		return nil, nil
	}

	house, ok := s.leasesByAddr[to]
	if !ok {
		return nil, fmt.Errorf("no contract at %s", to.Hex())
	}
	method, err := leaseABI.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "setRentalTerms":
		return nil, s.setTermsLocked(house, from, args, commit)
	case "applyToRent":
		return s.applyLocked(house, from, args[0].(*big.Int), commit)
	case "approveTenant":
		return nil, s.approveTenantLocked(house, from, args[0].(common.Address), commit)
	case "payRent":
		return nil, s.payRentLocked(house, from, args[0].(*big.Int), commit)
	case "reclaimHouse":
		return nil, s.reclaimLocked(house, from, commit)
	}
	return nil, fmt.Errorf("lease has no mutator %s", method.Name)
}

func (s *SimBackend) mintLocked(from common.Address, houseAddr string, commit bool) ([]types.Log, error) {
	key := strings.ToLower(strings.TrimSpace(houseAddr))
	if key == "" {
		return nil, errors.New("empty house address")
	}
	if _, exists := s.housesByAddr[key]; exists {
		return nil, errors.New("house already minted")
	}
	if !commit {
		return nil, nil
	}
	s.tokenCounter++
	tokenID := s.tokenCounter
	leaseAddr := crypto.CreateAddress(s.notaryAddr, tokenID)
	house := &simHouse{
		tokenID:      tokenID,
		houseAddr:    strings.TrimSpace(houseAddr),
		leaseAddr:    leaseAddr,
		owner:        from,
		applications: make(map[common.Address]models.Application),
	}
	s.houses[tokenID] = house
	s.housesByAddr[key] = tokenID
	s.leasesByAddr[leaseAddr] = house

	event := notaryABI.Events["HouseMinted"]
	data, err := event.Inputs.Pack(house.houseAddr, new(big.Int).SetUint64(tokenID), from)
	if err != nil {
		return nil, err
	}
	return []types.Log{{
		Address: s.notaryAddr,
		Topics:  []common.Hash{event.ID},
		Data:    data,
	}}, nil
}

func (s *SimBackend) setTermsLocked(house *simHouse, from common.Address, args []any, commit bool) error {
	if from != house.owner {
		return errors.New("caller is not the owner")
	}
	if house.tenant != (common.Address{}) {
		return errors.New("tenant still leasing")
	}
	rent := args[0].(*big.Int)
	if rent.Sign() <= 0 {
		return errors.New("rent must be positive")
	}
	if !commit {
		return nil
	}
	house.monthlyRent = new(big.Int).Set(rent)
	house.durationMonths = args[1].(*big.Int).Uint64()
	house.depositMonths = args[2].(*big.Int).Uint64()
	return nil
}

func (s *SimBackend) applyLocked(house *simHouse, from common.Address, start *big.Int, commit bool) ([]types.Log, error) {
	if house.monthlyRent == nil || house.monthlyRent.Sign() == 0 {
		return nil, errors.New("rental terms not set")
	}
	if from == house.owner {
		return nil, errors.New("owner cannot apply")
	}
	if _, dup := house.applications[from]; dup {
		return nil, errors.New("already applied")
	}
	if !commit {
		return nil, nil
	}
	now := time.Now().UTC()
	house.applications[from] = models.Application{
		Tenant:      from.Hex(),
		StartDate:   time.Unix(start.Int64(), 0).UTC(),
		SubmittedAt: now,
	}
	house.appOrder = append(house.appOrder, from)

	event := leaseABI.Events["ApplicationSubmitted"]
	data, err := event.Inputs.Pack(from, start, big.NewInt(now.Unix()))
	if err != nil {
		return nil, err
	}
	return []types.Log{{
		Address: house.leaseAddr,
		Topics:  []common.Hash{event.ID},
		Data:    data,
	}}, nil
}

func (s *SimBackend) approveTenantLocked(house *simHouse, from, tenant common.Address, commit bool) error {
	if from != house.owner {
		return errors.New("caller is not the owner")
	}
	if house.tenant != (common.Address{}) {
		return errors.New("tenant already approved")
	}
	application, ok := house.applications[tenant]
	if !ok {
		return errors.New("tenant has not applied")
	}
	if !commit {
		return nil
	}
	house.tenant = tenant
	house.agreementStart = application.StartDate
	house.agreedRent = new(big.Int).Set(house.monthlyRent)
	house.agreedDuration = house.durationMonths
	house.agreedDeposit = house.depositMonths
	// First bill: security deposit plus the first month, due immediately.
	house.debt = new(big.Int).Mul(house.agreedRent, new(big.Int).SetUint64(house.agreedDeposit+1))
	return nil
}

func (s *SimBackend) payRentLocked(house *simHouse, from common.Address, amount *big.Int, commit bool) error {
	if house.tenant == (common.Address{}) || from != house.tenant {
		return errors.New("caller is not the approved tenant")
	}
	if amount.Sign() <= 0 {
		return errors.New("amount must be positive")
	}
	allowance := s.allowanceLocked(from, house.leaseAddr)
	if allowance.Cmp(amount) < 0 {
		return errors.New("insufficient allowance")
	}
	balance := s.balanceLocked(from)
	if balance.Cmp(amount) < 0 {
		return errors.New("insufficient balance")
	}
	if !commit {
		return nil
	}
	s.balances[from] = new(big.Int).Sub(balance, amount)
	s.balances[house.owner] = new(big.Int).Add(s.balanceLocked(house.owner), amount)
	s.allowances[from][house.leaseAddr] = new(big.Int).Sub(allowance, amount)
	house.debt = new(big.Int).Sub(bigOrZero(house.debt), amount)
	return nil
}

func (s *SimBackend) reclaimLocked(house *simHouse, from common.Address, commit bool) error {
	if from != house.owner {
		return errors.New("caller is not the owner")
	}
	if house.tenant == (common.Address{}) {
		return errors.New("no tenant to reclaim from")
	}
	if !commit {
		return nil
	}
	delete(house.applications, house.tenant)
	house.tenant = common.Address{}
	house.agreementStart = time.Time{}
	house.agreedRent = nil
	house.agreedDuration = 0
	house.agreedDeposit = 0
	house.debt = nil
	return nil
}

func (s *SimBackend) ensureFundedLocked(account common.Address) {
	if _, ok := s.balances[account]; !ok {
		s.balances[account] = new(big.Int).Set(simFaucetGrant)
	}
}

func (s *SimBackend) balanceLocked(account common.Address) *big.Int {
	s.ensureFundedLocked(account)
	return new(big.Int).Set(s.balances[account])
}

func (s *SimBackend) allowanceLocked(owner, spender common.Address) *big.Int {
	if bys, ok := s.allowances[owner]; ok {
		if v, ok := bys[spender]; ok {
			return new(big.Int).Set(v)
		}
	}
	return big.NewInt(0)
}

func (s *SimBackend) setAllowanceLocked(owner, spender common.Address, amount *big.Int) {
	bys, ok := s.allowances[owner]
	if !ok {
		bys = make(map[common.Address]*big.Int)
		s.allowances[owner] = bys
	}
	bys[spender] = new(big.Int).Set(amount)
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
