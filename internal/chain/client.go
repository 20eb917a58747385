package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"homeseeker/go-backend/internal/app"
	"homeseeker/go-backend/pkg/models"
)

// Backend is the slice of the Ethereum JSON-RPC surface the gateways need.
// *ethclient.Client satisfies it; the sim backend emulates it for tests and
// for running without a node.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	Close()
}

// Signer signs transactions with the viewer's current wallet key.
type Signer interface {
	Address() (common.Address, bool)
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

type Client struct {
	cfg    Config
	signer Signer
	log    *slog.Logger

	mu       sync.RWMutex
	backend  Backend
	chainID  *big.Int
	state    string
	lastSync time.Time

	notaryAddr common.Address
	tokenAddr  common.Address
}

func NewClient(cfg Config, signer Signer, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:    cfg,
		signer: signer,
		log:    logger,
		state:  StateDisconnected,
	}
	if cfg.Transport != TransportSim {
		if !common.IsHexAddress(cfg.NotaryAddress) {
			return nil, fmt.Errorf("invalid notary address %q", cfg.NotaryAddress)
		}
		c.notaryAddr = common.HexToAddress(cfg.NotaryAddress)
		if cfg.TokenAddress != "" {
			if !common.IsHexAddress(cfg.TokenAddress) {
				return nil, fmt.Errorf("invalid token address %q", cfg.TokenAddress)
			}
			c.tokenAddr = common.HexToAddress(cfg.TokenAddress)
		}
	}
	return c, nil
}

// NewClientWithBackend injects a backend directly; used by tests.
func NewClientWithBackend(cfg Config, signer Signer, backend Backend, logger *slog.Logger) (*Client, error) {
	c, err := NewClient(cfg, signer, logger)
	if err != nil {
		return nil, err
	}
	c.backend = backend
	if sim, ok := backend.(*SimBackend); ok {
		c.notaryAddr = sim.NotaryAddress()
		c.tokenAddr = sim.TokenAddress()
	}
	return c, nil
}

func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backend == nil {
		switch c.cfg.Transport {
		case TransportSim:
			sim := NewSimBackend(c.cfg.ChainID)
			c.notaryAddr = sim.NotaryAddress()
			c.tokenAddr = sim.TokenAddress()
			c.backend = sim
		default:
			eth, err := ethclient.DialContext(ctx, c.cfg.Endpoint)
			if err != nil {
				return fmt.Errorf("chain dial %s: %w", c.cfg.Endpoint, err)
			}
			c.backend = eth
		}
	}
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		c.state = StateDegraded
		return fmt.Errorf("chain id query: %w", err)
	}
	if c.cfg.ChainID != 0 && id.Uint64() != c.cfg.ChainID {
		c.state = StateDegraded
		return fmt.Errorf("connected to chain %d, expected %d", id.Uint64(), c.cfg.ChainID)
	}
	c.chainID = id
	c.state = StateConnected
	c.lastSync = time.Now().UTC()
	c.log.Info("chain session started", "transport", c.cfg.Transport, "chain_id", id.Uint64(), "chain_name", ChainName(id.Uint64()))
	return nil
}

func (c *Client) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backend != nil {
		c.backend.Close()
		c.backend = nil
	}
	c.state = StateDisconnected
}

func (c *Client) Status(ctx context.Context) models.ChainStatus {
	c.mu.RLock()
	backend := c.backend
	chainID := uint64(0)
	if c.chainID != nil {
		chainID = c.chainID.Uint64()
	}
	status := models.ChainStatus{
		State:         c.state,
		ChainID:       chainID,
		ChainName:     ChainName(chainID),
		NotaryAddress: c.notaryAddr.Hex(),
		TokenAddress:  c.tokenAddr.Hex(),
		LastSync:      c.lastSync,
	}
	c.mu.RUnlock()

	if backend == nil {
		status.State = StateDisconnected
		return status
	}
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	block, err := backend.BlockNumber(queryCtx)
	if err != nil {
		status.State = StateDegraded
		return status
	}
	status.BlockNumber = block
	now := time.Now().UTC()
	status.LastSync = now
	c.mu.Lock()
	c.lastSync = now
	c.mu.Unlock()
	return status
}

func (c *Client) Registry() app.RegistryGateway {
	return &notaryGateway{c: c}
}

func (c *Client) LeaseAt(contract string) app.LeaseGateway {
	return &leaseGateway{c: c, addr: common.HexToAddress(contract)}
}

func (c *Client) TokenAt(contract string) app.TokenGateway {
	return &tokenGateway{c: c, addr: common.HexToAddress(contract)}
}

// WaitTx polls for the receipt until the confirmation bound elapses. A mined
// receipt with a failed status is a rejection; an elapsed bound is a network
// failure (outcome unknown, not known-bad).
func (c *Client) WaitTx(ctx context.Context, txHash string) error {
	hash := common.HexToHash(txHash)
	deadline := time.NewTimer(c.cfg.ConfirmTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(c.cfg.ConfirmPollInterval)
	defer tick.Stop()

	for {
		receipt, err := c.currentBackend().TransactionReceipt(ctx, hash)
		if err == nil {
			txConfirmations.Inc()
			if receipt.Status != types.ReceiptStatusSuccessful {
				txReverts.Inc()
				return app.Failf(app.KindTransactionRejected, "transaction %s reverted", txHash)
			}
			return nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return app.Failf(app.KindNetwork, "receipt query for %s: %v", txHash, err)
		}
		select {
		case <-ctx.Done():
			return app.Failf(app.KindNetwork, "confirmation wait cancelled: %v", ctx.Err())
		case <-deadline.C:
			return app.Failf(app.KindNetwork, "transaction %s unconfirmed after %s", txHash, c.cfg.ConfirmTimeout)
		case <-tick.C:
		}
	}
}

func (c *Client) currentBackend() Backend {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.backend
}

func (c *Client) call(ctx context.Context, from *common.Address, to common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error) {
	backend := c.currentBackend()
	if backend == nil {
		return nil, app.Failf(app.KindNetwork, "chain session is not started")
	}
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, app.Failf(app.KindNetwork, "pack %s: %v", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	if from != nil {
		msg.From = *from
	}
	contractCalls.WithLabelValues(method).Inc()
	out, err := backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, app.Failf(app.KindNetwork, "%s call: %v", method, err)
	}
	values, err := contractABI.Unpack(method, out)
	if err != nil {
		return nil, app.Failf(app.KindNetwork, "unpack %s: %v", method, err)
	}
	return values, nil
}

func (c *Client) transact(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) (string, error) {
	backend := c.currentBackend()
	if backend == nil {
		return "", app.Failf(app.KindNetwork, "chain session is not started")
	}
	from, ok := c.signer.Address()
	if !ok {
		return "", app.ErrWalletLocked
	}
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return "", app.Failf(app.KindNetwork, "pack %s: %v", method, err)
	}
	nonce, err := backend.PendingNonceAt(ctx, from)
	if err != nil {
		return "", app.Failf(app.KindNetwork, "nonce query: %v", err)
	}
	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", app.Failf(app.KindNetwork, "gas price query: %v", err)
	}
	msg := ethereum.CallMsg{From: from, To: &to, Data: data}
	gas, err := backend.EstimateGas(ctx, msg)
	if err != nil {
		// Estimation runs the call; failure means the node predicts a revert.
		return "", app.Failf(app.KindTransactionRejected, "%s rejected: %v", method, err)
	}
	if c.cfg.GasLimit > 0 && gas < c.cfg.GasLimit {
		gas = c.cfg.GasLimit
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    big.NewInt(0),
		Data:     data,
	})
	signed, err := c.signer.SignTx(tx, c.chainID)
	if err != nil {
		return "", app.Failf(app.KindTransactionRejected, "signing %s: %v", method, err)
	}
	if err := backend.SendTransaction(ctx, signed); err != nil {
		return "", app.Failf(app.KindTransactionRejected, "%s rejected: %v", method, err)
	}
	txSubmissions.WithLabelValues(method).Inc()
	c.log.Info("transaction submitted", "method", method, "tx", signed.Hash().Hex(), "from", from.Hex(), "to", to.Hex())
	return signed.Hash().Hex(), nil
}

func parseAccount(account string) (common.Address, error) {
	if !common.IsHexAddress(account) {
		return common.Address{}, app.Failf(app.KindValidation, "invalid account address %q", account)
	}
	return common.HexToAddress(account), nil
}
