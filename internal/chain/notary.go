package chain

import (
	"context"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"homeseeker/go-backend/internal/app"
)

// notaryGateway talks to the L2LeaseNotary registry contract. The registry
// has no by-address accessor, so Lookup scans HouseMinted events and matches
// the house address, the same way the reference UI resolves a property.
type notaryGateway struct {
	c *Client
}

func (g *notaryGateway) Lookup(ctx context.Context, houseAddr string) (app.LeaseRef, bool, error) {
	events, err := g.EventsSince(ctx, 0)
	if err != nil {
		return app.LeaseRef{}, false, err
	}
	want := strings.TrimSpace(houseAddr)
	for _, ev := range events {
		if !strings.EqualFold(strings.TrimSpace(ev.HouseAddr), want) {
			continue
		}
		contract, err := g.leaseContract(ctx, ev.TokenID)
		if err != nil {
			return app.LeaseRef{}, false, err
		}
		return app.LeaseRef{TokenID: ev.TokenID, Contract: contract}, true, nil
	}
	return app.LeaseRef{}, false, nil
}

func (g *notaryGateway) Mint(ctx context.Context, houseAddr string) (string, error) {
	return g.c.transact(ctx, g.c.notaryAddr, notaryABI, "mint", houseAddr)
}

func (g *notaryGateway) WaitMinted(ctx context.Context, houseAddr string, bound time.Duration) (app.LeaseRef, error) {
	deadline := time.NewTimer(bound)
	defer deadline.Stop()
	tick := time.NewTicker(g.c.cfg.ConfirmPollInterval)
	defer tick.Stop()

	for {
		ref, found, err := g.Lookup(ctx, houseAddr)
		if err != nil {
			return app.LeaseRef{}, err
		}
		if found {
			return ref, nil
		}
		select {
		case <-ctx.Done():
			return app.LeaseRef{}, app.Failf(app.KindNetwork, "registry wait cancelled: %v", ctx.Err())
		case <-deadline.C:
			return app.LeaseRef{}, app.Failf(app.KindRegistryLookupTimeout,
				"property %q not visible in registry after %s; creation status unknown", houseAddr, bound)
		case <-tick.C:
		}
	}
}

func (g *notaryGateway) EventsSince(ctx context.Context, fromBlock uint64) ([]app.MintedEvent, error) {
	backend := g.c.currentBackend()
	if backend == nil {
		return nil, app.Failf(app.KindNetwork, "chain session is not started")
	}
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{g.c.notaryAddr},
		Topics:    [][]common.Hash{{notaryABI.Events["HouseMinted"].ID}},
	}
	logs, err := backend.FilterLogs(ctx, query)
	if err != nil {
		return nil, app.Failf(app.KindNetwork, "registry event scan: %v", err)
	}
	events := make([]app.MintedEvent, 0, len(logs))
	for _, entry := range logs {
		values, err := notaryABI.Unpack("HouseMinted", entry.Data)
		if err != nil {
			return nil, app.Failf(app.KindNetwork, "decode HouseMinted: %v", err)
		}
		events = append(events, app.MintedEvent{
			HouseAddr: values[0].(string),
			TokenID:   values[1].(*big.Int).Uint64(),
			Owner:     values[2].(common.Address).Hex(),
			Block:     entry.BlockNumber,
		})
	}
	return events, nil
}

func (g *notaryGateway) leaseContract(ctx context.Context, tokenID uint64) (string, error) {
	values, err := g.c.call(ctx, nil, g.c.notaryAddr, notaryABI, "leases", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return "", err
	}
	return values[0].(common.Address).Hex(), nil
}
