package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type tokenGateway struct {
	c    *Client
	addr common.Address
}

func (g *tokenGateway) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	ownerAddr, err := parseAccount(owner)
	if err != nil {
		return nil, err
	}
	spenderAddr, err := parseAccount(spender)
	if err != nil {
		return nil, err
	}
	values, err := g.c.call(ctx, nil, g.addr, erc20ABI, "allowance", ownerAddr, spenderAddr)
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}

func (g *tokenGateway) Approve(ctx context.Context, spender string, amount *big.Int) (string, error) {
	spenderAddr, err := parseAccount(spender)
	if err != nil {
		return "", err
	}
	return g.c.transact(ctx, g.addr, erc20ABI, "approve", spenderAddr, amount)
}

func (g *tokenGateway) BalanceOf(ctx context.Context, account string) (*big.Int, error) {
	addr, err := parseAccount(account)
	if err != nil {
		return nil, err
	}
	values, err := g.c.call(ctx, nil, g.addr, erc20ABI, "balanceOf", addr)
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}
