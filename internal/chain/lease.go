package chain

import (
	"context"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"homeseeker/go-backend/internal/app"
	"homeseeker/go-backend/pkg/models"
)

type leaseGateway struct {
	c    *Client
	addr common.Address
}

func (g *leaseGateway) HouseAddr(ctx context.Context) (string, error) {
	values, err := g.c.call(ctx, nil, g.addr, leaseABI, "houseAddr")
	if err != nil {
		return "", err
	}
	return values[0].(string), nil
}

func (g *leaseGateway) Owner(ctx context.Context) (string, error) {
	values, err := g.c.call(ctx, nil, g.addr, leaseABI, "owner")
	if err != nil {
		return "", err
	}
	return values[0].(common.Address).Hex(), nil
}

func (g *leaseGateway) Terms(ctx context.Context) (models.LeaseTerms, error) {
	rentVals, err := g.c.call(ctx, nil, g.addr, leaseABI, "monthlyRent")
	if err != nil {
		return models.LeaseTerms{}, err
	}
	durationVals, err := g.c.call(ctx, nil, g.addr, leaseABI, "durationMonths")
	if err != nil {
		return models.LeaseTerms{}, err
	}
	depositVals, err := g.c.call(ctx, nil, g.addr, leaseABI, "depositInMonths")
	if err != nil {
		return models.LeaseTerms{}, err
	}
	rent := rentVals[0].(*big.Int)
	duration := uint32(durationVals[0].(*big.Int).Uint64())
	deposit := uint32(depositVals[0].(*big.Int).Uint64())
	return models.LeaseTerms{
		MonthlyRent:     app.FormatAmount(rent),
		DurationMonths:  duration,
		DepositMonths:   deposit,
		SecurityDeposit: app.FormatAmount(app.SecurityDeposit(rent, deposit)),
	}, nil
}

func (g *leaseGateway) SetTerms(ctx context.Context, monthlyRent *big.Int, durationMonths, depositMonths uint32) (string, error) {
	return g.c.transact(ctx, g.addr, leaseABI, "setRentalTerms",
		monthlyRent,
		new(big.Int).SetUint64(uint64(durationMonths)),
		new(big.Int).SetUint64(uint64(depositMonths)))
}

func (g *leaseGateway) ApplyToRent(ctx context.Context, startDate time.Time) (string, error) {
	return g.c.transact(ctx, g.addr, leaseABI, "applyToRent", big.NewInt(startDate.Unix()))
}

func (g *leaseGateway) Applications(ctx context.Context) ([]models.Application, error) {
	backend := g.c.currentBackend()
	if backend == nil {
		return nil, app.Failf(app.KindNetwork, "chain session is not started")
	}
	query := ethereum.FilterQuery{
		FromBlock: big.NewInt(0),
		Addresses: []common.Address{g.addr},
		Topics:    [][]common.Hash{{leaseABI.Events["ApplicationSubmitted"].ID}},
	}
	logs, err := backend.FilterLogs(ctx, query)
	if err != nil {
		return nil, app.Failf(app.KindNetwork, "application event scan: %v", err)
	}
	apps := make([]models.Application, 0, len(logs))
	for _, entry := range logs {
		values, err := leaseABI.Unpack("ApplicationSubmitted", entry.Data)
		if err != nil {
			return nil, app.Failf(app.KindNetwork, "decode ApplicationSubmitted: %v", err)
		}
		apps = append(apps, models.Application{
			Tenant:      values[0].(common.Address).Hex(),
			StartDate:   time.Unix(values[1].(*big.Int).Int64(), 0).UTC(),
			SubmittedAt: time.Unix(values[2].(*big.Int).Int64(), 0).UTC(),
		})
	}
	return apps, nil
}

func (g *leaseGateway) ApproveTenant(ctx context.Context, tenant string) (string, error) {
	addr, err := parseAccount(tenant)
	if err != nil {
		return "", err
	}
	return g.c.transact(ctx, g.addr, leaseABI, "approveTenant", addr)
}

// Agreement queries checkAgreement as the given account; the contract only
// answers the tenant or the owner. A zero tenant in the reply means no
// agreement.
func (g *leaseGateway) Agreement(ctx context.Context, tenant string) (*models.Agreement, error) {
	from, err := parseAccount(tenant)
	if err != nil {
		return nil, err
	}
	values, err := g.c.call(ctx, &from, g.addr, leaseABI, "checkAgreement")
	if err != nil {
		return nil, err
	}
	agreed := values[0].(common.Address)
	if agreed == (common.Address{}) {
		return nil, nil
	}
	rent := values[2].(*big.Int)
	deposit := uint32(values[4].(*big.Int).Uint64())
	return &models.Agreement{
		Tenant:    agreed.Hex(),
		StartDate: time.Unix(values[1].(*big.Int).Int64(), 0).UTC(),
		Terms: models.LeaseTerms{
			MonthlyRent:     app.FormatAmount(rent),
			DurationMonths:  uint32(values[3].(*big.Int).Uint64()),
			DepositMonths:   deposit,
			SecurityDeposit: app.FormatAmount(app.SecurityDeposit(rent, deposit)),
		},
	}, nil
}

func (g *leaseGateway) Debt(ctx context.Context, tenant string) (*big.Int, error) {
	from, err := parseAccount(tenant)
	if err != nil {
		return nil, err
	}
	values, err := g.c.call(ctx, &from, g.addr, leaseABI, "checkDebt")
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}

func (g *leaseGateway) PayRent(ctx context.Context, amount *big.Int) (string, error) {
	return g.c.transact(ctx, g.addr, leaseABI, "payRent", amount)
}

func (g *leaseGateway) Reclaim(ctx context.Context) (string, error) {
	return g.c.transact(ctx, g.addr, leaseABI, "reclaimHouse")
}

func (g *leaseGateway) PaymentToken(ctx context.Context) (string, error) {
	values, err := g.c.call(ctx, nil, g.addr, leaseABI, "USDC")
	if err != nil {
		return "", err
	}
	return values[0].(common.Address).Hex(), nil
}
