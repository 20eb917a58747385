package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract surfaces mirror the deployed L2LeaseNotary / Lease / ERC-20
// contracts the UI was built against.

const notaryABIJSON = `[
  {"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"houseAddr","type":"string"}],"outputs":[]},
  {"type":"function","name":"tokenIdCounter","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"leases","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"event","name":"HouseMinted","anonymous":false,"inputs":[
    {"name":"houseAddr","type":"string","indexed":false},
    {"name":"tokenId","type":"uint256","indexed":false},
    {"name":"owner","type":"address","indexed":false}]}
]`

const leaseABIJSON = `[
  {"type":"function","name":"houseAddr","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"monthlyRent","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"durationMonths","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"depositInMonths","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"setRentalTerms","stateMutability":"nonpayable","inputs":[
    {"name":"monthlyRent","type":"uint256"},
    {"name":"durationMonths","type":"uint256"},
    {"name":"depositInMonths","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"applyToRent","stateMutability":"nonpayable","inputs":[{"name":"startDate","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"approveTenant","stateMutability":"nonpayable","inputs":[{"name":"tenant","type":"address"}],"outputs":[]},
  {"type":"function","name":"checkAgreement","stateMutability":"view","inputs":[],"outputs":[
    {"name":"tenant","type":"address"},
    {"name":"startDate","type":"uint256"},
    {"name":"monthlyRent","type":"uint256"},
    {"name":"durationMonths","type":"uint256"},
    {"name":"depositInMonths","type":"uint256"}]},
  {"type":"function","name":"checkDebt","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"int256"}]},
  {"type":"function","name":"payRent","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"reclaimHouse","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"USDC","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"event","name":"ApplicationSubmitted","anonymous":false,"inputs":[
    {"name":"tenant","type":"address","indexed":false},
    {"name":"startDate","type":"uint256","indexed":false},
    {"name":"submittedAt","type":"uint256","indexed":false}]}
]`

const erc20ABIJSON = `[
  {"type":"function","name":"allowance","stateMutability":"view","inputs":[
    {"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[
    {"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var (
	notaryABI = mustParseABI(notaryABIJSON)
	leaseABI  = mustParseABI(leaseABIJSON)
	erc20ABI  = mustParseABI(erc20ABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
