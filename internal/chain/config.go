package chain

import (
	"time"
)

const (
	TransportRPC = "rpc"
	TransportSim = "sim"

	StateDisconnected = "disconnected"
	StateConnected    = "connected"
	StateDegraded     = "degraded"
)

type Config struct {
	Transport           string        `yaml:"transport"`
	Endpoint            string        `yaml:"endpoint"`
	ChainID             uint64        `yaml:"chainId"`
	NotaryAddress       string        `yaml:"notaryAddress"`
	TokenAddress        string        `yaml:"tokenAddress"`
	ConfirmTimeout      time.Duration `yaml:"confirmTimeout"`
	ConfirmPollInterval time.Duration `yaml:"confirmPollInterval"`
	RegistryWaitBound   time.Duration `yaml:"registryWaitBound"`
	GasLimit            uint64        `yaml:"gasLimit"`
}

func DefaultConfig() Config {
	return Config{
		Transport:           TransportSim,
		Endpoint:            "http://127.0.0.1:8545",
		ChainID:             31337,
		ConfirmTimeout:      2 * time.Minute,
		ConfirmPollInterval: 2 * time.Second,
		RegistryWaitBound:   90 * time.Second,
		GasLimit:            500_000,
	}
}

var chainNames = map[uint64]string{
	1:        "Ethereum Mainnet",
	5:        "Goerli Testnet",
	11155111: "Sepolia Testnet",
	10:       "Optimism",
	42161:    "Arbitrum One",
	42170:    "Arbitrum Nova",
	421614:   "Arbitrum Sepolia",
	59144:    "Linea Mainnet",
	534352:   "Scroll Mainnet",
	137:      "Polygon Mainnet",
	80001:    "Mumbai Testnet",
	56:       "BSC Mainnet",
	97:       "BSC Testnet",
	43114:    "Avalanche C-Chain",
	43113:    "Avalanche Fuji Testnet",
	250:      "Fantom Opera",
	100:      "Gnosis Chain",
	42220:    "Celo Mainnet",
	8453:     "Base Mainnet",
	1337:     "Localhost (Hardhat)",
	31337:    "Localhost (Anvil)",
}

func ChainName(id uint64) string {
	if name, ok := chainNames[id]; ok {
		return name
	}
	return "Unknown Chain"
}
