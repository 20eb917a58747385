package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"homeseeker/go-backend/internal/chain"
)

// Config is the assembled daemon configuration: file values merged over
// defaults, then environment overrides on top.
type Config struct {
	Chain   chain.Config
	Storage StorageConfig
}

type StorageConfig struct {
	DataDir string `yaml:"dataDir"`
	// Secret encrypts daemon-local stores; empty means plaintext JSON.
	Secret string `yaml:"secret"`
}

type FileConfig struct {
	Chain   ChainFileConfig `yaml:"chain"`
	Storage StorageConfig   `yaml:"storage"`
}

type ChainFileConfig struct {
	Transport           string `yaml:"transport"`
	Endpoint            string `yaml:"endpoint"`
	ChainID             uint64 `yaml:"chainId"`
	NotaryAddress       string `yaml:"notaryAddress"`
	TokenAddress        string `yaml:"tokenAddress"`
	ConfirmTimeout      string `yaml:"confirmTimeout"`
	ConfirmPollInterval string `yaml:"confirmPollInterval"`
	RegistryWaitBound   string `yaml:"registryWaitBound"`
	GasLimit            uint64 `yaml:"gasLimit"`
}

func Default() Config {
	return Config{
		Chain:   chain.DefaultConfig(),
		Storage: StorageConfig{DataDir: "data"},
	}
}

// LoadFromPath reads the first readable candidate config file, merges it over
// defaults, and applies environment overrides. A missing or unparsable file
// falls back to defaults rather than failing startup.
func LoadFromPath(configPath string) Config {
	cfg := Default()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"go-backend/configs/config.yaml",
			"configs/config.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var parsed FileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}
		merged := cfg
		Merge(&merged, parsed)
		ApplyEnvOverrides(&merged)
		return merged
	}

	ApplyEnvOverrides(&cfg)
	return cfg
}

func Merge(dst *Config, src FileConfig) {
	if src.Chain.Transport != "" {
		dst.Chain.Transport = src.Chain.Transport
	}
	if src.Chain.Endpoint != "" {
		dst.Chain.Endpoint = src.Chain.Endpoint
	}
	if src.Chain.ChainID != 0 {
		dst.Chain.ChainID = src.Chain.ChainID
	}
	if src.Chain.NotaryAddress != "" {
		dst.Chain.NotaryAddress = src.Chain.NotaryAddress
	}
	if src.Chain.TokenAddress != "" {
		dst.Chain.TokenAddress = src.Chain.TokenAddress
	}
	if d, ok := parseDuration(src.Chain.ConfirmTimeout); ok {
		dst.Chain.ConfirmTimeout = d
	}
	if d, ok := parseDuration(src.Chain.ConfirmPollInterval); ok {
		dst.Chain.ConfirmPollInterval = d
	}
	if d, ok := parseDuration(src.Chain.RegistryWaitBound); ok {
		dst.Chain.RegistryWaitBound = d
	}
	if src.Chain.GasLimit != 0 {
		dst.Chain.GasLimit = src.Chain.GasLimit
	}
	if src.Storage.DataDir != "" {
		dst.Storage.DataDir = src.Storage.DataDir
	}
	if src.Storage.Secret != "" {
		dst.Storage.Secret = src.Storage.Secret
	}
}

func ApplyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("HS_CHAIN_TRANSPORT")); v != "" {
		cfg.Chain.Transport = v
	}
	if v := strings.TrimSpace(os.Getenv("HS_CHAIN_ENDPOINT")); v != "" {
		cfg.Chain.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("HS_CHAIN_ID")); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Chain.ChainID = id
		}
	}
	if v := strings.TrimSpace(os.Getenv("HS_NOTARY_ADDRESS")); v != "" {
		cfg.Chain.NotaryAddress = v
	}
	if v := strings.TrimSpace(os.Getenv("HS_TOKEN_ADDRESS")); v != "" {
		cfg.Chain.TokenAddress = v
	}
	if v := strings.TrimSpace(os.Getenv("HS_DATA_DIR")); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("HS_STORAGE_SECRET")); v != "" {
		cfg.Storage.Secret = v
	}
}

func (s StorageConfig) WalletPath() string   { return filepath.Join(s.DataDir, "wallet.enc") }
func (s StorageConfig) ListingsPath() string { return filepath.Join(s.DataDir, "listings.json") }
func (s StorageConfig) LeasesPath() string   { return filepath.Join(s.DataDir, "leases.json") }

func parseDuration(raw string) (time.Duration, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
