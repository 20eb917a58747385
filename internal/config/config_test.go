package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"homeseeker/go-backend/internal/chain"
)

func TestLoadFromPathMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
chain:
  transport: rpc
  endpoint: http://10.0.0.5:8545
  chainId: 421614
  notaryAddress: "0x00000000000000000000000000000000DeaDBeef"
  confirmTimeout: 45s
storage:
  dataDir: /var/lib/homeseeker
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadFromPath(path)
	if cfg.Chain.Transport != chain.TransportRPC {
		t.Fatalf("transport not merged: %q", cfg.Chain.Transport)
	}
	if cfg.Chain.ChainID != 421614 {
		t.Fatalf("chain id not merged: %d", cfg.Chain.ChainID)
	}
	if cfg.Chain.ConfirmTimeout != 45*time.Second {
		t.Fatalf("confirm timeout not merged: %s", cfg.Chain.ConfirmTimeout)
	}
	// Untouched fields keep defaults.
	if cfg.Chain.ConfirmPollInterval != chain.DefaultConfig().ConfirmPollInterval {
		t.Fatalf("poll interval should keep default: %s", cfg.Chain.ConfirmPollInterval)
	}
	if cfg.Storage.DataDir != "/var/lib/homeseeker" {
		t.Fatalf("data dir not merged: %q", cfg.Storage.DataDir)
	}
}

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	cfg := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if cfg.Chain.Transport != chain.TransportSim {
		t.Fatalf("expected sim default, got %q", cfg.Chain.Transport)
	}
	if cfg.Storage.DataDir != "data" {
		t.Fatalf("expected default data dir, got %q", cfg.Storage.DataDir)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("HS_CHAIN_TRANSPORT", "rpc")
	t.Setenv("HS_CHAIN_ID", "11155111")
	t.Setenv("HS_DATA_DIR", "/tmp/hs-test")

	cfg := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if cfg.Chain.Transport != chain.TransportRPC {
		t.Fatalf("env transport not applied: %q", cfg.Chain.Transport)
	}
	if cfg.Chain.ChainID != 11155111 {
		t.Fatalf("env chain id not applied: %d", cfg.Chain.ChainID)
	}
	if cfg.Storage.DataDir != "/tmp/hs-test" {
		t.Fatalf("env data dir not applied: %q", cfg.Storage.DataDir)
	}
}

func TestStoragePaths(t *testing.T) {
	s := StorageConfig{DataDir: "/srv/hs"}
	if s.WalletPath() != filepath.Join("/srv/hs", "wallet.enc") {
		t.Fatalf("unexpected wallet path %q", s.WalletPath())
	}
	if s.ListingsPath() != filepath.Join("/srv/hs", "listings.json") {
		t.Fatalf("unexpected listings path %q", s.ListingsPath())
	}
}
