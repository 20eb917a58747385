package privacylog

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSanitizeArgsFingerprintsAddresses(t *testing.T) {
	args := SanitizeArgs(
		"wallet_address", "0xAbC1230000000000000000000000000000000000",
		"tenant", "0xDeF4560000000000000000000000000000000000",
		"house_addr", "12 Main St",
	)
	if len(args) != 6 {
		t.Fatalf("unexpected arg count: %d", len(args))
	}
	if args[0] != "wallet_address_fp" || !strings.HasPrefix(args[1].(string), "fp_") {
		t.Fatalf("wallet address not fingerprinted: %v", args[:2])
	}
	if args[2] != "tenant_fp" || !strings.HasPrefix(args[3].(string), "fp_") {
		t.Fatalf("tenant not fingerprinted: %v", args[2:4])
	}
	// House addresses are the daemon's working vocabulary and stay plain.
	if args[4] != "house_addr" || args[5] != "12 Main St" {
		t.Fatalf("house_addr must pass through: %v", args[4:])
	}
}

func TestSanitizeArgsRedactsSecrets(t *testing.T) {
	args := SanitizeArgs(
		"password", "hunter2",
		"mnemonic", "abandon abandon abandon",
		"rpc_token", "rpc_deadbeef",
	)
	for i := 1; i < len(args); i += 2 {
		if args[i] != redactedValue {
			t.Fatalf("secret leaked at %d: %v", i, args[i])
		}
	}
}

func TestHandlerSanitizesRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WrapHandler(slog.NewJSONHandler(&buf, nil)))
	logger.Info("unlock", "password", "hunter2", "viewer", "0xAbC")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if line["password"] != redactedValue {
		t.Fatalf("password leaked: %v", line)
	}
	if _, ok := line["viewer"]; ok {
		t.Fatalf("viewer logged in plain: %v", line)
	}
	fp, ok := line["viewer_fp"].(string)
	if !ok || !strings.HasPrefix(fp, "fp_") {
		t.Fatalf("viewer not fingerprinted: %v", line)
	}
}

func TestFingerprintStableWithinProcess(t *testing.T) {
	a := FingerprintID("0xAbC")
	b := FingerprintID("0xAbC")
	if a == "" || a != b {
		t.Fatalf("fingerprint not stable: %q vs %q", a, b)
	}
	if FingerprintID("0xDeF") == a {
		t.Fatal("distinct values must not collide")
	}
}
