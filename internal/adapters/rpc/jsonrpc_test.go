package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"homeseeker/go-backend/internal/api"
	"homeseeker/go-backend/internal/chain"
	"homeseeker/go-backend/internal/wallet"
	"homeseeker/go-backend/pkg/models"
)

func newTestServer(t *testing.T, sim *chain.SimBackend, token string) (*Server, *api.Service) {
	t.Helper()
	t.Setenv("HS_ENV", "test")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := wallet.NewManager(filepath.Join(t.TempDir(), "wallet.enc"))
	cfg := chain.DefaultConfig()
	cfg.ConfirmTimeout = 2 * time.Second
	cfg.ConfirmPollInterval = 10 * time.Millisecond
	client, err := chain.NewClientWithBackend(cfg, w, sim, logger)
	if err != nil {
		t.Fatalf("chain client failed: %v", err)
	}
	svc := api.NewService(w, client, api.ServiceOptions{Logger: logger, RegistryWait: time.Second})
	t.Cleanup(svc.Close)
	requireToken := token != ""
	return newServerWithService("127.0.0.1:0", svc, token, requireToken), svc
}

func doRPC(t *testing.T, s *Server, body string, headers map[string]string) (*httptest.ResponseRecorder, rpcResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.HandleRPC(rec, req)
	var resp rpcResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, resp
}

func callRPC(t *testing.T, s *Server, method string, params any) rpcResponse {
	t.Helper()
	body := map[string]any{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		body["params"] = params
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	_, resp := doRPC(t, s, string(raw), nil)
	return resp
}

func decodeResult(t *testing.T, resp rpcResponse, out any) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("rpc error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("re-marshal failed: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
}

func TestHealthCheckAndVersion(t *testing.T) {
	s, _ := newTestServer(t, chain.NewSimBackend(31337), "")

	resp := callRPC(t, s, "health_check", nil)
	var health map[string]string
	decodeResult(t, resp, &health)
	if health["status"] != "ok" {
		t.Fatalf("unexpected health: %v", health)
	}

	resp = callRPC(t, s, "rpc.version", nil)
	var version map[string]any
	decodeResult(t, resp, &version)
	if version["current_version"] != float64(rpcAPICurrentVersion) {
		t.Fatalf("unexpected version info: %v", version)
	}
}

func TestRejectsMalformedRequests(t *testing.T) {
	s, _ := newTestServer(t, chain.NewSimBackend(31337), "")

	_, resp := doRPC(t, s, "{not json", nil)
	if resp.Error == nil || resp.Error.Code != -32700 {
		t.Fatalf("expected parse error, got %+v", resp.Error)
	}

	_, resp = doRPC(t, s, `{"jsonrpc":"1.0","id":1,"method":"health_check"}`, nil)
	if resp.Error == nil || resp.Error.Code != -32600 {
		t.Fatalf("expected invalid request, got %+v", resp.Error)
	}

	// Two JSON documents in one body.
	_, resp = doRPC(t, s, `{"jsonrpc":"2.0","id":1,"method":"health_check"}{}`, nil)
	if resp.Error == nil || resp.Error.Code != -32600 {
		t.Fatalf("expected invalid request for trailing document, got %+v", resp.Error)
	}

	resp = callRPC(t, s, "no.such.method", nil)
	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Fatalf("expected method not found, got %+v", resp.Error)
	}

	resp = callRPC(t, s, "wallet.unlock", []any{})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("expected invalid params, got %+v", resp.Error)
	}
}

func TestAPIVersionNegotiation(t *testing.T) {
	s, _ := newTestServer(t, chain.NewSimBackend(31337), "")

	_, resp := doRPC(t, s, `{"jsonrpc":"2.0","id":1,"method":"health_check","api_version":99}`, nil)
	if resp.Error == nil || resp.Error.Code != -32080 {
		t.Fatalf("expected unsupported version, got %+v", resp.Error)
	}
	_, resp = doRPC(t, s, fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"health_check","api_version":%d}`, rpcAPICurrentVersion), nil)
	if resp.Error != nil {
		t.Fatalf("current version must be accepted: %+v", resp.Error)
	}
}

func TestWalletAndLeaseFlowOverRPC(t *testing.T) {
	s, _ := newTestServer(t, chain.NewSimBackend(31337), "")

	resp := callRPC(t, s, "wallet.create", []string{"passw0rd"})
	var created struct {
		Wallet   models.WalletStatus `json:"wallet"`
		Mnemonic string              `json:"mnemonic"`
	}
	decodeResult(t, resp, &created)
	if created.Wallet.Address == "" || created.Mnemonic == "" {
		t.Fatalf("unexpected wallet.create result: %+v", created)
	}

	resp = callRPC(t, s, "chain.session_start", nil)
	var status models.ChainStatus
	decodeResult(t, resp, &status)
	if status.ChainID != 31337 {
		t.Fatalf("unexpected chain status: %+v", status)
	}

	resp = callRPC(t, s, "lease.mint", []string{"12 Main St"})
	var mint models.MintResult
	decodeResult(t, resp, &mint)
	if mint.TokenID == 0 || mint.AlreadyMinted {
		t.Fatalf("unexpected mint result: %+v", mint)
	}

	resp = callRPC(t, s, "lease.set_terms", []any{"12 Main St", "1500000000", 12, 2})
	var snapshot models.LeaseSnapshot
	decodeResult(t, resp, &snapshot)
	if snapshot.Terms.MonthlyRent != "1500000000" || snapshot.Stage != models.StageListed {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}

	resp = callRPC(t, s, "lease.get", []string{"12 Main St"})
	var lookup struct {
		Found bool                 `json:"found"`
		Lease models.LeaseSnapshot `json:"lease"`
	}
	decodeResult(t, resp, &lookup)
	if !lookup.Found || lookup.Lease.TokenID != mint.TokenID {
		t.Fatalf("unexpected lease.get result: %+v", lookup)
	}

	resp = callRPC(t, s, "lease.list", nil)
	var listed struct {
		Leases []models.LeaseSnapshot `json:"leases"`
	}
	decodeResult(t, resp, &listed)
	if len(listed.Leases) != 1 {
		t.Fatalf("expected one cached lease, got %d", len(listed.Leases))
	}
}

func TestWalletExportAndChangePasswordOverRPC(t *testing.T) {
	s, _ := newTestServer(t, chain.NewSimBackend(31337), "")

	var created struct {
		Mnemonic string `json:"mnemonic"`
	}
	decodeResult(t, callRPC(t, s, "wallet.create", []any{"pass"}), &created)
	if created.Mnemonic == "" {
		t.Fatal("expected a mnemonic")
	}

	var exported struct {
		Mnemonic string `json:"mnemonic"`
	}
	decodeResult(t, callRPC(t, s, "wallet.export", []any{"pass"}), &exported)
	if exported.Mnemonic != created.Mnemonic {
		t.Fatal("exported mnemonic differs from the created one")
	}

	var changed struct {
		Changed bool `json:"changed"`
	}
	decodeResult(t, callRPC(t, s, "wallet.change_password", []any{"pass", "better-pass"}), &changed)
	if !changed.Changed {
		t.Fatal("expected change_password to report success")
	}

	callRPC(t, s, "wallet.lock", nil)
	var unlocked struct {
		Wallet models.WalletStatus `json:"wallet"`
	}
	decodeResult(t, callRPC(t, s, "wallet.unlock", []any{"better-pass"}), &unlocked)
	if !unlocked.Wallet.Connected {
		t.Fatalf("unlock with the new password failed: %+v", unlocked.Wallet)
	}
}

func TestWorkflowErrorsCarryStableCodes(t *testing.T) {
	s, _ := newTestServer(t, chain.NewSimBackend(31337), "")

	// Wallet is locked, so every chain operation fails validation.
	resp := callRPC(t, s, "lease.mint", []string{"12 Main St"})
	if resp.Error == nil || resp.Error.Code != -32001 {
		t.Fatalf("expected validation code, got %+v", resp.Error)
	}
}

func TestIdempotentReplay(t *testing.T) {
	s, _ := newTestServer(t, chain.NewSimBackend(31337), "")
	callRPC(t, s, "wallet.create", []string{"passw0rd"})
	callRPC(t, s, "chain.session_start", nil)

	body := `{"jsonrpc":"2.0","id":1,"method":"lease.mint","params":["12 Main St"]}`
	headers := map[string]string{rpcIdempotencyHeader: "mint-once"}

	_, first := doRPC(t, s, body, headers)
	if first.Error != nil {
		t.Fatalf("first mint failed: %+v", first.Error)
	}
	var firstMint models.MintResult
	decodeResult(t, first, &firstMint)
	if firstMint.TxHash == "" {
		t.Fatalf("first mint should carry a tx hash: %+v", firstMint)
	}

	// Same key and body replays the cached response verbatim.
	_, second := doRPC(t, s, body, headers)
	var secondMint models.MintResult
	decodeResult(t, second, &secondMint)
	if secondMint.TxHash != firstMint.TxHash || secondMint.AlreadyMinted {
		t.Fatalf("replay was re-executed: %+v", secondMint)
	}

	// Same key with a different request is a conflict.
	_, conflict := doRPC(t, s, `{"jsonrpc":"2.0","id":2,"method":"lease.mint","params":["7 Oak Ave"]}`, headers)
	if conflict.Error == nil || conflict.Error.Code != -32090 {
		t.Fatalf("expected idempotency conflict, got %+v", conflict.Error)
	}
}

func TestNotificationStreamReplays(t *testing.T) {
	s, _ := newTestServer(t, chain.NewSimBackend(31337), "")
	callRPC(t, s, "wallet.create", []string{"passw0rd"})
	callRPC(t, s, "chain.session_start", nil)
	callRPC(t, s, "lease.mint", []string{"12 Main St"})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/rpc/stream?cursor=0", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		s.HandleRPCStream(rec, req)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("stream handler did not return after context cancel")
	}

	out := rec.Body.String()
	if !strings.Contains(out, "notify.chain.status") || !strings.Contains(out, "notify.lease.update") {
		t.Fatalf("replayed stream missing events:\n%s", out)
	}
}
