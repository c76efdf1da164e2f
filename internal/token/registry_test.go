package token

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/solana"
)

func mintAccountData(decimals byte) string {
	raw := make([]byte, 82)
	binary.LittleEndian.PutUint64(raw[36:44], 1_000_000)
	raw[44] = decimals
	return base64.StdEncoding.EncodeToString(raw)
}

func TestRegistry_Resolve_KnownSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"result": map[string]any{
				"value": map[string]any{
					"lamports":   0,
					"owner":      "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
					"data":       []string{mintAccountData(6), "base64"},
					"executable": false,
					"rentEpoch":  0,
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	rpc := solana.NewHTTPClient(server.URL)
	reg := New(rpc, nil)

	info, err := reg.Resolve(context.Background(), "USDC")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.Decimals != 6 {
		t.Fatalf("decimals = %d, want 6", info.Decimals)
	}
	if info.Symbol == nil || *info.Symbol != "USDC" {
		t.Fatalf("symbol = %v, want USDC", info.Symbol)
	}
	if info.Degraded {
		t.Fatal("expected non-degraded resolution")
	}
}

func TestRegistry_Resolve_WrappedSOL_NeverCallsRPC(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	rpc := solana.NewHTTPClient(server.URL)
	reg := New(rpc, nil)

	info, err := reg.Resolve(context.Background(), "SOL")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.Decimals != domain.WrappedNativeDecimals {
		t.Fatalf("decimals = %d, want %d", info.Decimals, domain.WrappedNativeDecimals)
	}
	if called {
		t.Fatal("wrapped SOL decimals must be known statically, not fetched")
	}
}

func TestRegistry_Resolve_DegradesOnRPCFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	rpc := solana.NewHTTPClient(server.URL, solana.WithMaxRetries(0))
	reg := New(rpc, nil)

	mint, err := domain.ParseMint("DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263")
	if err != nil {
		t.Fatalf("ParseMint: %v", err)
	}

	info, err := reg.Resolve(context.Background(), mint.String())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !info.Degraded {
		t.Fatal("expected degraded-mode fallback on RPC failure")
	}
	if info.Decimals != domain.FallbackDecimals {
		t.Fatalf("decimals = %d, want fallback %d", info.Decimals, domain.FallbackDecimals)
	}
}

func TestRegistry_Resolve_Unknown(t *testing.T) {
	rpc := solana.NewHTTPClient("http://127.0.0.1:0")
	reg := New(rpc, nil)

	if _, err := reg.Resolve(context.Background(), "NOT_A_TOKEN"); err == nil {
		t.Fatal("expected error for unresolvable symbol")
	}
}
