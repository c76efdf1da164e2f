package swap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/solana"
	"solana-swap-agent/internal/swaperr"
	"solana-swap-agent/internal/token"
)

func TestRun_RejectsUnresolvableInputToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-1,"message":"boom"}}`))
	}))
	defer server.Close()

	rpc := solana.NewHTTPClient(server.URL)
	registry := token.New(rpc, nil)

	_, err := Run(context.Background(), Deps{
		RPC:                rpc,
		Registry:           registry,
		WireEndpoint:       "ws://unused.invalid",
		WireAuthToken:      "tok",
		FirstBatchDeadline: 0,
	}, Params{
		InputSymbolOrAddress:  "notarealsymbol",
		OutputSymbolOrAddress: "alsonotreal",
		AmountHuman:           "1",
	})
	if err == nil {
		t.Fatal("expected an error for an unresolvable token")
	}
}

func TestRun_RejectsMissingWireAuthToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":{"lamports":1,"owner":"x","data":["","base64"],"executable":false,"rentEpoch":0}}}`))
	}))
	defer server.Close()

	rpc := solana.NewHTTPClient(server.URL)
	registry := token.New(rpc, nil)

	delegate := domain.Keypair{}
	_, err := Run(context.Background(), Deps{
		RPC:           rpc,
		Registry:      registry,
		WireEndpoint:  "ws://unused.invalid",
		WireAuthToken: "",
	}, Params{
		InputSymbolOrAddress:  domain.WrappedSOLMint.String(),
		OutputSymbolOrAddress: domain.WrappedSOLMint.String(),
		AmountHuman:           "1",
		Delegation:            domain.Delegation{DelegateKeypair: delegate},
	})
	if !swaperr.Is(err, swaperr.KindConfigMissing) {
		t.Fatalf("expected config_missing for empty wire auth token, got %v", err)
	}
}
