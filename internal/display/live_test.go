package display

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/quotestream"
	"solana-swap-agent/internal/wire/codec"
	"solana-swap-agent/internal/wire/session"
)

func TestRenderTable_EmptyBatch(t *testing.T) {
	out := renderTable(Config{SymbolIn: "SOL", SymbolOut: "USDC"}, domain.QuoteBatch{})
	if out == "" {
		t.Fatal("expected a non-empty waiting message for an empty batch")
	}
}

func TestRenderTable_StarsWinner(t *testing.T) {
	batch := domain.QuoteBatch{Quotes: []domain.Quote{
		{ProviderID: "jupiter", InAmount: 1000, OutAmount: 900},
		{ProviderID: "titan", InAmount: 1000, OutAmount: 950},
	}}

	out := renderTable(Config{SymbolIn: "SOL", SymbolOut: "USDC"}, batch)
	if out == "" {
		t.Fatal("expected rendered table")
	}
	if !strings.Contains(out, "* titan") {
		t.Fatalf("expected the titan row (highest OutAmount) to be starred, got:\n%s", out)
	}
}

func TestFormatRoute_Direct(t *testing.T) {
	if got := formatRoute(nil); got != "Direct" {
		t.Fatalf("formatRoute(nil) = %q, want Direct", got)
	}
}

func TestFormatRoute_TruncatesAfterThree(t *testing.T) {
	steps := []domain.RouteStep{
		{Label: "Raydium Pool"}, {Label: "Orca Whirlpool"},
		{Label: "Meteora DLMM"}, {Label: "Lifinity AMM"},
	}
	got := formatRoute(steps)
	if got != "Raydium -> Orca -> Meteora +1" {
		t.Fatalf("formatRoute = %q", got)
	}
}

func TestSummaryLine_NoWinner(t *testing.T) {
	if got := summaryLine(Config{}, domain.Quote{}, false); got != "no quotes received" {
		t.Fatalf("summaryLine = %q", got)
	}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type rawFrame []byte

func (r rawFrame) MarshalMsgpack() ([]byte, error) { return r, nil }

// TestRun_CtxCancellationCancelsStream verifies that an external
// cancellation of ctx (standing in for a SIGINT-driven cancel, since this
// package has no TTY in a test harness to exercise watchEnter's Ctrl+C
// path directly) stops Run and cancels the underlying stream rather than
// hanging or requiring user input.
func TestRun_CtxCancellationCancelsStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}

		msg := codec.StreamData{CorrelationID: 1, Payload: codec.SwapQuotes{Quotes: nil}}
		data, err := msgpack.Marshal(map[string]codec.StreamData{"StreamData": msg})
		if err != nil {
			return
		}
		framed, err := codec.EncodeFrame(rawFrame(data))
		if err != nil {
			return
		}
		conn.WriteMessage(websocket.BinaryMessage, framed)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	sess, err := session.Open(context.Background(), url, "tok")
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	defer sess.Close()

	stream, err := quotestream.Open(context.Background(), sess, domain.QuoteRequest{}, 2*time.Second)
	if err != nil {
		t.Fatalf("quotestream.Open: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan Outcome, 1)
	go func() { done <- Run(ctx, Config{SymbolIn: "SOL", SymbolOut: "USDC"}, stream) }()

	select {
	case outcome := <-done:
		if outcome.Confirmed {
			t.Fatal("expected Confirmed=false after ctx cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after ctx was cancelled")
	}
}
