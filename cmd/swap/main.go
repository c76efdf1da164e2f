// Package main provides the swap CLI: resolve two tokens, stream quotes
// from the wire server, let the operator confirm a winner on a live
// terminal display, assemble a signed transaction (compressing accounts
// through address lookup tables as needed), and submit it to chain,
// polling for a terminal status.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"solana-swap-agent/internal/config"
	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/history"
	histmemory "solana-swap-agent/internal/history/memory"
	histpostgres "solana-swap-agent/internal/history/postgres"
	"solana-swap-agent/internal/observability"
	"solana-swap-agent/internal/quotelog"
	chquotelog "solana-swap-agent/internal/quotelog/clickhouse"
	quotelogmemory "solana-swap-agent/internal/quotelog/memory"
	"solana-swap-agent/internal/solana"
	"solana-swap-agent/internal/storage/migrations"
	"solana-swap-agent/internal/storage/postgres"
	"solana-swap-agent/internal/submitter"
	"solana-swap-agent/internal/swap"
	"solana-swap-agent/internal/token"
)

const (
	quoteLogQueueSize = 256
	quoteLogBatchSize = 32
)

func main() {
	inputToken := flag.String("in", "", "input token symbol or mint address")
	outputToken := flag.String("out", "", "output token symbol or mint address")
	amount := flag.String("amount", "", "swap amount, in the input token's human-readable units")
	slippageBps := flag.Uint("slippage-bps", 50, "maximum acceptable slippage, in basis points")
	maxSolPerTx := flag.Float64("max-sol-per-tx", 1.0, "delegation cap for a SOL-denominated input, in SOL")
	maxTokenPerTx := flag.Float64("max-token-per-tx", 1000.0, "delegation cap for an SPL-token input, in the token's human-readable units")
	allowedPrograms := flag.String("allowed-programs", strings.Join(domain.DefaultAllowedPrograms, ","), "comma-separated delegation program allowlist")
	delegateKeyPath := flag.String("delegate-key", os.Getenv("DELEGATE_KEY_PATH"), "path to the delegate wallet's 64-byte ed25519 keypair (JSON array of bytes)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (defaults to METRICS_ADDR or :9090)")

	flag.Parse()

	logger := log.New(os.Stdout, "[swap] ", log.LstdFlags)

	if *inputToken == "" || *outputToken == "" || *amount == "" {
		logger.Fatal("--in, --out, and --amount are required")
	}
	if *delegateKeyPath == "" {
		logger.Fatal("--delegate-key (or DELEGATE_KEY_PATH) is required")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	delegateKeypair, err := loadDelegateKeypair(*delegateKeyPath)
	if err != nil {
		logger.Fatalf("load delegate key: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received signal %v, cancelling swap", sig)
		cancel()
	}()

	go startHTTPServer(logger, cfg.MetricsAddr)

	rpc := solana.NewHTTPClient(cfg.ChainRPCURL)
	registry := token.New(rpc, logger)
	sub := submitter.New(rpc, submitter.Config{
		PollInterval:    cfg.SubmitPollInterval,
		ConfirmDeadline: cfg.SubmitDeadline,
	})

	historyStore, closeHistory := newHistoryStore(ctx, logger)
	defer closeHistory()

	quoteLogSink, closeQuoteLog := newQuoteLogSink(ctx, logger)
	defer closeQuoteLog()

	deps := swap.Deps{
		RPC:                rpc,
		Registry:           registry,
		WireEndpoint:       cfg.WireEndpoint,
		WireAuthToken:      cfg.WireAuthToken,
		FirstBatchDeadline: cfg.FirstBatchDeadline,
		Submitter:          sub,
		Logger:             logger,
		History:            historyStore,
		QuoteLog:           quoteLogSink,
	}

	params := swap.Params{
		InputSymbolOrAddress:  *inputToken,
		OutputSymbolOrAddress: *outputToken,
		AmountHuman:           *amount,
		SlippageBps:           uint16(*slippageBps),
		Delegation: domain.Delegation{
			MaxSolPerTx:     *maxSolPerTx,
			MaxTokenPerTx:   *maxTokenPerTx,
			AllowedPrograms: strings.Split(*allowedPrograms, ","),
			DelegateKeypair: delegateKeypair,
		},
	}

	start := time.Now()
	outcome, err := swap.Run(ctx, deps, params)
	if err != nil {
		logger.Fatalf("swap failed: %v", err)
	}

	logger.Printf(
		"swap %s: %s -> %s via %s, signature %s, explorer %s (%s)",
		outcome.Status, *inputToken, *outputToken, outcome.Provider, outcome.Signature, outcome.ExplorerURL, time.Since(start).Round(time.Millisecond),
	)

	if outcome.Status != domain.SubmitStatusConfirmed {
		os.Exit(1)
	}
}

// newHistoryStore builds the audit sink from POSTGRES_DSN if set,
// falling back to an in-memory store (§8: history is optional
// instrumentation, never a precondition for completing a swap).
func newHistoryStore(ctx context.Context, logger *log.Logger) (history.Store, func()) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		return histmemory.New(), func() {}
	}

	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		logger.Printf("connect postgres history store: %v, falling back to in-memory", err)
		return histmemory.New(), func() {}
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Printf("run postgres migrations: %v, falling back to in-memory", err)
		pool.Close()
		return histmemory.New(), func() {}
	}

	return histpostgres.New(pool), pool.Close
}

// newQuoteLogSink builds the quote analytics sink from CLICKHOUSE_DSN if
// set, falling back to an in-memory store. Either way it is wrapped in a
// quotelog.Sink so the live quote stream never blocks on it.
func newQuoteLogSink(ctx context.Context, logger *log.Logger) (*quotelog.Sink, func()) {
	dsn := os.Getenv("CLICKHOUSE_DSN")
	if dsn == "" {
		return quotelog.NewSink(quotelogmemory.New(), quoteLogQueueSize, quoteLogBatchSize), func() {}
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	if err != nil {
		logger.Printf("connect clickhouse quote log: %v, falling back to in-memory", err)
		return quotelog.NewSink(quotelogmemory.New(), quoteLogQueueSize, quoteLogBatchSize), func() {}
	}

	store := chquotelog.New(conn)
	sink := quotelog.NewSink(store, quoteLogQueueSize, quoteLogBatchSize)
	return sink, func() {
		sink.Close()
		conn.Close()
	}
}

// startHTTPServer exposes Prometheus metrics for the duration of the
// swap, mirroring the server command's always-on metrics endpoint.
func startHTTPServer(logger *log.Logger, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())

	logger.Printf("starting metrics server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Printf("metrics server error: %v", err)
	}
}

// loadDelegateKeypair reads a 64-byte ed25519 keypair (seed||public key)
// serialized as a JSON array of bytes, the same format Solana CLI
// keypair files use.
func loadDelegateKeypair(path string) (domain.Keypair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Keypair{}, fmt.Errorf("read keypair file: %w", err)
	}

	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return domain.Keypair{}, fmt.Errorf("parse keypair file: %w", err)
	}
	if len(ints) != 64 {
		return domain.Keypair{}, fmt.Errorf("keypair file must contain 64 bytes, got %d", len(ints))
	}

	bytesArr := make([]byte, 64)
	for i, v := range ints {
		bytesArr[i] = byte(v)
	}

	var pub domain.Mint
	copy(pub[:], bytesArr[32:])

	return domain.Keypair{PublicKey: pub, PrivateKey: bytesArr}, nil
}
