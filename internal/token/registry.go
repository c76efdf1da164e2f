// Package token implements the token registry (C3): resolving a symbol or
// base58 address to a domain.TokenInfo, fetching on-chain decimals by
// reading mint account data. Grounded on
// internal/ingestion/rpc_sources.go's parseMintData (SPL mint layout,
// decimals at byte offset 44) and original_source's KNOWN_TOKEN_SYMBOLS /
// resolve_token_info lookup-then-RPC-fetch flow.
package token

import (
	"context"
	"encoding/base64"
	"log"
	"strings"
	"sync"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/solana"
)

const mintAccountMinLen = 82
const mintDecimalsOffset = 44

// Registry resolves mints to TokenInfo, caching decimals for the process
// lifetime: decimals are immutable on-chain once an SPL mint is created.
type Registry struct {
	rpc *solana.HTTPClient
	log *log.Logger

	mu    sync.Mutex
	cache map[domain.Mint]domain.TokenInfo
}

// New constructs a Registry backed by rpc.
func New(rpc *solana.HTTPClient, logger *log.Logger) *Registry {
	return &Registry{
		rpc:   rpc,
		log:   logger,
		cache: make(map[domain.Mint]domain.TokenInfo),
	}
}

// Resolve maps symbolOrAddress to a TokenInfo. If the input parses as a
// 32-byte base58 pubkey it is used directly; otherwise it is looked up in
// the static symbol table. Decimals are fetched from the mint account; on
// RPC failure or unparseable data, decimals falls back to
// domain.FallbackDecimals and TokenInfo.Degraded is set — the historical
// bug of hard-coding decimals=6 for every token, kept deliberately as a
// degraded-mode-only fallback.
func (r *Registry) Resolve(ctx context.Context, symbolOrAddress string) (domain.TokenInfo, error) {
	mint, symbol, err := r.lookupMint(symbolOrAddress)
	if err != nil {
		return domain.TokenInfo{}, err
	}

	if mint == domain.WrappedSOLMint {
		return domain.TokenInfo{Mint: mint, Decimals: domain.WrappedNativeDecimals, Symbol: symbol}, nil
	}

	r.mu.Lock()
	if cached, ok := r.cache[mint]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	info := r.fetchDecimals(ctx, mint, symbol)

	r.mu.Lock()
	r.cache[mint] = info
	r.mu.Unlock()

	return info, nil
}

func (r *Registry) lookupMint(symbolOrAddress string) (domain.Mint, *string, error) {
	if mint, err := domain.ParseMint(symbolOrAddress); err == nil {
		return mint, nil, nil
	}

	upper := strings.ToUpper(symbolOrAddress)
	if address, ok := KnownSymbols[upper]; ok {
		mint, err := domain.ParseMint(address)
		if err != nil {
			return domain.Mint{}, nil, err
		}
		sym := upper
		return mint, &sym, nil
	}

	return domain.Mint{}, nil, domainUnresolvedErr(symbolOrAddress)
}

func (r *Registry) fetchDecimals(ctx context.Context, mint domain.Mint, symbol *string) domain.TokenInfo {
	account, err := r.rpc.GetAccountInfo(ctx, mint.String())
	if err != nil || account == nil {
		r.logDegraded(mint, err)
		return domain.TokenInfo{Mint: mint, Decimals: domain.FallbackDecimals, Symbol: symbol, Degraded: true}
	}

	decoded, err := base64.StdEncoding.DecodeString(account.Data)
	if err != nil || len(decoded) < mintAccountMinLen {
		r.logDegraded(mint, err)
		return domain.TokenInfo{Mint: mint, Decimals: domain.FallbackDecimals, Symbol: symbol, Degraded: true}
	}

	decimals := int(decoded[mintDecimalsOffset])
	return domain.TokenInfo{Mint: mint, Decimals: decimals, Symbol: symbol}
}

func (r *Registry) logDegraded(mint domain.Mint, err error) {
	if r.log == nil {
		return
	}
	r.log.Printf("degraded-mode decimals fallback for mint %s: %v", mint, err)
}
