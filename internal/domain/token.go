package domain

// TokenInfo resolves a mint to its display symbol and its on-chain decimal
// count. Created on demand by the token registry and cached per-process for
// the session; decimals are immutable on-chain so the cache is never
// invalidated.
type TokenInfo struct {
	Mint     Mint
	Decimals int  // 0..18
	Symbol   *string
	Degraded bool // true if Decimals came from the RPC-failure fallback, not chain data
}

// WrappedNativeDecimals is the statically known decimal count for SOL.
const WrappedNativeDecimals = 9

// FallbackDecimals is returned when the decimals RPC lookup fails or the
// mint account data can't be parsed. This mirrors a known bug in the
// original source (hard-coding 6 for every token) kept intentionally per
// spec: it is a degraded-mode fallback, not the default path, and every
// fallback use is flagged via TokenInfo.Degraded.
const FallbackDecimals = 6
