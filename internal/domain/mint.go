package domain

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Mint is a 32-byte on-chain token identifier. Immutable once created.
type Mint [32]byte

// String renders the mint in its user-facing base58 form.
func (m Mint) String() string {
	return base58.Encode(m[:])
}

// Bytes returns the raw wire representation.
func (m Mint) Bytes() []byte {
	return m[:]
}

// ParseMint decodes a base58 Solana address into a Mint.
func ParseMint(address string) (Mint, error) {
	decoded, err := base58.Decode(address)
	if err != nil {
		return Mint{}, fmt.Errorf("decode base58 mint %q: %w", address, err)
	}
	if len(decoded) != 32 {
		return Mint{}, fmt.Errorf("mint %q decodes to %d bytes, want 32", address, len(decoded))
	}
	var m Mint
	copy(m[:], decoded)
	return m, nil
}

// MintFromBytes wraps a wire-format 32-byte pubkey as a Mint.
func MintFromBytes(b []byte) (Mint, error) {
	if len(b) != 32 {
		return Mint{}, fmt.Errorf("mint bytes length %d, want 32", len(b))
	}
	var m Mint
	copy(m[:], b)
	return m, nil
}

// WrappedSOLMint is the canonical wrapped-native-SOL mint. Its decimals (9)
// are known statically; it is never looked up via RPC.
var WrappedSOLMint = mustParseMint("So11111111111111111111111111111111111111112")

func mustParseMint(address string) Mint {
	m, err := ParseMint(address)
	if err != nil {
		panic(err)
	}
	return m
}
