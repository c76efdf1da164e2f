package domain

import "time"

// Delegation is the spending envelope the user grants to the agent wallet
// before any swap() call is allowed to submit. It mirrors the delegate
// wallet's on-disk config: a per-transaction SOL cap, a per-transaction
// token cap, a program allowlist, and an optional expiry.
type Delegation struct {
	MaxSolPerTx     float64
	MaxTokenPerTx   float64
	AllowedPrograms []string
	ExpiresAt       *time.Time
	DelegateKeypair Keypair
}

// DefaultAllowedPrograms is used when a Delegation is constructed without
// an explicit allowlist, matching the original wallet config's default.
var DefaultAllowedPrograms = []string{"Titan"}

// Keypair is the signing identity used to authorize a submitted
// transaction. PrivateKey is the 64-byte ed25519 seed||pubkey form.
type Keypair struct {
	PublicKey  Mint
	PrivateKey []byte // 64 bytes: seed || public key
}

// Expired reports whether d's grant has lapsed as of now.
func (d Delegation) Expired(now time.Time) bool {
	return d.ExpiresAt != nil && now.After(*d.ExpiresAt)
}

// ProgramAllowed reports whether programID is present in d's allowlist.
// An empty allowlist permits nothing; callers should fall back to
// DefaultAllowedPrograms rather than construct a Delegation with a nil one.
func (d Delegation) ProgramAllowed(programID string) bool {
	for _, p := range d.AllowedPrograms {
		if p == programID {
			return true
		}
	}
	return false
}
