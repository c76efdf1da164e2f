package txassembler

import (
	"crypto/ed25519"

	"filippo.io/edwards25519"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/swaperr"
)

// isOnCurve reports whether a 32-byte pubkey is a valid ed25519 curve
// point. A delegate whose public key doesn't decode to a curve point
// can never have produced a valid keypair.
func isOnCurve(pubkey domain.Mint) bool {
	_, err := new(edwards25519.Point).SetBytes(pubkey.Bytes())
	return err == nil
}

// signMessage signs msg's serialized bytes with the delegate's private
// key and returns the raw 64-byte signature.
func signMessage(delegate domain.Keypair, msg domain.VersionedMessage) ([64]byte, error) {
	if !isOnCurve(delegate.PublicKey) {
		return [64]byte{}, swaperr.New(swaperr.KindDelegationInvalid, "delegate public key is not a valid curve point")
	}
	if len(delegate.PrivateKey) != ed25519.PrivateKeySize {
		return [64]byte{}, swaperr.New(swaperr.KindDelegationInvalid, "delegate private key is not 64 bytes")
	}

	sig := ed25519.Sign(ed25519.PrivateKey(delegate.PrivateKey), serializeMessage(msg))

	var out [64]byte
	copy(out[:], sig)
	return out, nil
}

// signTransaction signs msg with the delegate key and places the
// resulting signature at signerIdx (the delegate's position in the
// signer region, from checkDelegateIsSigner), leaving every other
// required-signature slot zeroed: only the delegate signs here. A
// prebuilt payload requiring additional signers is rejected by the
// caller before this is reached.
func signTransaction(delegate domain.Keypair, msg domain.VersionedMessage, signerIdx int) (domain.VersionedTransaction, error) {
	sig, err := signMessage(delegate, msg)
	if err != nil {
		return domain.VersionedTransaction{}, err
	}

	sigs := make([][64]byte, msg.Header.NumRequiredSignatures)
	sigs[signerIdx] = sig

	return domain.VersionedTransaction{Signatures: sigs, Message: msg}, nil
}
