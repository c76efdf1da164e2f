package txassembler

import (
	"strconv"
	"time"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/swaperr"
	"solana-swap-agent/internal/token"
)

// checkDelegation runs every precondition in spec §4.6 before the
// assembler is willing to sign anything. inputDecimals is the resolved
// input mint's decimals, needed to convert the delegation's human-unit
// caps into the same base-unit scale as req.InputAmount. Any failure
// refuses to sign with a specific, typed error.
func checkDelegation(d domain.Delegation, req domain.QuoteRequest, inputDecimals int, now time.Time) error {
	if d.Expired(now) {
		return swaperr.New(swaperr.KindDelegationInvalid, "delegation has expired")
	}

	if len(d.AllowedPrograms) == 0 {
		return swaperr.New(swaperr.KindDelegationInvalid, "delegation's allowed programs is empty")
	}
	titanAllowed := false
	for _, p := range d.AllowedPrograms {
		if p == "Titan" {
			titanAllowed = true
			break
		}
	}
	if !titanAllowed {
		return swaperr.New(swaperr.KindDelegationInvalid, `"Titan" is not in the delegation's allowed programs`)
	}

	if req.InputMint == domain.WrappedSOLMint {
		maxBaseUnits, err := token.ToBaseUnits(strconv.FormatFloat(d.MaxSolPerTx, 'f', -1, 64), domain.WrappedNativeDecimals)
		if err != nil {
			return swaperr.Wrap(swaperr.KindDelegationInvalid, "parse max_sol_per_tx", err)
		}
		if req.InputAmount > maxBaseUnits {
			return swaperr.New(swaperr.KindDelegationInvalid, "input amount exceeds delegation's max_sol_per_tx")
		}
	} else {
		maxBaseUnits, err := token.ToBaseUnits(strconv.FormatFloat(d.MaxTokenPerTx, 'f', -1, 64), inputDecimals)
		if err != nil {
			return swaperr.Wrap(swaperr.KindDelegationInvalid, "parse max_token_per_tx", err)
		}
		if req.InputAmount > maxBaseUnits {
			return swaperr.New(swaperr.KindDelegationInvalid, "input amount exceeds delegation's max_token_per_tx")
		}
	}

	return nil
}

// checkDelegateIsSigner verifies the delegate's account address appears
// as a signer in the compiled message's static key list, and returns its
// index in the signature vector.
func checkDelegateIsSigner(delegate domain.Mint, msg domain.VersionedMessage) (int, error) {
	numSigners := int(msg.Header.NumRequiredSignatures)
	for i := 0; i < numSigners && i < len(msg.AccountKeys); i++ {
		if msg.AccountKeys[i] == delegate {
			return i, nil
		}
	}
	return 0, swaperr.New(swaperr.KindDelegationInvalid, "delegate account is not a signer in the assembled message")
}
