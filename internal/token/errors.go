package token

import "solana-swap-agent/internal/swaperr"

func domainUnresolvedErr(input string) error {
	return swaperr.New(swaperr.KindDecodeFailed, "cannot resolve token symbol or address: "+input)
}
