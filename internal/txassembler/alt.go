package txassembler

import (
	"context"
	"encoding/base64"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/solana"
	"solana-swap-agent/internal/swaperr"
)

// fetchLookupTable retrieves and decodes one ALT account's address list via
// chain RPC, per §4.6 step 3: skip the fixed 61-byte header, chunk the
// remainder into 32-byte addresses, truncating any trailing partial chunk.
func fetchLookupTable(ctx context.Context, rpc *solana.HTTPClient, address domain.Mint) (domain.AddressLookupTable, error) {
	account, err := rpc.GetAccountInfo(ctx, address.String())
	if err != nil {
		return domain.AddressLookupTable{}, swaperr.Wrap(swaperr.KindDecodeFailed, "fetch address lookup table account", err)
	}
	if account == nil {
		return domain.AddressLookupTable{}, swaperr.New(swaperr.KindDecodeFailed, "address lookup table account not found: "+address.String())
	}

	data, err := base64.StdEncoding.DecodeString(account.Data)
	if err != nil {
		return domain.AddressLookupTable{}, swaperr.Wrap(swaperr.KindDecodeFailed, "decode address lookup table data", err)
	}

	return domain.AddressLookupTable{
		Address:   address,
		Addresses: domain.ParseALTAddresses(data),
	}, nil
}
