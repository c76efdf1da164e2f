// Package txassembler implements C6: turning a winning quote into a
// signed, size-legal versioned transaction. It is the core's most
// delicate component, combining two independent payload shapes (a
// provider-prebuilt transaction, or raw instructions this package must
// compile itself), address-lookup-table compression to stay under
// Solana's 1232-byte transaction ceiling, and delegation enforcement
// that must run before the signer is ever invoked.
package txassembler

import (
	"context"
	"fmt"
	"time"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/solana"
	"solana-swap-agent/internal/swaperr"
)

// Params is everything Assemble needs beyond the chain RPC client.
type Params struct {
	Quote         domain.Quote
	Request       domain.QuoteRequest
	Delegation    domain.Delegation
	InputDecimals int
}

// Result is a successfully assembled and signed transaction, plus the
// block height past which its blockhash is no longer valid (0 if
// unknown, as with a prebuilt payload whose blockhash this package never
// fetched).
type Result struct {
	Transaction          domain.VersionedTransaction
	LastValidBlockHeight uint64
}

// Assemble runs every precondition check, then builds a signed
// VersionedTransaction via whichever payload path the quote carries.
func Assemble(ctx context.Context, rpc *solana.HTTPClient, p Params) (Result, error) {
	if err := checkDelegation(p.Delegation, p.Request, p.InputDecimals, time.Now()); err != nil {
		return Result{}, err
	}

	switch {
	case p.Quote.Payload.Prebuilt != nil:
		tx, err := assemblePrebuilt(p.Delegation, p.Quote.Payload.Prebuilt)
		if err != nil {
			return Result{}, err
		}
		return Result{Transaction: tx}, nil
	case p.Quote.Payload.Instructions != nil:
		return assembleFromInstructions(ctx, rpc, p.Delegation, p.Quote.Payload.Instructions)
	default:
		return Result{}, swaperr.New(swaperr.KindDecodeFailed, "quote carries neither a prebuilt transaction nor instructions")
	}
}

// assemblePrebuilt implements Path A (§4.6): deserialize the provider's
// transaction, resign it with the delegate key, and verify the budget.
// The assembler never attempts to shrink a prebuilt payload — an
// oversized one is a server bug, reported as-is.
func assemblePrebuilt(delegation domain.Delegation, payload *domain.PrebuiltPayload) (domain.VersionedTransaction, error) {
	tx, err := parseTransaction(payload.TransactionBytes)
	if err != nil {
		return domain.VersionedTransaction{}, swaperr.Wrap(swaperr.KindDecodeFailed, "deserialize prebuilt transaction", err)
	}

	signerIdx, err := checkDelegateIsSigner(delegation.DelegateKeypair.PublicKey, tx.Message)
	if err != nil {
		return domain.VersionedTransaction{}, err
	}
	if tx.Message.Header.NumRequiredSignatures != 1 {
		return domain.VersionedTransaction{}, swaperr.New(swaperr.KindDelegationInvalid, "prebuilt transaction requires signers other than the delegate")
	}

	signed, err := signTransaction(delegation.DelegateKeypair, tx.Message, signerIdx)
	if err != nil {
		return domain.VersionedTransaction{}, err
	}

	if size := len(serializeTransaction(signed)); size > domain.MaxTransactionSize {
		return domain.VersionedTransaction{}, tooLargeError(signed.Message, size)
	}

	return signed, nil
}

// assembleFromInstructions implements Path B (§4.6 steps 1-8): load the
// quote's address lookup tables, compile the instructions against the
// compressed account-key layout, fetch a fresh blockhash, sign, and
// verify the budget.
func assembleFromInstructions(ctx context.Context, rpc *solana.HTTPClient, delegation domain.Delegation, payload *domain.InstructionsPayload) (Result, error) {
	tables := make([]domain.AddressLookupTable, 0, len(payload.LookupTables))
	for _, addr := range payload.LookupTables {
		table, err := fetchLookupTable(ctx, rpc, addr)
		if err != nil {
			return Result{}, err
		}
		tables = append(tables, table)
	}

	blockhash, err := rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return Result{}, swaperr.Wrap(swaperr.KindDecodeFailed, "fetch recent blockhash", err)
	}
	var recentBlockhash [32]byte
	decoded, err := decodeBlockhash(blockhash.Blockhash)
	if err != nil {
		return Result{}, swaperr.Wrap(swaperr.KindDecodeFailed, "decode recent blockhash", err)
	}
	copy(recentBlockhash[:], decoded)

	msg, err := compileInstructions(delegation.DelegateKeypair.PublicKey, payload.Instructions, tables, recentBlockhash)
	if err != nil {
		return Result{}, err
	}

	signerIdx, err := checkDelegateIsSigner(delegation.DelegateKeypair.PublicKey, msg)
	if err != nil {
		return Result{}, err
	}

	signed, err := signTransaction(delegation.DelegateKeypair, msg, signerIdx)
	if err != nil {
		return Result{}, err
	}

	if size := len(serializeTransaction(signed)); size > domain.MaxTransactionSize {
		return Result{}, tooLargeError(signed.Message, size)
	}

	return Result{Transaction: signed, LastValidBlockHeight: blockhash.LastValidBlockHeight}, nil
}

// tooLargeError builds the §4.6 step 8 diagnostic: static key count,
// ALT-compressed key count, and the instructions contributing the most
// account references (the likely culprits for a repeat assembly attempt).
func tooLargeError(msg domain.VersionedMessage, size int) error {
	altResolved := 0
	for _, lookup := range msg.AddressTableLookups {
		altResolved += len(lookup.WritableIndexes) + len(lookup.ReadonlyIndexes)
	}

	type contributor struct {
		index int
		count int
	}
	contributors := make([]contributor, len(msg.Instructions))
	for i, instr := range msg.Instructions {
		contributors[i] = contributor{index: i, count: len(instr.AccountIndexes)}
	}
	for i := range contributors {
		for j := i + 1; j < len(contributors); j++ {
			if contributors[j].count > contributors[i].count {
				contributors[i], contributors[j] = contributors[j], contributors[i]
			}
		}
	}
	top := contributors
	if len(top) > 3 {
		top = top[:3]
	}

	return swaperr.New(swaperr.KindTooLarge, fmt.Sprintf(
		"assembled transaction is %d bytes (max %d): %d static keys, %d ALT-resolved keys, top contributing instructions %v",
		size, domain.MaxTransactionSize, len(msg.AccountKeys), altResolved, top,
	))
}

// decodeBlockhash decodes a base58 blockhash the same way a 32-byte
// pubkey is decoded; blockhashes share the same on-wire representation.
func decodeBlockhash(s string) ([]byte, error) {
	m, err := domain.ParseMint(s)
	if err != nil {
		return nil, err
	}
	return m.Bytes(), nil
}
