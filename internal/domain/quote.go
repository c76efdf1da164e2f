package domain

import "sort"

// QuoteRequest parameterizes one swap-quote stream. Created per swap;
// its lifetime is bounded by the stream it opens.
type QuoteRequest struct {
	InputMint        Mint
	OutputMint       Mint
	InputAmount      uint64 // integer base units
	UserPubkey       Mint   // delegate wallet address, wire-encoded like a mint
	SlippageBps      uint16 // [0, 10_000]
	MaxQuotesPerUpdate uint8 // [1, 16]
	UpdateIntervalMs uint16 // [100, 5000]
}

// RouteStep is one leg of a quote's route description.
type RouteStep struct {
	Label      string
	InputMint  Mint
	OutputMint Mint
}

// AccountMeta mirrors a single account reference inside a provider
// instruction, preserved verbatim through compilation.
type AccountMeta struct {
	Pubkey     Mint
	IsSigner   bool
	IsWritable bool
}

// Instruction is one instruction in a Quote's Instructions payload.
type Instruction struct {
	ProgramID Mint
	Accounts  []AccountMeta
	Data      []byte
}

// QuotePayload is either a fully-serialized transaction the server already
// built (Prebuilt) or a raw instruction list the assembler must compile
// (Instructions). Exactly one of the two is non-nil.
type QuotePayload struct {
	Prebuilt     *PrebuiltPayload
	Instructions *InstructionsPayload
}

// PrebuiltPayload carries an already-serialized versioned transaction.
type PrebuiltPayload struct {
	TransactionBytes []byte
}

// InstructionsPayload carries raw instructions plus the ALTs needed to
// compress them into a legal-size transaction.
type InstructionsPayload struct {
	Instructions  []Instruction
	LookupTables  []Mint
}

// Quote is one provider's offer within a QuoteBatch.
type Quote struct {
	ProviderID      string
	RouteDescription []RouteStep
	InAmount        uint64
	OutAmount       uint64
	PriceImpactBps  uint32
	PlatformFeesBps uint32
	ComputeUnits    uint32
	Payload         QuotePayload
}

// QuoteBatch is one server update: an ordered, non-meaningfully-ordered set
// of candidate quotes. Batches arrive monotonically in time for one stream.
type QuoteBatch struct {
	Quotes []Quote
}

// IsEmpty reports whether a batch has no usable quote: spec.md §4.4 treats
// an all-zero-out_amount batch the same as a literally empty one.
func (b QuoteBatch) IsEmpty() bool {
	for _, q := range b.Quotes {
		if q.OutAmount > 0 {
			return false
		}
	}
	return true
}

// WinningQuote picks the best Quote in a batch per spec.md §3: maximal
// OutAmount, ties broken by lowest PriceImpactBps, then lexicographic
// ProviderID. It is a pure function of (out_amount, price_impact_bps,
// provider_id) only, and depends on nothing outside the given batch.
func WinningQuote(batch QuoteBatch) (Quote, bool) {
	if batch.IsEmpty() {
		return Quote{}, false
	}

	candidates := make([]Quote, 0, len(batch.Quotes))
	for _, q := range batch.Quotes {
		if q.OutAmount > 0 {
			candidates = append(candidates, q)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.OutAmount != b.OutAmount {
			return a.OutAmount > b.OutAmount
		}
		if a.PriceImpactBps != b.PriceImpactBps {
			return a.PriceImpactBps < b.PriceImpactBps
		}
		return a.ProviderID < b.ProviderID
	})

	return candidates[0], true
}
