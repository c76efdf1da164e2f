package codec

import (
	"fmt"

	"solana-swap-agent/internal/domain"
)

// ToDomainBatch converts a wire-level SwapQuotes payload into the
// component-facing domain.QuoteBatch, decoding each quote's tagged-union
// payload along the way.
func ToDomainBatch(wire SwapQuotes) (domain.QuoteBatch, error) {
	quotes := make([]domain.Quote, 0, len(wire.Quotes))
	for i, wq := range wire.Quotes {
		q, err := toDomainQuote(wq)
		if err != nil {
			return domain.QuoteBatch{}, fmt.Errorf("quote %d: %w", i, err)
		}
		quotes = append(quotes, q)
	}
	return domain.QuoteBatch{Quotes: quotes}, nil
}

func toDomainQuote(wq WireQuote) (domain.Quote, error) {
	route := make([]domain.RouteStep, 0, len(wq.RouteDescription))
	for _, step := range wq.RouteDescription {
		in, err := domain.MintFromBytes(step.InputMint)
		if err != nil {
			return domain.Quote{}, err
		}
		out, err := domain.MintFromBytes(step.OutputMint)
		if err != nil {
			return domain.Quote{}, err
		}
		route = append(route, domain.RouteStep{Label: step.Label, InputMint: in, OutputMint: out})
	}

	payload, err := DecodeQuotePayload(wq.Payload)
	if err != nil {
		return domain.Quote{}, err
	}

	domainPayload, err := toDomainPayload(payload)
	if err != nil {
		return domain.Quote{}, err
	}

	return domain.Quote{
		ProviderID:       wq.ProviderID,
		RouteDescription: route,
		InAmount:         wq.InAmount,
		OutAmount:        wq.OutAmount,
		PriceImpactBps:   wq.PriceImpactBps,
		PlatformFeesBps:  wq.PlatformFeesBps,
		ComputeUnits:     wq.ComputeUnits,
		Payload:          domainPayload,
	}, nil
}

func toDomainPayload(payload QuotePayload) (domain.QuotePayload, error) {
	switch p := payload.(type) {
	case PrebuiltPayload:
		return domain.QuotePayload{Prebuilt: &domain.PrebuiltPayload{TransactionBytes: p.TransactionBytes}}, nil
	case InstructionsPayload:
		instrs := make([]domain.Instruction, 0, len(p.Instructions))
		for _, wi := range p.Instructions {
			programID, err := domain.MintFromBytes(wi.ProgramID)
			if err != nil {
				return domain.QuotePayload{}, err
			}
			accounts := make([]domain.AccountMeta, 0, len(wi.Accounts))
			for _, wa := range wi.Accounts {
				pubkey, err := domain.MintFromBytes(wa.Pubkey)
				if err != nil {
					return domain.QuotePayload{}, err
				}
				accounts = append(accounts, domain.AccountMeta{Pubkey: pubkey, IsSigner: wa.IsSigner, IsWritable: wa.IsWritable})
			}
			instrs = append(instrs, domain.Instruction{ProgramID: programID, Accounts: accounts, Data: wi.Data})
		}
		luts := make([]domain.Mint, 0, len(p.LookupTables))
		for _, lt := range p.LookupTables {
			m, err := domain.MintFromBytes(lt)
			if err != nil {
				return domain.QuotePayload{}, err
			}
			luts = append(luts, m)
		}
		return domain.QuotePayload{Instructions: &domain.InstructionsPayload{Instructions: instrs, LookupTables: luts}}, nil
	default:
		return domain.QuotePayload{}, fmt.Errorf("unhandled quote payload variant %T", payload)
	}
}

// FromDomainRequest converts a domain.QuoteRequest into the
// NewSwapQuoteStream wire message for the given correlation id.
func FromDomainRequest(correlationID uint64, req domain.QuoteRequest) NewSwapQuoteStream {
	return NewSwapQuoteStream{
		CorrelationID: correlationID,
		InputMint:     req.InputMint.Bytes(),
		OutputMint:    req.OutputMint.Bytes(),
		Amount:        req.InputAmount,
		UserPubkey:    req.UserPubkey.Bytes(),
		SlippageBps:   req.SlippageBps,
		MaxQuotes:     req.MaxQuotesPerUpdate,
		IntervalMs:    req.UpdateIntervalMs,
	}
}
