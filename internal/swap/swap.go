// Package swap wires C3 through C7 into the single entry point the CLI
// calls for one swap: resolve tokens, stream quotes, let the user confirm
// a winner, assemble a signed transaction, and submit it. Grounded on
// original_source's swap_tokens tool, which runs the same pipeline as one
// function against the same component boundaries.
package swap

import (
	"context"
	"log"
	"time"

	"solana-swap-agent/internal/display"
	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/history"
	"solana-swap-agent/internal/quotelog"
	"solana-swap-agent/internal/quotestream"
	"solana-swap-agent/internal/solana"
	"solana-swap-agent/internal/submitter"
	"solana-swap-agent/internal/swaperr"
	"solana-swap-agent/internal/token"
	"solana-swap-agent/internal/txassembler"
	"solana-swap-agent/internal/wire/session"
)

// Params is everything one swap call needs beyond the long-lived
// dependencies in Deps.
type Params struct {
	InputSymbolOrAddress  string
	OutputSymbolOrAddress string
	AmountHuman           string // human-readable decimal amount, input mint's units
	SlippageBps           uint16
	Delegation            domain.Delegation
}

// Deps are the long-lived collaborators a swap call reuses across
// invocations: one RPC client and token registry serve the whole process,
// while the wire session is opened fresh per swap (§4.2: a session is
// owned by exactly one stream for its lifetime).
type Deps struct {
	RPC                *solana.HTTPClient
	Registry           *token.Registry
	WireEndpoint       string
	WireAuthToken      string
	FirstBatchDeadline time.Duration
	Submitter          *submitter.Submitter
	Logger             *log.Logger

	// History, if non-nil, receives an audit row for every swap whose
	// submission reaches a terminal status (confirmed, failed, or expired);
	// no row is written when Submit returns an error. Optional (§8): the
	// swap path never fails because history recording failed.
	History history.Store

	// QuoteLog, if non-nil, receives every observed quote batch for
	// offline analytics. Optional (§8), and asynchronous: see
	// internal/quotelog.Sink.
	QuoteLog *quotelog.Sink
}

const (
	defaultMaxQuotesPerUpdate = 8
	defaultUpdateIntervalMs   = 1000
)

// Run executes one swap end to end. It returns an error for every
// precondition or transport failure; a successfully submitted transaction
// is reported via its SwapOutcome.Status regardless of whether that
// status is confirmed, failed, or expired.
func Run(ctx context.Context, deps Deps, p Params) (domain.SwapOutcome, error) {
	inputInfo, err := deps.Registry.Resolve(ctx, p.InputSymbolOrAddress)
	if err != nil {
		return domain.SwapOutcome{}, swaperr.Wrap(swaperr.KindDecodeFailed, "resolve input token", err)
	}
	outputInfo, err := deps.Registry.Resolve(ctx, p.OutputSymbolOrAddress)
	if err != nil {
		return domain.SwapOutcome{}, swaperr.Wrap(swaperr.KindDecodeFailed, "resolve output token", err)
	}

	inputAmount, err := token.ToBaseUnits(p.AmountHuman, inputInfo.Decimals)
	if err != nil {
		return domain.SwapOutcome{}, swaperr.Wrap(swaperr.KindDecodeFailed, "parse swap amount", err)
	}

	req := domain.QuoteRequest{
		InputMint:          inputInfo.Mint,
		OutputMint:         outputInfo.Mint,
		InputAmount:        inputAmount,
		UserPubkey:         p.Delegation.DelegateKeypair.PublicKey,
		SlippageBps:        p.SlippageBps,
		MaxQuotesPerUpdate: defaultMaxQuotesPerUpdate,
		UpdateIntervalMs:   defaultUpdateIntervalMs,
	}

	sess, err := session.Open(ctx, deps.WireEndpoint, deps.WireAuthToken)
	if err != nil {
		return domain.SwapOutcome{}, err
	}
	defer sess.Close()

	var streamOpts []quotestream.Option
	if deps.QuoteLog != nil {
		streamOpts = append(streamOpts, quotestream.WithQuoteObserver(func(batch domain.QuoteBatch) {
			logQuoteBatch(deps.QuoteLog, req, batch)
		}))
	}

	stream, err := quotestream.Open(ctx, sess, req, deps.FirstBatchDeadline, streamOpts...)
	if err != nil {
		return domain.SwapOutcome{}, err
	}
	defer stream.Cancel()

	outcome := display.Run(ctx, display.Config{
		DecimalsIn:  inputInfo.Decimals,
		DecimalsOut: outputInfo.Decimals,
		SymbolIn:    symbolOr(inputInfo, p.InputSymbolOrAddress),
		SymbolOut:   symbolOr(outputInfo, p.OutputSymbolOrAddress),
	}, stream)
	if outcome.Err != nil {
		return domain.SwapOutcome{}, outcome.Err
	}
	if !outcome.Confirmed || !outcome.HasWinner {
		return domain.SwapOutcome{}, swaperr.New(swaperr.KindUserCancelled, "swap was not confirmed before the stream ended")
	}

	assembled, err := txassembler.Assemble(ctx, deps.RPC, txassembler.Params{
		Quote:         outcome.Winner,
		Request:       req,
		Delegation:    p.Delegation,
		InputDecimals: inputInfo.Decimals,
	})
	if err != nil {
		return domain.SwapOutcome{}, err
	}

	rawTx := txassembler.Serialize(assembled.Transaction)
	submitOutcome, err := deps.Submitter.Submit(ctx, rawTx, assembled.LastValidBlockHeight)
	if err != nil {
		return domain.SwapOutcome{}, err
	}

	if deps.Logger != nil {
		deps.Logger.Printf("swap %s -> %s: %s (%s)", p.InputSymbolOrAddress, p.OutputSymbolOrAddress, submitOutcome.Status, submitOutcome.Signature)
	}

	submittedAt := time.Now()
	result := domain.SwapOutcome{
		RequestedAt: submittedAt,
		Signature:   submitOutcome.Signature,
		Status:      submitOutcome.Status,
		ExplorerURL: submitter.ExplorerURL(submitOutcome.Signature),
		Provider:    outcome.Winner.ProviderID,
		InAmount:    outcome.Winner.InAmount,
		OutAmount:   outcome.Winner.OutAmount,
	}

	recordHistory(ctx, deps.History, req, result, submittedAt, deps.Logger)

	return result, nil
}

// recordHistory best-effort appends one audit row. A failure here never
// fails the swap: history is an optional sink (§8), not a precondition.
func recordHistory(ctx context.Context, store history.Store, req domain.QuoteRequest, outcome domain.SwapOutcome, submittedAt time.Time, logger *log.Logger) {
	if store == nil {
		return
	}

	var confirmedAt *time.Time
	if outcome.Status == domain.SubmitStatusConfirmed {
		now := time.Now()
		confirmedAt = &now
	}

	exec := &domain.SwapExecution{
		InputMint:   req.InputMint,
		OutputMint:  req.OutputMint,
		InputAmount: req.InputAmount,
		Provider:    outcome.Provider,
		Signature:   outcome.Signature,
		Status:      outcome.Status,
		ExplorerURL: outcome.ExplorerURL,
		SubmittedAt: submittedAt,
		ConfirmedAt: confirmedAt,
	}

	if err := store.Insert(ctx, exec); err != nil && logger != nil {
		logger.Printf("record swap history: %v", err)
	}
}

// logQuoteBatch best-effort logs every quote in batch to the analytics
// sink. Never blocks the stream: Sink.Log drops entries under backpressure.
func logQuoteBatch(sink *quotelog.Sink, req domain.QuoteRequest, batch domain.QuoteBatch) {
	now := time.Now()
	for _, q := range batch.Quotes {
		sink.Log(domain.QuoteLogEntry{
			ObservedAt:     now,
			InputMint:      req.InputMint,
			OutputMint:     req.OutputMint,
			Provider:       q.ProviderID,
			InAmount:       q.InAmount,
			OutAmount:      q.OutAmount,
			PriceImpactBps: q.PriceImpactBps,
		})
	}
}

// symbolOr prefers the resolved symbol, falling back to whatever the
// caller originally typed (typically already a symbol, or an address when
// the registry couldn't resolve one).
func symbolOr(info domain.TokenInfo, fallback string) string {
	if info.Symbol != nil && *info.Symbol != "" {
		return *info.Symbol
	}
	return fallback
}
