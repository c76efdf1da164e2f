// Package submitter implements C7: send a signed transaction to chain
// RPC, classify any preflight rejection into a user-visible reason, and
// poll for confirmation up to a bounded deadline. Grounded on
// original_source's swap_tokens send+confirm_transaction loop and its
// substring-based error classification.
package submitter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/solana"
	"solana-swap-agent/internal/swaperr"
)

const (
	// DefaultPollInterval is how often GetSignatureStatuses is polled
	// while waiting for confirmation.
	DefaultPollInterval = 500 * time.Millisecond
	// DefaultConfirmDeadline bounds total time spent polling.
	DefaultConfirmDeadline = 60 * time.Second

	explorerBaseURL = "https://solscan.io/tx/"
)

// Config tunes the submitter's polling behavior.
type Config struct {
	PollInterval    time.Duration
	ConfirmDeadline time.Duration
}

// DefaultConfig returns the spec's default poll interval and deadline.
func DefaultConfig() Config {
	return Config{PollInterval: DefaultPollInterval, ConfirmDeadline: DefaultConfirmDeadline}
}

// Submitter sends signed transactions to chain RPC and waits for them
// to land.
type Submitter struct {
	rpc *solana.HTTPClient
	cfg Config
}

// New constructs a Submitter against the given chain RPC client.
func New(rpc *solana.HTTPClient, cfg Config) *Submitter {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ConfirmDeadline <= 0 {
		cfg.ConfirmDeadline = DefaultConfirmDeadline
	}
	return &Submitter{rpc: rpc, cfg: cfg}
}

// Submit sends tx's raw bytes with preflight simulation, classifies any
// preflight rejection, and otherwise polls until a terminal state is
// reached or the confirmation deadline elapses.
func (s *Submitter) Submit(ctx context.Context, rawTx []byte, lastValidBlockHeight uint64) (domain.SubmitOutcome, error) {
	if simErr, err := s.rpc.SimulateTransaction(ctx, rawTx); err != nil {
		return domain.SubmitOutcome{}, swaperr.Wrap(swaperr.KindSimulationFailed, "preflight simulation request failed", err)
	} else if simErr != nil {
		return domain.SubmitOutcome{}, classifyPreflightError(simErr)
	}

	signature, err := s.rpc.SendTransaction(ctx, rawTx)
	if err != nil {
		return domain.SubmitOutcome{}, classifySendError(err)
	}

	status, err := s.pollConfirmation(ctx, signature, lastValidBlockHeight)
	if err != nil {
		return domain.SubmitOutcome{Signature: signature}, err
	}

	return domain.SubmitOutcome{
		Signature: signature,
		Status:    status,
	}, nil
}

// pollConfirmation polls getSignatureStatuses at s.cfg.PollInterval
// until the signature reaches a terminal state, the chain reports an
// on-chain error, the recent blockhash it was built against expires, or
// s.cfg.ConfirmDeadline elapses (confirmation_timeout).
func (s *Submitter) pollConfirmation(ctx context.Context, signature string, lastValidBlockHeight uint64) (domain.SubmitStatus, error) {
	deadline := time.Now().Add(s.cfg.ConfirmDeadline)
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", swaperr.Wrap(swaperr.KindConfirmationTimeout, "context cancelled while awaiting confirmation", ctx.Err())
		case <-ticker.C:
			statuses, err := s.rpc.GetSignatureStatuses(ctx, []string{signature})
			if err != nil {
				// Transport hiccups during polling are not fatal; keep polling
				// until the deadline.
				if time.Now().After(deadline) {
					return "", swaperr.Wrap(swaperr.KindConfirmationTimeout, "polling failed and deadline elapsed", err)
				}
				continue
			}

			if len(statuses) > 0 && statuses[0] != nil {
				st := statuses[0]
				if st.Err != nil {
					return domain.SubmitStatusFailed, nil
				}
				if isConfirmedOrBetter(st.ConfirmationStatus) {
					return domain.SubmitStatusConfirmed, nil
				}
			}

			if lastValidBlockHeight > 0 {
				currentHeight, err := s.currentBlockHeight(ctx)
				if err == nil && currentHeight > lastValidBlockHeight {
					return domain.SubmitStatusExpired, nil
				}
			}

			if time.Now().After(deadline) {
				return "", swaperr.New(swaperr.KindConfirmationTimeout, fmt.Sprintf("no terminal status for %s after %s", signature, s.cfg.ConfirmDeadline))
			}
		}
	}
}

// currentBlockHeight uses getLatestBlockhash's lastValidBlockHeight as a
// cheap proxy for current block height, avoiding a dedicated RPC method
// the chain interface (§6) does not list.
func (s *Submitter) currentBlockHeight(ctx context.Context) (uint64, error) {
	bh, err := s.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return 0, err
	}
	return bh.LastValidBlockHeight, nil
}

func isConfirmedOrBetter(status string) bool {
	return status == "confirmed" || status == "finalized"
}

// classifyPreflightError maps a chain-reported simulation error into one
// of the spec's user-visible preflight reasons.
func classifyPreflightError(simErr *solana.SimulateError) error {
	msg := strings.ToLower(fmt.Sprint(simErr.Err))
	for _, log := range simErr.Logs {
		msg += " " + strings.ToLower(log)
	}

	switch {
	case strings.Contains(msg, "insufficient") || strings.Contains(msg, "balance"):
		return swaperr.New(swaperr.KindInsufficientFunds, "delegate wallet does not have enough tokens for this swap")
	case strings.Contains(msg, "account not found") || strings.Contains(msg, "accountnotfound"):
		return swaperr.New(swaperr.KindAccountNotFound, "an account referenced by this transaction does not exist")
	case strings.Contains(msg, "slippage"):
		return swaperr.New(swaperr.KindSlippageExceeded, "price moved past the requested slippage tolerance")
	default:
		return swaperr.New(swaperr.KindSimulationFailed, "transaction simulation failed: "+fmt.Sprint(simErr.Err))
	}
}

// classifySendError applies the same substring classification to an
// error returned by sendTransaction itself (skip-preflight rejections
// surface the same message shapes as simulateTransaction).
func classifySendError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient") || strings.Contains(msg, "balance"):
		return swaperr.Wrap(swaperr.KindInsufficientFunds, "delegate wallet does not have enough tokens for this swap", err)
	case strings.Contains(msg, "slippage"):
		return swaperr.Wrap(swaperr.KindSlippageExceeded, "price moved past the requested slippage tolerance", err)
	default:
		return swaperr.Wrap(swaperr.KindSimulationFailed, "transaction send failed", err)
	}
}

// ExplorerURL renders the user-facing block explorer link for a
// confirmed signature.
func ExplorerURL(signature string) string {
	return explorerBaseURL + signature
}
