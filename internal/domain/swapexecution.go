package domain

import "time"

// SwapExecution is one append-only audit row for a completed (or failed)
// swap attempt, recorded by the optional history store. Grounded on
// SwapOutcome plus the request parameters that produced it.
type SwapExecution struct {
	ID          int64
	InputMint   Mint
	OutputMint  Mint
	InputAmount uint64
	Provider    string
	Signature   string
	Status      SubmitStatus
	ExplorerURL string
	SubmittedAt time.Time
	ConfirmedAt *time.Time
}
