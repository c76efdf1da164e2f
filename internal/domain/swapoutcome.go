package domain

import "time"

// SubmitStatus is the terminal disposition of a submitted transaction.
type SubmitStatus string

const (
	SubmitStatusConfirmed SubmitStatus = "confirmed"
	SubmitStatusFailed    SubmitStatus = "failed"
	SubmitStatusExpired   SubmitStatus = "expired"
)

// SubmitOutcome is C7's result for one transaction submission.
type SubmitOutcome struct {
	Signature string
	Status    SubmitStatus
	Slot      uint64
	Err       error
}

// SwapOutcome is the end-to-end result surfaced by the swap() entrypoint,
// replacing the dict literal returned by the original swap_tokens tool.
type SwapOutcome struct {
	RequestedAt time.Time
	Signature   string
	Status      SubmitStatus
	ExplorerURL string
	Provider    string
	InAmount    uint64
	OutAmount   uint64
}

