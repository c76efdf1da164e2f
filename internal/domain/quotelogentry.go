package domain

import "time"

// QuoteLogEntry is one observed quote, flattened for analytics storage.
type QuoteLogEntry struct {
	ObservedAt     time.Time
	InputMint      Mint
	OutputMint     Mint
	Provider       string
	InAmount       uint64
	OutAmount      uint64
	PriceImpactBps uint32
}
