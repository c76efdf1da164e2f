// Package quotestream implements the quote stream manager (C4): opens a
// stream via the wire session, republishes each QuoteBatch as it arrives,
// and exposes the current winning quote without blocking the stream.
// Grounded on original_source's titan_client.py request_swap_quotes /
// get_best_quote_from_stream async-generator loop, translated into a
// goroutine pumping session.StreamFrame values.
package quotestream

import (
	"context"
	"sync/atomic"
	"time"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/swaperr"
	"solana-swap-agent/internal/wire/codec"
	"solana-swap-agent/internal/wire/session"
)

// DefaultFirstBatchDeadline bounds how long Open waits for the first
// QuoteBatch before reporting no_quotes.
const DefaultFirstBatchDeadline = 10 * time.Second

// Update is one published stream event: either a fresh batch or a terminal
// condition (error or normal end).
type Update struct {
	Batch domain.QuoteBatch
	Err   error
	Done  bool
}

// Stream is a live quote stream: Updates delivers each batch as it
// arrives; Winner reads the current best quote without blocking the
// stream; Cancel stops the stream and releases C2's dispatch-table entry.
type Stream struct {
	updates  chan Update
	handle   *session.StreamHandle
	winner   atomic.Pointer[domain.Quote]
	observer func(domain.QuoteBatch)
}

// Option configures optional Stream behavior, mirroring
// internal/solana/rpc_client.go's ClientOption pattern.
type Option func(*Stream)

// WithQuoteObserver registers fn to be called (synchronously, on the
// pump goroutine) with every batch published on this stream. Intended
// for a best-effort analytics sink (internal/quotelog); fn must not
// block meaningfully or it will stall the stream.
func WithQuoteObserver(fn func(domain.QuoteBatch)) Option {
	return func(s *Stream) {
		s.observer = fn
	}
}

// Updates returns the channel of published stream events.
func (s *Stream) Updates() <-chan Update {
	return s.updates
}

// Winner returns the winning quote of the most recent batch that had a
// usable quote (a batch without one leaves it unchanged), or false if no
// such batch has arrived yet.
func (s *Stream) Winner() (domain.Quote, bool) {
	p := s.winner.Load()
	if p == nil {
		return domain.Quote{}, false
	}
	return *p, true
}

// Cancel stops the stream; no further Updates are delivered once it
// returns.
func (s *Stream) Cancel() {
	s.handle.Cancel()
}

// Open starts a quote stream for req over sess, blocking until either the
// first batch arrives or firstBatchDeadline elapses.
func Open(ctx context.Context, sess *session.Session, req domain.QuoteRequest, firstBatchDeadline time.Duration, opts ...Option) (*Stream, error) {
	wireReq := codec.FromDomainRequest(0, req)

	handle, err := sess.Stream(ctx, wireReq)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		updates: make(chan Update, 16),
		handle:  handle,
	}
	for _, opt := range opts {
		opt(s)
	}

	firstBatch := make(chan struct{})
	go s.pump(handle, firstBatch)

	if firstBatchDeadline <= 0 {
		firstBatchDeadline = DefaultFirstBatchDeadline
	}

	select {
	case <-firstBatch:
		return s, nil
	case <-time.After(firstBatchDeadline):
		handle.Cancel()
		return nil, swaperr.New(swaperr.KindNoQuotes, "no quote batch arrived before first-batch deadline")
	case <-ctx.Done():
		handle.Cancel()
		return nil, ctx.Err()
	}
}

func (s *Stream) pump(handle *session.StreamHandle, firstBatch chan struct{}) {
	defer close(s.updates)

	first := true
	notifyFirst := func() {
		if first {
			first = false
			close(firstBatch)
		}
	}

	for frame := range handle.Frames() {
		switch {
		case frame.Err != nil:
			notifyFirst()
			s.updates <- Update{Err: swaperr.Wrap(swaperr.KindTransportBroken, "stream error", frame.Err)}
			return
		case frame.End != nil:
			notifyFirst()
			s.updates <- Update{Done: true}
			return
		default:
			batch, err := codec.ToDomainBatch(frame.Batch)
			if err != nil {
				notifyFirst()
				s.updates <- Update{Err: swaperr.Wrap(swaperr.KindDecodeFailed, "decode quote batch", err)}
				return
			}

			if winner, ok := domain.WinningQuote(batch); ok {
				s.winner.Store(&winner)
			}

			if s.observer != nil {
				s.observer(batch)
			}

			notifyFirst()
			s.updates <- Update{Batch: batch}
		}
	}
}
