// Package quotelog implements the optional quote analytics sink (§8):
// every observed Quote can be appended here for later spread/latency
// analysis. It is never a precondition for completing a swap — Log is
// called best-effort from the quote stream manager.
package quotelog

import (
	"context"

	"solana-swap-agent/internal/domain"
)

// Store appends observed quotes. InsertBulk is called only from a Sink's
// drain goroutine, never from the quote stream itself, which calls
// Sink.Log instead.
type Store interface {
	InsertBulk(ctx context.Context, entries []domain.QuoteLogEntry) error
}

// Sink wraps a Store with a buffered channel and a background drain
// goroutine, so a slow or absent backing store never backpressures the
// live quote stream. Grounded on
// internal/storage/clickhouse/price_timeseries_store.go's batch-insert
// shape, adapted to be asynchronous rather than called synchronously from
// the ingestion path.
type Sink struct {
	store   Store
	queue   chan domain.QuoteLogEntry
	done    chan struct{}
	dropped chan struct{}
}

// NewSink starts a Sink backed by store, buffering up to queueSize
// entries and flushing in batches of up to batchSize.
func NewSink(store Store, queueSize, batchSize int) *Sink {
	s := &Sink{
		store:   store,
		queue:   make(chan domain.QuoteLogEntry, queueSize),
		done:    make(chan struct{}),
		dropped: make(chan struct{}, 1),
	}
	go s.drain(batchSize)
	return s
}

// Log enqueues entry for eventual batched insertion. If the queue is
// full, entry is silently dropped rather than blocking the caller — a
// slow analytics backend must never stall the live quote stream.
func (s *Sink) Log(entry domain.QuoteLogEntry) {
	select {
	case s.queue <- entry:
	default:
		select {
		case s.dropped <- struct{}{}:
		default:
		}
	}
}

// Dropped signals (non-blockingly) whenever Log had to drop an entry
// because the queue was full, for callers that want to count or log it.
func (s *Sink) Dropped() <-chan struct{} {
	return s.dropped
}

// Close stops the drain goroutine after flushing whatever remains
// buffered.
func (s *Sink) Close() {
	close(s.queue)
	<-s.done
}

func (s *Sink) drain(batchSize int) {
	defer close(s.done)

	batch := make([]domain.QuoteLogEntry, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		_ = s.store.InsertBulk(context.Background(), batch)
		batch = batch[:0]
	}

	for entry := range s.queue {
		batch = append(batch, entry)
		if len(batch) >= batchSize {
			flush()
		}
	}
	flush()
}
