package quotelog_test

import (
	"context"
	"testing"
	"time"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/quotelog"
	"solana-swap-agent/internal/quotelog/memory"
)

func TestSink_FlushesOnBatchSize(t *testing.T) {
	store := memory.New()
	sink := quotelog.NewSink(store, 16, 2)

	sink.Log(domain.QuoteLogEntry{Provider: "a", ObservedAt: time.Now()})
	sink.Log(domain.QuoteLogEntry{Provider: "b", ObservedAt: time.Now()})
	sink.Close()

	if got := len(store.All()); got != 2 {
		t.Fatalf("expected 2 entries flushed, got %d", got)
	}
}

func TestSink_DropsWhenQueueFull(t *testing.T) {
	blocking := &blockingStore{release: make(chan struct{})}
	sink := quotelog.NewSink(blocking, 1, 1)

	// First Log is consumed immediately by the drain goroutine and blocks
	// inside InsertBulk; the queue (size 1) then fills with the second
	// entry, and the third must be dropped rather than block Log.
	sink.Log(domain.QuoteLogEntry{Provider: "first"})
	time.Sleep(20 * time.Millisecond)
	sink.Log(domain.QuoteLogEntry{Provider: "second"})

	done := make(chan struct{})
	go func() {
		sink.Log(domain.QuoteLogEntry{Provider: "third"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Log blocked instead of dropping the overflow entry")
	}

	select {
	case <-sink.Dropped():
	default:
		t.Fatal("expected a drop signal")
	}

	close(blocking.release)
}

type blockingStore struct {
	release chan struct{}
}

func (b *blockingStore) InsertBulk(_ context.Context, _ []domain.QuoteLogEntry) error {
	<-b.release
	return nil
}
