// Package clickhouse implements quotelog.Store using ClickHouse, grounded
// on internal/storage/clickhouse/price_timeseries_store.go's
// PrepareBatch/Append/Send shape.
package clickhouse

import (
	"context"
	"fmt"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/quotelog"
	"solana-swap-agent/internal/storage/clickhouse"
)

// Store implements quotelog.Store using ClickHouse.
type Store struct {
	conn *clickhouse.Conn
}

// New creates a new Store backed by conn.
func New(conn *clickhouse.Conn) *Store {
	return &Store{conn: conn}
}

var _ quotelog.Store = (*Store)(nil)

// InsertBulk batch-inserts entries into quote_log.
func (s *Store) InsertBulk(ctx context.Context, entries []domain.QuoteLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO quote_log (
			observed_at_ms, input_mint, output_mint, provider, in_amount, out_amount, price_impact_bps
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range entries {
		err = batch.Append(
			uint64(e.ObservedAt.UnixMilli()),
			e.InputMint.String(),
			e.OutputMint.String(),
			e.Provider,
			e.InAmount,
			e.OutAmount,
			e.PriceImpactBps,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}
