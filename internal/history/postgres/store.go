// Package postgres implements history.Store using PostgreSQL, grounded on
// internal/storage/postgres/swap_store.go's pool-based shape.
package postgres

import (
	"context"
	"fmt"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/history"
	"solana-swap-agent/internal/storage/postgres"
)

// Store implements history.Store using PostgreSQL.
type Store struct {
	pool *postgres.Pool
}

// New creates a new Store backed by pool.
func New(pool *postgres.Pool) *Store {
	return &Store{pool: pool}
}

var _ history.Store = (*Store)(nil)

// Insert adds a new swap execution row. Sets exec.ID on success.
func (s *Store) Insert(ctx context.Context, exec *domain.SwapExecution) error {
	query := `
		INSERT INTO swap_executions (
			input_mint, output_mint, input_amount, provider, signature,
			status, explorer_url, submitted_at, confirmed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, query,
		exec.InputMint.String(),
		exec.OutputMint.String(),
		exec.InputAmount,
		exec.Provider,
		exec.Signature,
		string(exec.Status),
		exec.ExplorerURL,
		exec.SubmittedAt,
		exec.ConfirmedAt,
	).Scan(&exec.ID)
	if err != nil {
		return fmt.Errorf("insert swap execution: %w", err)
	}
	return nil
}

// GetRecent returns up to limit most recently submitted executions.
func (s *Store) GetRecent(ctx context.Context, limit int) ([]*domain.SwapExecution, error) {
	query := `
		SELECT id, input_mint, output_mint, input_amount, provider, signature,
		       status, explorer_url, submitted_at, confirmed_at
		FROM swap_executions
		ORDER BY submitted_at DESC, id DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent swap executions: %w", err)
	}
	defer rows.Close()

	var out []*domain.SwapExecution
	for rows.Next() {
		var (
			e                     domain.SwapExecution
			inputMint, outputMint string
			status                string
		)
		if err := rows.Scan(&e.ID, &inputMint, &outputMint, &e.InputAmount, &e.Provider,
			&e.Signature, &status, &e.ExplorerURL, &e.SubmittedAt, &e.ConfirmedAt); err != nil {
			return nil, fmt.Errorf("scan swap execution: %w", err)
		}

		mint, err := domain.ParseMint(inputMint)
		if err != nil {
			return nil, fmt.Errorf("parse input mint: %w", err)
		}
		e.InputMint = mint

		mint, err = domain.ParseMint(outputMint)
		if err != nil {
			return nil, fmt.Errorf("parse output mint: %w", err)
		}
		e.OutputMint = mint

		e.Status = domain.SubmitStatus(status)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap executions: %w", err)
	}

	return out, nil
}
