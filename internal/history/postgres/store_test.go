package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/storage/migrations"
	"solana-swap-agent/internal/storage/postgres"
)

func setupTestPool(t *testing.T) (*postgres.Pool, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := pgcontainer.Run(ctx, "postgres:15-alpine",
		pgcontainer.WithDatabase("testdb"),
		pgcontainer.WithUsername("test"),
		pgcontainer.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, dsn)
	require.NoError(t, err)

	require.NoError(t, migrations.RunPostgresMigrations(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}
	return pool, cleanup
}

func TestStore_InsertAndGetRecent(t *testing.T) {
	pool, cleanup := setupTestPool(t)
	defer cleanup()

	ctx := context.Background()
	store := New(pool)

	var mintA, mintB domain.Mint
	mintA[0] = 1
	mintB[0] = 2

	exec := &domain.SwapExecution{
		InputMint:   mintA,
		OutputMint:  mintB,
		InputAmount: 1_000_000,
		Provider:    "Titan",
		Signature:   "sig1",
		Status:      domain.SubmitStatusConfirmed,
		ExplorerURL: "https://solscan.io/tx/sig1",
		SubmittedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	require.NoError(t, store.Insert(ctx, exec))
	require.NotZero(t, exec.ID)

	recent, err := store.GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "sig1", recent[0].Signature)
	require.Equal(t, domain.SubmitStatusConfirmed, recent[0].Status)
}
