package clickhouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/storage/clickhouse"
	"solana-swap-agent/internal/storage/migrations"
)

func setupTestConn(t *testing.T) (*clickhouse.Conn, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").WithStartupTimeout(60*time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "swaptest",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/swaptest", host, port.Port())

	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}
	return conn, cleanup
}

func TestStore_InsertBulk(t *testing.T) {
	conn, cleanup := setupTestConn(t)
	defer cleanup()

	store := New(conn)
	var mintA, mintB domain.Mint
	mintA[0], mintB[0] = 1, 2

	err := store.InsertBulk(context.Background(), []domain.QuoteLogEntry{
		{ObservedAt: time.Now(), InputMint: mintA, OutputMint: mintB, Provider: "Titan", InAmount: 1, OutAmount: 2, PriceImpactBps: 5},
	})
	require.NoError(t, err)
}
