// Package testdb hands database tests a Postgres DSN. Tests are opt-in:
// DB_DSN_TEST=1 uses DB_DSN as is, CARDSCAN_TESTCONTAINERS=1 starts a
// throwaway container. Otherwise the test is skipped.
package testdb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const image = "postgres:16-alpine"

// DSN returns a DSN for a reachable database or skips t.
func DSN(t *testing.T) string {
	t.Helper()
	if os.Getenv("DB_DSN_TEST") == "1" {
		dsn := os.Getenv("DB_DSN")
		if dsn == "" {
			t.Fatal("DB_DSN_TEST=1 but DB_DSN is empty")
		}
		return dsn
	}
	if os.Getenv("CARDSCAN_TESTCONTAINERS") != "1" {
		t.Skip("database tests are disabled; set DB_DSN_TEST=1 with DB_DSN, or CARDSCAN_TESTCONTAINERS=1")
	}
	return startContainer(t)
}

func startContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	pg, err := postgres.Run(ctx, image,
		postgres.WithDatabase("cardscan_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})
	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}
