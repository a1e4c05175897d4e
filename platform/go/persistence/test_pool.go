package persistence

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// mustTestPool returns a pool against a disposable PostgreSQL started via
// testcontainers. Set TEST_DATABASE_URL to target an existing server
// instead (e.g. in CI with a service container).
func mustTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()
	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("salesgrid"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("postgres"),
			tcpostgres.BasicWaitStrategies(),
		)
		testcontainers.CleanupContainer(t, ctr)
		if err != nil {
			t.Fatalf("start postgres container: %v", err)
		}

		connStr, err = ctr.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("container connection string: %v", err)
		}
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create test pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}
