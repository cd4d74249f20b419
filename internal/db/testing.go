package db

import (
	"context"
	"os"
	"resetflow/internal/db/migrations"
	"testing"

	"github.com/jackc/pgx/v4/pgxpool"
)

// CreateTestPool skips the test unless TEST_POSTGRESQL_URL points to a
// database it may freely migrate and truncate.
func CreateTestPool(t testing.TB) *pgxpool.Pool {
	connString := os.Getenv("TEST_POSTGRESQL_URL")
	if connString == "" {
		t.Skip("TEST_POSTGRESQL_URL is not set")
	}
	if err := migrations.Apply(connString); err != nil {
		t.Fatalf("Could not apply migrations: %v", err)
	}

	pool, err := pgxpool.Connect(context.Background(), connString)
	if err != nil {
		t.Fatalf("Could not connect to the database: %v", err)
	}
	return pool
}

func TruncateTables(pool *pgxpool.Pool) {
	_, err := pool.Exec(context.Background(), "TRUNCATE \"user\" RESTART IDENTITY")
	if err != nil {
		panic("Could not truncate DB tables.")
	}
}
