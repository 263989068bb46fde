// Package pgtest opens the PostgreSQL database used by integration tests.
//
// Tests are skipped when LOANENGINE_TEST_DSN is not set or the database cannot be reached.
package pgtest

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // driver registration for sql.DB and sqlx

	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore/postgresengine/migrations"
)

// EnvTestDSN names the environment variable holding the integration test DSN.
const EnvTestDSN = "LOANENGINE_TEST_DSN"

const testDBLockID int64 = 742199302

// DSN returns the integration test DSN or skips the test.
func DSN(t *testing.T) string {
	t.Helper()

	dsn := os.Getenv(EnvTestDSN)
	if dsn == "" {
		t.Skipf("skipping PostgreSQL integration test, %s is not set", EnvTestDSN)
	}

	return dsn
}

// NewTestPool connects, migrates and truncates the test database.
// The pool holds an advisory lock for the duration of the test so packages do not interfere.
func NewTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(DSN(t))
	if err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}
	cfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("skipping PostgreSQL integration test: %v", err)
	}

	t.Cleanup(pool.Close)

	lockTestDB(t, pool)

	if err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	TruncateAll(t, pool)

	return pool
}

// NewTestSQLDB opens a lib/pq sql.DB on the test database. Call NewTestPool first to migrate and lock.
func NewTestSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("postgres", DSN(t))
	if err != nil {
		t.Fatalf("failed to open sql.DB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// NewTestSQLX opens a sqlx.DB on the test database. Call NewTestPool first to migrate and lock.
func NewTestSQLX(t *testing.T) *sqlx.DB {
	t.Helper()

	return sqlx.NewDb(NewTestSQLDB(t), "postgres")
}

// TruncateAll removes every loan, asset and borrower.
func TruncateAll(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), `TRUNCATE loans, assets, borrowers CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func lockTestDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	conn, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire lock conn: %v", err)
	}

	if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_lock($1)`, testDBLockID); err != nil {
		conn.Release()
		t.Fatalf("acquire test db lock: %v", err)
	}

	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, testDBLockID)
		conn.Release()
	})
}
