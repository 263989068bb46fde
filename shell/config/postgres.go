package config

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

const driverName = "postgres"

// ErrConnectingFailed is returned when a pool cannot reach the database.
var ErrConnectingFailed = errors.New("connecting to postgres failed")

// PGXPoolConfig creates a pgxpool.Config for dsn with the configured limits.
func (p PostgresConfig) PGXPoolConfig(dsn string) (*pgxpool.Config, error) {
	dbConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	dbConfig.MaxConns = clampInt32(p.MaxConns)
	dbConfig.MinConns = clampInt32(p.MinConns)
	dbConfig.MaxConnLifetime = p.MaxConnLifetime
	dbConfig.MaxConnIdleTime = p.MaxConnIdleTime
	dbConfig.ConnConfig.ConnectTimeout = p.ConnectTimeout

	return dbConfig, nil
}

// NewPGXPool creates and pings a pgx pool for dsn.
func (p PostgresConfig) NewPGXPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	dbConfig, err := p.PGXPoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, errors.Join(ErrConnectingFailed, err)
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return nil, errors.Join(ErrConnectingFailed, pingErr)
	}

	return pool, nil
}

// OpenSQLDB opens and pings a lib/pq backed *sql.DB.
func (p PostgresConfig) OpenSQLDB(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(driverName, p.DSN)
	if err != nil {
		return nil, errors.Join(ErrConnectingFailed, err)
	}

	p.configurePool(db)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, errors.Join(ErrConnectingFailed, pingErr)
	}

	return db, nil
}

// OpenSQLX opens and pings a lib/pq backed *sqlx.DB.
func (p PostgresConfig) OpenSQLX(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, p.DSN)
	if err != nil {
		return nil, errors.Join(ErrConnectingFailed, err)
	}

	p.configurePool(db)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, errors.Join(ErrConnectingFailed, pingErr)
	}

	return db, nil
}

type poolSettings interface {
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
	SetConnMaxLifetime(d time.Duration)
	SetConnMaxIdleTime(d time.Duration)
}

func (p PostgresConfig) configurePool(db poolSettings) {
	db.SetMaxOpenConns(p.MaxConns)
	db.SetMaxIdleConns(p.MinConns)
	db.SetConnMaxLifetime(p.MaxConnLifetime)
	db.SetConnMaxIdleTime(p.MaxConnIdleTime)
}

func clampInt32(n int) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}

	return int32(n) //nolint:gosec
}
