package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore/memengine"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore/postgresengine"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore/postgresengine/migrations"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/changefeed"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/config"
)

const changeFeedBuffer = 64

// openedStore is the loan store plus what the daemon needs around it.
type openedStore struct {
	store   loanstore.Store
	memory  *memengine.Engine
	pool    *pgxpool.Pool
	closers []func()
}

func openStore(ctx context.Context, cfg *config.Config, obs *observability) (*openedStore, error) {
	if cfg.Store == config.StoreMemory {
		engine := memengine.NewEngine(memengine.WithLogger(obs.logger))
		return &openedStore{store: engine, memory: engine}, nil
	}

	opened := &openedStore{}

	pool, err := cfg.Postgres.NewPGXPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	opened.pool = pool
	opened.closers = append(opened.closers, pool.Close)

	if cfg.Postgres.Migrate {
		if err = migrations.Apply(ctx, pool); err != nil {
			opened.close()
			return nil, fmt.Errorf("applying migrations: %w", err)
		}
	}

	storeOptions := []postgresengine.Option{
		postgresengine.WithLogger(obs.logger),
		postgresengine.WithContextualLogger(obs.contextualLogger),
		postgresengine.WithMetrics(obs.metrics),
		postgresengine.WithTracing(obs.tracing),
	}

	store, err := opened.newPostgresStore(ctx, cfg, storeOptions)
	if err != nil {
		opened.close()
		return nil, err
	}
	opened.store = store

	return opened, nil
}

func (o *openedStore) newPostgresStore(ctx context.Context, cfg *config.Config, opts []postgresengine.Option) (*postgresengine.LoanStore, error) {
	switch cfg.Postgres.Adapter {
	case config.AdapterSQLDB:
		db, err := cfg.Postgres.OpenSQLDB(ctx)
		if err != nil {
			return nil, err
		}
		o.closers = append(o.closers, func() { _ = db.Close() })

		return postgresengine.NewLoanStoreFromSQLDB(db, opts...)

	case config.AdapterSQLX:
		db, err := cfg.Postgres.OpenSQLX(ctx)
		if err != nil {
			return nil, err
		}
		o.closers = append(o.closers, func() { _ = db.Close() })

		return postgresengine.NewLoanStoreFromSQLX(db, opts...)

	default:
		if cfg.Postgres.ReplicaDSN == "" {
			return postgresengine.NewLoanStoreFromPGXPool(o.pool, opts...)
		}

		replica, err := cfg.Postgres.NewPGXPool(ctx, cfg.Postgres.ReplicaDSN)
		if err != nil {
			return nil, err
		}
		o.closers = append(o.closers, replica.Close)

		return postgresengine.NewLoanStoreFromPGXPoolWithReplica(o.pool, replica, opts...)
	}
}

// listener follows the change feed matching the store.
func (o *openedStore) listener(cfg *config.Config, obs *observability) (changefeed.Listener, error) {
	if o.memory != nil {
		return changefeed.NewChannelListener(o.memory.Subscribe, changeFeedBuffer), nil
	}

	switch cfg.ChangeFeed.Listener {
	case config.ListenerPQ:
		return changefeed.NewPQListener(cfg.Postgres.DSN, changefeed.WithPQLogger(obs.logger)), nil
	case config.ListenerPGX:
		return changefeed.NewPGXListener(o.pool, changefeed.WithPGXLogger(obs.logger))
	default:
		return nil, fmt.Errorf("%w: unknown change feed listener %q", config.ErrInvalidConfig, cfg.ChangeFeed.Listener)
	}
}

func (o *openedStore) health(ctx context.Context) error {
	if o.pool == nil {
		return nil
	}

	return o.pool.Ping(ctx)
}

// close releases pools in reverse order of opening.
func (o *openedStore) close() {
	for i := len(o.closers) - 1; i >= 0; i-- {
		o.closers[i]()
	}
}
