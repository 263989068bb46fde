// Command loan-engine runs the bike loan lifecycle daemon: the HTTP API, the periodic overdue and
// notification sweeps and the change feed follower, all under one errgroup.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/AntonStoeckl/bike-loan-engine-go/shell/config"
)

const serviceVersion = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "loan-engine: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load("loan-engine", args, os.LookupEnv)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := newObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer obs.shutdown()

	store, err := openStore(ctx, cfg, obs)
	if err != nil {
		return err
	}
	defer store.close()

	if err = seedStore(ctx, cfg.Seed.File, store.store, obs.logger); err != nil {
		return err
	}

	app, err := newApp(cfg, store, obs)
	if err != nil {
		return err
	}

	obs.logger.Info("loan engine starting",
		"store", cfg.Store,
		"adapter", cfg.Postgres.Adapter,
		"http_addr", cfg.HTTP.Addr,
		"change_feed", cfg.ChangeFeed.Enabled,
		"mail_provider", cfg.Mail.Provider,
	)

	err = app.run(ctx)

	obs.logger.Info("loan engine stopped")

	return err
}
