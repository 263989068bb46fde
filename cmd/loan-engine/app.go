package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/approveloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/cancelloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/rejectloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/requestloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/returnloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/notify/latenotice"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/query/borrowerloans"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/query/loandetail"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/sweep/markoverdue"
	"github.com/AntonStoeckl/bike-loan-engine-go/returntoken"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/attachments"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/changefeed"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/config"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/httpapi"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/identity"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/mail"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/scheduler"
)

const (
	overdueSweepName      = "overdue-sweep"
	notificationSweepName = "notification-sweep"
)

// app is the wired daemon.
type app struct {
	cfg     *config.Config
	obs     *observability
	server  *http.Server
	overdue *scheduler.Ticker[markoverdue.SweepReport]
	notices *scheduler.Ticker[latenotice.SweepReport]
	pump    *changefeed.Pump
}

func newApp(cfg *config.Config, store *openedStore, obs *observability) (*app, error) {
	schedule, err := cfg.FacilitySchedule()
	if err != nil {
		return nil, err
	}

	sender, err := newMailSender(cfg, obs)
	if err != nil {
		return nil, err
	}

	dispatcher, err := latenotice.NewDispatcher(store.store, sender,
		latenotice.WithSchedule(schedule),
		latenotice.WithClaimLease(cfg.Notice.ClaimLease),
		latenotice.WithSendTimeout(cfg.Notice.SendTimeout),
		latenotice.WithConcurrency(cfg.Sweep.Concurrency),
		latenotice.WithFacility(cfg.Notice.Facility, cfg.Notice.ContactEmail),
		latenotice.WithLogger(obs.logger),
		latenotice.WithContextualLogger(obs.contextualLogger),
		latenotice.WithMetrics(obs.metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("creating late notice dispatcher: %w", err)
	}

	remover, err := attachments.NewDiskStore(cfg.Attachments.Root)
	if err != nil {
		return nil, err
	}

	codecOptions := []returntoken.Option{}
	if cfg.ReturnToken.Key != "" {
		codecOptions = append(codecOptions, returntoken.WithKey(cfg.ReturnToken.Key))
	}

	codec, err := returntoken.NewCodec(codecOptions...)
	if err != nil {
		return nil, err
	}

	verifierOptions := []identity.VerifierOption{}
	if cfg.Auth.Issuer != "" {
		verifierOptions = append(verifierOptions, identity.WithIssuer(cfg.Auth.Issuer))
	}

	verifier, err := identity.NewTokenVerifier([]byte(cfg.Auth.JWTSecret), verifierOptions...)
	if err != nil {
		return nil, err
	}

	handlers, err := newHandlers(store, obs, schedule, dispatcher, remover, codec)
	if err != nil {
		return nil, err
	}

	sweeper := markoverdue.NewSweeper(store.store, handlers.markOverdue, obs.logger)

	overdue, err := scheduler.NewTicker(overdueSweepName, cfg.Sweep.OverdueInterval, sweeper.RunOverdueSweep,
		scheduler.WithRunOnStart(),
		scheduler.WithRunTimeout(cfg.Sweep.OverdueInterval),
		scheduler.WithLogger(obs.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", overdueSweepName, err)
	}

	notices, err := scheduler.NewTicker(notificationSweepName, cfg.Sweep.NotificationInterval, dispatcher.RunNotificationSweep,
		scheduler.WithRunTimeout(cfg.Sweep.NotificationInterval),
		scheduler.WithLogger(obs.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", notificationSweepName, err)
	}

	api := httpapi.NewServer(httpapi.Handlers{
		RequestLoan:       handlers.requestLoan,
		ApproveLoan:       handlers.approveLoan,
		RejectLoan:        handlers.rejectLoan,
		CancelLoan:        handlers.cancelLoan,
		ReturnLoan:        handlers.returnLoan,
		LoanDetail:        handlers.loanDetail,
		BorrowerLoans:     handlers.borrowerLoans,
		OverdueSweep:      overdue,
		NotificationSweep: notices,
		Tokens:            codec,
		Assets:            store.store,
		Health:            store.health,
	}, verifier, cfg.Auth.CronSecret, httpapi.WithLogger(obs.logger))

	a := &app{
		cfg: cfg,
		obs: obs,
		server: &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           api,
			ReadTimeout:       cfg.HTTP.ReadTimeout,
			ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
			WriteTimeout:      cfg.HTTP.WriteTimeout,
		},
		overdue: overdue,
		notices: notices,
	}

	if cfg.ChangeFeed.Enabled || store.memory != nil {
		listener, listenerErr := store.listener(cfg, obs)
		if listenerErr != nil {
			return nil, listenerErr
		}

		pump := changefeed.NewPump(listener, dispatcher,
			changefeed.WithResync(func(ctx context.Context) error {
				_, _, triggerErr := notices.Trigger(ctx)
				return triggerErr
			}),
			changefeed.WithLogger(obs.logger),
		)
		a.pump = &pump
	}

	return a, nil
}

func newMailSender(cfg *config.Config, obs *observability) (mail.Sender, error) {
	if cfg.Mail.Provider != config.MailResend {
		return mail.NewLogSender(obs.logger), nil
	}

	options := []mail.ResendOption{mail.WithResendLogger(obs.logger)}
	if cfg.Mail.BaseURL != "" {
		options = append(options, mail.WithBaseURL(cfg.Mail.BaseURL))
	}

	return mail.NewResendSender(cfg.Mail.APIKey, cfg.Mail.From, options...)
}

// run serves until ctx is canceled or one component fails, then shuts the HTTP server down gracefully.
func (a *app) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.overdue.Run(gctx) })
	g.Go(func() error { return a.notices.Run(gctx) })

	if a.pump != nil {
		g.Go(func() error { return a.pump.Run(gctx) })
	}

	g.Go(func() error {
		a.obs.logger.Info("http server listening", "addr", a.server.Addr)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()

		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// handlerSet holds the instrumented use cases.
type handlerSet struct {
	requestLoan   shell.CoreCommandHandler[requestloan.Command]
	approveLoan   shell.CoreCommandHandler[approveloan.Command]
	rejectLoan    shell.CoreCommandHandler[rejectloan.Command]
	cancelLoan    shell.CoreCommandHandler[cancelloan.Command]
	returnLoan    shell.CoreCommandHandler[returnloan.Command]
	markOverdue   shell.CoreCommandHandler[markoverdue.Command]
	loanDetail    shell.CoreQueryHandler[loandetail.Query, loandetail.LoanDetail]
	borrowerLoans shell.CoreQueryHandler[borrowerloans.Query, borrowerloans.BorrowerLoans]
}
