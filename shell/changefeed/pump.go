package changefeed

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
)

const (
	defaultBuffer = 64

	logMsgDispatchFailed = "change feed dispatch failed"
	logMsgResyncFailed   = "change feed resync failed"
	logAttrLoanID        = "loan_id"
)

// Dispatcher sends the late notice of one loan.
type Dispatcher interface {
	Dispatch(ctx context.Context, loanID uuid.UUID) (bool, error)
}

// ResyncFunc catches up on changes a listener may have missed, usually a full notification sweep.
type ResyncFunc func(ctx context.Context) error

// Pump feeds the changes of a Listener into a Dispatcher.
type Pump struct {
	listener   Listener
	dispatcher Dispatcher
	resync     ResyncFunc
	buffer     int
	logger     loanstore.Logger
}

// PumpOption configures a Pump.
type PumpOption func(*Pump)

// WithResync sets the catch-up run for Resync changes.
func WithResync(resync ResyncFunc) PumpOption {
	return func(p *Pump) {
		p.resync = resync
	}
}

// WithLogger sets the logger for failed dispatches.
func WithLogger(logger loanstore.Logger) PumpOption {
	return func(p *Pump) {
		p.logger = logger
	}
}

// NewPump creates a Pump.
func NewPump(listener Listener, dispatcher Dispatcher, opts ...PumpOption) Pump {
	p := Pump{listener: listener, dispatcher: dispatcher, buffer: defaultBuffer}
	for _, opt := range opts {
		opt(&p)
	}

	return p
}

// Run listens and dispatches until ctx is done. Failed dispatches are logged and left to the
// periodic notification sweep. Run returns nil on shutdown.
func (p Pump) Run(ctx context.Context) error {
	changes := make(chan loanstore.StatusChange, p.buffer)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(changes)
		return p.listener.Listen(gCtx, changes)
	})

	g.Go(func() error {
		for change := range changes {
			p.handle(gCtx, change)
		}

		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func (p Pump) handle(ctx context.Context, change loanstore.StatusChange) {
	if ctx.Err() != nil {
		return
	}

	if change.Resync {
		if p.resync == nil {
			return
		}

		if err := p.resync(ctx); err != nil {
			p.warn(logMsgResyncFailed, logAttrError, err.Error())
		}

		return
	}

	if change.Status != core.StatusOverdue {
		return
	}

	if _, err := p.dispatcher.Dispatch(ctx, change.LoanID); err != nil {
		p.warn(logMsgDispatchFailed, logAttrLoanID, change.LoanID.String(), logAttrError, err.Error())
	}
}

func (p Pump) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
