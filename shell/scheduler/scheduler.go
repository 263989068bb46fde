// Package scheduler runs periodic jobs such as the overdue and notification sweeps.
//
// A job never overlaps with itself: ticks that arrive while a run is in progress are dropped, and
// manual triggers (the cron endpoints) join the run in progress instead of starting another one.
// A run does not belong to the caller that started it. Canceling a caller's context only stops
// that caller from waiting; the run goes on for every other caller that joined it.
package scheduler

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/clock"
)

const (
	logMsgJobFailed   = "scheduled job failed"
	logMsgJobFinished = "scheduled job finished"
	logAttrJob        = "job"
	logAttrError      = "error"
	logAttrDurationMS = "duration_ms"
)

var (
	// ErrInvalidInterval is returned for non-positive intervals.
	ErrInvalidInterval = errors.New("interval must be positive")

	// ErrNilJob is returned when a Ticker is created without a job.
	ErrNilJob = errors.New("job must not be nil")
)

// Job is one run of a periodic task at the given instant.
type Job[R any] func(ctx context.Context, now time.Time) (R, error)

// Ticker runs a Job every interval and on demand.
type Ticker[R any] struct {
	name       string
	interval   time.Duration
	job        Job[R]
	clock      clock.Clock
	runOnStart bool
	runTimeout time.Duration
	group      *singleflight.Group
	logger     loanstore.Logger
}

// Option configures a Ticker.
type Option func(*options)

type options struct {
	clock      clock.Clock
	runOnStart bool
	runTimeout time.Duration
	logger     loanstore.Logger
}

// WithClock sets the clock passed to the job.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithRunOnStart runs the job once as soon as Run starts.
func WithRunOnStart() Option {
	return func(o *options) {
		o.runOnStart = true
	}
}

// WithRunTimeout bounds a single run. Without it a run lasts as long as the job needs.
func WithRunTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.runTimeout = timeout
	}
}

// WithLogger sets the logger for job outcomes.
func WithLogger(logger loanstore.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewTicker creates a Ticker.
func NewTicker[R any](name string, interval time.Duration, job Job[R], opts ...Option) (*Ticker[R], error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	if job == nil {
		return nil, ErrNilJob
	}

	o := options{clock: clock.NewSystem()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Ticker[R]{
		name:       name,
		interval:   interval,
		job:        job,
		clock:      o.clock,
		runOnStart: o.runOnStart,
		runTimeout: o.runTimeout,
		group:      &singleflight.Group{},
		logger:     o.logger,
	}, nil
}

// Name returns the job name.
func (t *Ticker[R]) Name() string {
	return t.name
}

// Run triggers the job every interval until ctx is done. Job errors are logged, not returned.
func (t *Ticker[R]) Run(ctx context.Context) error {
	if t.runOnStart {
		_, _, _ = t.Trigger(ctx)
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, _, _ = t.Trigger(ctx)
		}
	}
}

// Trigger runs the job now, or joins the run already in progress.
// shared reports whether the result came from a run started by another caller.
// When ctx is done before the run finishes, Trigger returns ctx.Err() and the run continues.
func (t *Ticker[R]) Trigger(ctx context.Context) (R, bool, error) {
	runCtx := context.WithoutCancel(ctx)

	ch := t.group.DoChan(t.name, func() (any, error) {
		return t.run(runCtx)
	})

	var zero R

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		result, _ := res.Val.(R)
		return result, res.Shared, res.Err
	}
}

func (t *Ticker[R]) run(ctx context.Context) (R, error) {
	if t.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.runTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := t.job(ctx, t.clock.Now())
	t.log(err, time.Since(start))

	return result, err
}

func (t *Ticker[R]) log(err error, elapsed time.Duration) {
	if t.logger == nil {
		return
	}

	if err != nil {
		t.logger.Warn(logMsgJobFailed, logAttrJob, t.name, logAttrError, err.Error())
		return
	}

	t.logger.Info(logMsgJobFinished, logAttrJob, t.name, logAttrDurationMS, elapsed.Milliseconds())
}
