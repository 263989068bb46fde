package latenotice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/clock"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/mail"
)

const (
	// DefaultClaimLease is how long a dispatcher owns a loan's notice before others may take over.
	DefaultClaimLease = 5 * time.Minute

	// DefaultSendTimeout bounds a single mail delivery. It must stay below the claim lease.
	DefaultSendTimeout = 30 * time.Second

	// LateNoticeSentMetric counts delivered late notices.
	LateNoticeSentMetric = "late_notice_sent_total"

	// LateNoticeFailedMetric counts late notices the provider did not accept.
	LateNoticeFailedMetric = "late_notice_failed_total"

	// LateNoticeSendDurationMetric records the mail delivery duration.
	LateNoticeSendDurationMetric = "late_notice_send_duration_seconds"

	logMsgNoticeSent     = "late notice sent"
	logMsgNoticeFailed   = "late notice delivery failed, claim released"
	logMsgReleaseFailed  = "releasing late notice claim failed"
	logMsgClaimLost      = "late notice claimed elsewhere"
	logAttrRecipient     = "recipient"
	logAttrDaysLate      = "days_late"
	labelOutcome         = "outcome"
	outcomeSent          = "sent"
	outcomeFailed        = "failed"
	outcomeLookupFailure = "lookup_failed"
)

var (
	// ErrInvalidLease is returned when the claim lease is not positive.
	ErrInvalidLease = errors.New("claim lease must be positive")

	// ErrSendTimeoutExceedsLease is returned when a send could outlive the claim protecting it.
	ErrSendTimeoutExceedsLease = errors.New("send timeout must be shorter than the claim lease")
)

// LoanStore defines the store operations needed by the Dispatcher.
type LoanStore interface {
	LoanByID(ctx context.Context, loanID uuid.UUID) (core.Loan, error)
	OverdueUnnotifiedLoans(ctx context.Context) ([]core.Loan, error)
	AssetBySerial(ctx context.Context, serial core.AssetSerialString) (core.Asset, error)
	BorrowerContact(ctx context.Context, borrowerID core.BorrowerIDString) (core.Borrower, error)
	loanstore.LateNoticeLedger
}

// Dispatcher sends late notices: Re-read -> Claim -> Compose -> Send -> Complete.
type Dispatcher struct {
	store            LoanStore
	sender           mail.Sender
	clock            clock.Clock
	schedule         core.Schedule
	lease            time.Duration
	sendTimeout      time.Duration
	concurrency      int
	facility         string
	contactEmail     string
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
	metricsCollector shell.MetricsCollector
}

// Option configures a Dispatcher.
type Option func(*Dispatcher) error

// WithClock sets the clock used for claims and the days-late count.
func WithClock(c clock.Clock) Option {
	return func(d *Dispatcher) error {
		d.clock = c
		return nil
	}
}

// WithSchedule sets the facility schedule used to count days late.
func WithSchedule(schedule core.Schedule) Option {
	return func(d *Dispatcher) error {
		d.schedule = schedule
		return nil
	}
}

// WithClaimLease sets how long a claim protects a send in progress.
func WithClaimLease(lease time.Duration) Option {
	return func(d *Dispatcher) error {
		if lease <= 0 {
			return ErrInvalidLease
		}
		d.lease = lease

		return nil
	}
}

// WithSendTimeout bounds a single delivery.
func WithSendTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) error {
		d.sendTimeout = timeout
		return nil
	}
}

// WithConcurrency sets how many notices a sweep sends in parallel.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) error {
		if n > 0 {
			d.concurrency = n
		}

		return nil
	}
}

// WithFacility sets the facility name and the contact address printed in the notice.
func WithFacility(name, contactEmail string) Option {
	return func(d *Dispatcher) error {
		if name != "" {
			d.facility = name
		}
		d.contactEmail = contactEmail

		return nil
	}
}

// WithLogger sets the logger for delivery outcomes.
func WithLogger(logger shell.Logger) Option {
	return func(d *Dispatcher) error {
		d.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger. It takes precedence over WithLogger.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(d *Dispatcher) error {
		d.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for delivery outcomes.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(d *Dispatcher) error {
		d.metricsCollector = collector
		return nil
	}
}

// NewDispatcher creates a Dispatcher with optional configuration.
func NewDispatcher(store LoanStore, sender mail.Sender, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		store:       store,
		sender:      sender,
		clock:       clock.NewSystem(),
		schedule:    core.DefaultSchedule(),
		lease:       DefaultClaimLease,
		sendTimeout: DefaultSendTimeout,
		concurrency: defaultConcurrency,
		facility:    defaultFacility,
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	if d.sendTimeout <= 0 || d.sendTimeout >= d.lease {
		return nil, ErrSendTimeoutExceedsLease
	}

	return d, nil
}

// Dispatch sends the late notice of one loan if it is still owed.
// It reports whether this call delivered the notice. Loans that are not Overdue, already notified
// or claimed by another dispatcher are a no-op. A failed delivery returns
// core.ErrNotificationDeliveryFailed and leaves the loan unnotified.
func (d *Dispatcher) Dispatch(ctx context.Context, loanID uuid.UUID) (bool, error) {
	ctx = loanstore.WithStrongConsistency(ctx)

	loan, err := d.store.LoanByID(ctx, loanID)
	if err != nil {
		return false, err
	}

	if !loan.NeedsLateNotice() {
		return false, nil
	}

	now := d.clock.Now()

	if claimErr := d.store.ClaimLateNotice(ctx, loanID, now, now.Add(d.lease)); claimErr != nil {
		if errors.Is(claimErr, loanstore.ErrPreconditionFailed) {
			d.logDebug(ctx, logMsgClaimLost, shell.LogAttrLoanID, loanID.String())
			return false, nil
		}

		return false, claimErr
	}

	msg, err := d.compose(ctx, loan, now)
	if err != nil {
		d.release(ctx, loanID)
		d.incrementCounter(LateNoticeFailedMetric, outcomeLookupFailure)

		return false, err
	}

	if sendErr := d.send(ctx, msg); sendErr != nil {
		d.release(ctx, loanID)
		d.incrementCounter(LateNoticeFailedMetric, outcomeFailed)
		d.logWarn(ctx, logMsgNoticeFailed, shell.LogAttrLoanID, loanID.String(), shell.LogAttrError, sendErr.Error())

		return false, errors.Join(core.ErrNotificationDeliveryFailed, sendErr)
	}

	if completeErr := d.store.CompleteLateNotice(ctx, loanID, d.clock.Now()); completeErr != nil {
		// the mail is out; the claim keeps others away until it expires
		return true, completeErr
	}

	d.incrementCounter(LateNoticeSentMetric, outcomeSent)
	d.logInfo(ctx, logMsgNoticeSent,
		shell.LogAttrLoanID, loanID.String(),
		logAttrRecipient, msg.To,
		logAttrDaysLate, d.schedule.DaysLate(loan.DueDate, now),
	)

	return true, nil
}

func (d *Dispatcher) compose(ctx context.Context, loan core.Loan, now time.Time) (mail.Message, error) {
	asset, err := d.store.AssetBySerial(ctx, loan.AssetSerial)
	if err != nil {
		return mail.Message{}, err
	}

	borrower, err := d.store.BorrowerContact(ctx, loan.BorrowerID)
	if err != nil {
		return mail.Message{}, err
	}

	notice := BuildNotice(loan, asset, borrower, d.schedule, now)
	notice.Facility = d.facility
	notice.ContactEmail = d.contactEmail

	return notice.Compose()
}

func (d *Dispatcher) send(ctx context.Context, msg mail.Message) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	start := time.Now()
	err := d.sender.Send(sendCtx, msg)

	if d.metricsCollector != nil {
		status := outcomeSent
		if err != nil {
			status = outcomeFailed
		}
		d.metricsCollector.RecordDuration(LateNoticeSendDurationMetric, time.Since(start), map[string]string{labelOutcome: status})
	}

	return err
}

// release clears the claim even when ctx is already canceled, so the next sweep can retry at once.
func (d *Dispatcher) release(ctx context.Context, loanID uuid.UUID) {
	if err := d.store.ReleaseLateNotice(context.WithoutCancel(ctx), loanID); err != nil {
		d.logWarn(ctx, logMsgReleaseFailed, shell.LogAttrLoanID, loanID.String(), shell.LogAttrError, err.Error())
	}
}

func (d *Dispatcher) incrementCounter(metric, outcome string) {
	if d.metricsCollector == nil {
		return
	}

	d.metricsCollector.IncrementCounter(metric, map[string]string{labelOutcome: outcome})
}

func (d *Dispatcher) logDebug(ctx context.Context, msg string, args ...any) {
	switch {
	case d.contextualLogger != nil:
		d.contextualLogger.DebugContext(ctx, msg, args...)
	case d.logger != nil:
		d.logger.Debug(msg, args...)
	}
}

func (d *Dispatcher) logInfo(ctx context.Context, msg string, args ...any) {
	switch {
	case d.contextualLogger != nil:
		d.contextualLogger.InfoContext(ctx, msg, args...)
	case d.logger != nil:
		d.logger.Info(msg, args...)
	}
}

func (d *Dispatcher) logWarn(ctx context.Context, msg string, args ...any) {
	switch {
	case d.contextualLogger != nil:
		d.contextualLogger.WarnContext(ctx, msg, args...)
	case d.logger != nil:
		d.logger.Warn(msg, args...)
	}
}
