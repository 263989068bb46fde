package latenotice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
)

const (
	defaultConcurrency         = 4
	logMsgNotificationSweepRan = "notification sweep finished"
	logAttrScanned             = "scanned"
	logAttrSent                = "sent"
	logAttrFailed              = "failed"
	logAttrAt                  = "at"
)

// SweepReport summarizes one notification sweep.
type SweepReport struct {
	Scanned int `json:"scanned"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

// RunNotificationSweep re-scans Overdue loans that were never notified and dispatches their notices
// with bounded concurrency. now only stamps the log line; claims use the dispatcher's clock.
// Individual failures are counted and joined into the returned error, they never stop the sweep.
func (d *Dispatcher) RunNotificationSweep(ctx context.Context, now time.Time) (SweepReport, error) {
	loans, err := d.store.OverdueUnnotifiedLoans(loanstore.WithStrongConsistency(ctx))
	if err != nil {
		return SweepReport{}, err
	}

	var (
		sent, failed atomic.Int64
		mu           sync.Mutex
		errs         []error
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for _, loan := range loans {
		g.Go(func() error {
			delivered, dispatchErr := d.Dispatch(gCtx, loan.ID)
			switch {
			case dispatchErr != nil:
				failed.Add(1)
				mu.Lock()
				errs = append(errs, dispatchErr)
				mu.Unlock()
			case delivered:
				sent.Add(1)
			}

			// failures are collected, returning them would cancel the other sends
			return nil
		})
	}

	_ = g.Wait()

	report := SweepReport{Scanned: len(loans), Sent: int(sent.Load()), Failed: int(failed.Load())}

	d.logInfo(ctx, logMsgNotificationSweepRan,
		logAttrScanned, report.Scanned,
		logAttrSent, report.Sent,
		logAttrFailed, report.Failed,
		logAttrAt, now.UTC().Format(time.RFC3339),
	)

	return report, errors.Join(errs...)
}
