package latenotice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/notify/latenotice"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/clock"
	. "github.com/AntonStoeckl/bike-loan-engine-go/testutil/fixtures" //nolint:revive
	. "github.com/AntonStoeckl/bike-loan-engine-go/testutil/spies"    //nolint:revive
)

// thursday 10:00 WIB, two days after a loan from monday fell due on tuesday
var dispatchNow = time.Date(2024, 6, 6, 10, 0, 0, 0, core.FacilityLocation())

var errProviderDown = errors.New("provider down")

func newDispatcher(t *testing.T, store latenotice.LoanStore, sender *MailSenderSpy, opts ...latenotice.Option) *latenotice.Dispatcher {
	t.Helper()

	opts = append([]latenotice.Option{latenotice.WithClock(clock.NewFixed(dispatchNow))}, opts...)
	dispatcher, err := latenotice.NewDispatcher(store, sender, opts...)
	require.NoError(t, err)

	return dispatcher
}

func givenOverdueLoan(t *testing.T, store loanstore.Store, borrowerID, serial string) core.Loan {
	t.Helper()

	GivenAsset(t, store, serial, "Mountain", core.AssetAvailable)
	GivenBorrower(t, store, borrowerID)

	return GivenLoan(t, store, borrowerID, serial, FakeNow, core.StatusOverdue)
}

func Test_Dispatcher_Dispatch_SendsOnce(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := NewStore(t)
	loan := givenOverdueLoan(t, store, "b-1", "BK-001")
	sender := NewMailSenderSpy()
	metrics := NewMetricsCollectorSpy(true)
	dispatcher := newDispatcher(t, store, sender, latenotice.WithMetrics(metrics))

	// act
	first, firstErr := dispatcher.Dispatch(ctx, loan.ID)
	second, secondErr := dispatcher.Dispatch(ctx, loan.ID)

	// assert
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	assert.True(t, first)
	assert.False(t, second, "a notified loan is a no-op")
	require.Equal(t, 1, sender.SentCount())

	msg := sender.SentMessages()[0]
	assert.Equal(t, "b-1@apps.example.org", msg.To)
	assert.Equal(t, latenotice.Subject, msg.Subject)
	assert.Contains(t, msg.HTML, "BK-001")
	assert.Contains(t, msg.HTML, "3 June 2024")
	assert.Contains(t, msg.HTML, "4 June 2024")
	assert.Contains(t, msg.HTML, "2 hari")
	assert.Contains(t, msg.Text, "Keterlambatan: 2 hari")

	notified := RequireLoanStatus(t, store, loan.ID, core.StatusOverdue)
	assert.True(t, notified.NotificationSent)
	assert.True(t, metrics.HasCounterRecordForMetric(latenotice.LateNoticeSentMetric).Assert())
	assert.True(t, metrics.HasDurationRecordForMetric(latenotice.LateNoticeSendDurationMetric).Assert())
}

func Test_Dispatcher_Dispatch_IgnoresLoansThatAreNotOverdue(t *testing.T) {
	// arrange
	store := NewStore(t)
	GivenAsset(t, store, "BK-001", "Mountain", core.AssetAvailable)
	GivenBorrower(t, store, "b-1")
	loan := GivenLoan(t, store, "b-1", "BK-001", FakeNow, core.StatusActive)
	sender := NewMailSenderSpy()
	dispatcher := newDispatcher(t, store, sender)

	// act
	delivered, err := dispatcher.Dispatch(context.Background(), loan.ID)

	// assert
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Equal(t, 0, sender.Attempts())
}

func Test_Dispatcher_Dispatch_DeliveryFailureReleasesTheClaim(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := NewStore(t)
	loan := givenOverdueLoan(t, store, "b-1", "BK-001")
	sender := NewMailSenderSpy()
	sender.FailNext(1, errProviderDown)
	logger := NewContextualLoggerSpy(true)
	dispatcher := newDispatcher(t, store, sender, latenotice.WithContextualLogger(logger))

	// act
	delivered, err := dispatcher.Dispatch(ctx, loan.ID)

	// assert
	assert.False(t, delivered)
	assert.ErrorIs(t, err, core.ErrNotificationDeliveryFailed)
	assert.ErrorIs(t, err, errProviderDown)
	unnotified := RequireLoanStatus(t, store, loan.ID, core.StatusOverdue)
	assert.False(t, unnotified.NotificationSent)
	assert.True(t, logger.HasWarnLog("late notice delivery failed, claim released"))

	// a retry right away is not blocked by a stale claim
	retried, retryErr := dispatcher.Dispatch(ctx, loan.ID)
	require.NoError(t, retryErr)
	assert.True(t, retried)
	assert.Equal(t, 1, sender.SentCount())
}

func Test_Dispatcher_Dispatch_ClaimedElsewhere(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := NewStore(t)
	loan := givenOverdueLoan(t, store, "b-1", "BK-001")
	require.NoError(t, store.ClaimLateNotice(ctx, loan.ID, dispatchNow, dispatchNow.Add(time.Minute)))
	sender := NewMailSenderSpy()
	dispatcher := newDispatcher(t, store, sender)

	// act
	delivered, err := dispatcher.Dispatch(ctx, loan.ID)

	// assert
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Equal(t, 0, sender.Attempts())
}

func Test_Dispatcher_Dispatch_ExpiredClaimIsTakenOver(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := NewStore(t)
	loan := givenOverdueLoan(t, store, "b-1", "BK-001")
	crashedAt := dispatchNow.Add(-time.Hour)
	require.NoError(t, store.ClaimLateNotice(ctx, loan.ID, crashedAt, crashedAt.Add(latenotice.DefaultClaimLease)))
	sender := NewMailSenderSpy()
	dispatcher := newDispatcher(t, store, sender)

	// act
	delivered, err := dispatcher.Dispatch(ctx, loan.ID)

	// assert
	require.NoError(t, err)
	assert.True(t, delivered)
}

func Test_Dispatcher_Dispatch_UnknownBorrowerReleasesTheClaim(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := NewStore(t)
	GivenAsset(t, store, "BK-001", "Mountain", core.AssetAvailable)
	loan := GivenLoan(t, store, "b-1", "BK-001", FakeNow, core.StatusOverdue)
	sender := NewMailSenderSpy()
	dispatcher := newDispatcher(t, store, sender)

	// act
	_, err := dispatcher.Dispatch(ctx, loan.ID)

	// assert
	assert.ErrorIs(t, err, core.ErrBorrowerNotFound)
	assert.Equal(t, 0, sender.Attempts())

	GivenBorrower(t, store, "b-1")
	delivered, retryErr := dispatcher.Dispatch(ctx, loan.ID)
	require.NoError(t, retryErr)
	assert.True(t, delivered)
}

func Test_Dispatcher_Dispatch_ConcurrentTriggersSendExactlyOnce(t *testing.T) {
	// arrange
	store := NewStore(t)
	loan := givenOverdueLoan(t, store, "b-1", "BK-001")
	sender := NewMailSenderSpy()
	dispatcher := newDispatcher(t, store, sender)

	const triggers = 10
	results := make([]bool, triggers)
	errs := make([]error, triggers)

	// act
	var wg sync.WaitGroup
	for i := range triggers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = dispatcher.Dispatch(context.Background(), loan.ID)
		}()
	}
	wg.Wait()

	// assert
	delivered := 0
	for i := range triggers {
		require.NoError(t, errs[i])
		if results[i] {
			delivered++
		}
	}
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, sender.SentCount())
}

func Test_NewDispatcher_SendTimeoutMustStayBelowLease(t *testing.T) {
	_, err := latenotice.NewDispatcher(NewStore(t), NewMailSenderSpy(),
		latenotice.WithClaimLease(time.Minute),
		latenotice.WithSendTimeout(time.Minute),
	)
	assert.ErrorIs(t, err, latenotice.ErrSendTimeoutExceedsLease)

	_, err = latenotice.NewDispatcher(NewStore(t), NewMailSenderSpy(), latenotice.WithClaimLease(0))
	assert.ErrorIs(t, err, latenotice.ErrInvalidLease)
}

func Test_Dispatcher_RunNotificationSweep(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := NewStore(t)
	givenOverdueLoan(t, store, "b-1", "BK-001")
	givenOverdueLoan(t, store, "b-2", "BK-002")
	givenOverdueLoan(t, store, "b-3", "BK-003")
	sender := NewMailSenderSpy()
	sender.FailNext(1, errProviderDown)
	dispatcher := newDispatcher(t, store, sender, latenotice.WithConcurrency(2))

	// act
	report, err := dispatcher.RunNotificationSweep(ctx, dispatchNow)

	// assert
	assert.ErrorIs(t, err, core.ErrNotificationDeliveryFailed)
	assert.Equal(t, latenotice.SweepReport{Scanned: 3, Sent: 2, Failed: 1}, report)

	// the failed loan is picked up by the next sweep
	retry, retryErr := dispatcher.RunNotificationSweep(ctx, dispatchNow)
	require.NoError(t, retryErr)
	assert.Equal(t, latenotice.SweepReport{Scanned: 1, Sent: 1}, retry)
	assert.Equal(t, 3, sender.SentCount())

	unnotified, listErr := store.OverdueUnnotifiedLoans(ctx)
	require.NoError(t, listErr)
	assert.Empty(t, unnotified)
}
