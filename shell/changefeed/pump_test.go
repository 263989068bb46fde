package changefeed_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/notify/latenotice"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore/memengine"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore/postgresengine"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/changefeed"
	. "github.com/AntonStoeckl/bike-loan-engine-go/testutil/fixtures" //nolint:revive
	"github.com/AntonStoeckl/bike-loan-engine-go/testutil/pgtest"
	. "github.com/AntonStoeckl/bike-loan-engine-go/testutil/spies" //nolint:revive
)

const eventually = 2 * time.Second

type dispatcherSpy struct {
	mu      sync.Mutex
	loanIDs []uuid.UUID
}

func (d *dispatcherSpy) Dispatch(_ context.Context, loanID uuid.UUID) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loanIDs = append(d.loanIDs, loanID)

	return true, nil
}

func (d *dispatcherSpy) dispatched() []uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]uuid.UUID(nil), d.loanIDs...)
}

// runPump starts the pump and waits for the first resync, so the listener is subscribed.
func runPump(t *testing.T, listener changefeed.Listener, dispatcher changefeed.Dispatcher, resync changefeed.ResyncFunc) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	resynced := make(chan struct{}, 1)

	pump := changefeed.NewPump(listener, dispatcher, changefeed.WithResync(func(ctx context.Context) error {
		select {
		case resynced <- struct{}{}:
		default:
		}
		if resync == nil {
			return nil
		}
		return resync(ctx)
	}))

	done := make(chan error, 1)
	go func() { done <- pump.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	select {
	case <-resynced:
	case <-time.After(eventually):
		t.Fatal("listener did not resync")
	}
}

func Test_Pump_DispatchesLoansTurningOverdue(t *testing.T) {
	// arrange
	store := memengine.NewEngine()
	GivenAsset(t, store, "BK-001", "Mountain", core.AssetAvailable)
	GivenAsset(t, store, "BK-002", "Mountain", core.AssetAvailable)
	dispatcher := &dispatcherSpy{}
	runPump(t, changefeed.NewChannelListener(store.Subscribe, 8), dispatcher, nil)

	// act
	overdue := GivenLoan(t, store, "b-1", "BK-001", FakeNow, core.StatusOverdue)
	GivenLoan(t, store, "b-2", "BK-002", FakeNow, core.StatusActive)

	// assert
	assert.Eventually(t, func() bool {
		return len(dispatcher.dispatched()) == 1
	}, eventually, 10*time.Millisecond)
	assert.Equal(t, []uuid.UUID{overdue.ID}, dispatcher.dispatched())
}

func Test_Pump_ResyncCatchesUpAndFeedSendsOnce(t *testing.T) {
	// arrange
	store := memengine.NewEngine()
	GivenBorrower(t, store, "b-1")
	GivenBorrower(t, store, "b-2")
	GivenAsset(t, store, "BK-001", "Mountain", core.AssetAvailable)
	GivenAsset(t, store, "BK-002", "Mountain", core.AssetAvailable)
	missed := GivenLoan(t, store, "b-1", "BK-001", FakeNow, core.StatusOverdue)
	sender := NewMailSenderSpy()
	dispatcher, err := latenotice.NewDispatcher(store, sender)
	require.NoError(t, err)

	// act
	runPump(t, changefeed.NewChannelListener(store.Subscribe, 8), dispatcher, func(ctx context.Context) error {
		_, sweepErr := dispatcher.RunNotificationSweep(ctx, time.Now())
		return sweepErr
	})
	live := GivenLoan(t, store, "b-2", "BK-002", FakeNow, core.StatusOverdue)

	// a periodic sweep racing the feed must not send again
	_, sweepErr := dispatcher.RunNotificationSweep(context.Background(), time.Now())
	require.NoError(t, sweepErr)

	// assert
	assert.Eventually(t, func() bool {
		unnotified, listErr := store.OverdueUnnotifiedLoans(context.Background())
		return listErr == nil && len(unnotified) == 0
	}, eventually, 10*time.Millisecond)
	assert.True(t, RequireLoanStatus(t, store, missed.ID, core.StatusOverdue).NotificationSent)
	assert.True(t, RequireLoanStatus(t, store, live.ID, core.StatusOverdue).NotificationSent)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, sender.SentCount())
}

func Test_PGXListener_FollowsTheTrigger(t *testing.T) {
	// arrange
	pool := pgtest.NewTestPool(t)
	store, err := postgresengine.NewLoanStoreFromPGXPool(pool)
	require.NoError(t, err)
	GivenAsset(t, store, "BK-001", "Mountain", core.AssetAvailable)
	listener, err := changefeed.NewPGXListener(pool, changefeed.WithPGXReconnectDelay(10*time.Millisecond))
	require.NoError(t, err)
	dispatcher := &dispatcherSpy{}
	runPump(t, listener, dispatcher, nil)

	// act
	loan := GivenLoan(t, store, "b-1", "BK-001", FakeNow, core.StatusOverdue)

	// assert
	assert.Eventually(t, func() bool {
		return len(dispatcher.dispatched()) == 1
	}, eventually, 10*time.Millisecond)
	assert.Equal(t, []uuid.UUID{loan.ID}, dispatcher.dispatched())
}

func Test_PQListener_FollowsTheTrigger(t *testing.T) {
	// arrange
	pool := pgtest.NewTestPool(t)
	store, err := postgresengine.NewLoanStoreFromPGXPool(pool)
	require.NoError(t, err)
	GivenAsset(t, store, "BK-001", "Mountain", core.AssetAvailable)
	dispatcher := &dispatcherSpy{}
	runPump(t, changefeed.NewPQListener(pgtest.DSN(t)), dispatcher, nil)

	// act
	loan := GivenLoan(t, store, "b-1", "BK-001", FakeNow, core.StatusOverdue)

	// assert
	assert.Eventually(t, func() bool {
		return len(dispatcher.dispatched()) == 1
	}, eventually, 10*time.Millisecond)
	assert.Equal(t, []uuid.UUID{loan.ID}, dispatcher.dispatched())
}
