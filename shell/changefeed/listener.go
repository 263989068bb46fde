package changefeed

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
)

const (
	defaultReconnectDelay    = time.Second
	defaultMaxReconnectDelay = time.Minute
	defaultPingInterval      = 90 * time.Second

	logMsgListenFailed     = "change feed connection lost, reconnecting"
	logMsgMalformedPayload = "ignoring malformed change feed payload"
	logMsgListenerEvent    = "change feed listener event"
	logAttrPayload         = "payload"
	logAttrEvent           = "event"
	logAttrError           = "error"
)

// ErrNilPool is returned when a listener is created without a connection pool.
var ErrNilPool = errors.New("change feed needs a connection pool")

// Listener follows a change feed until ctx is done.
// Listen must emit a Resync change after every (re)connect and return ctx.Err() on shutdown.
type Listener interface {
	Listen(ctx context.Context, out chan<- loanstore.StatusChange) error
}

// PGXListener follows the change feed on a dedicated pgx connection.
type PGXListener struct {
	pool           *pgxpool.Pool
	channel        string
	reconnectDelay time.Duration
	logger         loanstore.Logger
}

// PGXOption configures a PGXListener.
type PGXOption func(*PGXListener)

// WithPGXReconnectDelay sets the pause before a lost connection is re-established.
func WithPGXReconnectDelay(d time.Duration) PGXOption {
	return func(l *PGXListener) {
		l.reconnectDelay = d
	}
}

// WithPGXLogger sets the logger for connection problems.
func WithPGXLogger(logger loanstore.Logger) PGXOption {
	return func(l *PGXListener) {
		l.logger = logger
	}
}

// NewPGXListener creates a PGXListener on Channel.
func NewPGXListener(pool *pgxpool.Pool, opts ...PGXOption) (*PGXListener, error) {
	if pool == nil {
		return nil, ErrNilPool
	}

	l := &PGXListener{pool: pool, channel: Channel, reconnectDelay: defaultReconnectDelay}
	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Listen implements Listener.
func (l *PGXListener) Listen(ctx context.Context, out chan<- loanstore.StatusChange) error {
	for {
		err := l.listenOnce(ctx, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if l.logger != nil {
			l.logger.Warn(logMsgListenFailed, logAttrError, err.Error())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.reconnectDelay):
		}
	}
}

func (l *PGXListener) listenOnce(ctx context.Context, out chan<- loanstore.StatusChange) error {
	pooled, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}

	// a connection in LISTEN state must not go back to the pool
	conn := pooled.Hijack()
	defer conn.Close(context.WithoutCancel(ctx)) //nolint:errcheck

	if _, err = conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return err
	}

	if !emit(ctx, out, loanstore.StatusChange{Resync: true}) {
		return ctx.Err()
	}

	for {
		notification, waitErr := conn.WaitForNotification(ctx)
		if waitErr != nil {
			return waitErr
		}

		change, parseErr := ParsePayload(notification.Payload)
		if parseErr != nil {
			if l.logger != nil {
				l.logger.Warn(logMsgMalformedPayload, logAttrPayload, notification.Payload, logAttrError, parseErr.Error())
			}
			continue
		}

		if !emit(ctx, out, change) {
			return ctx.Err()
		}
	}
}

// PQListener follows the change feed with lib/pq's reconnecting listener.
type PQListener struct {
	dsn          string
	channel      string
	minReconnect time.Duration
	maxReconnect time.Duration
	pingInterval time.Duration
	logger       loanstore.Logger
}

// PQOption configures a PQListener.
type PQOption func(*PQListener)

// WithPQReconnectInterval sets the reconnect backoff bounds.
func WithPQReconnectInterval(minDelay, maxDelay time.Duration) PQOption {
	return func(l *PQListener) {
		l.minReconnect = minDelay
		l.maxReconnect = maxDelay
	}
}

// WithPQLogger sets the logger for listener events.
func WithPQLogger(logger loanstore.Logger) PQOption {
	return func(l *PQListener) {
		l.logger = logger
	}
}

// NewPQListener creates a PQListener on Channel.
func NewPQListener(dsn string, opts ...PQOption) *PQListener {
	l := &PQListener{
		dsn:          dsn,
		channel:      Channel,
		minReconnect: defaultReconnectDelay,
		maxReconnect: defaultMaxReconnectDelay,
		pingInterval: defaultPingInterval,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Listen implements Listener. pq delivers a nil notification after a reconnect, which becomes a Resync change.
func (l *PQListener) Listen(ctx context.Context, out chan<- loanstore.StatusChange) error {
	listener := pq.NewListener(l.dsn, l.minReconnect, l.maxReconnect, l.onEvent)
	defer listener.Close() //nolint:errcheck

	if err := listener.Listen(l.channel); err != nil {
		return err
	}

	if !emit(ctx, out, loanstore.StatusChange{Resync: true}) {
		return ctx.Err()
	}

	ping := time.NewTicker(l.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ping.C:
			// a failed ping makes pq reconnect, which ends in a nil notification
			_ = listener.Ping()

		case notification := <-listener.Notify:
			change := loanstore.StatusChange{Resync: true}

			if notification != nil {
				parsed, err := ParsePayload(notification.Extra)
				if err != nil {
					if l.logger != nil {
						l.logger.Warn(logMsgMalformedPayload, logAttrPayload, notification.Extra, logAttrError, err.Error())
					}
					continue
				}
				change = parsed
			}

			if !emit(ctx, out, change) {
				return ctx.Err()
			}
		}
	}
}

func (l *PQListener) onEvent(event pq.ListenerEventType, err error) {
	if l.logger == nil || err == nil {
		return
	}

	l.logger.Warn(logMsgListenerEvent, logAttrEvent, int(event), logAttrError, err.Error())
}

// SubscribeFunc subscribes to in-process status changes, like memengine.Engine.Subscribe.
type SubscribeFunc func(buffer int) (<-chan loanstore.StatusChange, func())

// ChannelListener follows an in-process change feed.
type ChannelListener struct {
	subscribe SubscribeFunc
	buffer    int
}

// NewChannelListener creates a ChannelListener.
func NewChannelListener(subscribe SubscribeFunc, buffer int) ChannelListener {
	return ChannelListener{subscribe: subscribe, buffer: buffer}
}

// Listen implements Listener.
func (l ChannelListener) Listen(ctx context.Context, out chan<- loanstore.StatusChange) error {
	changes, unsubscribe := l.subscribe(l.buffer)
	defer unsubscribe()

	if !emit(ctx, out, loanstore.StatusChange{Resync: true}) {
		return ctx.Err()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if !emit(ctx, out, change) {
				return ctx.Err()
			}
		}
	}
}

func emit(ctx context.Context, out chan<- loanstore.StatusChange, change loanstore.StatusChange) bool {
	select {
	case out <- change:
		return true
	case <-ctx.Done():
		return false
	}
}
