// Package runlock deduplicates analysis runs across workers with a
// Postgres lease lock. A run identity (congress, chamber, method, or a
// forecast bill) maps to one row in app_locks; whoever upserts the row
// owns the run until the lease expires or is released. Ownership is
// token-fenced: renew and release only succeed while the row still
// carries the owner's token, so a worker that lost its lease cannot
// stomp a successor's.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/civicsignal/legisnet/pkg/legis"
)

var (
	// ErrBusy means another worker currently owns the run.
	ErrBusy = errors.New("run lock busy")
	// ErrLost means the lease expired or was taken over mid-run.
	ErrLost = errors.New("run lock lost")
)

const (
	defaultTTL          = 5 * time.Minute
	defaultWaitInterval = 250 * time.Millisecond
	renewTimeout        = 15 * time.Second
	renewAttempts       = 3
)

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Client acquires run leases against one database.
type Client struct {
	db dbConn
}

// New returns a Client backed by the pool.
func New(pool *pgxpool.Pool) *Client {
	return &Client{db: pool}
}

// AnalysisKey is the run identity of one coalition analysis: two
// workers handed the same congress/chamber/method run the same key and
// only one proceeds.
func AnalysisKey(congress int, chamber legis.Chamber, method string) string {
	return fmt.Sprintf("analysis:%d:%s:%s", congress, chamber, method)
}

// ForecastKey is the run identity of one bill forecast.
func ForecastKey(billID string) string {
	return "forecast:" + billID
}

// Options tune lease behavior. Zero values get sensible defaults: five
// minute TTL, renewal at half the TTL, no waiting.
type Options struct {
	// TTL is how long the lease outlives its last renewal.
	TTL time.Duration
	// RenewEvery is the background renewal period.
	RenewEvery time.Duration

	// Wait retries acquisition instead of returning ErrBusy.
	Wait         bool
	WaitInterval time.Duration
	WaitJitter   time.Duration

	// TokenPrefix namespaces the fencing token, typically the worker's
	// identity, so lock rows are attributable during incidents.
	TokenPrefix string
}

// Lease is an owned run. Context is derived from the acquiring context
// and is canceled as soon as the lease can no longer be guaranteed, so
// run work should hang off it.
type Lease struct {
	Key   string
	Token string

	Context context.Context

	client *Client
	cancel context.CancelCauseFunc

	stopOnce sync.Once
	stopCh   chan struct{}
}

// WithLease acquires the key, runs fn under the lease context, and
// releases. Acquisition failures (including ErrBusy) surface before fn
// runs.
func (c *Client) WithLease(ctx context.Context, key string, opts Options, fn func(ctx context.Context) error) error {
	lease, err := c.Acquire(ctx, key, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = lease.Release(context.Background())
	}()
	return fn(lease.Context)
}

// Acquire takes the run lock for key. Without Wait it returns ErrBusy
// when another holder's lease is still live; with Wait it retries on
// the configured interval until the context ends.
func (c *Client) Acquire(ctx context.Context, key string, opts Options) (*Lease, error) {
	if key == "" {
		return nil, errors.New("run lock key is empty")
	}

	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	ttlMs := opts.TTL.Milliseconds()
	if opts.RenewEvery <= 0 || opts.RenewEvery >= opts.TTL {
		opts.RenewEvery = max(opts.TTL/2, time.Second)
	}
	if opts.WaitInterval <= 0 {
		opts.WaitInterval = defaultWaitInterval
	}
	if opts.WaitJitter < 0 {
		opts.WaitJitter = 0
	}

	tok, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	token := opts.TokenPrefix + tok

	acquireOnce := func(ctx context.Context) (bool, error) {
		var returnedKey string
		err := c.db.QueryRow(ctx, tryAcquireSQL, key, token, ttlMs).Scan(&returnedKey)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return false, nil
			}
			return false, err
		}
		return returnedKey != "", nil
	}

	for {
		ok, err := acquireOnce(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if !opts.Wait {
			return nil, ErrBusy
		}
		if err := sleepWithJitter(ctx, opts.WaitInterval, opts.WaitJitter); err != nil {
			return nil, err
		}
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	l := &Lease{
		Key:     key,
		Token:   token,
		Context: leaseCtx,
		client:  c,
		cancel:  cancel,
		stopCh:  make(chan struct{}),
	}

	go l.renewLoop(opts, ttlMs)

	return l, nil
}

// Release stops renewal, cancels the lease context, and deletes the
// lock row if this lease still owns it.
func (l *Lease) Release(ctx context.Context) error {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		l.cancel(context.Canceled)
	})

	_, err := l.client.db.Exec(ctx, releaseSQL, l.Key, l.Token)
	return err
}

func (l *Lease) renewLoop(opts Options, ttlMs int64) {
	t := time.NewTicker(opts.RenewEvery)
	defer t.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-l.Context.Done():
			return
		case <-t.C:
			if err := l.renewOnce(ttlMs); err != nil {
				l.cancel(err)
				return
			}
		}
	}
}

// renewOnce extends the lease, retrying transient errors. A missing row
// means the token fence failed: the lease is gone for good.
func (l *Lease) renewOnce(ttlMs int64) error {
	for attempt := range renewAttempts {
		renewCtx, cancel := context.WithTimeout(l.Context, renewTimeout)
		var returnedKey string
		err := l.client.db.QueryRow(renewCtx, renewSQL, l.Key, l.Token, ttlMs).Scan(&returnedKey)
		cancel()
		if err == nil {
			return nil
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLost
		}
		if attempt == renewAttempts-1 {
			return err
		}
		if err := sleepWithJitter(l.Context, 200*time.Millisecond, 0); err != nil {
			return err
		}
	}
	return ErrLost
}

func sleepWithJitter(ctx context.Context, base, jitter time.Duration) error {
	d := base
	if jitter > 0 {
		d += time.Duration(rand.Int64N(int64(jitter) + 1))
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const tryAcquireSQL = `
INSERT INTO app_locks (lock_key, locked_by, expires_at)
VALUES ($1, $2, now() + ($3::bigint * interval '1 millisecond'))
ON CONFLICT (lock_key) DO UPDATE
SET locked_by  = EXCLUDED.locked_by,
    expires_at = EXCLUDED.expires_at
WHERE app_locks.expires_at < now()
   OR app_locks.locked_by = EXCLUDED.locked_by
RETURNING lock_key;
`

const renewSQL = `
UPDATE app_locks
SET expires_at = now() + ($3::bigint * interval '1 millisecond')
WHERE lock_key = $1 AND locked_by = $2
RETURNING lock_key;
`

const releaseSQL = `
DELETE FROM app_locks
WHERE lock_key = $1 AND locked_by = $2;
`
