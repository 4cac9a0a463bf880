// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package dispatch delivers the outbound effects of committed oracle calls.
//
// Effects are delivered at most once. A failed delivery is kept with the
// position it stopped at and is never retried automatically; Redeliver resumes it.
// With Options.Store set, failed deliveries survive a restart.
package dispatch

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/fluxprotocol/oracle/builtin/oracle"
	"github.com/fluxprotocol/oracle/co"
	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/kv"
	"github.com/fluxprotocol/oracle/log"
	"github.com/fluxprotocol/oracle/metrics"
)

var (
	logger = log.WithContext("pkg", "dispatch")

	metricDeliveries    = metrics.LazyLoadCounterVec("dispatch_deliveries_count", []string{"kind", "status"})
	metricDeliveryMs    = metrics.LazyLoadHistogramVec("dispatch_delivery_ms", []string{"kind"}, metrics.BucketDelivery)
	metricFailedPending = metrics.LazyLoadGauge("dispatch_failed_pending")

	// ErrUnknownDelivery is returned by Redeliver for an id that is not a failed delivery.
	ErrUnknownDelivery = errors.New("unknown delivery")
)

// Transferrer moves tokens out of the oracle account.
type Transferrer interface {
	Transfer(ctx context.Context, token, from, to flux.AccountID, amount *uint256.Int) error
}

// Notifier tells a requester about the outcome of its request.
type Notifier interface {
	Notify(ctx context.Context, n *oracle.Notification) error
}

// Delivery is one effect on its way out.
type Delivery struct {
	ID     uuid.UUID      `json:"id"`
	Effect *oracle.Effect `json:"effect"`
	// Next is the index of the first transfer not delivered yet. It equals
	// len(Effect.Transfers) once only the notification is left.
	Next   int       `json:"next"`
	Error  string    `json:"error,omitempty"`
	Failed time.Time `json:"failed_at"`
}

type Options struct {
	// Workers drain the queue. Zero delivers synchronously in Dispatch.
	Workers   int
	QueueSize int
	// Timeout bounds the delivery of one effect.
	Timeout time.Duration
	// Store, if set, keeps failed deliveries.
	Store kv.Store
}

// Dispatcher queues effects and delivers them with a pool of workers.
type Dispatcher struct {
	from        flux.AccountID
	transferrer Transferrer
	notifier    Notifier
	opts        Options

	queue   chan *Delivery
	goes    co.Goes
	closeMu sync.RWMutex
	closed  bool

	mu     sync.Mutex
	failed map[uuid.UUID]*Delivery
	parked *parking
}

// New creates a dispatcher paying out of the from account. notifier may be nil.
// Failed deliveries kept in opts.Store are loaded back.
func New(from flux.AccountID, transferrer Transferrer, notifier Notifier, opts Options) (*Dispatcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	d := &Dispatcher{
		from:        from,
		transferrer: transferrer,
		notifier:    notifier,
		opts:        opts,
		failed:      make(map[uuid.UUID]*Delivery),
	}
	if opts.Store != nil {
		d.parked = newParking(opts.Store)
		loaded, err := d.parked.load()
		if err != nil {
			return nil, err
		}
		for _, del := range loaded {
			d.failed[del.ID] = del
		}
		if len(loaded) > 0 {
			logger.Warn("failed deliveries loaded", "count", len(loaded))
		}
		metricFailedPending().Set(int64(len(d.failed)))
	}
	if opts.Workers > 0 {
		d.queue = make(chan *Delivery, opts.QueueSize)
		d.goes.GoN(opts.Workers, func(int) {
			for del := range d.queue {
				d.deliver(del)
			}
		})
	}
	return d, nil
}

// Dispatch hands effects over for delivery and returns their correlation ids.
func (d *Dispatcher) Dispatch(effects []*oracle.Effect) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(effects))
	for _, e := range effects {
		del := &Delivery{ID: uuid.New(), Effect: e}
		ids = append(ids, del.ID)
		d.enqueue(del)
	}
	return ids
}

func (d *Dispatcher) enqueue(del *Delivery) {
	d.closeMu.RLock()
	defer d.closeMu.RUnlock()

	switch {
	case d.closed:
		d.fail(del, "dispatcher closed", "closed")
	case d.queue == nil:
		d.deliver(del)
	default:
		d.queue <- del
	}
}

func (d *Dispatcher) deliver(del *Delivery) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.Timeout)
	defer cancel()

	// chained transfers stop at the first failure
	for del.Next < len(del.Effect.Transfers) {
		t := del.Effect.Transfers[del.Next]
		start := time.Now()
		if err := d.transferrer.Transfer(ctx, t.Token, d.from, t.To, t.Amount); err != nil {
			d.fail(del, err.Error(), "transfer")
			return err
		}
		metricDeliveryMs().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"kind": "transfer"})
		metricDeliveries().AddWithLabel(1, map[string]string{"kind": "transfer", "status": "ok"})
		logger.Debug("transfer delivered", "id", del.ID, "token", t.Token, "to", t.To, "amount", t.Amount)
		del.Next++
	}

	if n := del.Effect.Notification; n != nil && d.notifier != nil {
		start := time.Now()
		if err := d.notifier.Notify(ctx, n); err != nil {
			d.fail(del, err.Error(), "notification")
			return err
		}
		metricDeliveryMs().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"kind": "notification"})
		metricDeliveries().AddWithLabel(1, map[string]string{"kind": "notification", "status": "ok"})
		logger.Debug("outcome delivered", "id", del.ID, "request", n.RequestID, "requester", n.Requester)
	}
	return nil
}

func (d *Dispatcher) fail(del *Delivery, reason, kind string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	del.Error = reason
	del.Failed = time.Now()
	d.failed[del.ID] = del
	if d.parked != nil {
		if err := d.parked.put(del); err != nil {
			logger.Error("failed to keep failed delivery", "id", del.ID, "err", err)
		}
	}
	metricDeliveries().AddWithLabel(1, map[string]string{"kind": kind, "status": "failed"})
	metricFailedPending().Set(int64(len(d.failed)))
	logger.Warn("delivery failed", "id", del.ID, "kind", kind, "next", del.Next, "err", reason)
}

// Failed returns the failed deliveries, oldest first.
func (d *Dispatcher) Failed() []Delivery {
	d.mu.Lock()
	defer d.mu.Unlock()

	list := make([]Delivery, 0, len(d.failed))
	for _, del := range d.failed {
		list = append(list, *del)
	}
	slices.SortFunc(list, func(a, b Delivery) int { return a.Failed.Compare(b.Failed) })
	return list
}

// FailedCount is len(Failed()) without the copy.
func (d *Dispatcher) FailedCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.failed)
}

// Redeliver resumes a failed delivery where it stopped. It runs synchronously;
// a delivery that fails again is kept as failed.
func (d *Dispatcher) Redeliver(id uuid.UUID) error {
	d.mu.Lock()
	del, ok := d.failed[id]
	if !ok {
		d.mu.Unlock()
		return errors.Wrap(ErrUnknownDelivery, id.String())
	}
	// dropped from the store first, so a crash can't pay it twice
	if d.parked != nil {
		if err := d.parked.delete(id); err != nil {
			d.mu.Unlock()
			return err
		}
	}
	delete(d.failed, id)
	metricFailedPending().Set(int64(len(d.failed)))
	d.mu.Unlock()

	del.Error = ""
	logger.Info("redelivering", "id", id, "next", del.Next)
	return d.deliver(del)
}

// Close stops accepting effects and waits for the queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.closeMu.Lock()
	if d.closed {
		d.closeMu.Unlock()
		return
	}
	d.closed = true
	if d.queue != nil {
		close(d.queue)
	}
	d.closeMu.Unlock()

	d.goes.Wait()
}
