package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"foodcourt-backoffice/internal/queue"
)

const dispatchBatchSize = 50

type Subscriber func(ctx context.Context, event Event) error

// Dispatcher polls the outbox in commit order and delivers events with
// at-least-once semantics. A row in the leases table keeps at most one
// dispatcher active across replicas; subscribers must still be idempotent
// keyed by event id.
type Dispatcher struct {
	pool     *pgxpool.Pool
	logger   *zap.Logger
	queue    *queue.Client
	interval time.Duration
	leaseTTL time.Duration
	ownerID  string

	mu          sync.RWMutex
	subscribers []Subscriber
}

func NewDispatcher(pool *pgxpool.Pool, logger *zap.Logger, queueClient *queue.Client, interval time.Duration, ownerID string) *Dispatcher {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Dispatcher{
		pool:     pool,
		logger:   logger,
		queue:    queueClient,
		interval: interval,
		leaseTTL: 30 * time.Second,
		ownerID:  ownerID,
	}
}

func (d *Dispatcher) Subscribe(fn Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers = append(d.subscribers, fn)
}

func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			held, err := d.acquireLease(ctx)
			if err != nil {
				d.logger.Warn("outbox lease acquisition failed", zap.Error(err))
				continue
			}
			if !held {
				continue
			}
			if err := d.dispatchPending(ctx); err != nil && ctx.Err() == nil {
				d.logger.Error("outbox dispatch failed", zap.Error(err))
			}
		}
	}
}

func (d *Dispatcher) acquireLease(ctx context.Context) (bool, error) {
	var holder string
	err := d.pool.QueryRow(ctx, `
		insert into leases (name, owner_id, heartbeat_at)
		values ('outbox-dispatcher', $1, now())
		on conflict (name) do update
		set owner_id = case
			when leases.owner_id = excluded.owner_id or leases.heartbeat_at < now() - $2::interval
			then excluded.owner_id else leases.owner_id end,
		    heartbeat_at = case
			when leases.owner_id = excluded.owner_id or leases.heartbeat_at < now() - $2::interval
			then now() else leases.heartbeat_at end
		returning owner_id
	`, d.ownerID, d.leaseTTL.String()).Scan(&holder)
	if err != nil {
		return false, err
	}
	return holder == d.ownerID, nil
}

func (d *Dispatcher) dispatchPending(ctx context.Context) error {
	rows, err := d.pool.Query(ctx, `
		select seq, event_id, kind, aggregate_type, aggregate_id, payload, occurred_at
		from outbox
		where dispatched_at is null
		order by seq asc
		limit $1
	`, dispatchBatchSize)
	if err != nil {
		return err
	}

	type pending struct {
		seq   int64
		event Event
	}
	batch := make([]pending, 0, dispatchBatchSize)
	for rows.Next() {
		var p pending
		var kind string
		var payload []byte
		if err := rows.Scan(&p.seq, &p.event.ID, &kind, &p.event.AggregateType, &p.event.AggregateID, &payload, &p.event.OccurredAt); err != nil {
			rows.Close()
			return err
		}
		p.event.Kind = Kind(kind)
		if len(payload) > 0 {
			_ = json.Unmarshal(payload, &p.event.Payload)
		}
		batch = append(batch, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range batch {
		d.deliver(ctx, p.event)
		if _, err := d.pool.Exec(ctx, `update outbox set dispatched_at = now() where seq = $1`, p.seq); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, event Event) {
	d.mu.RLock()
	subscribers := make([]Subscriber, len(d.subscribers))
	copy(subscribers, d.subscribers)
	d.mu.RUnlock()

	for _, fn := range subscribers {
		if err := fn(ctx, event); err != nil {
			d.logger.Warn("event subscriber failed",
				zap.String("eventId", event.ID),
				zap.String("kind", string(event.Kind)),
				zap.Error(err))
		}
	}

	if d.queue != nil {
		if err := d.queue.PublishJSON(ctx, queue.EventsExchange, string(event.Kind), event); err != nil {
			d.logger.Warn("event fan-out publish failed",
				zap.String("eventId", event.ID),
				zap.Error(err))
		}
	}
}
