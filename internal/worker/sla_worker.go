package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/learnstack/support-service/internal/domain"
	"github.com/learnstack/support-service/internal/events"
	"github.com/learnstack/support-service/internal/observability"
	"github.com/learnstack/support-service/internal/repository"
	"github.com/learnstack/support-service/internal/sla"
)

const sweepLockKey = "support-service:sla-sweep-lock"

// SweepLocker guards the sweep so only one instance runs it per interval.
type SweepLocker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string)
}

// SLAWorker periodically refreshes the cached overdue flag on non-terminal
// tickets. The flag is otherwise only written at create/reply/status-change
// time, so without the sweep it can go stale between writes; the sweep bounds
// that staleness window to one interval.
type SLAWorker struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	locker     SweepLocker
	metrics    *observability.Metrics
	logger     *zap.Logger
	interval   time.Duration
	batchSize  int
	now        func() time.Time
}

// SLAWorkerDeps bundles worker dependencies.
type SLAWorkerDeps struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Locker     SweepLocker
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Interval   time.Duration
	BatchSize  int
	Now        func() time.Time
}

// NewSLAWorker constructs the worker.
func NewSLAWorker(deps SLAWorkerDeps) *SLAWorker {
	interval := deps.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	batchSize := deps.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &SLAWorker{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		locker:     deps.Locker,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		interval:   interval,
		batchSize:  batchSize,
		now:        now,
	}
}

// Run sweeps on a ticker until the context is cancelled.
func (w *SLAWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.SweepOnce(ctx); err != nil {
				w.logger.Error("sla sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce recomputes overdue for one batch of open/pending tickets and
// persists any flips without touching updated_at.
func (w *SLAWorker) SweepOnce(ctx context.Context) error {
	if w.locker != nil {
		acquired, err := w.locker.AcquireLock(ctx, sweepLockKey, w.interval)
		if err != nil {
			w.logger.Warn("sweep lock unavailable; proceeding unlocked", zap.Error(err))
		} else if !acquired {
			return nil
		} else {
			defer w.locker.ReleaseLock(ctx, sweepLockKey)
		}
	}

	tickets, err := w.tickets.ListSweepCandidates(ctx, w.batchSize)
	if err != nil {
		return err
	}

	now := w.now()
	flipped := 0
	for i := range tickets {
		ticket := &tickets[i]
		overdue := sla.IsOverdue(ticket.UpdatedAt, ticket.Priority, ticket.Status, now)
		if overdue == ticket.Overdue {
			continue
		}
		if err := w.tickets.SetOverdue(ctx, ticket.ID, overdue); err != nil {
			w.logger.Warn("failed to update overdue flag",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
			continue
		}
		flipped++
		if overdue {
			w.publishOverdue(ctx, ticket, now)
		}
	}

	w.metrics.RecordSweep(flipped)
	if flipped > 0 {
		w.logger.Info("sla sweep complete",
			zap.Int("candidates", len(tickets)), zap.Int("flipped", flipped))
	}
	return nil
}

func (w *SLAWorker) publishOverdue(ctx context.Context, ticket *domain.Ticket, now time.Time) {
	if w.dispatcher == nil {
		return
	}
	_ = w.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketOverdue,
		TicketID:  ticket.ID,
		Timestamp: now,
		Payload: events.TicketOverduePayload{
			Priority:    ticket.Priority,
			LastUpdated: ticket.UpdatedAt,
		},
	})
}
