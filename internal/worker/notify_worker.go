package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"condo-ballots/internal/notify"
	"condo-ballots/internal/retry"
)

var ErrQueueFull = errors.New("notification queue full")

// Queue is a non-blocking notify.Publisher backed by a buffered channel.
type Queue struct {
	ch chan<- notify.Event
}

func NewQueue(ch chan<- notify.Event) *Queue {
	return &Queue{ch: ch}
}

func (q *Queue) Publish(ctx context.Context, ev notify.Event) error {
	select {
	case q.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

type NotifyWorker struct {
	Ch       <-chan notify.Event
	sink     notify.Sink
	logger   *slog.Logger
	attempts int
	delay    time.Duration
}

func NewNotifyWorker(ch <-chan notify.Event, sink notify.Sink, logger *slog.Logger) *NotifyWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotifyWorker{
		Ch:       ch,
		sink:     sink,
		logger:   logger,
		attempts: 3,
		delay:    200 * time.Millisecond,
	}
}

// Run delivers events until ctx is canceled or the channel is closed.
func (w *NotifyWorker) Run(ctx context.Context) {
	w.logger.Info("notify worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("notify worker stopped")
			return
		case ev, ok := <-w.Ch:
			if !ok {
				w.logger.Info("notify worker stopped")
				return
			}
			w.deliver(ctx, ev)
		}
	}
}

func (w *NotifyWorker) deliver(ctx context.Context, ev notify.Event) {
	err := retry.DoWithRetry(ctx, w.attempts, w.delay, func(int) error {
		return w.sink.Deliver(ctx, ev)
	})
	if err != nil {
		w.logger.Error("notification delivery failed",
			"type", ev.Type, "tenant_id", ev.TenantID, "ballot_id", ev.BallotID, "error", err)
		return
	}
	w.logger.Debug("notification delivered", "type", ev.Type, "ballot_id", ev.BallotID)
}
