package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"condo-ballots/internal/notify"
)

type countingSink struct {
	mu        sync.Mutex
	failFirst int
	calls     int
	delivered []notify.Event
}

func (s *countingSink) Deliver(ctx context.Context, ev notify.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failFirst {
		return errors.New("fan-out offline")
	}
	s.delivered = append(s.delivered, ev)
	return nil
}

func (s *countingSink) snapshot() (int, []notify.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, append([]notify.Event(nil), s.delivered...)
}

func TestNotifyWorkerDeliversWithRetry(t *testing.T) {
	defer goleak.VerifyNone(t)

	ch := make(chan notify.Event, 4)
	sink := &countingSink{failFirst: 1}
	w := NewNotifyWorker(ch, sink, nil)
	w.delay = time.Millisecond

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(context.Background())
	}()

	require.NoError(t, NewQueue(ch).Publish(context.Background(), notify.Event{Type: notify.TypeBallotOpen, BallotID: "b1"}))
	close(ch)
	<-done

	calls, delivered := sink.snapshot()
	assert.Equal(t, 2, calls)
	require.Len(t, delivered, 1)
	assert.Equal(t, "b1", delivered[0].BallotID)
}

func TestNotifyWorkerStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ch := make(chan notify.Event)
	w := NewNotifyWorker(ch, &countingSink{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestQueuePublishDoesNotBlock(t *testing.T) {
	ch := make(chan notify.Event, 1)
	q := NewQueue(ch)

	require.NoError(t, q.Publish(context.Background(), notify.Event{BallotID: "b1"}))
	assert.ErrorIs(t, q.Publish(context.Background(), notify.Event{BallotID: "b2"}), ErrQueueFull)
}
