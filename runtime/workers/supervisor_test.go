package workers

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingWorker struct {
	mu    sync.Mutex
	calls int
	run   func(ctx context.Context) error
}

func (w *countingWorker) Run(ctx context.Context) error {
	w.mu.Lock()
	w.calls++
	w.mu.Unlock()
	return w.run(ctx)
}

func (w *countingWorker) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

func TestSupervisor_RestartOnPanic(t *testing.T) {
	req := require.New(t)
	sup := NewSupervisor(slog.Default(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sup.Run(ctx)

	worker := &countingWorker{run: func(context.Context) error { panic("boom") }}
	sup.Start(worker)

	// Waiting for panics and restarts
	req.Eventually(func() bool {
		return worker.count() >= 2
	}, time.Second, 5*time.Millisecond)

	sup.Stop()
}

func TestSupervisor_StopOnSuccess(t *testing.T) {
	req := require.New(t)
	sup := NewSupervisor(slog.Default(), 10*time.Millisecond)
	sup.Run(context.Background())

	// Given a worker terminating properly
	worker := &countingWorker{run: func(context.Context) error { return nil }}
	sup.Start(worker)

	// Then it is never restarted
	time.Sleep(100 * time.Millisecond)
	req.Equal(1, worker.count())
	sup.Stop()
}

func TestSupervisor_Stop_Cancels_And_Waits(t *testing.T) {
	req := require.New(t)
	sup := NewSupervisor(slog.Default(), 10*time.Millisecond)
	sup.Run(context.Background())

	// Given a worker blocked on its context
	worker := &countingWorker{run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	sup.Start(worker)

	done := make(chan struct{})
	go func() {
		sup.Stop()
		close(done)
	}()

	select {
	case <-done:
		req.Equal(1, worker.count())
	case <-time.After(time.Second):
		req.Fail("Supervisor should have stopped after cancellation")
	}
}
