package economy

import (
	"context"
	"log/slog"
	"sync"
)

// Tasks runs fire-and-forget store writes and lets shutdown wait for them.
type Tasks struct {
	ctx context.Context
	log *slog.Logger
	wg  sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewTasks returns a Tasks whose functions receive ctx.
func NewTasks(ctx context.Context, log *slog.Logger) *Tasks {
	return &Tasks{ctx: ctx, log: log}
}

// Go runs fn on a new goroutine. Panics are logged, not propagated. Tasks
// started after Close are dropped.
func (t *Tasks) Go(fn func(ctx context.Context)) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		t.log.Warn("Dropped background task after shutdown.")
		return
	}
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				t.log.Error("Background task panicked.", "panic", r)
			}
		}()
		fn(t.ctx)
	}()
}

// Wait blocks until every task started with Go returned.
func (t *Tasks) Wait() {
	t.wg.Wait()
}

// Close refuses new tasks and waits for the running ones.
func (t *Tasks) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.wg.Wait()
}
