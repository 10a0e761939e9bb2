package lifecycle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ndrandal/tradesignal-core/internal/chatsource"
)

// DefaultDrainTimeout bounds how long Shutdown waits for in-flight
// tasks to finish (spec §5: "the shutdown waits up to a timeout,
// default 10s, for drain").
const DefaultDrainTimeout = 10 * time.Second

// TaskSet dispatches each chat event to a tracked background task,
// mirroring the teacher's per-symbol goroutine-over-a-shared-context
// shutdown pattern (cmd/feedsim/main.go's sigCh/WithCancel/goroutine
// fan-out), generalized here to one goroutine per event instead of one
// per symbol.
type TaskSet struct {
	proc *Processor
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	wg sync.WaitGroup
}

// NewTaskSet builds a TaskSet bound to a parent context; cancelling the
// parent (or calling Shutdown) stops new dispatch and cancels in-flight
// tasks cooperatively.
func NewTaskSet(parent context.Context, proc *Processor, logger *slog.Logger) *TaskSet {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(parent)
	return &TaskSet{proc: proc, log: logger, ctx: ctx, cancel: cancel}
}

// Dispatch registers and runs one tracked task for ev. It returns
// immediately; the task runs in its own goroutine. Panics inside the
// task are recovered and logged, never propagated to the caller (spec
// §5: "Tasks that raise are logged; the failure never propagates to
// the subscriber loop").
func (t *TaskSet) Dispatch(ev chatsource.Event) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				t.log.Error("lifecycle: task panicked", "message_external_id", ev.MessageExternalID, "panic", r)
			}
		}()
		t.proc.Process(t.ctx, ev)
	}()
}

// Run consumes events from src and dispatches each to a tracked task
// until src's channel closes or the parent context is cancelled.
func (t *TaskSet) Run(src chatsource.Source) {
	events := src.Events()
	for {
		select {
		case <-t.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			t.Dispatch(ev)
		}
	}
}

// Shutdown cancels all in-flight tasks and waits up to timeout for them
// to drain. Returns false if the timeout elapsed before every task
// finished.
func (t *TaskSet) Shutdown(timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultDrainTimeout
	}
	t.cancel()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
