package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/newsboy-backend/internal/platform/ctxutil"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

// Worker runs deferred tasks, one goroutine each. Tasks are best-effort:
// nothing is retried or persisted and failures only reach the log.
type Worker struct {
	log *logger.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewWorker(baseLog *logger.Logger) *Worker {
	return &Worker{log: baseLog.With("component", "TaskWorker")}
}

// Submit starts every task on a context detached from ctx's cancellation.
// Tasks submitted after Close are dropped.
func (w *Worker) Submit(ctx context.Context, tasks ...ctxutil.Task) {
	if len(tasks) == 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		for _, t := range tasks {
			w.log.Warn("Worker closed, dropping task", "task", t.Name, "user_id", t.UserID)
		}
		return
	}
	detached := context.WithoutCancel(ctxutil.Default(ctx))
	for _, t := range tasks {
		w.wg.Add(1)
		go w.run(detached, t)
	}
}

func (w *Worker) run(ctx context.Context, t ctxutil.Task) {
	defer w.wg.Done()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Task panic",
				"task", t.Name,
				"user_id", t.UserID,
				"panic", r,
				"error", errFromRecover(r),
			)
		}
	}()

	if t.Run == nil {
		w.log.Warn("Task has no run func", "task", t.Name)
		return
	}
	if err := t.Run(ctx); err != nil {
		w.log.Error("Task failed",
			"task", t.Name,
			"user_id", t.UserID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return
	}
	w.log.Debug("Task done", "task", t.Name, "user_id", t.UserID, "duration_ms", time.Since(start).Milliseconds())
}

// Wait blocks until every submitted task has returned.
func (w *Worker) Wait() {
	w.wg.Wait()
}

// Close stops accepting tasks and waits for in-flight ones until ctx ends.
func (w *Worker) Close(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctxutil.Default(ctx).Done():
		w.log.Warn("Worker close timed out with tasks in flight")
		return ctx.Err()
	}
}

func errFromRecover(v any) error { return &panicError{Val: v} }

type panicError struct{ Val any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }
