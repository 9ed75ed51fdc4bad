package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/newsboy-backend/internal/platform/ctxutil"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

func newTestWorker(t *testing.T) *Worker {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewWorker(log)
}

func TestWorkerRunsDetachedFromCaller(t *testing.T) {
	w := newTestWorker(t)

	ctx, cancel := context.WithCancel(context.Background())
	var sawErr atomic.Value
	w.Submit(ctx, ctxutil.Task{Name: "detached", Run: func(ctx context.Context) error {
		time.Sleep(10 * time.Millisecond)
		sawErr.Store(ctx.Err() == nil)
		return nil
	}})
	cancel()
	w.Wait()

	if v, _ := sawErr.Load().(bool); !v {
		t.Fatalf("task context was cancelled with its caller")
	}
}

func TestWorkerRecoversPanicsAndErrors(t *testing.T) {
	w := newTestWorker(t)

	var ran int32
	w.Submit(context.Background(),
		ctxutil.Task{Name: "boom", Run: func(context.Context) error { panic("boom") }},
		ctxutil.Task{Name: "fails", Run: func(context.Context) error { return errors.New("nope") }},
		ctxutil.Task{Name: "ok", Run: func(context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}},
	)
	w.Wait()

	if atomic.LoadInt32(&ran) != 1 {
		t.Fatalf("healthy task did not run")
	}
}

func TestWorkerCloseDropsLateTasks(t *testing.T) {
	w := newTestWorker(t)

	if err := w.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	var ran int32
	w.Submit(context.Background(), ctxutil.Task{Name: "late", Run: func(context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}})
	w.Wait()
	if atomic.LoadInt32(&ran) != 0 {
		t.Fatalf("task ran after Close")
	}
}

func TestWorkerCloseTimesOut(t *testing.T) {
	w := newTestWorker(t)

	release := make(chan struct{})
	w.Submit(context.Background(), ctxutil.Task{Name: "slow", Run: func(context.Context) error {
		<-release
		return nil
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := w.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Close: want deadline exceeded, got %v", err)
	}
	close(release)
	w.Wait()
}
