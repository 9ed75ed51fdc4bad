package ctxutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type deferredKey struct{}

// Task is a unit of work to run once the response has been written.
type Task struct {
	Name   string
	UserID uuid.UUID
	Run    func(ctx context.Context) error
}

// DeferredTasks collects tasks registered by handlers during one request.
type DeferredTasks struct {
	mu    sync.Mutex
	tasks []Task
}

func WithDeferredTasks(ctx context.Context) context.Context {
	return context.WithValue(ctx, deferredKey{}, &DeferredTasks{})
}

func GetDeferredTasks(ctx context.Context) *DeferredTasks {
	if d, ok := ctx.Value(deferredKey{}).(*DeferredTasks); ok {
		return d
	}
	return nil
}

func (d *DeferredTasks) Add(t Task) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, t)
}

// Drain returns the registered tasks and empties the list.
func (d *DeferredTasks) Drain() []Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.tasks
	d.tasks = nil
	return out
}

func (d *DeferredTasks) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}
