// Package tasks runs fire-and-forget side effects of attempt
// submission: plan regeneration, content preloading, ranking updates.
// The submission path never waits on these and never sees their errors.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Task is one unit of background work. Name shows up in logs only.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue is a bounded background worker pool. Enqueue never blocks: when
// the buffer is full the task is dropped with a warning, which is the
// backpressure policy for advisory work.
type Queue struct {
	ch      chan Task
	group   *errgroup.Group
	cancel  context.CancelFunc
	log     *zap.SugaredLogger
	timeout time.Duration

	closeOnce sync.Once
}

// NewQueue starts workers draining a buffer of the given size. Each task
// runs under its own deadline so one stuck task cannot stall a worker
// forever.
func NewQueue(workers, buffer int, taskTimeout time.Duration, log *zap.SugaredLogger) *Queue {
	if workers <= 0 {
		workers = 2
	}
	if buffer <= 0 {
		buffer = 64
	}
	if taskTimeout <= 0 {
		taskTimeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	q := &Queue{
		ch:      make(chan Task, buffer),
		group:   g,
		cancel:  cancel,
		log:     log,
		timeout: taskTimeout,
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			q.work(ctx)
			return nil
		})
	}
	return q
}

func (q *Queue) work(ctx context.Context) {
	for task := range q.ch {
		q.run(ctx, task)
	}
}

func (q *Queue) run(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Errorw("background task panicked", "task", task.Name, "panic", fmt.Sprint(r))
		}
	}()

	taskCtx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	if err := task.Run(taskCtx); err != nil {
		// Logged and swallowed. Background failures never become
		// user-facing errors and are never retried here.
		q.log.Warnw("background task failed", "task", task.Name, "error", err)
		return
	}
	q.log.Debugw("background task done", "task", task.Name)
}

// Enqueue submits a task without blocking. Returns false if the task was
// dropped because the buffer is full or the queue is closed.
func (q *Queue) Enqueue(task Task) bool {
	if task.Run == nil {
		return false
	}
	defer func() {
		// Enqueue after Close sends on a closed channel.
		if recover() != nil {
			q.log.Warnw("task enqueued after close, dropped", "task", task.Name)
		}
	}()
	select {
	case q.ch <- task:
		return true
	default:
		q.log.Warnw("task queue full, dropping", "task", task.Name)
		return false
	}
}

// Close stops accepting tasks, drains the buffer, and waits for in-flight
// work to finish.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.ch)
		_ = q.group.Wait()
		q.cancel()
	})
}
