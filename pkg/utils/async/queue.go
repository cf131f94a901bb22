package async

import (
	"context"
	"sync"

	"github.com/aide-lab/kairos/pkg/utils/errutil"
	"github.com/aide-lab/kairos/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Task is one unit of deferred work. Key identifies the triggering message
// for logs; at-most-once semantics come from the caller claiming the key in
// the delivery ledger before enqueueing, not from the queue itself.
type Task struct {
	Key string
	Fn  func(ctx context.Context) error
}

// Queue is a bounded task queue drained by a fixed worker pool. Work that
// must not block a request/response cycle goes here; completion is not
// awaited by the enqueuer. Each task gets one retry on failure.
type Queue struct {
	tasks   chan Task
	workers int
	wg      sync.WaitGroup
	once    sync.Once
}

// NewQueue creates a queue drained by the given number of workers
func NewQueue(workers, buffer int) *Queue {
	if workers <= 0 {
		workers = 4
	}
	if buffer <= 0 {
		buffer = 256
	}
	return &Queue{
		tasks:   make(chan Task, buffer),
		workers: workers,
	}
}

// Start launches the worker pool. Workers run until Stop is called and the
// queue drains; ctx only scopes the tasks' execution.
func (q *Queue) Start(ctx context.Context) {
	logging.Default().Info("task queue starting", "workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Stop closes the queue and waits for queued tasks to finish
func (q *Queue) Stop() {
	q.once.Do(func() {
		close(q.tasks)
	})
	q.wg.Wait()
	logging.Default().Info("task queue stopped")
}

// Enqueue adds a task without blocking. Returns false when the queue is
// full; the caller decides whether that is tolerable for its task.
func (q *Queue) Enqueue(task Task) bool {
	select {
	case q.tasks <- task:
		return true
	default:
		logging.Default().Error("task queue full, task dropped", "key", task.Key)
		return false
	}
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()

	for task := range q.tasks {
		q.execute(ctx, task)
	}
}

// execute runs a task with panic containment and a single retry
func (q *Queue) execute(ctx context.Context, task Task) {
	err := q.runOnce(ctx, task)
	if err == nil {
		return
	}

	logging.From(ctx).Warn("task failed, retrying once",
		"key", task.Key, "error", err.Error())

	if err := q.runOnce(ctx, task); err != nil {
		errutil.Handle(ctx, goerr.Wrap(err, "task failed after retry",
			goerr.V("key", task.Key)), "task failed after retry")
	}
}

func (q *Queue) runOnce(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = goerr.New("panic in task", goerr.V("panic", r), goerr.V("key", task.Key))
		}
	}()
	return task.Fn(ctx)
}
