package vectorize

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akryukov/doc-vectorizer/internal/core/domain"
	"github.com/akryukov/doc-vectorizer/internal/core/ports"
)

const (
	DefaultMaxWorkers  = 2
	DefaultBatchSize   = 5
	DefaultStopTimeout = 5 * time.Second
)

// ProgressCallback observes task state changes. Callbacks run synchronously
// in the worker's goroutine and must not block; panics are logged and
// swallowed.
type ProgressCallback func(domain.TaskSnapshot)

type Config struct {
	MaxWorkers  int
	BatchSize   int
	StopTimeout time.Duration
}

func (c Config) normalize() Config {
	out := c
	if out.MaxWorkers <= 0 {
		out.MaxWorkers = DefaultMaxWorkers
	}
	if out.BatchSize <= 0 {
		out.BatchSize = DefaultBatchSize
	}
	if out.StopTimeout <= 0 {
		out.StopTimeout = DefaultStopTimeout
	}
	return out
}

// Queue accepts vectorization jobs and drives them through content reading,
// chunking, embedding and persistence on a fixed pool of workers. One mutex
// guards the task registry, the pending list and the callback set; callers
// only ever receive snapshot copies.
type Queue struct {
	cfg Config
	log *slog.Logger

	reader   ports.ContentReader
	chunker  ports.Chunker
	embedder ports.Embedder
	files    ports.FileStore
	docs     ports.DocumentStore

	mu        sync.Mutex
	cond      *sync.Cond
	running   bool
	pending   []*domain.VectorizeTask
	tasks     map[string]*domain.VectorizeTask
	callbacks []ProgressCallback
	wg        sync.WaitGroup
}

func NewQueue(
	cfg Config,
	reader ports.ContentReader,
	chunker ports.Chunker,
	embedder ports.Embedder,
	files ports.FileStore,
	docs ports.DocumentStore,
	log *slog.Logger,
) *Queue {
	if log == nil {
		log = slog.Default()
	}
	q := &Queue{
		cfg:      cfg.normalize(),
		log:      log,
		reader:   reader,
		chunker:  chunker,
		embedder: embedder,
		files:    files,
		docs:     docs,
		tasks:    make(map[string]*domain.VectorizeTask),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// AddTask registers a new pending task and enqueues it for processing. It
// never blocks: the task waits in the queue until a worker is free.
func (q *Queue) AddTask(file domain.TaskFile) string {
	taskID := uuid.NewString()
	task := domain.NewVectorizeTask(taskID, file)

	q.mu.Lock()
	q.tasks[taskID] = task
	q.pending = append(q.pending, task)
	q.cond.Signal()
	q.mu.Unlock()

	q.log.Info("vectorize task added", "task_id", taskID, "file", file.OriginalName)
	return taskID
}

// TaskStatus returns a snapshot of the task, or false when unknown.
func (q *Queue) TaskStatus(taskID string) (domain.TaskSnapshot, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	task, ok := q.tasks[taskID]
	if !ok {
		return domain.TaskSnapshot{}, false
	}
	return task.Snapshot(), true
}

// AllTasks returns snapshots of every registered task keyed by task id.
func (q *Queue) AllTasks() map[string]domain.TaskSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[string]domain.TaskSnapshot, len(q.tasks))
	for id, task := range q.tasks {
		out[id] = task.Snapshot()
	}
	return out
}

func (q *Queue) AddProgressCallback(cb ProgressCallback) {
	if cb == nil {
		return
	}
	q.mu.Lock()
	q.callbacks = append(q.callbacks, cb)
	q.mu.Unlock()
}

// Start spawns the worker pool. Calling Start on a running queue is a no-op.
func (q *Queue) Start() {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		q.log.Warn("vectorize queue already running")
		return
	}
	q.running = true
	for i := 0; i < q.cfg.MaxWorkers; i++ {
		q.wg.Add(1)
		go q.worker(i + 1)
	}
	q.mu.Unlock()

	q.log.Info("vectorize queue started", "max_workers", q.cfg.MaxWorkers)
}

// Stop signals workers to exit after their current task and waits for them,
// bounded by the configured stop timeout. In-flight tasks are never
// interrupted; workers that outlive the timeout are abandoned, not killed.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cond.Broadcast()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.log.Info("vectorize queue stopped")
	case <-time.After(q.cfg.StopTimeout):
		q.log.Warn("vectorize queue stop timed out, abandoning workers", "timeout", q.cfg.StopTimeout)
	}
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	log := q.log.With("worker", fmt.Sprintf("vectorize-worker-%d", id))
	log.Info("worker started")

	for {
		task := q.next()
		if task == nil {
			break
		}
		log.Info("worker picked task", "task_id", task.ID)
		q.runTask(task, log)
	}

	log.Info("worker stopped")
}

// next blocks until a task is available or the queue is stopped. Each task
// is handed out exactly once.
func (q *Queue) next() *domain.VectorizeTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.running && len(q.pending) == 0 {
		q.cond.Wait()
	}
	if !q.running {
		return nil
	}
	task := q.pending[0]
	q.pending = q.pending[1:]
	return task
}

// runTask shields the worker loop: a panicking task must not kill the
// worker goroutine.
func (q *Queue) runTask(task *domain.VectorizeTask, log *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("task processing panicked", "task_id", task.ID, "panic", r)
		}
	}()
	q.processTask(task, log)
}

// notify invokes the given callbacks outside the queue lock, isolating each
// one: a misbehaving observer is logged and skipped, never propagated.
func (q *Queue) notify(callbacks []ProgressCallback, snap domain.TaskSnapshot) {
	for _, cb := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					q.log.Error("progress callback panicked", "task_id", snap.TaskID, "panic", r)
				}
			}()
			cb(snap)
		}()
	}
}

// mutate applies fn to the task under the queue lock and notifies observers
// with the resulting snapshot.
func (q *Queue) mutate(task *domain.VectorizeTask, fn func(*domain.VectorizeTask)) {
	q.mu.Lock()
	fn(task)
	snap := task.Snapshot()
	callbacks := make([]ProgressCallback, len(q.callbacks))
	copy(callbacks, q.callbacks)
	q.mu.Unlock()

	q.notify(callbacks, snap)
}
