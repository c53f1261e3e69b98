package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// storeTimeout bounds status bookkeeping done outside a request.
const storeTimeout = 10 * time.Second

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// StuckTaskAge defines how long a task can be in processing state
	// before it's considered stuck and reset
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks.
	// If zero, defaults to 5 minutes.
	StuckTaskCheckInterval time.Duration

	// PendingTaskAge is how long a task may sit in pending state without
	// being queued before the sweep picks it up. If zero, defaults to 1 minute.
	PendingTaskAge time.Duration

	// PendingSweepInterval defines how often pending tasks are swept.
	// If zero, defaults to 30 seconds.
	PendingSweepInterval time.Duration

	// TaskTimeout bounds a single execution of a task.
	// If zero, defaults to 30 seconds.
	TaskTimeout time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
		PendingTaskAge:         time.Minute,
		PendingSweepInterval:   30 * time.Second,
		TaskTimeout:            30 * time.Second,
	}
}

// TaskRunner saves tasks and executes them on a pool of workers.
type TaskRunner struct {
	store      TaskStore
	registry   *Registry
	queue      *TaskQueue
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopOnce   sync.Once
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)

	// inflight holds tasks that are queued or executing in this process.
	inflightMu sync.Mutex
	inflight   map[uuid.UUID]struct{}
}

// NewTaskRunner creates a new TaskRunner. The registry is used to rebuild
// tasks loaded back from the store.
func NewTaskRunner(store TaskStore, registry *Registry, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}
	if config.PendingTaskAge == 0 {
		config.PendingTaskAge = time.Minute
	}
	if config.PendingSweepInterval == 0 {
		config.PendingSweepInterval = 30 * time.Second
	}
	if config.TaskTimeout == 0 {
		config.TaskTimeout = 30 * time.Second
	}
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
		config.WorkerCount = 1
	}
	if registry == nil {
		registry = NewRegistry()
	}

	ctx, cancel := context.WithCancel(context.Background())
	logger = logger.With(slog.String("component", "task_runner"))

	return &TaskRunner{
		store:      store,
		registry:   registry,
		queue:      NewTaskQueue(config.QueueSize, logger),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
		inflight:   make(map[uuid.UUID]struct{}),
		errHandler: func(task Task, err error) {
			logger.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
	}
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// QueueLen reports how many tasks are waiting for a worker.
func (r *TaskRunner) QueueLen() int {
	return r.queue.Len()
}

// Save persists task without queueing it. When tx is non-nil the row is
// written inside that transaction, so it commits or rolls back with the
// work that produced it. Call Enqueue after the commit.
func (r *TaskRunner) Save(ctx context.Context, tx *sql.Tx, task Task) error {
	s := r.store
	if tx != nil {
		s = s.WithTx(tx)
	}
	if err := s.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// Enqueue queues a saved task for execution without blocking. A task that
// cannot be queued stays pending in the store and is queued by the pending
// sweep once there is room.
func (r *TaskRunner) Enqueue(task Task) error {
	if err := r.enqueue(task); err != nil {
		return fmt.Errorf("failed to queue task %s: %w", task.ID(), err)
	}
	return nil
}

// Start begins processing and queues tasks left unfinished by an earlier
// run. The backlog is queued in the background as workers make room, so it
// may be larger than QueueSize.
func (r *TaskRunner) Start() error {
	backlog, err := r.unfinished(r.ctx)
	if err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(2)
	go r.monitor()
	go func() {
		defer r.wg.Done()
		r.requeueAll(r.ctx, backlog)
	}()

	return nil
}

// Stop gracefully shuts down the task runner. Tasks already executing are
// allowed to finish.
func (r *TaskRunner) Stop() {
	r.stopOnce.Do(func() {
		r.cancelFunc()
		r.wg.Wait()
		r.queue.Close()
	})
}

// unfinished returns pending tasks and tasks interrupted in processing
// state. Interrupted tasks are reset to pending first. Tasks the backlog
// loop does not queue stay pending for the sweep.
func (r *TaskRunner) unfinished(ctx context.Context) ([]Record, error) {
	pending, err := r.store.GetPendingTasks(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending tasks: %w", err)
	}

	processing, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pending),
		"processing_count", len(processing))

	for _, rec := range processing {
		if err := r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusPending, "Reset after recovery"); err != nil {
			r.logger.Error("failed to reset processing task status",
				"task_id", rec.ID,
				"task_type", rec.Type,
				"error", err)
			continue
		}
		pending = append(pending, rec)
	}

	return pending, nil
}

func (r *TaskRunner) requeueAll(ctx context.Context, recs []Record) {
	for i, rec := range recs {
		if err := r.requeue(ctx, rec, true); err != nil {
			r.logger.Warn("stopped requeueing recovered tasks",
				"remaining", len(recs)-i,
				"error", err)
			return
		}
	}
}

// requeue rebuilds rec and queues it, waiting for space when wait is set.
// Records that cannot be rebuilt are marked failed so they are not retried
// forever.
func (r *TaskRunner) requeue(ctx context.Context, rec Record, wait bool) error {
	task, err := r.registry.Build(rec)
	if err != nil {
		r.logger.Error("failed to rebuild stored task",
			"task_id", rec.ID,
			"task_type", rec.Type,
			"error", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusFailed, err.Error()); updateErr != nil {
			r.logger.Error("failed to mark unbuildable task as failed",
				"task_id", rec.ID,
				"error", updateErr)
		}
		return nil
	}

	if wait {
		return r.enqueueWait(ctx, task)
	}
	return r.enqueue(task)
}

// enqueue queues task unless it is already queued or executing here.
func (r *TaskRunner) enqueue(task Task) error {
	if !r.track(task.ID()) {
		return nil
	}
	if err := r.queue.Enqueue(task); err != nil {
		r.release(task.ID())
		return err
	}
	return nil
}

// enqueueWait is enqueue that waits for queue space. It gives up when
// ctx is done or the runner stops.
func (r *TaskRunner) enqueueWait(ctx context.Context, task Task) error {
	if !r.track(task.ID()) {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(r.ctx, cancel)
	defer stop()

	if err := r.queue.EnqueueWait(ctx, task); err != nil {
		r.release(task.ID())
		return err
	}
	return nil
}

func (r *TaskRunner) track(id uuid.UUID) bool {
	r.inflightMu.Lock()
	defer r.inflightMu.Unlock()
	if _, ok := r.inflight[id]; ok {
		return false
	}
	r.inflight[id] = struct{}{}
	return true
}

func (r *TaskRunner) release(id uuid.UUID) {
	r.inflightMu.Lock()
	defer r.inflightMu.Unlock()
	delete(r.inflight, id)
}

func (r *TaskRunner) isInflight(id uuid.UUID) bool {
	r.inflightMu.Lock()
	defer r.inflightMu.Unlock()
	_, ok := r.inflight[id]
	return ok
}

// worker processes tasks from the queue
func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	tasks := r.queue.GetChannel()
	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-tasks:
			if !ok {
				r.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}
			r.processTask(task, id)
		}
	}
}

// processTask claims and executes a single task. Execution is detached
// from r.ctx so that Stop does not abort a task halfway, and is bounded by
// TaskTimeout instead.
func (r *TaskRunner) processTask(task Task, workerID int) {
	defer r.release(task.ID())

	logger := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	storeCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	claimed, err := r.store.ClaimTask(storeCtx, task.ID())
	cancel()
	if err != nil {
		logger.Error("failed to claim task", "error", err)
		return
	}
	if !claimed {
		logger.Debug("task is no longer pending, skipping")
		return
	}

	logger.Info("processing task")

	execCtx, cancel := context.WithTimeout(context.Background(), r.config.TaskTimeout)
	err = r.execute(execCtx, task)
	cancel()

	storeCtx, cancel = context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err != nil {
		logger.Error("task execution failed", "error", err)
		if updateErr := r.store.UpdateTaskStatus(storeCtx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			logger.Error("failed to update task status to failed", "error", updateErr)
		}
		r.errHandler(task, err)
		return
	}

	logger.Info("task completed successfully")
	if updateErr := r.store.UpdateTaskStatus(storeCtx, task.ID(), TaskStatusCompleted, ""); updateErr != nil {
		logger.Error("failed to update task status to completed", "error", updateErr)
	}
}

// execute runs task, converting a panic into an error so one bad task
// cannot take down its worker.
func (r *TaskRunner) execute(ctx context.Context, task Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	if task == nil {
		return errors.New("nil task")
	}
	return task.Execute(ctx)
}

// monitor periodically resets stuck tasks and queues pending tasks that
// were never queued.
func (r *TaskRunner) monitor() {
	defer r.wg.Done()

	stuck := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer stuck.Stop()
	pending := time.NewTicker(r.config.PendingSweepInterval)
	defer pending.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-stuck.C:
			r.resetStuckTasks(r.ctx)

		case <-pending.C:
			r.sweepPending(r.ctx)
		}
	}
}

func (r *TaskRunner) resetStuckTasks(ctx context.Context) {
	stuck, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
	if err != nil {
		r.logger.Error("failed to check for stuck tasks", "error", err)
		return
	}
	if len(stuck) == 0 {
		return
	}

	r.logger.Info("found stuck tasks", "count", len(stuck))

	for _, rec := range stuck {
		if err := r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusPending,
			"Reset after being stuck in processing state"); err != nil {
			r.logger.Error("failed to reset stuck task status",
				"task_id", rec.ID,
				"task_type", rec.Type,
				"error", err)
			continue
		}
		if err := r.requeue(ctx, rec, false); err != nil {
			r.logger.Warn("stuck task left pending for the next sweep",
				"task_id", rec.ID,
				"error", err)
		}
	}
}

// sweepPending queues pending tasks older than PendingTaskAge that are not
// already queued here. It stops at the first full queue; the rest wait for
// the next sweep.
func (r *TaskRunner) sweepPending(ctx context.Context) {
	pending, err := r.store.GetPendingTasks(ctx, r.config.PendingTaskAge)
	if err != nil {
		r.logger.Error("failed to check for pending tasks", "error", err)
		return
	}

	queued := 0
	for _, rec := range pending {
		if r.isInflight(rec.ID) {
			continue
		}
		if err := r.requeue(ctx, rec, false); err != nil {
			r.logger.Debug("pending sweep stopped early", "queued", queued, "error", err)
			break
		}
		queued++
	}

	if queued > 0 {
		r.logger.Info("queued pending tasks", "count", queued)
	}
}
