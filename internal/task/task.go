package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task type constants
const (
	// TaskTypeNotifyAnswer tells a question owner that their question was answered.
	TaskTypeNotifyAnswer = "notify_answer"
)

// ErrUnknownTaskType is returned when a stored task has no registered factory.
var ErrUnknownTaskType = errors.New("unknown task type")

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Payload returns the task data as a byte slice
	Payload() []byte

	// Status returns the current task status
	Status() TaskStatus

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// Record is a task as persisted by a TaskStore.
type Record struct {
	ID           uuid.UUID
	Type         string
	Payload      []byte
	Status       TaskStatus
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaskStore defines the interface for persisting tasks
type TaskStore interface {
	// SaveTask persists a task to the database
	SaveTask(ctx context.Context, task Task) error

	// UpdateTaskStatus updates the status of a task
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error

	// ClaimTask moves a pending task to "processing". It reports false when
	// the task is no longer pending, for example because it already ran.
	ClaimTask(ctx context.Context, taskID uuid.UUID) (bool, error)

	// GetPendingTasks retrieves tasks with "pending" status.
	// If olderThan is non-zero, only tasks that have been in this state
	// longer than the given duration are returned.
	GetPendingTasks(ctx context.Context, olderThan time.Duration) ([]Record, error)

	// GetProcessingTasks retrieves tasks with "processing" status.
	// If olderThan is non-zero, only tasks that have been in this state
	// longer than the given duration are returned.
	GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Record, error)

	// WithTx returns a TaskStore bound to tx.
	WithTx(tx *sql.Tx) TaskStore
}

// Factory rebuilds an executable Task from its stored record.
type Factory func(rec Record) (Task, error)

// Registry maps task types to the factories that rebuild them.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register associates taskType with f, replacing any earlier factory.
func (r *Registry) Register(taskType string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[taskType] = f
}

// Build rebuilds rec using the factory registered for its type.
func (r *Registry) Build(rec Record) (Task, error) {
	r.mu.RLock()
	f, ok := r.factories[rec.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, rec.Type)
	}
	return f(rec)
}
