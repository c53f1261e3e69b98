package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/platform/logger"
	"github.com/phrazzld/answers-api/internal/store"
	"github.com/phrazzld/answers-api/internal/task"
)

// PostgresTaskStore implements task.TaskStore on PostgreSQL.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgresTaskStore
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements task.TaskStore interface
var _ task.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements task.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) task.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// SaveTask persists a task to the database
func (s *PostgresTaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO tasks (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query, t.ID(), t.Type(), t.Payload(), string(t.Status()), now)
	if err != nil {
		log.Error("failed to save task",
			"task_id", t.ID(),
			"task_type", t.Type(),
			"error", err)
		return fmt.Errorf("failed to save task to database: %w", MapError(err))
	}

	return nil
}

// UpdateTaskStatus updates the status of a task in the database. Updating
// a task that no longer exists is a no-op.
func (s *PostgresTaskStore) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status task.TaskStatus, errorMsg string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $1, error_message = NULLIF($2, ''), updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, string(status), errorMsg, time.Now().UTC(), taskID)
	if err != nil {
		log.Error("failed to update task status",
			"task_id", taskID,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update task status: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		log.Warn("no task found with ID to update status", "task_id", taskID)
	}
	return nil
}

// ClaimTask moves a pending task to "processing". The status check and the
// update are one statement, so two workers cannot both claim a task.
func (s *PostgresTaskStore) ClaimTask(ctx context.Context, taskID uuid.UUID) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := s.db.ExecContext(ctx, query,
		string(task.TaskStatusProcessing), time.Now().UTC(), taskID, string(task.TaskStatusPending))
	if err != nil {
		log.Error("failed to claim task",
			"task_id", taskID,
			"error", err)
		return false, fmt.Errorf("failed to claim task: %w", MapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check claimed rows: %w", err)
	}
	return rows == 1, nil
}

// GetPendingTasks retrieves tasks with "pending" status
func (s *PostgresTaskStore) GetPendingTasks(ctx context.Context, olderThan time.Duration) ([]task.Record, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusPending, olderThan)
}

// GetProcessingTasks retrieves tasks with "processing" status
func (s *PostgresTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]task.Record, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusProcessing, olderThan)
}

func (s *PostgresTaskStore) getTasksByStatus(ctx context.Context, status task.TaskStatus, olderThan time.Duration) ([]task.Record, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, type, payload, status, error_message, created_at, updated_at
		FROM tasks
		WHERE status = $1
	`
	args := []any{string(status)}
	if olderThan > 0 {
		query += ` AND updated_at < $2`
		args = append(args, time.Now().UTC().Add(-olderThan))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by status",
			"status", status,
			"error", err)
		return nil, fmt.Errorf("failed to query tasks by status: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var records []task.Record
	for rows.Next() {
		var rec task.Record
		var recStatus string
		var errorMessage sql.NullString

		if err := rows.Scan(&rec.ID, &rec.Type, &rec.Payload, &recStatus, &errorMessage, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			log.Error("failed to scan task row",
				"status", status,
				"error", err)
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		rec.Status = task.TaskStatus(recStatus)
		rec.ErrorMessage = errorMessage.String
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows",
			"status", status,
			"error", err)
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return records, nil
}
