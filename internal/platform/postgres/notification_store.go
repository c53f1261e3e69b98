package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/platform/logger"
	"github.com/phrazzld/answers-api/internal/store"
)

// PostgresNotificationStore implements store.NotificationStore on PostgreSQL.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a PostgresNotificationStore.
func NewPostgresNotificationStore(db store.DBTX, logger *slog.Logger) *PostgresNotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// WithTx implements store.NotificationStore.WithTx
func (s *PostgresNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return &PostgresNotificationStore{db: tx, logger: s.logger}
}

// CreateForAnswer implements store.NotificationStore.CreateForAnswer
func (s *PostgresNotificationStore) CreateForAnswer(ctx context.Context, n *domain.Notification) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := n.Validate(); err != nil {
		return false, err
	}

	query := `
		INSERT INTO notifications (id, user_id, answer_id, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (answer_id) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query, n.ID, n.UserID, n.AnswerID, n.Message, n.Read, n.CreatedAt)
	if err != nil {
		if IsForeignKeyViolation(err, "") {
			return false, fmt.Errorf("%w: notification references missing user or answer", store.ErrInvalidEntity)
		}
		log.Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.String("answer_id", n.AnswerID.String()))
		return false, MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		log.Debug("notification for answer already exists", slog.String("answer_id", n.AnswerID.String()))
		return false, nil
	}

	log.Info("notification created",
		slog.String("notification_id", n.ID.String()),
		slog.String("user_id", n.UserID.String()))
	return true, nil
}

// ListByUser implements store.NotificationStore.ListByUser
func (s *PostgresNotificationStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, answer_id, message, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list notifications",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	notifications := make([]*domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		var answerID uuid.NullUUID
		if err := rows.Scan(&n.ID, &n.UserID, &answerID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		n.AnswerID = answerID.UUID
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return notifications, nil
}

// MarkRead implements store.NotificationStore.MarkRead
func (s *PostgresNotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`
	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		log.Error("failed to mark notification read",
			slog.String("error", err.Error()),
			slog.String("notification_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrNotificationNotFound)
}
