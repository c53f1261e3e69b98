package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
)

// NotificationStore defines the interface for notification persistence.
type NotificationStore interface {
	// CreateForAnswer saves n. At most one notification exists per answer;
	// a second call for the same answer is a no-op and reports false.
	CreateForAnswer(ctx context.Context, n *domain.Notification) (bool, error)

	// ListByUser returns the user's notifications, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)

	// MarkRead flags a notification owned by userID as read.
	// Returns ErrNotificationNotFound if no such notification belongs to the user.
	MarkRead(ctx context.Context, id, userID uuid.UUID) error

	// WithTx returns a NotificationStore bound to tx.
	WithTx(tx *sql.Tx) NotificationStore
}
