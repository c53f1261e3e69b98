package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/store"
	"github.com/phrazzld/answers-api/internal/task"
)

// TaskSubmitter saves background tasks and queues them for asynchronous
// execution.
type TaskSubmitter interface {
	// Save persists t, inside tx when tx is non-nil.
	Save(ctx context.Context, tx *sql.Tx, t task.Task) error

	// Enqueue queues a saved task. A task that cannot be queued stays
	// pending and is picked up later.
	Enqueue(t task.Task) error
}

// NotificationService lists and updates a user's notifications.
type NotificationService interface {
	ListNotifications(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
}

// Notifier creates notifications for question authors when their questions
// are answered. Delivery happens in a background task so the answering
// request never waits for it and never sees its failures.
type Notifier struct {
	submitter     TaskSubmitter
	answers       store.AnswerStore
	users         store.UserStore
	notifications store.NotificationStore
	ownership     OwnershipChecker
	recorder      Recorder
	logger        *slog.Logger
}

var (
	_ AnswerListener                   = (*Notifier)(nil)
	_ NotificationService              = (*Notifier)(nil)
	_ task.AnswerNotificationDeliverer = (*Notifier)(nil)
)

// NewNotifier creates a Notifier.
func NewNotifier(
	submitter TaskSubmitter,
	answers store.AnswerStore,
	users store.UserStore,
	notifications store.NotificationStore,
	ownership OwnershipChecker,
	recorder Recorder,
	logger *slog.Logger,
) (*Notifier, error) {
	if submitter == nil {
		return nil, domain.NewValidationError("submitter", "cannot be nil", domain.ErrValidation)
	}
	if answers == nil {
		return nil, domain.NewValidationError("answers", "cannot be nil", domain.ErrValidation)
	}
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if notifications == nil {
		return nil, domain.NewValidationError("notifications", "cannot be nil", domain.ErrValidation)
	}
	if ownership == nil {
		return nil, domain.NewValidationError("ownership", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Notifier{
		submitter:     submitter,
		answers:       answers,
		users:         users,
		notifications: notifications,
		ownership:     ownership,
		recorder:      recorderOrNop(recorder),
		logger:        logger.With(slog.String("component", "notifier")),
	}, nil
}

// AnswerCreating saves the notification task in the answer's transaction,
// so the task exists exactly when the answer does. The insert runs under a
// savepoint: when it fails the answer is still created, without a
// notification.
func (n *Notifier) AnswerCreating(ctx context.Context, tx *sql.Tx, answer *domain.Answer) {
	t := n.notifyTask(answer)
	if t == nil {
		return
	}

	err := store.WithSavepoint(ctx, tx, "notify_answer_task", func() error {
		return n.submitter.Save(ctx, tx, t)
	})
	if err != nil {
		n.logger.Error("failed to save notification task",
			slog.String("error", err.Error()),
			slog.String("answer_id", answer.ID.String()),
			slog.String("task_id", t.ID().String()))
	}
}

// OnAnswerCreated queues the task AnswerCreating saved. It runs once the
// answer is committed. Errors are logged, not returned: the answer already
// exists and stays, and an unqueued task is retried by the runner's sweep.
func (n *Notifier) OnAnswerCreated(_ context.Context, answer *domain.Answer) {
	t := n.notifyTask(answer)
	if t == nil {
		return
	}

	if err := n.submitter.Enqueue(t); err != nil {
		n.logger.Warn("notification task left pending",
			slog.String("error", err.Error()),
			slog.String("answer_id", answer.ID.String()),
			slog.String("task_id", t.ID().String()))
		return
	}

	n.logger.Debug("notification task queued",
		slog.String("answer_id", answer.ID.String()),
		slog.String("task_id", t.ID().String()))
}

func (n *Notifier) notifyTask(answer *domain.Answer) *task.NotifyAnswerTask {
	if answer == nil {
		return nil
	}
	t, err := task.NewNotifyAnswerTask(answer.ID, n)
	if err != nil {
		n.logger.Error("failed to build notification task",
			slog.String("error", err.Error()),
			slog.String("answer_id", answer.ID.String()))
		return nil
	}
	return t
}

// DeliverAnswerNotification notifies the author of the question answerID
// belongs to, unless they wrote the answer themselves. Delivering the same
// answer twice creates one notification.
func (n *Notifier) DeliverAnswerNotification(ctx context.Context, answerID uuid.UUID) error {
	answer, err := n.answers.GetByID(ctx, answerID)
	if err != nil {
		return translateStoreError("notifier", "deliver", err)
	}

	question, err := n.ownership.ParentQuestion(ctx, answer)
	if err != nil {
		return err
	}

	if n.ownership.IsOwner(question, answer.AuthorID) {
		n.logger.Debug("skipping notification for self-answer",
			slog.String("answer_id", answerID.String()),
			slog.String("question_id", question.ID.String()))
		return nil
	}

	author, err := n.users.GetByID(ctx, answer.AuthorID)
	if err != nil {
		return translateStoreError("notifier", "deliver", err)
	}

	notification, err := domain.NewAnswerNotification(question.AuthorID, answer.ID, author.Username)
	if err != nil {
		return err
	}

	created, err := n.notifications.CreateForAnswer(ctx, notification)
	if err != nil {
		return translateStoreError("notifier", "deliver", err)
	}
	if !created {
		n.logger.Debug("notification already delivered",
			slog.String("answer_id", answerID.String()))
		return nil
	}

	n.recorder.NotificationCreated()
	n.logger.Info("notification created",
		slog.String("notification_id", notification.ID.String()),
		slog.String("recipient_id", question.AuthorID.String()),
		slog.String("answer_id", answerID.String()))
	return nil
}

// ListNotifications returns userID's notifications, newest first.
func (n *Notifier) ListNotifications(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	list, err := n.notifications.ListByUser(ctx, userID)
	if err != nil {
		return nil, translateStoreError("notifier", "list", err)
	}
	return list, nil
}

// MarkRead marks one of userID's notifications as read. Notifications of
// other users are reported as not found.
func (n *Notifier) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrUnauthorized
	}
	if err := n.notifications.MarkRead(ctx, notificationID, userID); err != nil {
		return translateStoreError("notifier", "mark_read", err)
	}
	return nil
}
