package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// AnswerNotificationDeliverer creates the notification for a newly created answer.
// Implementations must be idempotent per answer: a retried task must not
// produce a second notification.
type AnswerNotificationDeliverer interface {
	DeliverAnswerNotification(ctx context.Context, answerID uuid.UUID) error
}

// notifyAnswerNamespace scopes task IDs derived from answer IDs.
var notifyAnswerNamespace = uuid.MustParse("b3a4f0d2-5c1e-4e8b-9a67-2f0d8c9e1a45")

// NotifyAnswerTaskID returns the ID of the notify_answer task for answerID.
// There is one such task per answer, so the ID is derived rather than random.
func NotifyAnswerTaskID(answerID uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(notifyAnswerNamespace, answerID[:])
}

// notifyAnswerPayload is the JSON stored in the tasks table.
type notifyAnswerPayload struct {
	AnswerID uuid.UUID `json:"answer_id"`
}

// NotifyAnswerTask notifies a question owner that an answer was posted.
type NotifyAnswerTask struct {
	id        uuid.UUID
	answerID  uuid.UUID
	status    TaskStatus
	deliverer AnswerNotificationDeliverer
}

var _ Task = (*NotifyAnswerTask)(nil)

// NewNotifyAnswerTask creates a pending task for answerID.
func NewNotifyAnswerTask(answerID uuid.UUID, deliverer AnswerNotificationDeliverer) (*NotifyAnswerTask, error) {
	if answerID == uuid.Nil {
		return nil, errors.New("answer ID cannot be nil")
	}
	if deliverer == nil {
		return nil, errors.New("deliverer cannot be nil")
	}

	return &NotifyAnswerTask{
		id:        NotifyAnswerTaskID(answerID),
		answerID:  answerID,
		status:    TaskStatusPending,
		deliverer: deliverer,
	}, nil
}

// NewNotifyAnswerFactory returns a Factory that rebuilds notify_answer
// tasks loaded from the store.
func NewNotifyAnswerFactory(deliverer AnswerNotificationDeliverer) Factory {
	return func(rec Record) (Task, error) {
		var p notifyAnswerPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", TaskTypeNotifyAnswer, err)
		}
		if p.AnswerID == uuid.Nil {
			return nil, fmt.Errorf("invalid %s payload: missing answer_id", TaskTypeNotifyAnswer)
		}

		return &NotifyAnswerTask{
			id:        rec.ID,
			answerID:  p.AnswerID,
			status:    rec.Status,
			deliverer: deliverer,
		}, nil
	}
}

// ID returns the task's unique identifier
func (t *NotifyAnswerTask) ID() uuid.UUID { return t.id }

// Type returns TaskTypeNotifyAnswer
func (t *NotifyAnswerTask) Type() string { return TaskTypeNotifyAnswer }

// AnswerID returns the answer the notification is about.
func (t *NotifyAnswerTask) AnswerID() uuid.UUID { return t.answerID }

// Status returns the status the task was created or loaded with.
func (t *NotifyAnswerTask) Status() TaskStatus { return t.status }

// Payload returns the JSON-encoded answer reference.
func (t *NotifyAnswerTask) Payload() []byte {
	// Marshalling a struct of a single UUID cannot fail.
	b, _ := json.Marshal(notifyAnswerPayload{AnswerID: t.answerID})
	return b
}

// Execute delivers the notification.
func (t *NotifyAnswerTask) Execute(ctx context.Context) error {
	if err := t.deliverer.DeliverAnswerNotification(ctx, t.answerID); err != nil {
		return fmt.Errorf("notify answer %s: %w", t.answerID, err)
	}
	return nil
}
