package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Notification is a message addressed to a user. Notifications are created
// by the system when someone answers the recipient's question.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	AnswerID  uuid.UUID `json:"answer_id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAnswerNotification builds the notification telling recipientID that
// authorName answered their question.
func NewAnswerNotification(recipientID, answerID uuid.UUID, authorName string) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    recipientID,
		AnswerID:  answerID,
		Message:   AnswerNotificationMessage(authorName),
		CreatedAt: time.Now().UTC(),
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	return n, nil
}

// AnswerNotificationMessage is the text sent to a question owner.
func AnswerNotificationMessage(authorName string) string {
	return fmt.Sprintf("%s answered your question.", authorName)
}

// Validate checks that the Notification has valid data.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if n.UserID == uuid.Nil {
		return NewValidationError("user_id", "cannot be empty", ErrInvalidID)
	}
	if n.AnswerID == uuid.Nil {
		return NewValidationError("answer_id", "cannot be empty", ErrInvalidID)
	}
	if n.Message == "" {
		return NewValidationError("message", "cannot be empty", ErrEmptyContent)
	}
	return nil
}
