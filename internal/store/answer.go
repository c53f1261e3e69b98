package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
)

// AnswerStore defines the interface for answer persistence.
type AnswerStore interface {
	// Create saves a new answer.
	// Returns ErrQuestionNotFound if the parent question does not exist.
	Create(ctx context.Context, a *domain.Answer) error

	// GetByID retrieves an answer by ID.
	// Returns ErrAnswerNotFound if the answer does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Answer, error)

	// ListByQuestion returns the answers to a question, oldest first.
	ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]*domain.Answer, error)

	// ClearAccepted marks every answer of questionID as not accepted.
	ClearAccepted(ctx context.Context, questionID uuid.UUID) error

	// SetAccepted marks one answer as accepted.
	// Returns ErrAnswerNotFound if the answer does not exist.
	//
	// Callers must run ClearAccepted first in the same transaction, with the
	// parent question locked, or the single-accepted-answer constraint
	// rejects the update.
	SetAccepted(ctx context.Context, id uuid.UUID) error

	// WithTx returns an AnswerStore bound to tx.
	WithTx(tx *sql.Tx) AnswerStore
}
