package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
)

// QuestionFilter narrows a question listing.
type QuestionFilter struct {
	// Unanswered restricts the listing to questions with no answers.
	Unanswered bool
}

// QuestionStore defines the interface for question persistence.
type QuestionStore interface {
	// Create saves a new question.
	// Returns ErrInvalidEntity if the author does not exist.
	Create(ctx context.Context, q *domain.Question) error

	// GetByID retrieves a question by ID.
	// Returns ErrQuestionNotFound if the question does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error)

	// GetByIDForUpdate retrieves a question and locks its row until the
	// surrounding transaction ends. Only meaningful on a store bound to a
	// transaction via WithTx.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Question, error)

	// List returns questions newest first.
	List(ctx context.Context, filter QuestionFilter) ([]*domain.Question, error)

	// WithTx returns a QuestionStore bound to tx.
	WithTx(tx *sql.Tx) QuestionStore
}
