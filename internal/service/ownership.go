package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/store"
)

// OwnershipChecker answers who owns a question and which question an answer
// belongs to. Every ownership decision in the service goes through it.
type OwnershipChecker interface {
	// IsOwner reports whether userID authored q.
	IsOwner(q *domain.Question, userID uuid.UUID) bool

	// ParentQuestion returns the question answer a belongs to.
	ParentQuestion(ctx context.Context, a *domain.Answer) (*domain.Question, error)
}

// Ownership is the store-backed OwnershipChecker.
type Ownership struct {
	questions store.QuestionStore
}

var _ OwnershipChecker = (*Ownership)(nil)

// NewOwnership creates an Ownership reading questions from questions.
func NewOwnership(questions store.QuestionStore) *Ownership {
	return &Ownership{questions: questions}
}

// IsOwner implements OwnershipChecker.
func (o *Ownership) IsOwner(q *domain.Question, userID uuid.UUID) bool {
	return q.IsOwnedBy(userID)
}

// ParentQuestion implements OwnershipChecker.
func (o *Ownership) ParentQuestion(ctx context.Context, a *domain.Answer) (*domain.Question, error) {
	if a == nil {
		return nil, ErrNotFound
	}
	q, err := o.questions.GetByID(ctx, a.QuestionID)
	if err != nil {
		return nil, translateStoreError("ownership", "parent_question", err)
	}
	return q, nil
}
