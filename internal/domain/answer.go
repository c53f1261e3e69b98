package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Answer is a reply to a Question. At most one answer per question is
// accepted at any time.
type Answer struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Content    string    `json:"content"`
	AuthorID   uuid.UUID `json:"author_id"`
	CreatedAt  time.Time `json:"created_at"`
	Accepted   bool      `json:"accepted"`
}

// NewAnswer creates a validated, not-yet-accepted Answer.
func NewAnswer(questionID, authorID uuid.UUID, content string) (*Answer, error) {
	a := &Answer{
		ID:         uuid.New(),
		QuestionID: questionID,
		Content:    strings.TrimSpace(content),
		AuthorID:   authorID,
		CreatedAt:  time.Now().UTC(),
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}

	return a, nil
}

// Validate checks that the Answer has valid data.
func (a *Answer) Validate() error {
	if a.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if a.QuestionID == uuid.Nil {
		return NewValidationError("question_id", "cannot be empty", ErrInvalidID)
	}
	if a.AuthorID == uuid.Nil {
		return NewValidationError("author_id", "cannot be empty", ErrInvalidID)
	}
	if a.Content == "" {
		return NewValidationError("content", "cannot be empty", ErrEmptyContent)
	}
	return nil
}
