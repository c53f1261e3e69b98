package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxTitleLength is the longest accepted question title, in characters.
const MaxTitleLength = 200

// Question is a user's request for answers. Its author never changes once
// the question is created.
type Question struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	AuthorID    uuid.UUID `json:"author_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewQuestion creates a validated Question owned by authorID.
// Tags are trimmed, and blank or repeated tags are dropped.
func NewQuestion(authorID uuid.UUID, title, description string, tags []string) (*Question, error) {
	q := &Question{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Tags:        NormalizeTags(tags),
		AuthorID:    authorID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}

	return q, nil
}

// Validate checks that the Question has valid data.
func (q *Question) Validate() error {
	if q.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if q.AuthorID == uuid.Nil {
		return NewValidationError("author_id", "cannot be empty", ErrInvalidID)
	}
	if q.Title == "" {
		return NewValidationError("title", "cannot be empty", ErrEmptyContent)
	}
	if utf8.RuneCountInString(q.Title) > MaxTitleLength {
		return NewValidationError("title", "is too long", ErrValidation)
	}
	if q.Description == "" {
		return NewValidationError("description", "cannot be empty", ErrEmptyContent)
	}
	return nil
}

// IsOwnedBy reports whether userID authored the question.
func (q *Question) IsOwnedBy(userID uuid.UUID) bool {
	return q != nil && userID != uuid.Nil && q.AuthorID == userID
}

// NormalizeTags trims whitespace, drops empty entries and removes
// duplicates while keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
