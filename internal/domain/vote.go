package domain

import (
	"github.com/google/uuid"
)

// VoteKind is the direction of a vote.
type VoteKind string

// Vote kinds
const (
	VoteUp   VoteKind = "up"
	VoteDown VoteKind = "down"
)

// Valid reports whether k is a known vote kind.
func (k VoteKind) Valid() bool {
	return k == VoteUp || k == VoteDown
}

// ParseVoteKind converts s to a VoteKind.
func ParseVoteKind(s string) (VoteKind, error) {
	k := VoteKind(s)
	if !k.Valid() {
		return "", NewValidationError("kind", "must be up or down", ErrInvalidVoteKind)
	}
	return k, nil
}

// Vote is one user's opinion of one answer. The pair (UserID, AnswerID) is
// unique: voting again replaces Kind instead of adding a row.
type Vote struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	AnswerID uuid.UUID `json:"answer_id"`
	Kind     VoteKind  `json:"kind"`
}

// NewVote creates a validated Vote.
func NewVote(userID, answerID uuid.UUID, kind VoteKind) (*Vote, error) {
	v := &Vote{
		ID:       uuid.New(),
		UserID:   userID,
		AnswerID: answerID,
		Kind:     kind,
	}

	if err := v.Validate(); err != nil {
		return nil, err
	}

	return v, nil
}

// Validate checks that the Vote has valid data.
func (v *Vote) Validate() error {
	if v.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if v.UserID == uuid.Nil {
		return NewValidationError("user_id", "cannot be empty", ErrInvalidID)
	}
	if v.AnswerID == uuid.Nil {
		return NewValidationError("answer_id", "cannot be empty", ErrInvalidID)
	}
	if !v.Kind.Valid() {
		return NewValidationError("kind", "must be up or down", ErrInvalidVoteKind)
	}
	return nil
}

// VoteCounts is the tally of votes on an answer, computed from vote rows on
// every read.
type VoteCounts struct {
	Up   int `json:"up"`
	Down int `json:"down"`
}

// Score is up votes minus down votes.
func (c VoteCounts) Score() int {
	return c.Up - c.Down
}
