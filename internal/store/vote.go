package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
)

// VoteStore defines the interface for vote persistence.
type VoteStore interface {
	// Upsert records v, replacing the kind of any existing vote by the same
	// user on the same answer. The write is a single atomic statement, so
	// concurrent votes by one user never produce two rows.
	// Returns ErrAnswerNotFound if the answer does not exist.
	Upsert(ctx context.Context, v *domain.Vote) error

	// Counts tallies the votes on answerID from the stored rows.
	Counts(ctx context.Context, answerID uuid.UUID) (domain.VoteCounts, error)

	// WithTx returns a VoteStore bound to tx.
	WithTx(tx *sql.Tx) VoteStore
}
