package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/store"
)

// VoteService records votes and reports vote counts.
type VoteService interface {
	// CastVote records userID's vote on answerID, replacing any earlier vote
	// by the same user, and returns the answer's counts afterwards.
	CastVote(ctx context.Context, userID, answerID uuid.UUID, kind domain.VoteKind) (domain.VoteCounts, error)

	// VoteCounts returns the current counts for answerID.
	VoteCounts(ctx context.Context, answerID uuid.UUID) (domain.VoteCounts, error)
}

// VoteServiceImpl implements VoteService on top of a VoteStore.
type VoteServiceImpl struct {
	votes    store.VoteStore
	recorder Recorder
	logger   *slog.Logger
}

var _ VoteService = (*VoteServiceImpl)(nil)

// NewVoteService creates a VoteService.
func NewVoteService(votes store.VoteStore, recorder Recorder, logger *slog.Logger) (*VoteServiceImpl, error) {
	if votes == nil {
		return nil, domain.NewValidationError("votes", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VoteServiceImpl{
		votes:    votes,
		recorder: recorderOrNop(recorder),
		logger:   logger.With(slog.String("component", "vote_service")),
	}, nil
}

// CastVote implements VoteService.
func (s *VoteServiceImpl) CastVote(
	ctx context.Context,
	userID, answerID uuid.UUID,
	kind domain.VoteKind,
) (domain.VoteCounts, error) {
	if userID == uuid.Nil {
		return domain.VoteCounts{}, ErrUnauthorized
	}

	vote, err := domain.NewVote(userID, answerID, kind)
	if err != nil {
		return domain.VoteCounts{}, err
	}

	// The upsert is a single statement, so concurrent casts by the same user
	// leave exactly one row holding whichever kind was written last.
	if err := s.votes.Upsert(ctx, vote); err != nil {
		if !store.IsNotFoundError(err) {
			s.logger.Error("failed to record vote",
				slog.String("error", err.Error()),
				slog.String("answer_id", answerID.String()),
				slog.String("user_id", userID.String()))
		}
		return domain.VoteCounts{}, translateStoreError("vote", "cast_vote", err)
	}
	s.recorder.VoteCast(kind)

	s.logger.Debug("vote recorded",
		slog.String("answer_id", answerID.String()),
		slog.String("user_id", userID.String()),
		slog.String("kind", string(kind)))

	return s.VoteCounts(ctx, answerID)
}

// VoteCounts implements VoteService.
func (s *VoteServiceImpl) VoteCounts(ctx context.Context, answerID uuid.UUID) (domain.VoteCounts, error) {
	counts, err := s.votes.Counts(ctx, answerID)
	if err != nil {
		return domain.VoteCounts{}, translateStoreError("vote", "vote_counts", err)
	}
	return counts, nil
}
