package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/store"
)

// AcceptanceService marks answers as the accepted answer of their question.
type AcceptanceService interface {
	// AcceptAnswer makes answerID the only accepted answer of its question.
	// Only the question author may do this. Accepting the already accepted
	// answer is a no-op.
	AcceptAnswer(ctx context.Context, userID, answerID uuid.UUID) (*domain.Answer, error)
}

// AcceptanceServiceImpl implements AcceptanceService.
type AcceptanceServiceImpl struct {
	questions store.QuestionStore
	answers   store.AnswerStore
	tx        store.Transactor
	ownership OwnershipChecker
	recorder  Recorder
	logger    *slog.Logger
}

var _ AcceptanceService = (*AcceptanceServiceImpl)(nil)

// NewAcceptanceService creates an AcceptanceService.
func NewAcceptanceService(
	questions store.QuestionStore,
	answers store.AnswerStore,
	tx store.Transactor,
	ownership OwnershipChecker,
	recorder Recorder,
	logger *slog.Logger,
) (*AcceptanceServiceImpl, error) {
	if questions == nil {
		return nil, domain.NewValidationError("questions", "cannot be nil", domain.ErrValidation)
	}
	if answers == nil {
		return nil, domain.NewValidationError("answers", "cannot be nil", domain.ErrValidation)
	}
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if ownership == nil {
		return nil, domain.NewValidationError("ownership", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AcceptanceServiceImpl{
		questions: questions,
		answers:   answers,
		tx:        tx,
		ownership: ownership,
		recorder:  recorderOrNop(recorder),
		logger:    logger.With(slog.String("component", "acceptance_service")),
	}, nil
}

// AcceptAnswer implements AcceptanceService.
func (s *AcceptanceServiceImpl) AcceptAnswer(ctx context.Context, userID, answerID uuid.UUID) (*domain.Answer, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	answer, err := s.answers.GetByID(ctx, answerID)
	if err != nil {
		return nil, translateStoreError("acceptance", "accept_answer", err)
	}

	question, err := s.ownership.ParentQuestion(ctx, answer)
	if err != nil {
		return nil, err
	}
	if !s.ownership.IsOwner(question, userID) {
		s.logger.Debug("accept rejected, caller does not own the question",
			slog.String("answer_id", answerID.String()),
			slog.String("question_id", question.ID.String()),
			slog.String("user_id", userID.String()))
		return nil, ErrNotQuestionOwner
	}

	err = s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		// Serializes concurrent accepts on the same question.
		if _, err := s.questions.WithTx(tx).GetByIDForUpdate(ctx, question.ID); err != nil {
			return err
		}

		answers := s.answers.WithTx(tx)
		if err := answers.ClearAccepted(ctx, question.ID); err != nil {
			return err
		}
		return answers.SetAccepted(ctx, answer.ID)
	})
	if err != nil {
		if !store.IsNotFoundError(err) {
			s.logger.Error("failed to accept answer",
				slog.String("error", err.Error()),
				slog.String("answer_id", answerID.String()),
				slog.String("question_id", question.ID.String()))
		}
		return nil, translateStoreError("acceptance", "accept_answer", err)
	}

	answer.Accepted = true
	s.recorder.AnswerAccepted()

	s.logger.Info("answer accepted",
		slog.String("answer_id", answer.ID.String()),
		slog.String("question_id", question.ID.String()))

	return answer, nil
}
