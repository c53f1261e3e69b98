package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/store"
)

// AnswerListener is told about every new answer. AnswerCreating runs inside
// the creating transaction and must not fail it. OnAnswerCreated runs once,
// after the transaction committed.
type AnswerListener interface {
	AnswerCreating(ctx context.Context, tx *sql.Tx, answer *domain.Answer)
	OnAnswerCreated(ctx context.Context, answer *domain.Answer)
}

// AnswerView is an answer together with its current vote counts.
type AnswerView struct {
	*domain.Answer
	Votes domain.VoteCounts `json:"vote_count"`
}

// QuestionDetail is a question together with all of its answers.
type QuestionDetail struct {
	*domain.Question
	Answers []AnswerView `json:"answers"`
}

// CatalogService manages questions and answers.
type CatalogService interface {
	OwnershipChecker

	// CreateQuestion stores a new question authored by userID.
	CreateQuestion(ctx context.Context, userID uuid.UUID, title, description string, tags []string) (*domain.Question, error)

	// GetQuestion returns the question with its answers and their vote counts.
	GetQuestion(ctx context.Context, id uuid.UUID) (*QuestionDetail, error)

	// ListQuestions returns questions newest first. With unanswered set only
	// questions without any answer are returned.
	ListQuestions(ctx context.Context, unanswered bool) ([]*domain.Question, error)

	// CreateAnswer stores a new answer and, once stored, hands it to the
	// answer listener.
	CreateAnswer(ctx context.Context, userID, questionID uuid.UUID, content string) (*domain.Answer, error)
}

// CatalogServiceImpl implements CatalogService.
type CatalogServiceImpl struct {
	questions store.QuestionStore
	answers   store.AnswerStore
	votes     store.VoteStore
	tx        store.Transactor
	ownership OwnershipChecker
	listener  AnswerListener
	logger    *slog.Logger
}

var _ CatalogService = (*CatalogServiceImpl)(nil)

// NewCatalogService creates a CatalogService. listener may be nil, in which
// case nobody is told about new answers.
func NewCatalogService(
	questions store.QuestionStore,
	answers store.AnswerStore,
	votes store.VoteStore,
	tx store.Transactor,
	listener AnswerListener,
	logger *slog.Logger,
) (*CatalogServiceImpl, error) {
	if questions == nil {
		return nil, domain.NewValidationError("questions", "cannot be nil", domain.ErrValidation)
	}
	if answers == nil {
		return nil, domain.NewValidationError("answers", "cannot be nil", domain.ErrValidation)
	}
	if votes == nil {
		return nil, domain.NewValidationError("votes", "cannot be nil", domain.ErrValidation)
	}
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CatalogServiceImpl{
		questions: questions,
		answers:   answers,
		votes:     votes,
		tx:        tx,
		ownership: NewOwnership(questions),
		listener:  listener,
		logger:    logger.With(slog.String("component", "catalog_service")),
	}, nil
}

// IsOwner implements OwnershipChecker.
func (s *CatalogServiceImpl) IsOwner(q *domain.Question, userID uuid.UUID) bool {
	return s.ownership.IsOwner(q, userID)
}

// ParentQuestion implements OwnershipChecker.
func (s *CatalogServiceImpl) ParentQuestion(ctx context.Context, a *domain.Answer) (*domain.Question, error) {
	return s.ownership.ParentQuestion(ctx, a)
}

// CreateQuestion implements CatalogService.
func (s *CatalogServiceImpl) CreateQuestion(
	ctx context.Context,
	userID uuid.UUID,
	title, description string,
	tags []string,
) (*domain.Question, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	q, err := domain.NewQuestion(userID, title, description, tags)
	if err != nil {
		return nil, err
	}

	if err := s.questions.Create(ctx, q); err != nil {
		s.logger.Error("failed to create question",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, translateStoreError("catalog", "create_question", err)
	}

	s.logger.Info("question created",
		slog.String("question_id", q.ID.String()),
		slog.String("user_id", userID.String()))
	return q, nil
}

// GetQuestion implements CatalogService.
func (s *CatalogServiceImpl) GetQuestion(ctx context.Context, id uuid.UUID) (*QuestionDetail, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreError("catalog", "get_question", err)
	}

	answers, err := s.answers.ListByQuestion(ctx, id)
	if err != nil {
		return nil, translateStoreError("catalog", "get_question", err)
	}

	detail := &QuestionDetail{Question: q, Answers: make([]AnswerView, 0, len(answers))}
	for _, a := range answers {
		counts, err := s.votes.Counts(ctx, a.ID)
		if err != nil {
			// Deleted between the two reads.
			if store.IsNotFoundError(err) {
				continue
			}
			return nil, translateStoreError("catalog", "get_question", err)
		}
		detail.Answers = append(detail.Answers, AnswerView{Answer: a, Votes: counts})
	}

	return detail, nil
}

// ListQuestions implements CatalogService.
func (s *CatalogServiceImpl) ListQuestions(ctx context.Context, unanswered bool) ([]*domain.Question, error) {
	questions, err := s.questions.List(ctx, store.QuestionFilter{Unanswered: unanswered})
	if err != nil {
		return nil, translateStoreError("catalog", "list_questions", err)
	}
	return questions, nil
}

// CreateAnswer implements CatalogService.
func (s *CatalogServiceImpl) CreateAnswer(
	ctx context.Context,
	userID, questionID uuid.UUID,
	content string,
) (*domain.Answer, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	answer, err := domain.NewAnswer(questionID, userID, content)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := s.questions.WithTx(tx).GetByID(ctx, questionID); err != nil {
			return err
		}
		if err := s.answers.WithTx(tx).Create(ctx, answer); err != nil {
			return err
		}
		if s.listener != nil {
			s.listener.AnswerCreating(ctx, tx, answer)
		}
		return nil
	})
	if err != nil {
		if !store.IsNotFoundError(err) {
			s.logger.Error("failed to create answer",
				slog.String("error", err.Error()),
				slog.String("question_id", questionID.String()),
				slog.String("user_id", userID.String()))
		}
		return nil, translateStoreError("catalog", "create_answer", err)
	}

	s.logger.Info("answer created",
		slog.String("answer_id", answer.ID.String()),
		slog.String("question_id", questionID.String()))

	if s.listener != nil {
		s.listener.OnAnswerCreated(context.WithoutCancel(ctx), answer)
	}

	return answer, nil
}
