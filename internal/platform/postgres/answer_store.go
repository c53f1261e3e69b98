package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/platform/logger"
	"github.com/phrazzld/answers-api/internal/store"
)

const (
	answerColumns = `id, question_id, content, author_id, accepted, created_at`

	answersQuestionFK = "answers_question_id_fkey"
)

// PostgresAnswerStore implements store.AnswerStore on PostgreSQL.
type PostgresAnswerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAnswerStore creates a PostgresAnswerStore.
func NewPostgresAnswerStore(db store.DBTX, logger *slog.Logger) *PostgresAnswerStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAnswerStore{
		db:     db,
		logger: logger.With(slog.String("component", "answer_store")),
	}
}

var _ store.AnswerStore = (*PostgresAnswerStore)(nil)

// WithTx implements store.AnswerStore.WithTx
func (s *PostgresAnswerStore) WithTx(tx *sql.Tx) store.AnswerStore {
	return &PostgresAnswerStore{db: tx, logger: s.logger}
}

// Create implements store.AnswerStore.Create
func (s *PostgresAnswerStore) Create(ctx context.Context, a *domain.Answer) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := a.Validate(); err != nil {
		log.Warn("answer validation failed during create",
			slog.String("error", err.Error()),
			slog.String("answer_id", a.ID.String()))
		return err
	}

	query := `
		INSERT INTO answers (id, question_id, content, author_id, accepted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query, a.ID, a.QuestionID, a.Content, a.AuthorID, a.Accepted, a.CreatedAt)
	if err != nil {
		if IsForeignKeyViolation(err, answersQuestionFK) {
			log.Debug("answer references missing question",
				slog.String("question_id", a.QuestionID.String()))
			return store.ErrQuestionNotFound
		}
		if IsForeignKeyViolation(err, "") {
			return fmt.Errorf("%w: user with ID %s not found", store.ErrInvalidEntity, a.AuthorID)
		}
		log.Error("failed to create answer",
			slog.String("error", err.Error()),
			slog.String("answer_id", a.ID.String()))
		return MapError(err)
	}

	log.Info("answer created successfully",
		slog.String("answer_id", a.ID.String()),
		slog.String("question_id", a.QuestionID.String()))
	return nil
}

// GetByID implements store.AnswerStore.GetByID
func (s *PostgresAnswerStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Answer, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + answerColumns + ` FROM answers WHERE id = $1`

	a, err := scanAnswer(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("answer not found", slog.String("answer_id", id.String()))
			return nil, store.ErrAnswerNotFound
		}
		log.Error("failed to get answer",
			slog.String("error", err.Error()),
			slog.String("answer_id", id.String()))
		return nil, MapError(err)
	}
	return a, nil
}

// ListByQuestion implements store.AnswerStore.ListByQuestion
func (s *PostgresAnswerStore) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]*domain.Answer, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + answerColumns + ` FROM answers WHERE question_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, questionID)
	if err != nil {
		log.Error("failed to list answers",
			slog.String("error", err.Error()),
			slog.String("question_id", questionID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	answers := make([]*domain.Answer, 0)
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer row: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating answer rows: %w", err)
	}
	return answers, nil
}

// ClearAccepted implements store.AnswerStore.ClearAccepted
func (s *PostgresAnswerStore) ClearAccepted(ctx context.Context, questionID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE answers SET accepted = FALSE WHERE question_id = $1 AND accepted`
	result, err := s.db.ExecContext(ctx, query, questionID)
	if err != nil {
		log.Error("failed to clear accepted answer",
			slog.String("error", err.Error()),
			slog.String("question_id", questionID.String()))
		return MapError(err)
	}

	if n, err := result.RowsAffected(); err == nil && n > 0 {
		log.Debug("cleared accepted answer", slog.String("question_id", questionID.String()))
	}
	return nil
}

// SetAccepted implements store.AnswerStore.SetAccepted
func (s *PostgresAnswerStore) SetAccepted(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE answers SET accepted = TRUE WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Error("another answer is already accepted", slog.String("answer_id", id.String()))
			return store.NewStoreError("answer", "accept", "another answer is already accepted", store.ErrDuplicate)
		}
		log.Error("failed to accept answer",
			slog.String("error", err.Error()),
			slog.String("answer_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrAnswerNotFound)
}

func scanAnswer(row rowScanner) (*domain.Answer, error) {
	var a domain.Answer
	if err := row.Scan(
		&a.ID,
		&a.QuestionID,
		&a.Content,
		&a.AuthorID,
		&a.Accepted,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
