package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/platform/logger"
	"github.com/phrazzld/answers-api/internal/store"
)

// Tags are read back as JSON so they scan through database/sql without a
// driver-specific array type.
const questionColumns = `q.id, q.title, q.description, to_json(q.tags), q.author_id, q.created_at`

// PostgresQuestionStore implements store.QuestionStore on PostgreSQL.
type PostgresQuestionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuestionStore creates a PostgresQuestionStore.
func NewPostgresQuestionStore(db store.DBTX, logger *slog.Logger) *PostgresQuestionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQuestionStore{
		db:     db,
		logger: logger.With(slog.String("component", "question_store")),
	}
}

var _ store.QuestionStore = (*PostgresQuestionStore)(nil)

// WithTx implements store.QuestionStore.WithTx
func (s *PostgresQuestionStore) WithTx(tx *sql.Tx) store.QuestionStore {
	return &PostgresQuestionStore{db: tx, logger: s.logger}
}

// Create implements store.QuestionStore.Create
func (s *PostgresQuestionStore) Create(ctx context.Context, q *domain.Question) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := q.Validate(); err != nil {
		log.Warn("question validation failed during create",
			slog.String("error", err.Error()),
			slog.String("question_id", q.ID.String()))
		return err
	}

	tags := q.Tags
	if tags == nil {
		tags = []string{}
	}

	query := `
		INSERT INTO questions (id, title, description, tags, author_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query, q.ID, q.Title, q.Description, tags, q.AuthorID, q.CreatedAt)
	if err != nil {
		if IsForeignKeyViolation(err, "") {
			log.Warn("question author does not exist",
				slog.String("question_id", q.ID.String()),
				slog.String("author_id", q.AuthorID.String()))
			return fmt.Errorf("%w: user with ID %s not found", store.ErrInvalidEntity, q.AuthorID)
		}
		log.Error("failed to create question",
			slog.String("error", err.Error()),
			slog.String("question_id", q.ID.String()))
		return MapError(err)
	}

	log.Info("question created successfully",
		slog.String("question_id", q.ID.String()),
		slog.String("author_id", q.AuthorID.String()))
	return nil
}

// GetByID implements store.QuestionStore.GetByID
func (s *PostgresQuestionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	return s.get(ctx, id, false)
}

// GetByIDForUpdate implements store.QuestionStore.GetByIDForUpdate
func (s *PostgresQuestionStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	return s.get(ctx, id, true)
}

func (s *PostgresQuestionStore) get(ctx context.Context, id uuid.UUID, lock bool) (*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + questionColumns + ` FROM questions q WHERE q.id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	q, err := s.scan(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("question not found", slog.String("question_id", id.String()))
			return nil, store.ErrQuestionNotFound
		}
		log.Error("failed to get question",
			slog.String("error", err.Error()),
			slog.String("question_id", id.String()))
		return nil, MapError(err)
	}
	return q, nil
}

// List implements store.QuestionStore.List
func (s *PostgresQuestionStore) List(ctx context.Context, filter store.QuestionFilter) ([]*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + questionColumns + ` FROM questions q`
	if filter.Unanswered {
		query += ` WHERE NOT EXISTS (SELECT 1 FROM answers a WHERE a.question_id = q.id)`
	}
	query += ` ORDER BY q.created_at DESC, q.id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list questions", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	questions := make([]*domain.Question, 0)
	for rows.Next() {
		q, err := s.scan(rows)
		if err != nil {
			log.Error("failed to scan question row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan question row: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating question rows", slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating question rows: %w", err)
	}

	log.Debug("questions listed",
		slog.Int("count", len(questions)),
		slog.Bool("unanswered", filter.Unanswered))
	return questions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresQuestionStore) scan(row rowScanner) (*domain.Question, error) {
	var q domain.Question
	var tags []byte
	if err := row.Scan(
		&q.ID,
		&q.Title,
		&q.Description,
		&tags,
		&q.AuthorID,
		&q.CreatedAt,
	); err != nil {
		return nil, err
	}
	q.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &q.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	return &q, nil
}
