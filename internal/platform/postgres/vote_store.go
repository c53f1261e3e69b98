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

const votesAnswerFK = "votes_answer_id_fkey"

// PostgresVoteStore implements store.VoteStore on PostgreSQL.
type PostgresVoteStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresVoteStore creates a PostgresVoteStore.
func NewPostgresVoteStore(db store.DBTX, logger *slog.Logger) *PostgresVoteStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresVoteStore{
		db:     db,
		logger: logger.With(slog.String("component", "vote_store")),
	}
}

var _ store.VoteStore = (*PostgresVoteStore)(nil)

// WithTx implements store.VoteStore.WithTx
func (s *PostgresVoteStore) WithTx(tx *sql.Tx) store.VoteStore {
	return &PostgresVoteStore{db: tx, logger: s.logger}
}

// Upsert implements store.VoteStore.Upsert. On return v.ID holds the ID of
// the stored row, which is the original row's ID when an earlier vote was
// overwritten.
func (s *PostgresVoteStore) Upsert(ctx context.Context, v *domain.Vote) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := v.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO votes (id, user_id, answer_id, kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id, answer_id)
		DO UPDATE SET kind = EXCLUDED.kind, updated_at = NOW()
		RETURNING id
	`
	var storedID uuid.UUID
	err := s.db.QueryRowContext(ctx, query, v.ID, v.UserID, v.AnswerID, string(v.Kind)).Scan(&storedID)
	if err != nil {
		if IsForeignKeyViolation(err, votesAnswerFK) {
			log.Debug("vote references missing answer", slog.String("answer_id", v.AnswerID.String()))
			return store.ErrAnswerNotFound
		}
		if IsForeignKeyViolation(err, "") {
			return fmt.Errorf("%w: user with ID %s not found", store.ErrInvalidEntity, v.UserID)
		}
		log.Error("failed to upsert vote",
			slog.String("error", err.Error()),
			slog.String("answer_id", v.AnswerID.String()),
			slog.String("user_id", v.UserID.String()))
		return MapError(err)
	}

	v.ID = storedID
	log.Debug("vote recorded",
		slog.String("vote_id", storedID.String()),
		slog.String("answer_id", v.AnswerID.String()),
		slog.String("kind", string(v.Kind)))
	return nil
}

// Counts implements store.VoteStore.Counts. The answer row is joined so a
// missing answer is reported as not found rather than as zero votes.
func (s *PostgresVoteStore) Counts(ctx context.Context, answerID uuid.UUID) (domain.VoteCounts, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			COUNT(v.id) FILTER (WHERE v.kind = 'up'),
			COUNT(v.id) FILTER (WHERE v.kind = 'down')
		FROM answers a
		LEFT JOIN votes v ON v.answer_id = a.id
		WHERE a.id = $1
		GROUP BY a.id
	`
	var counts domain.VoteCounts
	err := s.db.QueryRowContext(ctx, query, answerID).Scan(&counts.Up, &counts.Down)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.VoteCounts{}, store.ErrAnswerNotFound
		}
		log.Error("failed to count votes",
			slog.String("error", err.Error()),
			slog.String("answer_id", answerID.String()))
		return domain.VoteCounts{}, MapError(err)
	}
	return counts, nil
}
