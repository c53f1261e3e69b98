package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/answers-api/internal/platform/postgres"
	"github.com/phrazzld/answers-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "test_table",
		ColumnName:     "test_column",
		ConstraintName: constraint,
	}
}

// mockResult implements sql.Result for testing
type mockResult struct {
	rowsAffected int64
	err          error
}

func (m mockResult) LastInsertId() (int64, error) { return 0, m.err }
func (m mockResult) RowsAffected() (int64, error) { return m.rowsAffected, m.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique violation", newPgError("23505", "users_username_key"), store.ErrDuplicate},
		{"foreign key violation", newPgError("23503", "votes_answer_id_fkey"), store.ErrInvalidEntity},
		{"check violation", newPgError("23514", "votes_kind_check"), store.ErrInvalidEntity},
		{"not null violation", newPgError("23502", ""), store.ErrInvalidEntity},
		{"wrapped pg error", fmt.Errorf("exec: %w", newPgError("23505", "")), store.ErrDuplicate},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := postgres.MapError(tc.err)
			assert.ErrorIs(t, got, tc.wantErr)
		})
	}

	assert.NoError(t, postgres.MapError(nil))

	other := errors.New("connection reset")
	assert.Equal(t, other, postgres.MapError(other), "unmapped errors are returned unchanged")
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.False(t, postgres.IsUniqueViolation(nil))
	assert.False(t, postgres.IsUniqueViolation(errors.New("generic error")))
	assert.True(t, postgres.IsUniqueViolation(newPgError("23505", "")))
	assert.False(t, postgres.IsUniqueViolation(newPgError("23503", "")))
}

func TestIsForeignKeyViolation(t *testing.T) {
	t.Parallel()

	err := newPgError("23503", "answers_question_id_fkey")
	assert.True(t, postgres.IsForeignKeyViolation(err, ""))
	assert.True(t, postgres.IsForeignKeyViolation(err, "answers_question_id_fkey"))
	assert.False(t, postgres.IsForeignKeyViolation(err, "answers_author_id_fkey"))
	assert.False(t, postgres.IsForeignKeyViolation(newPgError("23505", ""), ""))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, postgres.CheckRowsAffected(mockResult{rowsAffected: 1}, nil))
	assert.ErrorIs(t, postgres.CheckRowsAffected(mockResult{}, nil), store.ErrNotFound)
	assert.ErrorIs(t, postgres.CheckRowsAffected(mockResult{}, store.ErrAnswerNotFound), store.ErrAnswerNotFound)
	assert.Error(t, postgres.CheckRowsAffected(nil, nil))
	assert.Error(t, postgres.CheckRowsAffected(mockResult{err: errors.New("boom")}, nil))
}
