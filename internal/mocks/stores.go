package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// UserStore is a testify mock of store.UserStore.
type UserStore struct {
	mock.Mock
}

var _ store.UserStore = (*UserStore)(nil)

// Create is a mock implementation of store.UserStore.Create
func (m *UserStore) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// GetByID is a mock implementation of store.UserStore.GetByID
func (m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// GetByUsername is a mock implementation of store.UserStore.GetByUsername
func (m *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// WithTx returns the mock itself.
func (m *UserStore) WithTx(tx *sql.Tx) store.UserStore {
	return m
}

// VoteStore is a testify mock of store.VoteStore.
type VoteStore struct {
	mock.Mock
}

var _ store.VoteStore = (*VoteStore)(nil)

// Upsert is a mock implementation of store.VoteStore.Upsert
func (m *VoteStore) Upsert(ctx context.Context, v *domain.Vote) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

// Counts is a mock implementation of store.VoteStore.Counts
func (m *VoteStore) Counts(ctx context.Context, answerID uuid.UUID) (domain.VoteCounts, error) {
	args := m.Called(ctx, answerID)
	return args.Get(0).(domain.VoteCounts), args.Error(1)
}

// WithTx returns the mock itself.
func (m *VoteStore) WithTx(tx *sql.Tx) store.VoteStore {
	return m
}
