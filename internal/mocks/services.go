package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/service"
)

// MockCatalogService implements service.CatalogService for testing
type MockCatalogService struct {
	CreateQuestionFn func(ctx context.Context, userID uuid.UUID, title, description string, tags []string) (*domain.Question, error)
	GetQuestionFn    func(ctx context.Context, id uuid.UUID) (*service.QuestionDetail, error)
	ListQuestionsFn  func(ctx context.Context, unanswered bool) ([]*domain.Question, error)
	CreateAnswerFn   func(ctx context.Context, userID, questionID uuid.UUID, content string) (*domain.Answer, error)
	ParentQuestionFn func(ctx context.Context, a *domain.Answer) (*domain.Question, error)

	// Default return values
	Question     *domain.Question
	Answer       *domain.Answer
	DefaultError error
}

var _ service.CatalogService = (*MockCatalogService)(nil)

// IsOwner implements service.OwnershipChecker
func (m *MockCatalogService) IsOwner(q *domain.Question, userID uuid.UUID) bool {
	return q != nil && q.IsOwnedBy(userID)
}

// ParentQuestion implements service.OwnershipChecker
func (m *MockCatalogService) ParentQuestion(ctx context.Context, a *domain.Answer) (*domain.Question, error) {
	if m.ParentQuestionFn != nil {
		return m.ParentQuestionFn(ctx, a)
	}
	return m.Question, m.DefaultError
}

// CreateQuestion implements service.CatalogService
func (m *MockCatalogService) CreateQuestion(
	ctx context.Context,
	userID uuid.UUID,
	title, description string,
	tags []string,
) (*domain.Question, error) {
	if m.CreateQuestionFn != nil {
		return m.CreateQuestionFn(ctx, userID, title, description, tags)
	}
	return m.Question, m.DefaultError
}

// GetQuestion implements service.CatalogService
func (m *MockCatalogService) GetQuestion(ctx context.Context, id uuid.UUID) (*service.QuestionDetail, error) {
	if m.GetQuestionFn != nil {
		return m.GetQuestionFn(ctx, id)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return &service.QuestionDetail{Question: m.Question, Answers: []service.AnswerView{}}, nil
}

// ListQuestions implements service.CatalogService
func (m *MockCatalogService) ListQuestions(ctx context.Context, unanswered bool) ([]*domain.Question, error) {
	if m.ListQuestionsFn != nil {
		return m.ListQuestionsFn(ctx, unanswered)
	}
	if m.Question == nil {
		return []*domain.Question{}, m.DefaultError
	}
	return []*domain.Question{m.Question}, m.DefaultError
}

// CreateAnswer implements service.CatalogService
func (m *MockCatalogService) CreateAnswer(
	ctx context.Context,
	userID, questionID uuid.UUID,
	content string,
) (*domain.Answer, error) {
	if m.CreateAnswerFn != nil {
		return m.CreateAnswerFn(ctx, userID, questionID, content)
	}
	return m.Answer, m.DefaultError
}

// MockVoteService implements service.VoteService for testing
type MockVoteService struct {
	CastVoteFn   func(ctx context.Context, userID, answerID uuid.UUID, kind domain.VoteKind) (domain.VoteCounts, error)
	VoteCountsFn func(ctx context.Context, answerID uuid.UUID) (domain.VoteCounts, error)

	Counts       domain.VoteCounts
	DefaultError error
}

var _ service.VoteService = (*MockVoteService)(nil)

// CastVote implements service.VoteService
func (m *MockVoteService) CastVote(
	ctx context.Context,
	userID, answerID uuid.UUID,
	kind domain.VoteKind,
) (domain.VoteCounts, error) {
	if m.CastVoteFn != nil {
		return m.CastVoteFn(ctx, userID, answerID, kind)
	}
	return m.Counts, m.DefaultError
}

// VoteCounts implements service.VoteService
func (m *MockVoteService) VoteCounts(ctx context.Context, answerID uuid.UUID) (domain.VoteCounts, error) {
	if m.VoteCountsFn != nil {
		return m.VoteCountsFn(ctx, answerID)
	}
	return m.Counts, m.DefaultError
}

// MockAcceptanceService implements service.AcceptanceService for testing
type MockAcceptanceService struct {
	AcceptAnswerFn func(ctx context.Context, userID, answerID uuid.UUID) (*domain.Answer, error)

	Answer       *domain.Answer
	DefaultError error
}

var _ service.AcceptanceService = (*MockAcceptanceService)(nil)

// AcceptAnswer implements service.AcceptanceService
func (m *MockAcceptanceService) AcceptAnswer(ctx context.Context, userID, answerID uuid.UUID) (*domain.Answer, error) {
	if m.AcceptAnswerFn != nil {
		return m.AcceptAnswerFn(ctx, userID, answerID)
	}
	return m.Answer, m.DefaultError
}

// MockNotificationService implements service.NotificationService for testing
type MockNotificationService struct {
	ListNotificationsFn func(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)
	MarkReadFn          func(ctx context.Context, userID, notificationID uuid.UUID) error

	Notifications []*domain.Notification
	DefaultError  error
}

var _ service.NotificationService = (*MockNotificationService)(nil)

// ListNotifications implements service.NotificationService
func (m *MockNotificationService) ListNotifications(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	if m.ListNotificationsFn != nil {
		return m.ListNotificationsFn(ctx, userID)
	}
	return m.Notifications, m.DefaultError
}

// MarkRead implements service.NotificationService
func (m *MockNotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if m.MarkReadFn != nil {
		return m.MarkReadFn(ctx, userID, notificationID)
	}
	return m.DefaultError
}

// MockUserService implements service.UserService for testing
type MockUserService struct {
	RegisterFn func(ctx context.Context, username, password string) (*domain.User, error)
	LoginFn    func(ctx context.Context, username, password string) (string, *domain.User, error)

	User         *domain.User
	Token        string
	DefaultError error
}

var _ service.UserService = (*MockUserService)(nil)

// Register implements service.UserService
func (m *MockUserService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if m.RegisterFn != nil {
		return m.RegisterFn(ctx, username, password)
	}
	return m.User, m.DefaultError
}

// Login implements service.UserService
func (m *MockUserService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, username, password)
	}
	return m.Token, m.User, m.DefaultError
}
