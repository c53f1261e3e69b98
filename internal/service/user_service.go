package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/service/auth"
	"github.com/phrazzld/answers-api/internal/store"
)

// UserService registers users and exchanges credentials for access tokens.
type UserService interface {
	// Register creates a user with the given credentials.
	Register(ctx context.Context, username, password string) (*domain.User, error)

	// Login checks the credentials and returns an access token for the user.
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}

// UserServiceImpl implements UserService.
type UserServiceImpl struct {
	users  store.UserStore
	hasher auth.PasswordHasher
	tokens auth.JWTService
	logger *slog.Logger
}

var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a UserService.
func NewUserService(
	users store.UserStore,
	hasher auth.PasswordHasher,
	tokens auth.JWTService,
	logger *slog.Logger,
) (*UserServiceImpl, error) {
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if hasher == nil {
		return nil, domain.NewValidationError("hasher", "cannot be nil", domain.ErrValidation)
	}
	if tokens == nil {
		return nil, domain.NewValidationError("tokens", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With(slog.String("component", "user_service")),
	}, nil
}

// Register implements UserService.
func (s *UserServiceImpl) Register(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := domain.NewUser(username, password)
	if err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, NewServiceError("user", "register", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			s.logger.Debug("username already taken", slog.String("username", user.Username))
			return nil, ErrUsernameTaken
		}
		s.logger.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("username", user.Username))
		return nil, translateStoreError("user", "register", err)
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username))
	return user, nil
}

// Login implements UserService. Unknown usernames and wrong passwords are
// indistinguishable to the caller.
func (s *UserServiceImpl) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if store.IsNotFoundError(err) {
			return "", nil, ErrUnauthorized
		}
		return "", nil, translateStoreError("user", "login", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return "", nil, ErrUnauthorized
		}
		return "", nil, NewServiceError("user", "login", err)
	}

	token, err := s.tokens.GenerateToken(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to generate token",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return "", nil, NewServiceError("user", "login", err)
	}

	return token, user, nil
}
