package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/snake-arena/internal/auth"
	"github.com/snake-arena/internal/domain"
)

// UserStore is the identity store capability the services need.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User, passwordHash string) error
	UserByID(ctx context.Context, id string) (*domain.User, error)
	UserByEmail(ctx context.Context, email string) (*domain.User, string, error)
	UserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// AuthService implements signup, login and bearer-token resolution.
type AuthService struct {
	users  UserStore
	tokens *auth.TokenIssuer
	logger *slog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, tokens *auth.TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// SignUp registers a new user and issues its first token. Email and
// username are checked for uniqueness up front; the store's unique
// constraints catch the remaining race window.
func (s *AuthService) SignUp(ctx context.Context, req domain.SignUpRequest) (*domain.AuthResponse, error) {
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)

	if _, _, err := s.users.UserByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	if _, err := s.users.UserByUsername(ctx, username); err == nil {
		return nil, domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("checking username: %w", err)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := domain.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     email,
		HighScore: 0,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user, passwordHash); err != nil {
		if domain.IsConflict(err) {
			return nil, err
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user signed up", "user_id", user.ID, "username", user.Username)

	return &domain.AuthResponse{User: user, Token: token}, nil
}

// LogIn verifies credentials and issues a token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) LogIn(ctx context.Context, req domain.LogInRequest) (*domain.AuthResponse, error) {
	user, passwordHash, err := s.users.UserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if !auth.VerifyPassword(req.Password, passwordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	return &domain.AuthResponse{User: *user, Token: token}, nil
}

// UserFromToken resolves a bearer token to the user it was issued for.
// A validly signed token whose user no longer exists is still
// unauthorized.
func (s *AuthService) UserFromToken(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.tokens.Resolve(token)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return user, nil
}
