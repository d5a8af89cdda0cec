package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dex-scalp-assistant/internal/database"
)

// UserStore is the subset of the repository the auth service needs
type UserStore interface {
	CreateUser(ctx context.Context, user *database.User) error
	GetUserByEmail(ctx context.Context, email string) (*database.User, error)
}

// Service implements registration and login
type Service struct {
	users      UserStore
	passwords  *PasswordManager
	jwtManager *JWTManager
	logger     zerolog.Logger
}

// NewService creates a new auth service
func NewService(users UserStore, passwords *PasswordManager, jwtManager *JWTManager, logger zerolog.Logger) *Service {
	return &Service{
		users:      users,
		passwords:  passwords,
		jwtManager: jwtManager,
		logger:     logger.With().Str("component", "auth").Logger(),
	}
}

// Register creates a new user and returns an access token
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.passwords.ValidatePasswordStrength(req.Password); err != nil {
		return nil, AuthError{Code: ErrWeakPassword.Code, Message: err.Error()}
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &database.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("User registered")

	return s.issueToken(user)
}

// Login verifies credentials and returns an access token
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !s.passwords.VerifyPassword(req.Password, user.PasswordHash) {
		s.logger.Warn().Str("user_id", user.ID.String()).Msg("Failed login attempt")
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *Service) issueToken(user *database.User) (*TokenResponse, error) {
	token, err := s.jwtManager.GenerateAccessToken(UserClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
	})
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   s.jwtManager.GetAccessTokenDuration(),
		UserID:      user.ID.String(),
		Email:       user.Email,
	}, nil
}
